package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// printer writes command status lines, colored when w is a terminal.
type printer struct {
	w    io.Writer
	good *color.Color
	bad  *color.Color
	dim  *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		w:    w,
		good: color.New(color.FgGreen),
		bad:  color.New(color.FgRed),
		dim:  color.New(color.Faint),
	}

	colorful := false
	if f, ok := w.(*os.File); ok {
		colorful = isatty.IsTerminal(f.Fd())
	}
	for _, c := range []*color.Color{p.good, p.bad, p.dim} {
		if colorful {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

func (p *printer) ok(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.good.Sprint("ok  "), fmt.Sprintf(format, args...))
}

func (p *printer) fail(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.bad.Sprint("FAIL"), fmt.Sprintf(format, args...))
}

func (p *printer) note(format string, args ...any) {
	fmt.Fprintf(p.w, "     %s\n", p.dim.Sprintf(format, args...))
}

// diff prints got against want, marking removed text [-like this-] and added text {+like this+}.
func (p *printer) diff(want, got string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))

	var b strings.Builder
	for _, d := range diffs {
		text := strings.ReplaceAll(d.Text, "\t", " ")
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(text)
		case diffmatchpatch.DiffDelete:
			b.WriteString(p.bad.Sprintf("[-%s-]", text))
		case diffmatchpatch.DiffInsert:
			b.WriteString(p.good.Sprintf("{+%s+}", text))
		}
	}

	fmt.Fprintf(p.w, "     %s\n", b.String())
}

func byteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
