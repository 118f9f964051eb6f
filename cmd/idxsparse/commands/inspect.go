package commands

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"

	"github.com/teenjuna/idxsparse"
	"github.com/teenjuna/idxsparse/archive"
	"github.com/teenjuna/idxsparse/idx"
)

type inspectConfig struct {
	*cli.Command

	YAML bool `cli:"name=yaml desc='print a YAML report'"`
}

// InspectCommand returns the inspect subcommand.
func InspectCommand() *cli.Command {
	cfg := &inspectConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "inspect").
		WithAliases("i").
		WithSynopsis("inspect [-yaml] files").
		WithDescription("decompress IDX archives and show their headers and digests").
		WithOpts(opts...).
		WithRun(cfg.run)
}

// report describes one inspected archive.
type report struct {
	File  string `yaml:"file"`
	Kind  string `yaml:"kind,omitempty"`
	Count int    `yaml:"count"`
	Rows  int    `yaml:"rows,omitempty"`
	Cols  int    `yaml:"cols,omitempty"`
	// Bytes is the decompressed size.
	Bytes int `yaml:"bytes"`
	// Complete reports whether the payload holds every declared record.
	Complete bool   `yaml:"complete"`
	Digest   string `yaml:"sha256,omitempty"`
	// Published names the distribution file with the same digest.
	Published string `yaml:"published,omitempty"`
	Error     string `yaml:"error,omitempty"`
}

var published = map[string]string{
	idxsparse.TestImagesDigest:  idxsparse.TestImagesFile,
	idxsparse.TestLabelsDigest:  idxsparse.TestLabelsFile,
	idxsparse.TrainImagesDigest: idxsparse.TrainImagesFile,
	idxsparse.TrainLabelsDigest: idxsparse.TrainLabelsFile,
}

func (cfg *inspectConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: inspect needs at least one archive", cli.ErrUsage)
	}

	reports := make([]report, len(args))
	failed := false
	for i, file := range args {
		reports[i] = inspect(file)
		failed = failed || reports[i].Error != "" || !reports[i].Complete
	}

	if cfg.YAML {
		out, err := yaml.Marshal(reports)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if _, err := cc.Out.Write(out); err != nil {
			return err
		}
	} else {
		printReports(newPrinter(cc.Out), reports)
	}

	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func inspect(file string) report {
	r := report{File: file}

	digest, err := archive.Digest(file)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Digest = digest
	r.Published = published[digest]

	data, err := archive.Decompress(file)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Bytes = len(data)

	h, err := idx.ParseHeader(data)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Count = h.Count

	switch h.Magic {
	case idx.LabelsMagic:
		r.Kind = "labels"
		r.Complete = len(data)-idx.LabelsHeaderSize >= h.Count
	case idx.ImagesMagic:
		r.Kind = "images"
		r.Rows, r.Cols = h.Rows, h.Cols
		r.Complete = uint64(len(data)-idx.ImagesHeaderSize) == uint64(h.Count)*uint64(h.Rows)*uint64(h.Cols)
	}

	return r
}

func printReports(p *printer, reports []report) {
	for _, r := range reports {
		switch {
		case r.Error != "":
			p.fail("%s: %s", r.File, r.Error)
			continue
		case !r.Complete:
			p.fail("%s: payload of %s records is short (%s)", r.File, r.Kind, byteSize(int64(r.Bytes)))
		case r.Kind == "images":
			p.ok("%s: %d images of %dx%d (%s)", r.File, r.Count, r.Rows, r.Cols, byteSize(int64(r.Bytes)))
		default:
			p.ok("%s: %d labels (%s)", r.File, r.Count, byteSize(int64(r.Bytes)))
		}

		if r.Published != "" {
			p.note("sha256 %s, published as %s", r.Digest, r.Published)
		} else {
			p.note("sha256 %s", r.Digest)
		}
	}
}
