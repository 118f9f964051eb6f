package commands

import (
	"errors"
	"fmt"
	"iter"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/teenjuna/idxsparse"
)

type verifyConfig struct {
	*cli.Command
	split splitFlags

	Out    string `cli:"name=o desc='converted file, only with a single split'"`
	Format string `cli:"name=format desc='encoding of the converted output: json, msgp or sparse' default=sparse"`
	SQLite string `cli:"name=sqlite desc='verify the batches stored in this SQLite database'"`
}

// VerifyCommand returns the verify subcommand.
func VerifyCommand() *cli.Command {
	cfg := &verifyConfig{
		split:  splitFlags{Dir: "."},
		Format: "sparse",
	}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	splitOpts, err := cli.StructOpts(&cfg.split)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Command, "verify").
		WithSynopsis("verify [-dir d] [-train | -all] [-images f -labels f -o out] [opts]").
		WithDescription("decode converted output and compare it with the archives sample by sample").
		WithOpts(append(splitOpts, opts...)...).
		WithRun(cfg.run)
}

func (cfg *verifyConfig) run(cc *cli.Context, args []string) (err error) {
	args, err = cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}

	codec, err := idxsparse.CodecByName(cfg.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}

	splits, err := cfg.split.splits(cfg.Out, cfg.Format)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cc)
	defer stop()

	conv := idxsparse.New(
		func(c *idxsparse.Config) { c.Codec(codec) },
		func(c *idxsparse.Config) { c.Logger(newLogger(cfg.split.Verbose)) },
		func(c *idxsparse.Config) { c.VerifyChecksums(cfg.split.Checksum) },
	)

	output := readFile
	if cfg.SQLite != "" {
		sink, serr := idxsparse.OpenSQLite(cfg.SQLite)
		if serr != nil {
			return serr
		}
		defer func() {
			err = errors.Join(err, sink.Close())
		}()
		output = readBatches(sink)
	}

	p := newPrinter(cc.Out)
	failed := false
	for _, split := range splits {
		chunks, err := output(split)
		if err != nil {
			return err
		}

		n, err := conv.Verify(ctx, split, chunks)
		var mismatch *idxsparse.MismatchError
		switch {
		case errors.As(err, &mismatch):
			failed = true
			p.fail("%s: sample %d differs", split.Name, mismatch.Sample)
			p.diff(mismatch.Want, mismatch.Got)
		case errors.Is(err, idxsparse.ErrVerifyMismatch):
			failed = true
			p.fail("%s: %v", split.Name, err)
		case err != nil:
			return fmt.Errorf("verify %s: %w", split.Name, err)
		default:
			p.ok("%s: %d samples match", split.Name, n)
		}
	}

	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func readFile(split idxsparse.Split) (iter.Seq[[]byte], error) {
	data, err := os.ReadFile(split.Output)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return func(yield func([]byte) bool) {
		yield(data)
	}, nil
}

func readBatches(sink *idxsparse.SQLiteSink) func(idxsparse.Split) (iter.Seq[[]byte], error) {
	return func(split idxsparse.Split) (iter.Seq[[]byte], error) {
		batches, err := sink.Batches(split.Name)
		if err != nil {
			return nil, fmt.Errorf("read batches: %w", err)
		}
		return func(yield func([]byte) bool) {
			for _, b := range batches {
				if !yield(b.Data) {
					return
				}
			}
		}, nil
	}
}
