package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/scott-cotton/cli"

	"github.com/teenjuna/idxsparse"
	"github.com/teenjuna/idxsparse/retry"
)

type convertConfig struct {
	*cli.Command
	split splitFlags

	Out     string `cli:"name=o desc='output file, only with a single split'"`
	Format  string `cli:"name=format desc='output encoding: json, msgp or sparse' default=sparse"`
	SQLite  string `cli:"name=sqlite desc='store batches in this SQLite database instead of files'"`
	Batch   int    `cli:"name=batch desc='samples encoded and written together' default=1000"`
	Retries int    `cli:"name=retries desc='times a failed batch write is retried'"`
	Metrics string `cli:"name=metrics desc='write Prometheus metrics in text format to this file'"`
	Gops    bool   `cli:"name=gops desc='start a gops agent while converting'"`
}

// ConvertCommand returns the convert subcommand.
func ConvertCommand() *cli.Command {
	cfg := &convertConfig{
		split:  splitFlags{Dir: "."},
		Format: "sparse",
		Batch:  idxsparse.DefaultBatchSize,
	}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	splitOpts, err := cli.StructOpts(&cfg.split)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Command, "convert").
		WithAliases("c").
		WithSynopsis("convert [-dir d] [-train | -all] [-images f -labels f -o out] [opts]").
		WithDescription("convert IDX archives to sparse text, JSON lines or MessagePack files or to SQLite").
		WithOpts(append(splitOpts, opts...)...).
		WithRun(cfg.run)
}

func (cfg *convertConfig) run(cc *cli.Context, args []string) (err error) {
	args, err = cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}
	if cfg.Batch < 1 {
		return fmt.Errorf("%w: -batch must be at least 1", cli.ErrUsage)
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("%w: -retries can't be negative", cli.ErrUsage)
	}

	codec, err := idxsparse.CodecByName(cfg.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}

	splits, err := cfg.split.splits(cfg.Out, cfg.Format)
	if err != nil {
		return err
	}

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			fmt.Fprintf(cc.Out, "gops agent failed: %v\n", err)
		}
		defer agent.Close()
	}

	ctx, stop := signalContext(cc)
	defer stop()

	registry := prometheus.NewRegistry()
	conv := idxsparse.New(
		func(c *idxsparse.Config) { c.Codec(codec) },
		func(c *idxsparse.Config) { c.BatchSize(cfg.Batch) },
		func(c *idxsparse.Config) { c.Logger(newLogger(cfg.split.Verbose)) },
		func(c *idxsparse.Config) { c.Prometheus(idxsparse.Prometheus(registry)) },
		func(c *idxsparse.Config) { c.VerifyChecksums(cfg.split.Checksum) },
		func(c *idxsparse.Config) {
			c.WriteRetry(retry.Exponential(cfg.Retries+1, 50*time.Millisecond, 2*time.Second))
		},
	)

	open := openFile
	target := func(split idxsparse.Split) string { return split.Output }
	if cfg.SQLite != "" {
		sink, serr := idxsparse.OpenSQLite(cfg.SQLite)
		if serr != nil {
			return serr
		}
		defer func() {
			err = errors.Join(err, sink.Close())
		}()

		open = func(idxsparse.Split) (idxsparse.Sink, func() error, error) {
			return sink, nil, nil
		}
		target = func(idxsparse.Split) string { return cfg.SQLite }
	}

	results, err := conv.ConvertAll(ctx, splits, open)
	if cfg.Metrics != "" {
		if werr := prometheus.WriteToTextfile(cfg.Metrics, registry); werr != nil {
			err = errors.Join(err, fmt.Errorf("write metrics: %w", werr))
		}
	}

	p := newPrinter(cc.Out)
	if err != nil {
		p.fail("conversion failed")
		return err
	}
	for i, res := range results {
		p.ok(
			"%s: %d samples in %d batches -> %s (%s, %s)",
			res.Split, res.Samples, res.Batches, target(splits[i]), byteSize(res.Bytes), round(res.Duration),
		)
	}

	return nil
}

func openFile(split idxsparse.Split) (idxsparse.Sink, func() error, error) {
	sink, err := idxsparse.CreateFile(split.Output)
	if err != nil {
		return nil, nil, err
	}
	return sink, sink.Close, nil
}
