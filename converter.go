package idxsparse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teenjuna/idxsparse/archive"
	"github.com/teenjuna/idxsparse/codec"
	"github.com/teenjuna/idxsparse/idx"
	"github.com/teenjuna/idxsparse/retry"
)

var (
	// ErrChecksumMismatch is returned when an archive doesn't have the digest its split expects.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")
	// ErrVerifyMismatch is returned by [Converter.Verify] when converted output doesn't decode
	// back to the dataset.
	ErrVerifyMismatch = errors.New("output differs from dataset")
)

// MismatchError describes the first sample of converted output that differs from the dataset.
// It matches [ErrVerifyMismatch].
type MismatchError struct {
	Sample int
	// Want and Got are the sparse lines of the dataset sample and of the decoded one.
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: sample %d", ErrVerifyMismatch, e.Sample)
}

func (e *MismatchError) Unwrap() error {
	return ErrVerifyMismatch
}

// Converter turns MNIST archive pairs into encoded samples written to a [Sink].
//
// A Converter is safe for concurrent use; each conversion works on its own codec.
type Converter struct {
	cfg     *Config
	metrics *metrics
}

func New(configFuncs ...ConfigFunc) *Converter {
	cfg := newConfig(configFuncs...)
	return &Converter{
		cfg:     cfg,
		metrics: cfg.prometheus.metrics(),
	}
}

// Result describes a finished conversion.
type Result struct {
	Split string
	// Samples is the number of samples written.
	Samples int
	// Batches is the number of batches written.
	Batches int
	// Pixels is the number of non-zero pixels encoded.
	Pixels int
	// Bytes is the number of encoded bytes written.
	Bytes    int64
	Duration time.Duration
}

// Load verifies the split's archive digests if configured, decompresses both archives and
// decodes them.
func (c *Converter) Load(ctx context.Context, split Split) (*idx.Dataset, error) {
	return c.load(ctx, split, c.cfg.logger.With("split", split.Name))
}

// Convert writes every sample of split to sink in order, in batches encoded by the configured
// codec. It stops at the first error, after which the sink may hold a part of the output.
func (c *Converter) Convert(ctx context.Context, split Split, sink Sink) (*Result, error) {
	return c.convert(ctx, split, sink, c.cfg.codec.Derive())
}

// ConvertAll converts each split in its own goroutine. The open function returns the sink of a
// split and a function closing it, which may be nil. The first failure cancels the other
// conversions. Results are in the order of splits.
func (c *Converter) ConvertAll(
	ctx context.Context,
	splits []Split,
	open func(split Split) (Sink, func() error, error),
) ([]*Result, error) {
	results := make([]*Result, len(splits))
	group, ctx := errgroup.WithContext(ctx)

	for i, split := range splits {
		group.Go(func() (err error) {
			sink, closeSink, err := open(split)
			if err != nil {
				c.metrics.failures.WithLabelValues("sink").Inc()
				c.cfg.logger.Error("sink open failed", "split", split.Name, "error", err)
				return fmt.Errorf("open sink of %s: %w", split.Name, err)
			}
			if closeSink != nil {
				defer func() {
					if cerr := closeSink(); cerr != nil {
						err = errors.Join(err, fmt.Errorf("close sink of %s: %w", split.Name, cerr))
					}
				}()
			}

			res, err := c.convert(ctx, split, sink, c.cfg.codec.Derive())
			if err != nil {
				return fmt.Errorf("convert %s: %w", split.Name, err)
			}
			results[i] = res

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Verify decodes the encoded output of split, given as a sequence of chunks each holding whole
// samples, and checks it against the dataset sample by sample. It returns the number of
// samples checked.
func (c *Converter) Verify(ctx context.Context, split Split, encoded iter.Seq[[]byte]) (int, error) {
	dataset, err := c.Load(ctx, split)
	if err != nil {
		return 0, err
	}

	var (
		decoder  = c.cfg.codec.Derive()
		n        int
		mismatch error
	)
	for data := range encoded {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		err := decoder.Decode(data, func(got idx.Sample) {
			if mismatch != nil {
				return
			}
			if n >= dataset.Len() {
				mismatch = fmt.Errorf("%w: extra sample %d", ErrVerifyMismatch, n)
				return
			}
			want := dataset.Sample(n)
			if got.Label != want.Label || !bytes.Equal(got.Pixels, want.Pixels) {
				mismatch = &MismatchError{
					Sample: n,
					Want:   idx.FormatSparse(want),
					Got:    idx.FormatSparse(got),
				}
				return
			}
			n++
		})
		if err != nil {
			return n, fmt.Errorf("decode output: %w", err)
		}
		if mismatch != nil {
			return n, mismatch
		}
	}

	if n != dataset.Len() {
		return n, fmt.Errorf(
			"%w: output has %d samples, dataset has %d",
			ErrVerifyMismatch, n, dataset.Len(),
		)
	}

	return n, nil
}

func (c *Converter) convert(
	ctx context.Context,
	split Split,
	sink Sink,
	enc codec.Codec[idx.Sample],
) (*Result, error) {
	var (
		start = time.Now()
		log   = c.cfg.logger.With("split", split.Name)
	)

	res, err := c.run(ctx, split, sink, enc, log)
	if err != nil {
		c.metrics.failures.WithLabelValues(reason(err)).Inc()
		log.Error("conversion failed", "error", err)
		return nil, err
	}

	res.Duration = time.Since(start)
	c.metrics.duration.Observe(res.Duration.Seconds())
	log.Info(
		"conversion done",
		"samples", res.Samples,
		"batches", res.Batches,
		"bytes", res.Bytes,
		"duration", res.Duration,
	)

	return res, nil
}

func (c *Converter) run(
	ctx context.Context,
	split Split,
	sink Sink,
	enc codec.Codec[idx.Sample],
	log *slog.Logger,
) (*Result, error) {
	dataset, err := c.load(ctx, split, log)
	if err != nil {
		return nil, err
	}

	if err := sink.Begin(split.Name); err != nil {
		return nil, &sinkError{fmt.Errorf("begin sink: %w", err)}
	}

	res := Result{Split: split.Name}
	size := c.cfg.batchSize

	for first := 0; first < dataset.Len(); first += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			end    = min(first+size, dataset.Len())
			pixels int
		)
		samples := func(yield func(idx.Sample) bool) {
			for s := range dataset.Range(first, end) {
				pixels += s.NonZero()
				if !yield(s) {
					return
				}
			}
		}

		data, err := enc.Encode(samples)
		if err != nil {
			return nil, fmt.Errorf("encode samples %d-%d: %w", first, end-1, err)
		}

		batch := Batch{Split: split.Name, First: first, Size: end - first, Data: data}
		attempt := 0
		err = retry.Do(ctx, c.cfg.retry.Derive(), func() error {
			attempt++
			err := sink.Write(batch)
			if err != nil {
				log.Warn("batch write failed", "first", first, "attempt", attempt, "error", err)
			}
			return err
		})
		if err != nil {
			return nil, &sinkError{fmt.Errorf("write samples %d-%d: %w", first, end-1, err)}
		}

		res.Samples += batch.Size
		res.Batches++
		res.Pixels += pixels
		res.Bytes += int64(len(data))

		c.metrics.samples.Add(float64(batch.Size))
		c.metrics.batches.Inc()
		c.metrics.pixels.Add(float64(pixels))
		c.metrics.writtenBytes.Add(float64(len(data)))
		log.Debug("batch written", "first", first, "size", batch.Size, "bytes", len(data))
	}

	return &res, nil
}

func (c *Converter) load(ctx context.Context, split Split, log *slog.Logger) (*idx.Dataset, error) {
	if c.cfg.checksums {
		if err := verifyDigest(split.Labels, split.LabelsDigest); err != nil {
			return nil, err
		}
		if err := verifyDigest(split.Images, split.ImagesDigest); err != nil {
			return nil, err
		}
	}

	labels, err := c.decompress(ctx, "labels", split.Labels, log)
	if err != nil {
		return nil, err
	}

	images, err := c.decompress(ctx, "images", split.Images, log)
	if err != nil {
		return nil, err
	}

	dataset, err := idx.Decode(labels, images)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", split.Name, err)
	}
	log.Info("dataset decoded", "samples", dataset.Len(), "rows", dataset.Rows, "cols", dataset.Cols)

	return dataset, nil
}

func (c *Converter) decompress(
	ctx context.Context,
	stream, path string,
	log *slog.Logger,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := archive.Decompress(path)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", stream, err)
	}

	c.metrics.decompressedBytes.WithLabelValues(stream).Add(float64(len(data)))
	log.Debug("archive decompressed", "stream", stream, "path", path, "bytes", len(data))

	return data, nil
}

func verifyDigest(path, want string) error {
	if want == "" {
		return nil
	}
	got, err := archive.Digest(path)
	if err != nil {
		return fmt.Errorf("checksum: %w", err)
	}
	if got != want {
		return fmt.Errorf("%w: %s has sha256 %s, want %s", ErrChecksumMismatch, path, got, want)
	}
	return nil
}

var reasons = []struct {
	err    error
	reason string
}{
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "canceled"},
	{ErrChecksumMismatch, "checksum"},
	{archive.ErrIO, "io"},
	{archive.ErrFormat, "format"},
	{idx.ErrTruncatedHeader, "truncated_header"},
	{idx.ErrBadMagic, "bad_magic"},
	{idx.ErrUnsupportedDimensions, "dimensions"},
	{idx.ErrCountMismatch, "count_mismatch"},
	{idx.ErrPayloadLengthMismatch, "payload_length"},
}

func reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	var se *sinkError
	if errors.As(err, &se) {
		return "sink"
	}
	return "other"
}

type sinkError struct {
	err error
}

func (e *sinkError) Error() string {
	return e.err.Error()
}

func (e *sinkError) Unwrap() error {
	return e.err
}
