package idxsparse_test

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/teenjuna/idxsparse"
	"github.com/teenjuna/idxsparse/internal/testing/idxtest"
	"github.com/teenjuna/idxsparse/internal/testing/require"
	"github.com/teenjuna/idxsparse/retry"
)

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	sink, err := idxsparse.CreateFile(path)
	require.Nil(t, err)
	require.Nil(t, sink.Begin("test"))
	require.Nil(t, sink.Write(idxsparse.Batch{Split: "test", First: 0, Size: 1, Data: []byte("1\t784\n")}))
	require.Nil(t, sink.Write(idxsparse.Batch{Split: "test", First: 1, Size: 1, Data: []byte("2\t784\n")}))
	require.Nil(t, sink.Close())

	require.Equal(t, readFile(t, path), "1\t784\n2\t784\n")

	// Creating again truncates.
	sink, err = idxsparse.CreateFile(path)
	require.Nil(t, err)
	require.Nil(t, sink.Close())
	require.Equal(t, readFile(t, path), "")
}

func TestFileSinkRollsBackFailedWrite(t *testing.T) {
	f := &flakyFile{fails: 1}
	sink := idxsparse.NewFileSink(f)
	require.Nil(t, sink.Begin("test"))

	require.Nil(t, sink.Write(idxsparse.Batch{Split: "test", First: 0, Size: 1, Data: []byte("1\t784\n")}))

	second := idxsparse.Batch{Split: "test", First: 1, Size: 1, Data: []byte("2\t784\t3:9\n")}
	require.ErrorIs(t, sink.Write(second), errDiskFull)
	require.Equal(t, string(f.data), "1\t784\n")

	require.Nil(t, sink.Write(second))
	require.Nil(t, sink.Close())
	require.Equal(t, string(f.data), "1\t784\n2\t784\t3:9\n")
	require.True(t, f.closed)
}

func TestConvertRetriesFileWrites(t *testing.T) {
	split := writeSplit(t, "test", idxtest.Scenario())
	f := &flakyFile{fails: 2}
	conv := idxsparse.New(
		func(c *idxsparse.Config) { c.BatchSize(1) },
		func(c *idxsparse.Config) { c.WriteRetry(retry.Fixed(3, 0)) },
	)

	res, err := conv.Convert(t.Context(), split, idxsparse.NewFileSink(f))
	require.Nil(t, err)
	require.Equal(t, res.Batches, 2)
	require.Equal(t, f.writes, 4)
	require.Equal(t, string(f.data), "7\t784\t5:200\n3\t784\t0:1\n")
}

func TestFileSinkMissingDir(t *testing.T) {
	_, err := idxsparse.CreateFile(filepath.Join(t.TempDir(), "nope", "out.txt"))
	require.NotNil(t, err)
}

func TestSQLiteSink(t *testing.T) {
	for _, file := range []string{":memory:", filepath.Join(t.TempDir(), "samples.db")} {
		t.Run(file, func(t *testing.T) {
			sink, err := idxsparse.OpenSQLite(file)
			require.Nil(t, err)
			defer func() { require.Nil(t, sink.Close()) }()

			require.Nil(t, sink.Begin("test"))
			require.Nil(t, sink.Write(idxsparse.Batch{Split: "test", First: 2, Size: 1, Data: []byte("b")}))
			require.Nil(t, sink.Write(idxsparse.Batch{Split: "test", First: 0, Size: 2, Data: []byte("a")}))
			require.Nil(t, sink.Begin("train"))
			require.Nil(t, sink.Write(idxsparse.Batch{Split: "train", First: 0, Size: 4, Data: []byte("c")}))

			batches, err := sink.Batches("test")
			require.Nil(t, err)
			require.Equal(t, batches, []idxsparse.Batch{
				{Split: "test", First: 0, Size: 2, Data: []byte("a")},
				{Split: "test", First: 2, Size: 1, Data: []byte("b")},
			})

			samples, err := sink.Samples()
			require.Nil(t, err)
			require.Equal(t, samples, 7)

			require.Nil(t, sink.Begin("test"))
			batches, err = sink.Batches("test")
			require.Nil(t, err)
			require.Equal(t, len(batches), 0)

			samples, err = sink.Samples()
			require.Nil(t, err)
			require.Equal(t, samples, 4)
		})
	}
}

var errDiskFull = errors.New("disk full")

// flakyFile is an in-memory file whose first fails writes store half of their data and fail.
type flakyFile struct {
	data   []byte
	pos    int64
	writes int
	fails  int
	closed bool
}

func (f *flakyFile) Write(p []byte) (int, error) {
	f.writes++
	n, err := len(p), error(nil)
	if f.writes <= f.fails {
		n, err = len(p)/2, errDiskFull
	}

	end := int(f.pos) + n
	if end > len(f.data) {
		f.data = append(f.data, make([]byte, end-len(f.data))...)
	}
	copy(f.data[f.pos:], p[:n])
	f.pos = int64(end)

	return n, err
}

func (f *flakyFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	default:
		f.pos = int64(len(f.data)) + offset
	}
	return f.pos, nil
}

func (f *flakyFile) Truncate(size int64) error {
	f.data = f.data[:size]
	return nil
}

func (f *flakyFile) Close() error {
	f.closed = true
	return nil
}
