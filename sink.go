package idxsparse

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/teenjuna/idxsparse/internal/sqlite"
)

// Batch is the encoded form of Size consecutive samples of a split, starting at sample First.
type Batch struct {
	Split string
	First int
	Size  int
	Data  []byte
}

// Sink receives the encoded batches of a conversion in sample order.
type Sink interface {
	// Begin is called once before the first batch of split.
	Begin(split string) error
	// Write stores one batch.
	Write(b Batch) error
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*SQLiteSink)(nil)
)

// File is the part of [os.File] a [FileSink] writes to.
type File interface {
	io.WriteSeeker
	io.Closer
	Truncate(size int64) error
}

// FileSink appends batches to a file. A failed write is rolled back to the end of the last
// written batch, so it can be retried.
type FileSink struct {
	f    File
	size int64
}

// CreateFile creates or truncates the file at path.
func CreateFile(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return NewFileSink(f), nil
}

// NewFileSink returns a sink writing to f from its current position, which must be its end.
func NewFileSink(f File) *FileSink {
	return &FileSink{f: f}
}

func (s *FileSink) Begin(string) error {
	size, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("seek output: %w", err)
	}
	s.size = size
	return nil
}

func (s *FileSink) Write(b Batch) error {
	n, err := s.f.Write(b.Data)
	if err == nil {
		s.size += int64(n)
		return nil
	}

	if terr := s.f.Truncate(s.size); terr != nil {
		return errors.Join(err, fmt.Errorf("roll back output: %w", terr))
	}
	if _, serr := s.f.Seek(s.size, io.SeekStart); serr != nil {
		return errors.Join(err, fmt.Errorf("roll back output: %w", serr))
	}

	return err
}

func (s *FileSink) Close() error {
	return s.f.Close()
}

// SQLiteSink stores every batch as a row of a SQLite database. It can be shared by conversions
// of different splits running concurrently.
type SQLiteSink struct {
	storage *sqlite.Storage
}

// OpenSQLite opens or creates the database in file; ":memory:" keeps it in memory.
func OpenSQLite(file string) (*SQLiteSink, error) {
	storage, err := sqlite.New(
		func(c *sqlite.Config) { c.File(file) },
		func(c *sqlite.Config) { c.Workers(2) },
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &SQLiteSink{storage: storage}, nil
}

// Begin drops the batches stored by earlier conversions of split.
func (s *SQLiteSink) Begin(split string) error {
	return s.storage.Delete(split)
}

func (s *SQLiteSink) Write(b Batch) error {
	return s.storage.Push(b.Split, b.First, b.Size, b.Data)
}

// Batches returns the stored batches of split in sample order.
func (s *SQLiteSink) Batches(split string) ([]Batch, error) {
	stored, err := s.storage.Batches(split)
	if err != nil {
		return nil, err
	}

	batches := make([]Batch, len(stored))
	for i, b := range stored {
		batches[i] = Batch{
			Split: b.Split,
			First: b.First,
			Size:  b.Size,
			Data:  b.Data,
		}
	}

	return batches, nil
}

// Samples returns the number of samples stored across all splits.
func (s *SQLiteSink) Samples() (int, error) {
	stats, err := s.storage.Stats()
	if err != nil {
		return 0, err
	}
	return stats.Items, nil
}

func (s *SQLiteSink) Close() error {
	return s.storage.Close()
}
