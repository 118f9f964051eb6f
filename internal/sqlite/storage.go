package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrClosed is returned by Storage methods when the storage has been closed.
	ErrClosed = errors.New("storage is closed")
)

const (
	memory = ":memory:"
)

// Storage keeps encoded batches of converted samples in SQLite, one row per batch.
type Storage struct {
	cfg *Config
	db  *sql.DB
}

// New creates a new Storage with the provided configuration functions.
//
// Default configuration:
//   - File: ":memory:" (in-memory database)
//   - Workers: 1
//
// Returns an error if the SQLite database cannot be opened or initialized.
func New(configFuncs ...ConfigFunc) (*Storage, error) {
	cfg := &Config{}
	cfg.File(memory)
	cfg.Workers(1)
	for _, cf := range configFuncs {
		cf(cfg)
	}

	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}

	storage := Storage{
		cfg: cfg,
		db:  db,
	}

	return &storage, nil
}

// Push stores the batch of size samples of split starting at sample first.
//
// A batch already stored at the same split and first sample is replaced.
//
// Returns [ErrClosed] if the storage has been closed.
func (s *Storage) Push(split string, first, size int, data []byte) error {
	_, err := s.db.Exec(
		`
		insert into batch (
			split,
			first,
			size,
			data,
			pushed_at
		) values (
			:split,
			:first,
			:size,
			:data,
			:pushed_at
		)
		on conflict (split, first) do update set
			size = excluded.size,
			data = excluded.data,
			pushed_at = excluded.pushed_at
		`,
		sql.Named("split", split),
		sql.Named("first", first),
		sql.Named("size", size),
		sql.Named("data", data),
		sql.Named("pushed_at", toTimestamp(time.Now())),
	)
	return closed(err)
}

// Batches returns every batch of split ordered by first sample.
//
// Returns [ErrClosed] if the storage has been closed.
func (s *Storage) Batches(split string) ([]Batch, error) {
	rows, err := s.db.Query(
		`
		select split, first, size, data, pushed_at
		from batch
		where split = :split
		order by first asc
		`,
		sql.Named("split", split),
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", closed(err))
	}
	defer rows.Close()

	batches := make([]Batch, 0)

	for rows.Next() {
		var (
			b        Batch
			pushedAt int64
		)
		if err := rows.Scan(
			&b.Split,
			&b.First,
			&b.Size,
			&b.Data,
			&pushedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		b.PushedAt = fromTimestamp(pushedAt)
		batches = append(batches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return batches, nil
}

// Delete removes every batch of split.
//
// A conversion calls it before writing, so that batches left by an earlier run with another
// batch size don't survive.
func (s *Storage) Delete(split string) error {
	_, err := s.db.Exec(
		`
		delete from batch
		where split = :split
		`,
		sql.Named("split", split),
	)
	return closed(err)
}

// Stats returns current storage statistics.
func (s *Storage) Stats() (*Stats, error) {
	var stats Stats
	err := s.db.QueryRow(
		`
		select
			coalesce(count(*), 0) as batches,
			coalesce(sum(size), 0) as items,
			count(distinct split) as splits
		from
			batch
		`,
	).Scan(
		&stats.Batches,
		&stats.Items,
		&stats.Splits,
	)
	if err != nil {
		return nil, closed(err)
	}

	return &stats, nil
}

// Close closes the underlying SQLite database.
//
// After closing, all methods on Storage will return [ErrClosed].
func (s *Storage) Close() error {
	return s.db.Close()
}

// Batch is a stored batch of encoded samples.
type Batch struct {
	// Split is the name of the dataset split the samples belong to.
	Split string
	// First is the index of the first sample of the batch within its split.
	First int
	// Size is the number of samples in the batch.
	Size int
	// Data is the encoded batch content.
	Data []byte
	// PushedAt is the time when the batch was last written.
	PushedAt time.Time
}

// Stats represents statistics about the storage.
type Stats struct {
	// Batches is the total number of batches in storage.
	Batches int
	// Items is the total number of samples across all batches.
	Items int
	// Splits is the number of distinct splits.
	Splits int
}

func open(cfg *Config) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_timeout", "5000") // 5s
	name := cfg.file
	if name == memory {
		name = memoryName()
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	} else {
		params.Add("_journal", "wal")
		params.Add("_sync", "normal")
	}

	db, err := sql.Open("sqlite3", "file:"+name+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	if params.Get("mode") == "memory" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.workers)
		db.SetMaxIdleConns(cfg.workers)
	}

	return db, nil
}

func setup(db *sql.DB) error {
	if _, err := db.Exec(
		`
		create table if not exists batch (
			split     text not null,
			first     int not null,
			size      int not null,
			data      blob not null,
			pushed_at int not null,
			primary key (split, first)
		) strict
		`,
	); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	return nil
}

func closed(err error) error {
	if err != nil && err.Error() == "sql: database is closed" {
		return ErrClosed
	}
	return err
}

func memoryName() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const n = 10
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return string(b)
}

func toTimestamp(time time.Time) int64 {
	return time.UnixNano()
}

func fromTimestamp(timestamp int64) time.Time {
	return time.Unix(0, timestamp)
}
