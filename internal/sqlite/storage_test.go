package sqlite_test

import (
	"path"
	"sync"
	"testing"

	"github.com/teenjuna/idxsparse/internal/sqlite"
	"github.com/teenjuna/idxsparse/internal/testing/require"
)

func TestNew(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, err := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		require.Nil(t, err)
		require.NotNil(t, storage)
		deferClose(t, storage)
	})
}

func TestPush(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, _ := sqlite.New(func(c *sqlite.Config) { c.File(file) })

		err := storage.Push("test", 0, 1, []byte{1})
		require.Nil(t, err)

		require.Nil(t, storage.Close())

		err = storage.Push("test", 1, 1, []byte{2})
		require.Equal(t, err, sqlite.ErrClosed)
	})
}

func TestBatches(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, _ := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		deferClose(t, storage)

		inputs := []struct {
			split string
			first int
			size  int
			data  []byte
		}{
			{split: "test", first: 4, size: 2, data: []byte{3}},
			{split: "train", first: 0, size: 2, data: []byte{9}},
			{split: "test", first: 0, size: 2, data: []byte{1}},
			{split: "test", first: 2, size: 2, data: []byte{2}},
		}
		for _, i := range inputs {
			require.Nil(t, storage.Push(i.split, i.first, i.size, i.data))
		}

		batches, err := storage.Batches("test")
		require.Nil(t, err)
		require.Equal(t, len(batches), 3)
		for i, batch := range batches {
			require.Equal(t, batch.Split, "test")
			require.Equal(t, batch.First, i*2)
			require.Equal(t, batch.Size, 2)
			require.Equal(t, batch.Data, []byte{byte(i + 1)})
			require.True(t, !batch.PushedAt.IsZero())
		}

		batches, err = storage.Batches("missing")
		require.Nil(t, err)
		require.Equal(t, len(batches), 0)
	})
}

func TestPushReplaces(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, _ := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		deferClose(t, storage)

		require.Nil(t, storage.Push("test", 0, 2, []byte{1}))
		require.Nil(t, storage.Push("test", 0, 3, []byte{2}))

		batches, err := storage.Batches("test")
		require.Nil(t, err)
		require.Equal(t, len(batches), 1)
		require.Equal(t, batches[0].Size, 3)
		require.Equal(t, batches[0].Data, []byte{2})
	})
}

func TestDelete(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, _ := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		deferClose(t, storage)

		require.Nil(t, storage.Push("test", 0, 1, []byte{1}))
		require.Nil(t, storage.Push("train", 0, 1, []byte{1}))
		require.Nil(t, storage.Delete("test"))

		stats, err := storage.Stats()
		require.Nil(t, err)
		require.Equal(t, *stats, sqlite.Stats{Batches: 1, Items: 1, Splits: 1})
	})
}

func TestStats(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, _ := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		deferClose(t, storage)

		stats, err := storage.Stats()
		require.Nil(t, err)
		require.Equal(t, *stats, sqlite.Stats{})

		require.Nil(t, storage.Push("test", 0, 1, []byte{1}))
		require.Nil(t, storage.Push("test", 1, 2, []byte{2}))
		require.Nil(t, storage.Push("train", 0, 5, []byte{3}))

		stats, err = storage.Stats()
		require.Nil(t, err)
		require.Equal(t, *stats, sqlite.Stats{Batches: 3, Items: 8, Splits: 2})
	})
}

func TestConcurrentPush(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, _ := sqlite.New(
			func(c *sqlite.Config) { c.File(file) },
			func(c *sqlite.Config) { c.Workers(4) },
		)
		deferClose(t, storage)

		var wg sync.WaitGroup
		for _, split := range []string{"a", "b", "c", "d"} {
			wg.Go(func() {
				for i := range 50 {
					if err := storage.Push(split, i, 1, []byte{byte(i)}); err != nil {
						t.Errorf("push %s/%d: %v", split, i, err)
						return
					}
				}
			})
		}
		wg.Wait()

		stats, err := storage.Stats()
		require.Nil(t, err)
		require.Equal(t, *stats, sqlite.Stats{Batches: 200, Items: 200, Splits: 4})
	})
}

func TestPersistence(t *testing.T) {
	file := path.Join(t.TempDir(), "file")

	storage, err := sqlite.New(func(c *sqlite.Config) { c.File(file) })
	require.Nil(t, err)
	require.Nil(t, storage.Push("test", 0, 1, []byte{1}))
	require.Nil(t, storage.Close())

	storage, err = sqlite.New(func(c *sqlite.Config) { c.File(file) })
	require.Nil(t, err)
	deferClose(t, storage)

	batches, err := storage.Batches("test")
	require.Nil(t, err)
	require.Equal(t, len(batches), 1)
	require.Equal(t, batches[0].Data, []byte{1})
}

func run(t *testing.T, fn func(t *testing.T, file string)) {
	t.Helper()
	t.Run("In file", func(t *testing.T) {
		t.Helper()
		fn(t, path.Join(t.TempDir(), "file"))
	})
	t.Run("In memory", func(t *testing.T) {
		t.Helper()
		fn(t, ":memory:")
	})
}

func deferClose(t *testing.T, storage *sqlite.Storage) {
	t.Cleanup(func() {
		if err := storage.Close(); err != nil {
			t.Fatalf("close storage: %v", err)
		}
	})
}
