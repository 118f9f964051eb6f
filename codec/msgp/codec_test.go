package msgp_test

import (
	"slices"
	"testing"

	tmsgp "github.com/tinylib/msgp/msgp"

	"github.com/teenjuna/idxsparse/codec/msgp"
	"github.com/teenjuna/idxsparse/idx"
	"github.com/teenjuna/idxsparse/internal/testing/idxtest"
	"github.com/teenjuna/idxsparse/internal/testing/require"
)

func TestCodec(t *testing.T) {
	pair := idxtest.Random(100)
	dataset, err := idx.Decode(pair.Labels, pair.Images)
	require.Nil(t, err)

	codec := msgp.New[idx.Sample]()

	for range 2 {
		var data []byte
		for _, r := range [][2]int{{0, 30}, {30, 100}} {
			batch, err := codec.Encode(dataset.Range(r[0], r[1]))
			require.Nil(t, err)
			require.NotEqual(t, len(batch), 0)
			data = append(data, batch...)
		}

		var samples []idx.Sample
		err = codec.Decode(data, func(s idx.Sample) {
			samples = append(samples, s)
		})
		require.Nil(t, err)
		require.Diff(t, samples, slices.Collect(dataset.Samples()))

		derived := codec.Derive()
		require.True(t, derived != codec)
	}
}

func TestCodecTruncated(t *testing.T) {
	pair := idxtest.Scenario()
	dataset, err := idx.Decode(pair.Labels, pair.Images)
	require.Nil(t, err)

	codec := msgp.New[idx.Sample]()
	data, err := codec.Encode(dataset.Samples())
	require.Nil(t, err)

	err = codec.Decode(data[:len(data)-1], func(idx.Sample) {})
	require.ErrorIs(t, err, tmsgp.ErrShortBytes)
}

func TestCodecWrongShape(t *testing.T) {
	data := tmsgp.AppendArrayHeader(nil, 3)
	codec := msgp.New[idx.Sample]()
	err := codec.Decode(data, func(idx.Sample) {})
	require.NotNil(t, err)
}
