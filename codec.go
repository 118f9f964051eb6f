package idxsparse

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/teenjuna/idxsparse/codec"
	"github.com/teenjuna/idxsparse/codec/json"
	"github.com/teenjuna/idxsparse/codec/msgp"
	"github.com/teenjuna/idxsparse/codec/sparse"
	"github.com/teenjuna/idxsparse/idx"
)

var ErrUnknownCodec = errors.New("unknown codec")

var codecs = map[string]func() codec.Codec[idx.Sample]{
	"sparse": func() codec.Codec[idx.Sample] { return sparse.New() },
	"json":   func() codec.Codec[idx.Sample] { return json.New[idx.Sample]() },
	"msgp":   func() codec.Codec[idx.Sample] { return msgp.New[idx.Sample]() },
}

// CodecByName returns a new codec of the given name: "sparse", "json" or "msgp".
func CodecByName(name string) (codec.Codec[idx.Sample], error) {
	newCodec, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %v", ErrUnknownCodec, name, CodecNames())
	}
	return newCodec(), nil
}

// CodecNames returns the names accepted by [CodecByName] in sorted order.
func CodecNames() []string {
	return slices.Sorted(maps.Keys(codecs))
}
