package authclient

import (
	"encoding/json"
	"reflect"
)

// Codec converts cache values to and from their stored representation.
// IsZero reports values that should delete the stored key instead of
// being written.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(raw string) (T, error)
	IsZero(v T) bool
}

// RawStringCodec stores strings verbatim. The empty string means absent.
type RawStringCodec struct{}

var _ Codec[string] = RawStringCodec{}

func (RawStringCodec) Encode(v string) (string, error) { return v, nil }

func (RawStringCodec) Decode(raw string) (string, error) { return raw, nil }

func (RawStringCodec) IsZero(v string) bool { return v == "" }

// JSONCodec stores values JSON encoded. Zero values remove the key.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONCodec[T]) Decode(raw string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}

func (JSONCodec[T]) IsZero(v T) bool {
	rv := reflect.ValueOf(&v).Elem()
	return rv.IsZero()
}
