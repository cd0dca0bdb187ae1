// Package optional provides a JSON field wrapper that tells apart a key that
// was omitted, a key sent as null and a key carrying a value.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds a value that may be absent, explicitly null or set.
// The zero Field is absent. Tag struct fields with `json:",omitzero"` so an
// absent Field is also left out when encoding.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

// Of returns a present, non-null field.
func Of[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Null returns a present field carrying an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// FromPtr maps nil to Null and anything else to Of.
func FromPtr[T any](v *T) Field[T] {
	if v == nil {
		return Null[T]()
	}
	return Of(*v)
}

// IsSet reports whether the key was present, including as null.
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the key was present with a null value.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// IsZero reports an absent field; encoding/json uses it for omitzero.
func (f Field[T]) IsZero() bool { return !f.set }

// Get returns the value and whether one is present and non-null.
func (f Field[T]) Get() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Ptr returns nil for absent or null fields.
func (f Field[T]) Ptr() *T {
	v, ok := f.Get()
	if !ok {
		return nil
	}
	return &v
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
