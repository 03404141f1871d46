// Package optional provides a small generic present/absent value used
// wherever a lookup or annotation may legitimately be missing.
package optional

import "encoding/json"

// Value holds either a T or nothing. The zero Value is absent.
type Value[T any] struct {
	value T
	ok    bool
}

// Some wraps v as a present value.
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Value[T] {
	return Value[T]{}
}

func (v Value[T]) Get() (T, bool) {
	return v.value, v.ok
}

func (v Value[T]) IsPresent() bool {
	return v.ok
}

func (v Value[T]) OrElse(fallback T) T {
	if v.ok {
		return v.value
	}
	return fallback
}

// MarshalJSON encodes an absent value as null.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}

func (v *Value[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = None[T]()
		return nil
	}
	var inner T
	if err := json.Unmarshal(data, &inner); err != nil {
		return err
	}
	*v = Some(inner)
	return nil
}
