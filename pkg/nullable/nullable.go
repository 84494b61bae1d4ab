// Package nullable provides a JSON field that distinguishes an omitted key,
// an explicit null and a concrete value.
//
// Partial-update payloads use it so that omission leaves a column untouched
// while null clears it:
//
//	{"title": "x"}            // assignedToId omitted: unchanged
//	{"assignedToId": null}    // cleared
//	{"assignedToId": "u-1"}   // set
package nullable

import (
	"bytes"
	"encoding/json"
)

// Field holds the decoded state of one optional JSON key. The zero value is
// "omitted".
type Field[T any] struct {
	Set   bool // key was present in the payload
	Null  bool // key was present and its value was null
	Value T
}

// Of returns a Field carrying v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a Field that was explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked by encoding/json when the key is present,
// which is what makes Set meaningful.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON renders omitted and null fields as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// HasValue reports whether the payload carried a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Ptr converts a present field to a pointer: nil for null, &Value otherwise.
// Callers must check Set first; Ptr on an omitted field also returns nil.
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.Value
	return &v
}
