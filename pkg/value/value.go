// Package value holds the heterogeneous result tree of an extraction: string
// scalars, ordered objects and lists.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a closed union of a string scalar, an Object or a list of Values.
type Value struct {
	kind   Kind
	scalar string
	object *Object
	list   []Value
}

// Scalar wraps a string.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// ObjectValue wraps an Object. A nil Object becomes an empty one.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, object: o}
}

// List wraps a sequence of values.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// String returns the scalar text, or "" for non-scalars.
func (v Value) String() string {
	if v.kind != KindScalar {
		return ""
	}
	return v.scalar
}

// Object returns the wrapped Object, or nil for non-objects.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.object
}

// Items returns the list elements, or nil for non-lists.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// MarshalJSON encodes scalars as JSON strings, objects in insertion order and
// lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindScalar:
		return encodeString(buf, v.scalar)
	case KindObject:
		return v.object.encode(buf)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	return fmt.Errorf("unknown value kind %d", v.kind)
}

// encodeString writes s as a JSON string without escaping HTML characters.
// Non-ASCII text is written as UTF-8.
func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
