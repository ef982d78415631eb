package value

import (
	"bytes"
	"encoding/json"
	"io"
)

// Object is a string-keyed mapping that remembers insertion order. Setting an
// existing key replaces its value in place.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set stores v under key.
func (o *Object) Set(key string, v Value) *Object {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// SetString stores a scalar under key.
func (o *Object) SetString(key, s string) *Object {
	return o.Set(key, Scalar(s))
}

// SetNonEmpty stores a scalar only when s is not empty.
func (o *Object) SetNonEmpty(key, s string) *Object {
	if s == "" {
		return o
	}
	return o.Set(key, Scalar(s))
}

// SetDefault stores a scalar when key is not present yet.
func (o *Object) SetDefault(key, s string) *Object {
	if o.Has(key) {
		return o
	}
	return o.Set(key, Scalar(s))
}

// Get returns the value under key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// GetString returns the scalar under key, or "".
func (o *Object) GetString(key string) string {
	return o.values[key].String()
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Merge copies every key of other into o, in other's order.
func (o *Object) Merge(other *Object) *Object {
	if other == nil {
		return o
	}
	for _, k := range other.keys {
		o.Set(k, other.values[k])
	}
	return o
}

// MarshalJSON encodes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Object) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := o.values[k].encode(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v json.Marshaler) error {
	raw, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}
