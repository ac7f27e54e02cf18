package rest

import (
	"bytes"
	"encoding/json"
	"iter"
)

// Object is a string keyed map, which preserves the insertion order of its keys.
// The zero value is ready to use.
type Object struct {
	names  []string
	values map[string]any
}

func NewObject() *Object {
	return &Object{}
}

// All iterates the entries in insertion order.
func (o *Object) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if o == nil {
			return
		}
		for _, name := range o.names {
			if !yield(name, o.values[name]) {
				return
			}
		}
	}
}

func (o *Object) Get(name string) (any, bool) {
	if o == nil {
		return nil, false
	}
	value, ok := o.values[name]
	return value, ok
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.names)
}

func (o *Object) Names() []string {
	if o == nil {
		return nil
	}
	names := make([]string, len(o.names))
	copy(names, o.names)
	return names
}

// Set sets the value of a name. An existing name keeps its position.
func (o *Object) Set(name string, value any) *Object {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[name]; !ok {
		o.names = append(o.names, name)
	}
	o.values[name] = value
	return o
}

// Map returns a copy of the entries as plain map.
func (o *Object) Map() map[string]any {
	m := make(map[string]any, o.Len())
	for name, value := range o.All() {
		m[name] = value
	}
	return m
}

func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range o.names {
		if i != 0 {
			buf.WriteByte(',')
		}

		b, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte(':')

		b, err = json.Marshal(o.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
