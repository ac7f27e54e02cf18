package rest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateFormat is the date format, expected by the engine.
const DateFormat = "2006-01-02T15:04:05.000-0700"

// Value is the value of an entity field. It is either a scalar, [*Variables], [*Files] or a nested [*Entity].
type Value interface {
	flatten(name string, b *body) error
}

// Part is a part of a multipart/form-data request body.
type Part struct {
	Name     string
	Contents []byte
	Filename string // Optional filename, set for file uploads.
}

// body collects the flattened fields of an entity, shaped for a specific content type.
type body struct {
	contentType ContentType

	params *Object // query and json
	parts  []Part  // multipart
}

func newBody(contentType ContentType) *body {
	return &body{
		contentType: contentType,
		params:      NewObject(),
		parts:       make([]Part, 0),
	}
}

func (b *body) isEmpty() bool {
	if b.contentType == ContentTypeMultipart {
		return len(b.parts) == 0
	}
	return b.params.Len() == 0
}

// scalar is any value that is passed through as-is.
type scalar struct {
	v any
}

func (s scalar) flatten(name string, b *body) error {
	if b.contentType != ContentTypeMultipart {
		b.params.Set(name, s.v)
		return nil
	}

	contents, err := formatValue(s.v)
	if err != nil {
		return fmt.Errorf("failed to format field %s: %v", name, err)
	}

	b.parts = append(b.parts, Part{Name: name, Contents: []byte(contents)})
	return nil
}

// nested is an entity, used as value of another entity's field.
type nested struct {
	e *Entity
}

func (n nested) flatten(name string, b *body) error {
	if b.contentType != ContentTypeMultipart {
		b.params.Set(name, n.e)
		return nil
	}

	contents, err := json.Marshal(n.e)
	if err != nil {
		return fmt.Errorf("failed to encode entity %s: %v", name, err)
	}

	b.parts = append(b.parts, Part{Name: name, Contents: contents})
	return nil
}

func toValue(v any) Value {
	switch v := v.(type) {
	case Value:
		return v
	case *Entity:
		return nested{e: v}
	}
	return scalar{v: v}
}

func fromValue(value Value) any {
	switch v := value.(type) {
	case scalar:
		return v.v
	case nested:
		return v.e
	}
	return value
}

// formatValue formats a scalar for a query string or a multipart part.
// Values without a textual representation are encoded as JSON.
func formatValue(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	case time.Time:
		return v.Format(DateFormat), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
