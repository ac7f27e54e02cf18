package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"
)

// encodeQuery encodes parameters as URL query string.
// Nested values are encoded using brackets (a[b]=c), lists as comma separated values.
func encodeQuery(params *Object) (string, error) {
	var sb strings.Builder
	for name, value := range params.All() {
		if err := appendQuery(&sb, name, value); err != nil {
			return "", fmt.Errorf("failed to encode query parameter %s: %v", name, err)
		}
	}
	return sb.String(), nil
}

func appendQuery(sb *strings.Builder, key string, value any) error {
	switch v := value.(type) {
	case *Object:
		for name, value := range v.All() {
			if err := appendQuery(sb, key+"["+name+"]", value); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			if err := appendQuery(sb, key+"["+name+"]", v[name]); err != nil {
				return err
			}
		}
		return nil
	case []string:
		return appendQueryPair(sb, key, strings.Join(v, ","))
	case []any:
		values := make([]string, len(v))
		for i := range v {
			s, err := formatValue(v[i])
			if err != nil {
				return err
			}
			values[i] = s
		}
		return appendQueryPair(sb, key, strings.Join(values, ","))
	case *Entity:
		b, err := v.flatten(ContentTypeQuery)
		if err != nil {
			return err
		}
		return appendQuery(sb, key, b.params)
	case *Variables, File:
		// roundtrip via JSON, to access the encoded structure
		nested, err := toGeneric(v)
		if err != nil {
			return err
		}
		return appendQuery(sb, key, nested)
	}

	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		values := make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return appendQuery(sb, key, values)
	}

	s, err := formatValue(value)
	if err != nil {
		return err
	}
	return appendQueryPair(sb, key, s)
}

func appendQueryPair(sb *strings.Builder, key string, value string) error {
	if sb.Len() != 0 {
		sb.WriteByte('&')
	}
	sb.WriteString(url.QueryEscape(key))
	sb.WriteByte('=')
	sb.WriteString(url.QueryEscape(value))
	return nil
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()

	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return nil, err
	}
	return generic, nil
}
