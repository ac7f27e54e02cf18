package rest

import (
	"fmt"
	"strings"
)

// ContentType determines how the fields of an entity are encoded on the wire.
type ContentType int

const (
	ContentTypeQuery ContentType = iota + 1 // Fields are appended to the URL query string.
	ContentTypeJSON                         // Fields are sent as JSON object.
	ContentTypeMultipart                    // Fields are sent as multipart/form-data parts.
)

// MapContentType maps a content type name, regardless of its letter case.
// 0 is returned for unknown names.
func MapContentType(s string) ContentType {
	switch strings.ToLower(s) {
	case "query":
		return ContentTypeQuery
	case "json":
		return ContentTypeJSON
	case "multipart":
		return ContentTypeMultipart
	default:
		return 0
	}
}

func (v ContentType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", v.String())), nil
}

func (v ContentType) String() string {
	switch v {
	case ContentTypeQuery:
		return "query"
	case ContentTypeJSON:
		return "json"
	case ContentTypeMultipart:
		return "multipart"
	default:
		return "unknown"
	}
}

func (v *ContentType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 {
		return fmt.Errorf("invalid content type %s", s)
	}
	*v = MapContentType(s[1 : len(s)-1])
	return nil
}
