package cli

import (
	"fmt"
	"strings"

	"github.com/gclaussn/go-camunda/rest"
)

// contentTypeValue is a custom flag value for a request content type.
type contentTypeValue rest.ContentType

func (v *contentTypeValue) Set(s string) error {
	contentType := rest.MapContentType(s)
	if contentType == 0 {
		return fmt.Errorf("invalid content type %s", s)
	}

	*v = contentTypeValue(contentType)
	return nil
}

func (v contentTypeValue) String() string {
	return rest.ContentType(v).String()
}

func (v contentTypeValue) Type() string {
	return "contentType"
}

// outputValue is a custom flag value for an output format.
type outputValue string

const (
	outputJSON  outputValue = "json"
	outputTable outputValue = "table"
)

func (v *outputValue) Set(s string) error {
	switch output := outputValue(strings.ToLower(s)); output {
	case outputJSON, outputTable:
		*v = output
		return nil
	default:
		return fmt.Errorf("invalid output %s", s)
	}
}

func (v outputValue) String() string {
	return string(v)
}

func (v outputValue) Type() string {
	return "output"
}
