package rest

import (
	"encoding/json"
	"fmt"
)

// Variable is a workflow variable, passed to the engine.
//
// A variable without type and value info is encoded as its bare value.
// Otherwise it is encoded as engine variable descriptor, e.g. {"value":5,"type":"Integer"}.
type Variable struct {
	Name      string
	Value     any
	Type      string
	ValueInfo map[string]any
}

func (v Variable) MarshalJSON() ([]byte, error) {
	if v.Type == "" && len(v.ValueInfo) == 0 {
		return json.Marshal(v.Value)
	}

	return json.Marshal(struct {
		Value     any            `json:"value"`
		Type      string         `json:"type,omitempty"`
		ValueInfo map[string]any `json:"valueInfo,omitempty"`
	}{
		Value:     v.Value,
		Type:      v.Type,
		ValueInfo: v.ValueInfo,
	})
}

// Variables is an ordered collection of variables with unique names.
type Variables struct {
	o Object
}

func NewVariables() *Variables {
	return &Variables{}
}

// Add adds or replaces a variable. An optional type, like "String" or "Integer", can be specified.
func (v *Variables) Add(name string, value any, valueType ...string) *Variables {
	variable := Variable{Name: name, Value: value}
	if len(valueType) != 0 {
		variable.Type = valueType[0]
	}
	v.o.Set(name, variable)
	return v
}

// AddWithInfo adds or replaces a typed variable with additional value info - for example the serialization data format of an object.
func (v *Variables) AddWithInfo(name string, value any, valueType string, valueInfo map[string]any) *Variables {
	v.o.Set(name, Variable{Name: name, Value: value, Type: valueType, ValueInfo: valueInfo})
	return v
}

// All returns the variables in insertion order.
func (v *Variables) All() []Variable {
	if v == nil {
		return nil
	}
	variables := make([]Variable, 0, v.Len())
	for _, value := range v.o.All() {
		variables = append(variables, value.(Variable))
	}
	return variables
}

func (v *Variables) Get(name string) (Variable, bool) {
	if v == nil {
		return Variable{}, false
	}
	value, ok := v.o.Get(name)
	if !ok {
		return Variable{}, false
	}
	return value.(Variable), true
}

func (v *Variables) Len() int {
	if v == nil {
		return 0
	}
	return v.o.Len()
}

func (v *Variables) MarshalJSON() ([]byte, error) {
	return v.o.MarshalJSON()
}

func (v *Variables) flatten(name string, b *body) error {
	if b.contentType != ContentTypeMultipart {
		b.params.Set(name, v)
		return nil
	}

	contents, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode variables %s: %v", name, err)
	}

	b.parts = append(b.parts, Part{Name: name, Contents: contents})
	return nil
}
