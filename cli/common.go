package cli

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

// known variable types, mapped by their lower case name
var variableTypes = map[string]string{
	"boolean": "Boolean",
	"bytes":   "Bytes",
	"date":    "Date",
	"double":  "Double",
	"integer": "Integer",
	"json":    "Json",
	"long":    "Long",
	"null":    "Null",
	"object":  "Object",
	"short":   "Short",
	"string":  "String",
	"xml":     "Xml",
}

func flagQueryOptions(c *cobra.Command, options *queryOptions) {
	c.Flags().IntVar(&options.firstResult, "first-result", 0, "Index of the first result")
	c.Flags().IntVar(&options.maxResults, "max-results", 100, "Maximum number of results")
	c.Flags().StringVar(&options.sortBy, "sort-by", "", "Sort criteria")
	c.Flags().StringVar(&options.sortOrder, "sort-order", "asc", "Sort order: asc or desc")
}

func flagVariables(c *cobra.Command, valueMap *map[string]string, typeMap *map[string]string) {
	c.Flags().StringToStringVar(valueMap, "variable", nil, "Variable, consisting of name and value")
	c.Flags().StringToStringVar(typeMap, "variable-type", nil, "Type of a variable, consisting of name and type - if omitted, the type is inferred")
}

// setIfChanged sets a field, if the related flag has been changed.
func setIfChanged(c *cobra.Command, req *rest.Entity, flagName string, field string, value any) {
	if c.Flags().Changed(flagName) {
		req.Set(field, value)
	}
}

type queryOptions struct {
	firstResult int
	maxResults  int
	sortBy      string
	sortOrder   string
}

// apply sets the paging and sorting fields of a list query.
func (o queryOptions) apply(req *rest.Entity) {
	if o.firstResult != 0 {
		req.Set("firstResult", o.firstResult)
	}
	req.Set("maxResults", o.maxResults)

	if o.sortBy != "" {
		req.Set("sortBy", o.sortBy)
		req.Set("sortOrder", o.sortOrder)
	}
}

// mapVariables maps variable values and optional types to typed variables.
// Without a type, the type is inferred from the value: Boolean, Integer, Long, Double or String.
func mapVariables(valueMap map[string]string, typeMap map[string]string) (*rest.Variables, error) {
	for name := range typeMap {
		if _, ok := valueMap[name]; !ok {
			return nil, fmt.Errorf("variable %s: no value defined", name)
		}
	}

	names := make([]string, 0, len(valueMap))
	for name := range valueMap {
		names = append(names, name)
	}
	slices.Sort(names)

	variables := rest.NewVariables()
	for _, name := range names {
		value := valueMap[name]

		t, ok := typeMap[name]
		if !ok {
			v, t := inferVariable(value)
			variables.Add(name, v, t)
			continue
		}

		variableType, ok := variableTypes[strings.ToLower(t)]
		if !ok {
			return nil, fmt.Errorf("variable %s: invalid type %s", name, t)
		}

		v, err := convertVariable(value, variableType)
		if err != nil {
			return nil, fmt.Errorf("variable %s: value %s is not a valid %s", name, value, variableType)
		}

		variables.Add(name, v, variableType)
	}

	return variables, nil
}

func inferVariable(value string) (any, string) {
	if value == "true" || value == "false" {
		return value == "true", "Boolean"
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return i, "Integer"
		}
		return i, "Long"
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f, "Double"
	}
	return value, "String"
}

func convertVariable(value string, variableType string) (any, error) {
	switch variableType {
	case "Boolean":
		return strconv.ParseBool(value)
	case "Double":
		return strconv.ParseFloat(value, 64)
	case "Integer":
		return strconv.ParseInt(value, 10, 32)
	case "Long":
		return strconv.ParseInt(value, 10, 64)
	case "Null":
		return nil, nil
	case "Short":
		return strconv.ParseInt(value, 10, 16)
	default:
		return value, nil
	}
}
