package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

// column maps a property of a result object to a table column.
type column struct {
	header   string
	property string
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// printResult prints the contents of a single result object.
func (c *Cli) printResult(cmd *cobra.Command, result rest.Result) error {
	if err := result.Err(); err != nil {
		return err
	}

	if len(result.Body) != 0 {
		cmd.Println(formatJSON(result.Body))
	}
	return nil
}

// printResults prints a list of result objects as table or as JSON, depending on the output flag.
// name is the relation of a HAL resource, which embeds the list.
func (c *Cli) printResults(cmd *cobra.Command, result rest.Result, name string, columns []column) error {
	if err := result.Err(); err != nil {
		return err
	}

	if c.output == outputJSON {
		cmd.Println(formatJSON(result.Body))
		return nil
	}

	headers := make([]string, len(columns))
	for i, column := range columns {
		headers[i] = column.header
	}

	table := newTable(headers)
	for _, r := range listContents(result.Contents, name) {
		m, _ := r.(map[string]any)

		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = formatValue(m[column.property])
		}
		table.addRow(row)
	}

	cmd.Print(table.format())
	return nil
}

// listContents returns the list of a query result. A HAL resource is unwrapped.
func listContents(contents any, name string) []any {
	switch v := contents.(type) {
	case []any:
		return v
	case map[string]any:
		if embedded, ok := v["_embedded"].(map[string]any); ok {
			list, _ := embedded[name].([]any)
			return list
		}
	}
	return nil
}

func newTable(headers []string) table {
	rows := make([][]string, 2)
	rows[0] = headers
	rows[1] = make([]string, len(headers))

	return table{rows: rows}
}

type table struct {
	rows [][]string
}

func (t *table) addRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *table) format() string {
	rows := t.rows

	columns := make([]int, len(rows[0]))
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			l := utf8.RuneCountInString(rows[i][j])
			if columns[j] < l {
				columns[j] = l
			}
		}
	}

	var sb strings.Builder
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			if j != 0 {
				sb.WriteString("   ")
			}

			value := rows[i][j]
			sb.WriteString(value)

			if j == len(columns)-1 {
				continue
			}

			l := utf8.RuneCountInString(value)
			for k := 0; k < columns[j]-l; k++ {
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
