package cli

import (
	"bytes"
	"testing"

	"github.com/gclaussn/go-camunda/camunda"
	"github.com/gclaussn/go-camunda/internal/camundatest"
	"github.com/gclaussn/go-camunda/rest"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func mustCreateEngine(t *testing.T) (*camundatest.Engine, *camunda.Client) {
	e := camundatest.New()
	t.Cleanup(e.Close)

	client, err := camunda.New(e.URL())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(client.Shutdown)

	return e, client
}

func execute(client *camunda.Client, args []string) (string, error) {
	rootCmd := newRootCmd(&Cli{client: client, logger: zap.NewNop()})
	rootCmd.PersistentPostRun = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, client *camunda.Client, args []string) string {
	out, err := execute(client, args)
	if err != nil {
		t.Fatalf("failed to execute %v: %v\n%s", args, err, out)
	}
	return out
}

func mustDeploy(t *testing.T, client *camunda.Client) {
	mustExecute(t, client, []string{
		"deployment",
		"create",
		"--name",
		"order",
		"--file",
		"./testdata/order.bpmn",
	})
}

func TestMapVariables(t *testing.T) {
	assert := assert.New(t)

	t.Run("no value defined", func(t *testing.T) {
		_, err := mapVariables(map[string]string{}, map[string]string{"a": "String"})
		assert.EqualError(err, "variable a: no value defined")
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := mapVariables(map[string]string{"a": "x"}, map[string]string{"a": "Unknown"})
		assert.EqualError(err, "variable a: invalid type Unknown")
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := mapVariables(map[string]string{"a": "x"}, map[string]string{"a": "integer"})
		assert.EqualError(err, "variable a: value x is not a valid Integer")
	})

	t.Run("inferred types", func(t *testing.T) {
		// when
		variables, err := mapVariables(map[string]string{
			"amount":   "5",
			"approved": "true",
			"big":      "3000000000",
			"customer": "acme",
			"rate":     "0.5",
		}, nil)

		// then
		assert.NoError(err)
		assert.Equal([]rest.Variable{
			{Name: "amount", Value: int64(5), Type: "Integer"},
			{Name: "approved", Value: true, Type: "Boolean"},
			{Name: "big", Value: int64(3000000000), Type: "Long"},
			{Name: "customer", Value: "acme", Type: "String"},
			{Name: "rate", Value: 0.5, Type: "Double"},
		}, variables.All())
	})

	t.Run("explicit types", func(t *testing.T) {
		// when
		variables, err := mapVariables(map[string]string{
			"amount":   "5",
			"customer": "5",
			"empty":    "",
			"order":    `{"id":1}`,
		}, map[string]string{
			"amount":   "double",
			"customer": "String",
			"empty":    "null",
			"order":    "json",
		})

		// then
		assert.NoError(err)
		assert.Equal([]rest.Variable{
			{Name: "amount", Value: float64(5), Type: "Double"},
			{Name: "customer", Value: "5", Type: "String"},
			{Name: "empty", Value: nil, Type: "Null"},
			{Name: "order", Value: `{"id":1}`, Type: "Json"},
		}, variables.All())
	})
}

func TestQueryOptions(t *testing.T) {
	assert := assert.New(t)

	t.Run("default", func(t *testing.T) {
		req := rest.NewTaskRequest()
		queryOptions{maxResults: 100, sortOrder: "asc"}.apply(req)

		assert.Equal([]string{"maxResults"}, req.Object().Names())
	})

	t.Run("sorting", func(t *testing.T) {
		req := rest.NewTaskRequest()
		queryOptions{firstResult: 10, maxResults: 5, sortBy: "name", sortOrder: "desc"}.apply(req)

		assert.Equal([]string{"firstResult", "maxResults", "sortBy", "sortOrder"}, req.Object().Names())
	})
}
