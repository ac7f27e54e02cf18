package cli

import (
	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

func newVariableCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "variable",
		Short:       "Query variables",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newVariableQueryCmd(cli))

	return &c
}

func newVariableQueryCmd(cli *Cli) *cobra.Command {
	var (
		name               string
		nameLike           string
		processInstanceIds []string

		options queryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query variable instances",
		RunE: func(c *cobra.Command, _ []string) error {
			req := rest.NewVariableInstanceRequest()
			setIfChanged(c, req, "name", "variableName", name)
			setIfChanged(c, req, "name-like", "variableNameLike", nameLike)
			setIfChanged(c, req, "process-instance-id", "processInstanceIdIn", processInstanceIds)
			options.apply(req)

			result, err := cli.client.GetVariableInstances(c.Context(), req)
			if err != nil {
				return err
			}

			return cli.printResults(c, result, "variableInstance", []column{
				{"NAME", "name"},
				{"TYPE", "type"},
				{"VALUE", "value"},
				{"PROCESS INSTANCE ID", "processInstanceId"},
			})
		},
	}

	c.Flags().StringVar(&name, "name", "", "Variable name")
	c.Flags().StringVar(&nameLike, "name-like", "", "Variable name pattern, using % as wildcard")
	c.Flags().StringSliceVar(&processInstanceIds, "process-instance-id", nil, "Process instance ID")

	flagQueryOptions(&c, &options)

	return &c
}
