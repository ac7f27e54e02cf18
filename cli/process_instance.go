package cli

import (
	"slices"

	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

func newProcessInstanceCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "process-instance",
		Short:       "Manage and query process instances",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newProcessInstanceDeleteCmd(cli))
	c.AddCommand(newProcessInstanceQueryCmd(cli))
	c.AddCommand(newProcessInstanceVariablesCmd(cli))

	return &c
}

func newProcessInstanceDeleteCmd(cli *Cli) *cobra.Command {
	var (
		id                  string
		skipCustomListeners bool
		skipIoMappings      bool
	)

	c := cobra.Command{
		Use:   "delete",
		Short: "Delete a process instance",
		RunE: func(c *cobra.Command, _ []string) error {
			req := rest.NewProcessInstanceRequest()
			setIfChanged(c, req, "skip-custom-listeners", "skipCustomListeners", skipCustomListeners)
			setIfChanged(c, req, "skip-io-mappings", "skipIoMappings", skipIoMappings)

			result, err := cli.client.DeleteProcessInstance(c.Context(), id, req)
			if err != nil {
				return err
			}

			return cli.printResult(c, result)
		},
	}

	c.Flags().StringVar(&id, "id", "", "Process instance ID")
	c.Flags().BoolVar(&skipCustomListeners, "skip-custom-listeners", false, "Skip execution listeners")
	c.Flags().BoolVar(&skipIoMappings, "skip-io-mappings", false, "Skip input and output mappings")

	c.MarkFlagRequired("id")

	return &c
}

func newProcessInstanceQueryCmd(cli *Cli) *cobra.Command {
	var (
		businessKey          string
		processDefinitionId  string
		processDefinitionKey string

		options queryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query process instances",
		RunE: func(c *cobra.Command, _ []string) error {
			req := rest.NewProcessInstanceRequest()
			setIfChanged(c, req, "business-key", "businessKey", businessKey)
			setIfChanged(c, req, "process-definition-id", "processDefinitionId", processDefinitionId)
			setIfChanged(c, req, "process-definition-key", "processDefinitionKey", processDefinitionKey)
			options.apply(req)

			result, err := cli.client.GetProcessInstances(c.Context(), req)
			if err != nil {
				return err
			}

			return cli.printResults(c, result, "processInstance", []column{
				{"ID", "id"},
				{"DEFINITION ID", "definitionId"},
				{"BUSINESS KEY", "businessKey"},
				{"ENDED", "ended"},
				{"SUSPENDED", "suspended"},
			})
		},
	}

	c.Flags().StringVar(&businessKey, "business-key", "", "Business key")
	c.Flags().StringVar(&processDefinitionId, "process-definition-id", "", "Process definition ID")
	c.Flags().StringVar(&processDefinitionKey, "process-definition-key", "", "Process definition key")

	flagQueryOptions(&c, &options)

	return &c
}

func newProcessInstanceVariablesCmd(cli *Cli) *cobra.Command {
	var id string

	c := cobra.Command{
		Use:   "variables",
		Short: "Get process instance variables",
		RunE: func(c *cobra.Command, _ []string) error {
			result, err := cli.client.GetProcessInstanceVariables(c.Context(), id)
			if err != nil {
				return err
			}
			if err := result.Err(); err != nil {
				return err
			}

			if cli.output == outputJSON {
				return cli.printResult(c, result)
			}

			variables, _ := result.Contents.(map[string]any)

			names := make([]string, 0, len(variables))
			for name := range variables {
				names = append(names, name)
			}
			slices.Sort(names)

			table := newTable([]string{"NAME", "TYPE", "VALUE"})
			for _, name := range names {
				variable, _ := variables[name].(map[string]any)
				table.addRow([]string{
					name,
					formatValue(variable["type"]),
					formatValue(variable["value"]),
				})
			}

			c.Print(table.format())
			return nil
		},
	}

	c.Flags().StringVar(&id, "id", "", "Process instance ID")

	c.MarkFlagRequired("id")

	return &c
}
