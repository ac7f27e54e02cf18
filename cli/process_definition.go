package cli

import (
	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

func newProcessDefinitionCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "process-definition",
		Short:       "Query process definitions and start process instances",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newProcessDefinitionQueryCmd(cli))
	c.AddCommand(newProcessDefinitionStartCmd(cli))

	return &c
}

func newProcessDefinitionQueryCmd(cli *Cli) *cobra.Command {
	var (
		key           string
		deploymentId  string
		latestVersion bool

		options queryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query process definitions",
		RunE: func(c *cobra.Command, _ []string) error {
			req := rest.NewProcessDefinitionRequest()
			setIfChanged(c, req, "key", "key", key)
			setIfChanged(c, req, "deployment-id", "deploymentId", deploymentId)
			setIfChanged(c, req, "latest-version", "latestVersion", latestVersion)
			options.apply(req)

			result, err := cli.client.GetProcessDefinitions(c.Context(), req)
			if err != nil {
				return err
			}

			return cli.printResults(c, result, "processDefinition", []column{
				{"ID", "id"},
				{"KEY", "key"},
				{"NAME", "name"},
				{"VERSION", "version"},
				{"DEPLOYMENT ID", "deploymentId"},
				{"SUSPENDED", "suspended"},
			})
		},
	}

	c.Flags().StringVar(&key, "key", "", "Process definition key")
	c.Flags().StringVar(&deploymentId, "deployment-id", "", "Deployment ID")
	c.Flags().BoolVar(&latestVersion, "latest-version", false, "Only the latest version of each process definition")

	flagQueryOptions(&c, &options)

	return &c
}

func newProcessDefinitionStartCmd(cli *Cli) *cobra.Command {
	var (
		key         string
		businessKey string
		valueMap    map[string]string
		typeMap     map[string]string
	)

	c := cobra.Command{
		Use:   "start",
		Short: "Start a process instance",
		RunE: func(c *cobra.Command, _ []string) error {
			variables, err := mapVariables(valueMap, typeMap)
			if err != nil {
				return err
			}

			req := rest.NewProcessDefinitionRequest()
			setIfChanged(c, req, "business-key", "businessKey", businessKey)
			if variables.Len() != 0 {
				req.Set("variables", variables)
			}

			result, err := cli.client.StartProcessInstance(c.Context(), key, req)
			if err != nil {
				return err
			}
			if err := result.Err(); err != nil {
				return err
			}

			var processInstance struct {
				Id string `json:"id"`
			}
			if err := result.Decode(&processInstance); err != nil {
				return err
			}

			c.Println(processInstance.Id)
			return nil
		},
	}

	c.Flags().StringVar(&key, "key", "", "Key of an existing process definition, whose latest version is started")
	c.Flags().StringVar(&businessKey, "business-key", "", "Optional key, used to correlate a process instance with a business entity")

	flagVariables(&c, &valueMap, &typeMap)

	c.MarkFlagRequired("key")

	return &c
}
