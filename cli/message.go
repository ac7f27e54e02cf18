package cli

import (
	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

func newMessageCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "message",
		Short:       "Correlate messages",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newMessageCorrelateCmd(cli))

	return &c
}

func newMessageCorrelateCmd(cli *Cli) *cobra.Command {
	var (
		name              string
		businessKey       string
		processInstanceId string
		all               bool
		resultEnabled     bool
		valueMap          map[string]string
		typeMap           map[string]string
	)

	c := cobra.Command{
		Use:   "correlate",
		Short: "Correlate a message",
		RunE: func(c *cobra.Command, _ []string) error {
			variables, err := mapVariables(valueMap, typeMap)
			if err != nil {
				return err
			}

			req := rest.NewMessageRequest().Set("messageName", name)
			setIfChanged(c, req, "business-key", "businessKey", businessKey)
			setIfChanged(c, req, "process-instance-id", "processInstanceId", processInstanceId)
			setIfChanged(c, req, "all", "all", all)
			setIfChanged(c, req, "result", "resultEnabled", resultEnabled)
			if variables.Len() != 0 {
				req.Set("processVariables", variables)
			}

			result, err := cli.client.CorrelateMessage(c.Context(), req)
			if err != nil {
				return err
			}

			return cli.printResult(c, result)
		},
	}

	c.Flags().StringVar(&name, "name", "", "Message name")
	c.Flags().StringVar(&businessKey, "business-key", "", "Business key of the process instance to correlate with")
	c.Flags().StringVar(&processInstanceId, "process-instance-id", "", "ID of the process instance to correlate with")
	c.Flags().BoolVar(&all, "all", false, "Correlate the message with all matching executions")
	c.Flags().BoolVar(&resultEnabled, "result", false, "Return the correlation result")

	flagVariables(&c, &valueMap, &typeMap)

	c.MarkFlagRequired("name")

	return &c
}

func newSignalCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "signal",
		Short:       "Deliver signals",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newSignalDeliverCmd(cli))

	return &c
}

func newSignalDeliverCmd(cli *Cli) *cobra.Command {
	var (
		name     string
		tenantId string
		valueMap map[string]string
		typeMap  map[string]string
	)

	c := cobra.Command{
		Use:   "deliver",
		Short: "Deliver a signal",
		RunE: func(c *cobra.Command, _ []string) error {
			variables, err := mapVariables(valueMap, typeMap)
			if err != nil {
				return err
			}

			req := rest.NewSignalRequest().Set("name", name)
			setIfChanged(c, req, "tenant-id", "tenantId", tenantId)
			if variables.Len() != 0 {
				req.Set("variables", variables)
			}

			result, err := cli.client.DeliverSignal(c.Context(), req)
			if err != nil {
				return err
			}

			return cli.printResult(c, result)
		},
	}

	c.Flags().StringVar(&name, "name", "", "Signal name")
	c.Flags().StringVar(&tenantId, "tenant-id", "", "Tenant ID")

	flagVariables(&c, &valueMap, &typeMap)

	c.MarkFlagRequired("name")

	return &c
}
