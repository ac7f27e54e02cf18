package cli

import (
	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

func newTaskCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "task",
		Short:       "Manage and query user tasks",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newTaskClaimCmd(cli))
	c.AddCommand(newTaskCompleteCmd(cli))
	c.AddCommand(newTaskQueryCmd(cli))

	return &c
}

func newTaskClaimCmd(cli *Cli) *cobra.Command {
	var (
		id     string
		userId string
	)

	c := cobra.Command{
		Use:   "claim",
		Short: "Claim a task",
		RunE: func(c *cobra.Command, _ []string) error {
			req := rest.NewTaskRequest().Set("userId", userId)

			result, err := cli.client.ClaimTask(c.Context(), id, req)
			if err != nil {
				return err
			}

			return cli.printResult(c, result)
		},
	}

	c.Flags().StringVar(&id, "id", "", "Task ID")
	c.Flags().StringVar(&userId, "user-id", "", "ID of the user, who claims the task")

	c.MarkFlagRequired("id")
	c.MarkFlagRequired("user-id")

	return &c
}

func newTaskCompleteCmd(cli *Cli) *cobra.Command {
	var (
		id       string
		valueMap map[string]string
		typeMap  map[string]string
	)

	c := cobra.Command{
		Use:   "complete",
		Short: "Complete a task",
		RunE: func(c *cobra.Command, _ []string) error {
			variables, err := mapVariables(valueMap, typeMap)
			if err != nil {
				return err
			}

			req := rest.NewTaskRequest()
			if variables.Len() != 0 {
				req.Set("variables", variables)
			}

			result, err := cli.client.CompleteTask(c.Context(), id, req)
			if err != nil {
				return err
			}

			return cli.printResult(c, result)
		},
	}

	c.Flags().StringVar(&id, "id", "", "Task ID")

	flagVariables(&c, &valueMap, &typeMap)

	c.MarkFlagRequired("id")

	return &c
}

func newTaskQueryCmd(cli *Cli) *cobra.Command {
	var (
		assignee          string
		processInstanceId string
		name              string
		unassigned        bool

		options queryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query tasks",
		RunE: func(c *cobra.Command, _ []string) error {
			req := rest.NewTaskRequest()
			setIfChanged(c, req, "assignee", "assignee", assignee)
			setIfChanged(c, req, "process-instance-id", "processInstanceId", processInstanceId)
			setIfChanged(c, req, "name", "name", name)
			setIfChanged(c, req, "unassigned", "unassigned", unassigned)
			options.apply(req)

			result, err := cli.client.GetTasks(c.Context(), req)
			if err != nil {
				return err
			}

			return cli.printResults(c, result, "task", []column{
				{"ID", "id"},
				{"NAME", "name"},
				{"ASSIGNEE", "assignee"},
				{"PROCESS INSTANCE ID", "processInstanceId"},
				{"TASK DEFINITION KEY", "taskDefinitionKey"},
			})
		},
	}

	c.Flags().StringVar(&assignee, "assignee", "", "ID of the assigned user")
	c.Flags().StringVar(&processInstanceId, "process-instance-id", "", "Process instance ID")
	c.Flags().StringVar(&name, "name", "", "Task name")
	c.Flags().BoolVar(&unassigned, "unassigned", false, "Only tasks without assignee")

	flagQueryOptions(&c, &options)

	return &c
}
