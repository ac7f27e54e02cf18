package cli

import (
	"time"

	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

func newExternalTaskCmd(cli *Cli) *cobra.Command {
	var workerId string

	c := cobra.Command{
		Use:         "external-task",
		Short:       "Fetch, lock and complete external tasks",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.PersistentFlags().StringVar(&workerId, "worker-id", program, "Worker ID")
	c.PersistentFlags().SetAnnotation("worker-id", envLookupAllowed, nil)

	c.AddCommand(newExternalTaskCompleteCmd(cli, &workerId))
	c.AddCommand(newExternalTaskFetchAndLockCmd(cli, &workerId))

	return &c
}

func newExternalTaskCompleteCmd(cli *Cli, workerId *string) *cobra.Command {
	var (
		id       string
		valueMap map[string]string
		typeMap  map[string]string
	)

	c := cobra.Command{
		Use:   "complete",
		Short: "Complete a locked external task",
		RunE: func(c *cobra.Command, _ []string) error {
			variables, err := mapVariables(valueMap, typeMap)
			if err != nil {
				return err
			}

			req := rest.NewExternalTaskRequest().Set("workerId", *workerId)
			if variables.Len() != 0 {
				req.Set("variables", variables)
			}

			result, err := cli.client.CompleteExternalTask(c.Context(), id, req)
			if err != nil {
				return err
			}

			return cli.printResult(c, result)
		},
	}

	c.Flags().StringVar(&id, "id", "", "External task ID")

	flagVariables(&c, &valueMap, &typeMap)

	c.MarkFlagRequired("id")

	return &c
}

func newExternalTaskFetchAndLockCmd(cli *Cli, workerId *string) *cobra.Command {
	var (
		topicNames   []string
		lockDuration time.Duration
		maxTasks     int
		usePriority  bool
	)

	c := cobra.Command{
		Use:   "fetch-and-lock",
		Short: "Fetch and lock external tasks",
		RunE: func(c *cobra.Command, _ []string) error {
			topics := make([]map[string]any, len(topicNames))
			for i, topicName := range topicNames {
				topics[i] = map[string]any{
					"topicName":    topicName,
					"lockDuration": lockDuration.Milliseconds(),
				}
			}

			req := rest.NewExternalTaskRequest().
				Set("workerId", *workerId).
				Set("maxTasks", maxTasks).
				Set("topics", topics)

			setIfChanged(c, req, "use-priority", "usePriority", usePriority)

			result, err := cli.client.FetchAndLockExternalTasks(c.Context(), req)
			if err != nil {
				return err
			}

			return cli.printResults(c, result, "", []column{
				{"ID", "id"},
				{"TOPIC NAME", "topicName"},
				{"WORKER ID", "workerId"},
				{"PROCESS INSTANCE ID", "processInstanceId"},
			})
		},
	}

	c.Flags().StringSliceVar(&topicNames, "topic", nil, "Name of a topic to fetch tasks for")
	c.Flags().DurationVar(&lockDuration, "lock-duration", time.Minute, "Duration, the fetched tasks are locked for")
	c.Flags().IntVar(&maxTasks, "max-tasks", 1, "Maximum number of tasks to fetch")
	c.Flags().BoolVar(&usePriority, "use-priority", false, "Fetch tasks with higher priority first")

	c.MarkFlagRequired("topic")

	return &c
}
