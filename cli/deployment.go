package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"
	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDeploymentCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "deployment",
		Short:       "Manage and query deployments",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newDeploymentCreateCmd(cli))
	c.AddCommand(newDeploymentDeleteCmd(cli))
	c.AddCommand(newDeploymentQueryCmd(cli))

	return &c
}

func newDeploymentCreateCmd(cli *Cli) *cobra.Command {
	var (
		fileNames          []string
		name               string
		source             string
		tenantId           string
		duplicateFiltering bool
		changedOnly        bool
		watch              bool
	)

	c := cobra.Command{
		Use:   "create",
		Short: "Create a deployment",
		RunE: func(c *cobra.Command, _ []string) error {
			deploy := func(ctx context.Context, duplicateFiltering bool) error {
				files := rest.NewFiles()
				for _, fileName := range fileNames {
					if err := files.AddFile(filepath.Base(fileName), fileName); err != nil {
						return err
					}
				}

				req := rest.NewDeploymentRequest().
					Set("deployment-name", name).
					Set("deployment-source", source).
					Set("data", files)

				if tenantId != "" {
					req.Set("tenant-id", tenantId)
				}
				if duplicateFiltering {
					req.Set("enable-duplicate-filtering", true)
				}
				if changedOnly {
					req.Set("deploy-changed-only", true)
				}

				result, err := cli.client.CreateDeployment(ctx, req)
				if err != nil {
					return err
				}
				if err := result.Err(); err != nil {
					return err
				}

				var deployment struct {
					Id                         string                    `json:"id"`
					DeployedProcessDefinitions map[string]map[string]any `json:"deployedProcessDefinitions"`
				}
				if err := result.Decode(&deployment); err != nil {
					return err
				}

				c.Println(deployment.Id)

				if len(deployment.DeployedProcessDefinitions) == 0 {
					return nil
				}

				ids := make([]string, 0, len(deployment.DeployedProcessDefinitions))
				for id := range deployment.DeployedProcessDefinitions {
					ids = append(ids, id)
				}
				slices.Sort(ids)

				table := newTable([]string{"PROCESS DEFINITION ID", "KEY", "VERSION"})
				for _, id := range ids {
					processDefinition := deployment.DeployedProcessDefinitions[id]
					table.addRow([]string{
						id,
						formatValue(processDefinition["key"]),
						formatValue(processDefinition["version"]),
					})
				}

				c.Print(table.format())
				return nil
			}

			if err := deploy(c.Context(), duplicateFiltering); err != nil {
				return err
			}

			if !watch {
				return nil
			}

			ctx, cancel := signal.NotifyContext(c.Context(), os.Interrupt)
			defer cancel()

			return watchFiles(ctx, cli.logger, fileNames, func() error {
				// unchanged files must not result in a new deployment
				return deploy(ctx, true)
			})
		},
	}

	c.Flags().StringSliceVar(&fileNames, "file", nil, "Path to a resource file, e.g. a BPMN XML file")
	c.Flags().StringVar(&name, "name", "", "Deployment name")
	c.Flags().StringVar(&source, "source", program, "Deployment source")
	c.Flags().StringVar(&tenantId, "tenant-id", "", "Tenant ID")
	c.Flags().BoolVar(&duplicateFiltering, "duplicate-filtering", false, "Skip the deployment, if no resource has changed")
	c.Flags().BoolVar(&changedOnly, "changed-only", false, "Deploy only changed resources")
	c.Flags().BoolVar(&watch, "watch", false, "Watch the files and redeploy them, when changed")

	c.MarkFlagRequired("file")
	c.MarkFlagRequired("name")

	c.MarkFlagFilename("file", ".bpmn", ".bpmn20.xml", ".cmmn", ".dmn", ".form", ".xml")

	return &c
}

func newDeploymentDeleteCmd(cli *Cli) *cobra.Command {
	var (
		id      string
		cascade bool
	)

	c := cobra.Command{
		Use:   "delete",
		Short: "Delete a deployment",
		RunE: func(c *cobra.Command, _ []string) error {
			req := rest.NewDeploymentRequest()
			setIfChanged(c, req, "cascade", "cascade", cascade)

			result, err := cli.client.DeleteDeployment(c.Context(), id, req)
			if err != nil {
				return err
			}

			return cli.printResult(c, result)
		},
	}

	c.Flags().StringVar(&id, "id", "", "Deployment ID")
	c.Flags().BoolVar(&cascade, "cascade", false, "Delete process instances and history as well")

	c.MarkFlagRequired("id")

	return &c
}

func newDeploymentQueryCmd(cli *Cli) *cobra.Command {
	var (
		id       string
		name     string
		nameLike string
		source   string

		options queryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query deployments",
		RunE: func(c *cobra.Command, _ []string) error {
			req := rest.NewDeploymentRequest()
			setIfChanged(c, req, "id", "id", id)
			setIfChanged(c, req, "name", "name", name)
			setIfChanged(c, req, "name-like", "nameLike", nameLike)
			setIfChanged(c, req, "source", "source", source)
			options.apply(req)

			result, err := cli.client.GetDeployments(c.Context(), req)
			if err != nil {
				return err
			}

			return cli.printResults(c, result, "deployment", []column{
				{"ID", "id"},
				{"NAME", "name"},
				{"SOURCE", "source"},
				{"TENANT ID", "tenantId"},
				{"DEPLOYMENT TIME", "deploymentTime"},
			})
		},
	}

	c.Flags().StringVar(&id, "id", "", "Deployment ID")
	c.Flags().StringVar(&name, "name", "", "Deployment name")
	c.Flags().StringVar(&nameLike, "name-like", "", "Deployment name pattern, using % as wildcard")
	c.Flags().StringVar(&source, "source", "", "Deployment source")

	flagQueryOptions(&c, &options)

	return &c
}

// watchFiles calls deploy, whenever one of the files is written or recreated, until the context is canceled.
// The parent directories are watched, because editors may replace a file on save.
func watchFiles(ctx context.Context, logger *zap.Logger, fileNames []string, deploy func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %v", err)
	}

	defer watcher.Close()

	watched := make(map[string]bool, len(fileNames))
	for _, fileName := range fileNames {
		absFileName, err := filepath.Abs(fileName)
		if err != nil {
			return fmt.Errorf("failed to resolve file %s: %v", fileName, err)
		}
		watched[absFileName] = true

		dir := filepath.Dir(absFileName)
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %v", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}

			logger.Info("file changed", zap.String("file", event.Name))
			if err := deploy(); err != nil {
				logger.Error("failed to redeploy", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher failed", zap.Error(err))
		}
	}
}
