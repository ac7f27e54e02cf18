package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gclaussn/go-camunda/camunda"
	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	envLookupAllowed = "envLookupAllowed" // flag level annotation that allows an environment variable lookup
	envPrefix        = "CAMUNDA_"
	noEngineRequired = "noEngineRequired" // annotation, indicating that no engine is required to run the command
	program          = "camunda"
)

func New(version string) *Cli {
	cli := Cli{version: version}

	cli.rootCmd = newRootCmd(&cli)

	return &cli
}

type Cli struct {
	version string

	rootCmd *cobra.Command

	client       *camunda.Client
	logger       *zap.Logger
	debugEnabled bool
	hal          bool
	output       outputValue
}

func (c *Cli) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func (c *Cli) help(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

func newRootCmd(cli *Cli) *cobra.Command {
	var (
		configFileName string
		url            string
		username       string
		password       string
		timeout        time.Duration
	)

	cli.output = outputTable

	c := cobra.Command{
		Use:   program,
		Short: "A client for the REST API of Camunda 7 engines",
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			c.SilenceUsage = true

			if _, ok := c.Annotations[noEngineRequired]; ok {
				return nil
			}

			fromEnv := make(map[string]bool)
			c.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				if _, ok := f.Annotations[envLookupAllowed]; !ok {
					return
				}

				// e.g. worker-id -> CAMUNDA_WORKER_ID
				key := envPrefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")

				if value, ok := os.LookupEnv(key); ok {
					f.Value.Set(value)
					fromEnv[f.Name] = true
				}
			})

			if configFileName != "" {
				cfg, err := readConfig(configFileName)
				if err != nil {
					return err
				}
				if err := cfg.apply(c.Flags(), fromEnv); err != nil {
					return err
				}
			}

			if cli.logger == nil {
				logger, err := newLogger(cli.debugEnabled)
				if err != nil {
					return fmt.Errorf("failed to create logger: %v", err)
				}
				cli.logger = logger
			}

			if cli.client != nil {
				return nil // skip client creation when testing
			}

			client, err := camunda.New(url, func(o *camunda.Options) {
				o.Username = username
				o.Password = password
				o.Timeout = timeout
				o.HAL = cli.hal

				if cli.debugEnabled {
					o.Logger = cli.logger
					o.OnRequest = cli.debugRequest
					o.OnResponse = cli.debugResponse
				}
			})
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			cli.client = client
			return nil
		},
		RunE: cli.help,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cli.client != nil {
				cli.client.Shutdown()
			}
			if cli.logger != nil {
				cli.logger.Sync()
			}
		},
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.PersistentFlags().StringVar(&configFileName, "config", "", "Path to a YAML configuration file")
	c.PersistentFlags().StringVar(&url, "url", "http://localhost:8080/engine-rest", "REST API URL")
	c.PersistentFlags().StringVar(&username, "username", "", "Basic auth username")
	c.PersistentFlags().StringVar(&password, "password", "", "Basic auth password")
	c.PersistentFlags().DurationVar(&timeout, "timeout", 40*time.Second, "Time limit for requests made by the HTTP client")
	c.PersistentFlags().BoolVar(&cli.debugEnabled, "debug", false, "Log HTTP requests and responses")
	c.PersistentFlags().BoolVar(&cli.hal, "hal", false, "Request HAL responses for queries")
	c.PersistentFlags().Var(&cli.output, "output", "Output format: table or json")

	c.PersistentFlags().SetAnnotation("config", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("url", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("username", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("password", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("timeout", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("debug", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("hal", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("output", envLookupAllowed, nil)

	c.MarkPersistentFlagFilename("config", ".yaml", ".yml")

	c.AddCommand(newDeploymentCmd(cli))
	c.AddCommand(newExternalTaskCmd(cli))
	c.AddCommand(newMessageCmd(cli))
	c.AddCommand(newProcessDefinitionCmd(cli))
	c.AddCommand(newProcessInstanceCmd(cli))
	c.AddCommand(newRequestCmd(cli))
	c.AddCommand(newSignalCmd(cli))
	c.AddCommand(newTaskCmd(cli))
	c.AddCommand(newVariableCmd(cli))
	c.AddCommand(newVersionCmd(cli))

	return &c
}

func newVersionCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(c *cobra.Command, _ []string) {
			c.Println(cli.version)
		},
		Annotations: map[string]string{noEngineRequired: ""},
	}

	return &c
}

// newLogger creates a console logger, writing to stderr. Debug messages are only logged, if debug is enabled.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true

	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

func (c *Cli) debugRequest(req *http.Request) error {
	c.logger.Debug("request", zap.String("method", req.Method), zap.Stringer("url", req.URL))

	if req.Body == nil {
		return nil
	}

	b, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	req.Body = io.NopCloser(bytes.NewReader(b)) // make body readable again

	if req.Header.Get(rest.HeaderContentType) == rest.ContentTypeJson {
		c.logger.Debug("request body:\n" + formatJSON(b))
	} else {
		c.logger.Debug("request body", zap.Int("size", len(b)))
	}
	return nil
}

func (c *Cli) debugResponse(res *http.Response) error {
	fields := make([]zap.Field, 0, len(res.Header)+1)
	fields = append(fields, zap.Int("statusCode", res.StatusCode))
	for name, values := range res.Header {
		fields = append(fields, zap.String(name, strings.Join(values, ", ")))
	}

	c.logger.Debug("response", fields...)

	resBody := res.Body
	defer resBody.Close()

	b, err := io.ReadAll(resBody)
	if err != nil {
		c.logger.Debug("failed to read response body", zap.Error(err))
		return err
	}

	res.Body = io.NopCloser(bytes.NewReader(b)) // make body readable again

	if len(b) != 0 {
		c.logger.Debug("response body:\n" + formatJSON(b))
	}
	return nil
}

// formatJSON indents a JSON document. Any other content is returned as it is.
func formatJSON(b []byte) string {
	buf := &bytes.Buffer{}
	if err := json.Indent(buf, b, "", "  "); err != nil {
		return string(b)
	}
	return buf.String()
}
