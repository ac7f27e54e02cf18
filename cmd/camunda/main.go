/*
camunda is a CLI for interacting with the REST API of Camunda 7 engines.

Usage:

	camunda [flags]
	camunda [command]

Available Commands:

	completion         Generate the autocompletion script for the specified shell
	deployment         Manage and query deployments
	external-task      Fetch, lock and complete external tasks
	help               Help about any command
	message            Correlate messages
	process-definition Query process definitions and start process instances
	process-instance   Manage and query process instances
	request            Send a request to any REST API path
	signal             Deliver signals
	task               Manage and query user tasks
	variable           Query variables
	version            Show version

Flags:

	    --config string      Path to a YAML configuration file
	    --debug              Log HTTP requests and responses
	    --hal                Request HAL responses for queries
	-h, --help               help for camunda
	    --output output      Output format: table or json (default table)
	    --password string    Basic auth password
	    --timeout duration   Time limit for requests made by the HTTP client (default 40s)
	    --url string         REST API URL (default "http://localhost:8080/engine-rest")
	    --username string    Basic auth username

Every flag can also be set via environment variable, using the prefix CAMUNDA_ - e.g. CAMUNDA_URL.

Use "camunda [command] --help" for more information about a command.
*/
package main

import (
	"os"

	"github.com/gclaussn/go-camunda/cli"
)

var (
	version = "unknown-version"
)

func main() {
	cli := cli.New(version)
	os.Exit(cli.Execute())
}
