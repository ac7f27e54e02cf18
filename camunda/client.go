package camunda

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gclaussn/go-camunda/rest"
)

func New(url string, customizers ...func(*Options)) (*Client, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	transport, err := rest.NewTransport(url, func(o *rest.Options) {
		*o = options.Options
	})
	if err != nil {
		return nil, err
	}

	client := Client{
		transport: transport,
		options:   options,
	}

	return &client, nil
}

func NewOptions() Options {
	return Options{Options: rest.NewOptions()}
}

type Options struct {
	rest.Options

	HAL bool // Determines if HAL responses are requested for queries.
}

// Client provides the operations of the engine's REST API.
// A client is safe for concurrent use, since every operation is dispatched by a separate [rest.Service].
type Client struct {
	transport rest.Transport
	options   Options
}

// NewService creates a service for an operation, which is not covered by the client.
func (c *Client) NewService() *rest.Service {
	return rest.NewService(c.transport)
}

// deployment

func (c *Client) CreateDeployment(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodPost, PathDeploymentCreate, rest.ContentTypeMultipart, req, false)
}

func (c *Client) DeleteDeployment(ctx context.Context, id string, req *rest.Entity) (rest.Result, error) {
	path := resolve(PathDeploymentId, "{id}", id)
	return c.run(ctx, http.MethodDelete, path, rest.ContentTypeQuery, req, false)
}

func (c *Client) GetDeployment(ctx context.Context, id string) (rest.Result, error) {
	path := resolve(PathDeploymentId, "{id}", id)
	return c.run(ctx, http.MethodGet, path, rest.ContentTypeQuery, nil, false)
}

func (c *Client) GetDeployments(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodGet, PathDeployment, rest.ContentTypeQuery, req, c.options.HAL)
}

// engine

func (c *Client) GetEngines(ctx context.Context) (rest.Result, error) {
	return c.run(ctx, http.MethodGet, PathEngine, rest.ContentTypeQuery, nil, false)
}

func (c *Client) GetVersion(ctx context.Context) (rest.Result, error) {
	return c.run(ctx, http.MethodGet, PathVersion, rest.ContentTypeQuery, nil, false)
}

// external task

func (c *Client) CompleteExternalTask(ctx context.Context, id string, req *rest.Entity) (rest.Result, error) {
	path := resolve(PathExternalTaskComplete, "{id}", id)
	return c.run(ctx, http.MethodPost, path, rest.ContentTypeJSON, req, false)
}

func (c *Client) FetchAndLockExternalTasks(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodPost, PathExternalTaskFetchAndLock, rest.ContentTypeJSON, req, false)
}

// HandleExternalTaskBpmnError reports a business error, which is handled by an error boundary event.
func (c *Client) HandleExternalTaskBpmnError(ctx context.Context, id string, req *rest.Entity) (rest.Result, error) {
	path := resolve(PathExternalTaskBpmnError, "{id}", id)
	return c.run(ctx, http.MethodPost, path, rest.ContentTypeJSON, req, false)
}

// HandleExternalTaskFailure reports a failure. An incident is created, when no retries are left.
func (c *Client) HandleExternalTaskFailure(ctx context.Context, id string, req *rest.Entity) (rest.Result, error) {
	path := resolve(PathExternalTaskFailure, "{id}", id)
	return c.run(ctx, http.MethodPost, path, rest.ContentTypeJSON, req, false)
}

// message and signal

func (c *Client) CorrelateMessage(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodPost, PathMessage, rest.ContentTypeJSON, req, false)
}

func (c *Client) DeliverSignal(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodPost, PathSignal, rest.ContentTypeJSON, req, false)
}

// process definition

func (c *Client) GetProcessDefinitions(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodGet, PathProcessDefinition, rest.ContentTypeQuery, req, c.options.HAL)
}

// StartProcessInstance starts an instance of the latest process definition version with the given key.
func (c *Client) StartProcessInstance(ctx context.Context, key string, req *rest.Entity) (rest.Result, error) {
	path := resolve(PathProcessDefinitionKeyStart, "{key}", key)
	return c.run(ctx, http.MethodPost, path, rest.ContentTypeJSON, req, false)
}

// process instance

func (c *Client) DeleteProcessInstance(ctx context.Context, id string, req *rest.Entity) (rest.Result, error) {
	path := resolve(PathProcessInstanceId, "{id}", id)
	return c.run(ctx, http.MethodDelete, path, rest.ContentTypeQuery, req, false)
}

func (c *Client) GetProcessInstances(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodGet, PathProcessInstance, rest.ContentTypeQuery, req, c.options.HAL)
}

func (c *Client) GetProcessInstanceVariables(ctx context.Context, id string) (rest.Result, error) {
	path := resolve(PathProcessInstanceVariables, "{id}", id)
	return c.run(ctx, http.MethodGet, path, rest.ContentTypeQuery, nil, false)
}

// task

func (c *Client) ClaimTask(ctx context.Context, id string, req *rest.Entity) (rest.Result, error) {
	path := resolve(PathTaskClaim, "{id}", id)
	return c.run(ctx, http.MethodPost, path, rest.ContentTypeJSON, req, false)
}

func (c *Client) CompleteTask(ctx context.Context, id string, req *rest.Entity) (rest.Result, error) {
	path := resolve(PathTaskComplete, "{id}", id)
	return c.run(ctx, http.MethodPost, path, rest.ContentTypeJSON, req, false)
}

func (c *Client) GetTasks(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodGet, PathTask, rest.ContentTypeQuery, req, c.options.HAL)
}

// variable instance

func (c *Client) GetVariableInstances(ctx context.Context, req *rest.Entity) (rest.Result, error) {
	return c.run(ctx, http.MethodGet, PathVariableInstance, rest.ContentTypeQuery, req, c.options.HAL)
}

// Shutdown closes idle connections of the underlying HTTP client.
func (c *Client) Shutdown() {
	if t, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

func (c *Client) run(ctx context.Context, method string, path string, contentType rest.ContentType, req *rest.Entity, hal bool) (rest.Result, error) {
	return c.NewService().
		SetURL(path).
		SetMethod(method).
		SetContentType(contentType.String()).
		SetEntity(req).
		Run(ctx, hal)
}

func resolve(path string, placeholder string, value string) string {
	return strings.Replace(path, placeholder, url.PathEscape(value), 1)
}
