// Package camundatest provides an in-process fake of the engine's REST API, used for testing.
/*
The fake covers deployments, process definitions, process instances, user tasks, messages, signals, external tasks and variable instances.
Its behavior is limited to what clients need to observe: entities are created, listed, filtered by a few parameters and deleted.
BPMN models are not executed - a started process instance waits at a single user task "Review".
*/
package camundatest

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BasePath is the path of the REST API.
const BasePath = "/engine-rest"

const (
	errorTypeInvalidRequest = "InvalidRequestException"
	errorTypeRest           = "RestException"
)

var regexpProcessId = regexp.MustCompile(`<(?:[a-zA-Z0-9]+:)?process[^>]*\sid="([^"]+)"`)

// New starts a fake engine. Optional basic auth credentials can be required via username and password.
func New(customizers ...func(*Options)) *Engine {
	var options Options
	for _, customizer := range customizers {
		customizer(&options)
	}

	e := Engine{
		options:   options,
		variables: make(map[string]map[string]any),
		resources: make(map[string]map[string]string),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET "+BasePath+"/version", e.getVersion)
	mux.HandleFunc("GET "+BasePath+"/engine", e.getEngines)

	mux.HandleFunc("POST "+BasePath+"/deployment/create", e.createDeployment)
	mux.HandleFunc("GET "+BasePath+"/deployment", e.getDeployments)
	mux.HandleFunc("GET "+BasePath+"/deployment/{id}", e.getDeployment)
	mux.HandleFunc("DELETE "+BasePath+"/deployment/{id}", e.deleteDeployment)

	mux.HandleFunc("GET "+BasePath+"/process-definition", e.getProcessDefinitions)
	mux.HandleFunc("POST "+BasePath+"/process-definition/key/{key}/start", e.startProcessInstance)

	mux.HandleFunc("GET "+BasePath+"/process-instance", e.getProcessInstances)
	mux.HandleFunc("DELETE "+BasePath+"/process-instance/{id}", e.deleteProcessInstance)
	mux.HandleFunc("GET "+BasePath+"/process-instance/{id}/variables", e.getProcessInstanceVariables)

	mux.HandleFunc("GET "+BasePath+"/task", e.getTasks)
	mux.HandleFunc("POST "+BasePath+"/task/{id}/claim", e.claimTask)
	mux.HandleFunc("POST "+BasePath+"/task/{id}/complete", e.completeTask)

	mux.HandleFunc("POST "+BasePath+"/message", e.correlateMessage)
	mux.HandleFunc("POST "+BasePath+"/signal", e.deliverSignal)

	mux.HandleFunc("POST "+BasePath+"/external-task/fetchAndLock", e.fetchAndLockExternalTasks)
	mux.HandleFunc("POST "+BasePath+"/external-task/{id}/complete", e.completeExternalTask)
	mux.HandleFunc("POST "+BasePath+"/external-task/{id}/failure", e.handleExternalTaskFailure)
	mux.HandleFunc("POST "+BasePath+"/external-task/{id}/bpmnError", e.handleExternalTaskBpmnError)

	mux.HandleFunc("GET "+BasePath+"/variable-instance", e.getVariableInstances)

	e.server = httptest.NewServer(&recordHandler{e: &e, handler: mux})
	return &e
}

type Options struct {
	Username string // Optional basic auth username.
	Password string // Optional basic auth password.
}

// Engine is a fake engine, serving the REST API via HTTP.
type Engine struct {
	options Options
	server  *httptest.Server

	mu sync.Mutex

	deployments        []Deployment
	processDefinitions []ProcessDefinition
	processInstances   []ProcessInstance
	tasks              []Task
	externalTasks      []ExternalTask
	messages           []Message
	signals            []Signal
	variables          map[string]map[string]any    // process instance ID -> name -> variable
	resources          map[string]map[string]string // deployment ID -> filename -> content

	requests []Request

	ids int
}

type Deployment struct {
	Id             string    `json:"id"`
	Name           string    `json:"name"`
	Source         string    `json:"source"`
	TenantId       string    `json:"tenantId"`
	DeploymentTime time.Time `json:"deploymentTime"`
	Resources      []string  `json:"-"`
}

type ProcessDefinition struct {
	Id           string `json:"id"`
	Key          string `json:"key"`
	Name         string `json:"name"`
	Version      int    `json:"version"`
	DeploymentId string `json:"deploymentId"`
	Resource     string `json:"resource"`
	Suspended    bool   `json:"suspended"`
}

type ProcessInstance struct {
	Id           string `json:"id"`
	DefinitionId string `json:"definitionId"`
	BusinessKey  string `json:"businessKey"`
	Ended        bool   `json:"ended"`
	Suspended    bool   `json:"suspended"`
}

type Task struct {
	Id                string `json:"id"`
	Name              string `json:"name"`
	Assignee          string `json:"assignee"`
	ProcessInstanceId string `json:"processInstanceId"`
	TaskDefinitionKey string `json:"taskDefinitionKey"`
}

type ExternalTask struct {
	Id                string         `json:"id"`
	TopicName         string         `json:"topicName"`
	WorkerId          string         `json:"workerId"`
	ProcessInstanceId string         `json:"processInstanceId"`
	Variables         map[string]any `json:"variables"`
	ErrorMessage      string         `json:"errorMessage"`
	ErrorCode         string         `json:"-"`
	Retries           int            `json:"retries"`
	Completed         bool           `json:"-"`
	Incident          bool           `json:"-"` // set, when a failure is reported with no retries left
}

type Message struct {
	MessageName      string         `json:"messageName"`
	BusinessKey      string         `json:"businessKey"`
	ProcessVariables map[string]any `json:"processVariables"`
}

type Signal struct {
	Name      string         `json:"name"`
	Variables map[string]any `json:"variables"`
}

// Request is a received HTTP request.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
}

// URL returns the base URL of the REST API.
func (e *Engine) URL() string {
	return e.server.URL + BasePath
}

func (e *Engine) Close() {
	e.server.Close()
}

// AddExternalTask adds an external task, which can be fetched and locked by a worker.
func (e *Engine) AddExternalTask(topicName string, variables map[string]any) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	externalTask := ExternalTask{
		Id:        e.nextId(),
		TopicName: topicName,
		Variables: variables,
	}
	e.externalTasks = append(e.externalTasks, externalTask)
	return externalTask.Id
}

func (e *Engine) Deployments() []Deployment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Deployment(nil), e.deployments...)
}

func (e *Engine) ExternalTasks() []ExternalTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ExternalTask(nil), e.externalTasks...)
}

// LastRequest returns the last received request.
func (e *Engine) LastRequest() Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.requests) == 0 {
		return Request{}
	}
	return e.requests[len(e.requests)-1]
}

func (e *Engine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Message(nil), e.messages...)
}

func (e *Engine) ProcessInstances() []ProcessInstance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ProcessInstance(nil), e.processInstances...)
}

func (e *Engine) Signals() []Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Signal(nil), e.signals...)
}

func (e *Engine) Tasks() []Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Task(nil), e.tasks...)
}

// Variables returns the variables of a process instance.
func (e *Engine) Variables(processInstanceId string) map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	variables := make(map[string]any, len(e.variables[processInstanceId]))
	for name, variable := range e.variables[processInstanceId] {
		variables[name] = variable
	}
	return variables
}

// nextId must be called, while holding the lock.
func (e *Engine) nextId() string {
	e.ids++
	return strconv.Itoa(e.ids)
}

// recordHandler records requests and enforces basic auth, if configured.
type recordHandler struct {
	e       *Engine
	handler http.Handler
}

func (h *recordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.e.mu.Lock()
	h.e.requests = append(h.e.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
	})
	h.e.mu.Unlock()

	if h.e.options.Username != "" {
		username, password, ok := r.BasicAuth()
		if !ok || username != h.e.options.Username || password != h.e.options.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="default"`)
			writeError(w, http.StatusUnauthorized, errorTypeRest, "authentication failed")
			return
		}
	}

	h.handler.ServeHTTP(w, r)
}

func processIds(bpmnXml string) []string {
	matches := regexpProcessId.FindAllStringSubmatch(bpmnXml, -1)

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match[1])
	}
	return ids
}

func trimExtension(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}
