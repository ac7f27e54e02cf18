package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gclaussn/go-camunda/rest"
	"go.uber.org/zap"
)

// NewTaskError creates an error, which is reported as failure with specific retries and retry timeout.
// When retries is 0, the engine creates an incident.
func NewTaskError(err error, retries int, retryTimeout time.Duration) error {
	return taskError{
		err:          err,
		retries:      retries,
		retryTimeout: retryTimeout,
	}
}

func newTaskExecutor(w *Worker) *taskExecutor {
	tickerCtx, tickerCancel := context.WithCancel(context.Background())

	return &taskExecutor{
		w: w,

		tickerCtx:    tickerCtx,
		tickerCancel: tickerCancel,
		ticker:       time.NewTicker(w.options.FetchInterval),
		done:         make(chan struct{}),
	}
}

// ExternalTask is a task, fetched and locked by a worker.
type ExternalTask struct {
	Id                  string              `json:"id"`
	TopicName           string              `json:"topicName"`
	WorkerId            string              `json:"workerId"`
	ActivityId          string              `json:"activityId"`
	BusinessKey         string              `json:"businessKey"`
	ProcessDefinitionId string              `json:"processDefinitionId"`
	ProcessInstanceId   string              `json:"processInstanceId"`
	ErrorMessage        string              `json:"errorMessage"`
	Retries             *int                `json:"retries"` // nil, if no failure has been reported yet
	Variables           map[string]Variable `json:"variables"`
}

func (t ExternalTask) String() string {
	return fmt.Sprintf("%s:%s", t.TopicName, t.Id)
}

// Variable is a typed variable value, as returned by the engine.
type Variable struct {
	Value     any            `json:"value"`
	Type      string         `json:"type"`
	ValueInfo map[string]any `json:"valueInfo"`
}

// Decode decodes the variable value into v.
// Values of type Json are expected to be serialized as string.
func (v Variable) Decode(value any) error {
	if s, ok := v.Value.(string); ok && v.Type == "Json" {
		return json.Unmarshal([]byte(s), value)
	}

	b, err := json.Marshal(v.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, value)
}

type TaskContext struct {
	Task ExternalTask

	w   *Worker
	ctx context.Context

	variables *rest.Variables
}

func (tc TaskContext) Context() context.Context {
	return tc.ctx
}

// Logger returns a logger, which is enriched with the task's ID and topic name.
func (tc TaskContext) Logger() *zap.Logger {
	return tc.w.logger.With(zap.String("taskId", tc.Task.Id), zap.String("topicName", tc.Task.TopicName))
}

// Variable returns a variable of the task or false, if the task has no such variable.
func (tc TaskContext) Variable(name string) (Variable, bool) {
	variable, ok := tc.Task.Variables[name]
	return variable, ok
}

// SetVariable sets a variable, which is passed, when the task is completed or a BPMN error is reported.
// An optional type, like "String" or "Integer", can be specified.
func (tc TaskContext) SetVariable(name string, value any, valueType ...string) {
	tc.variables.Add(name, value, valueType...)
}

type taskError struct {
	err          error
	retries      int
	retryTimeout time.Duration
}

func (e taskError) Error() string {
	if e.err != nil {
		return e.err.Error()
	} else {
		return "failed to execute task"
	}
}

func (e taskError) Unwrap() error {
	return e.err
}

type taskExecutor struct {
	w *Worker

	tickerCtx    context.Context
	tickerCancel context.CancelFunc
	ticker       *time.Ticker
	done         chan struct{}
}

func (e *taskExecutor) execute() {
	go func(w *Worker) {
		defer close(e.done)

		onFailure := w.options.OnTaskExecutionFailure

		for {
			select {
			case <-e.ticker.C:
				lockedTasks, err := w.FetchAndLock(e.tickerCtx)
				if err != nil {
					w.logger.Warn("failed to fetch and lock external tasks", zap.Error(err))
					break
				}

				for i := range lockedTasks {
					if err := w.ExecuteTask(e.tickerCtx, lockedTasks[i]); err != nil {
						w.logger.Error("failed to execute external task", zap.Stringer("task", lockedTasks[i]), zap.Error(err))
						if onFailure != nil {
							onFailure(lockedTasks[i], err)
						}
					}
				}
			case <-e.tickerCtx.Done():
				return
			}
		}
	}(e.w)
}

func (e *taskExecutor) stop() {
	e.ticker.Stop()
	e.tickerCancel()
	<-e.done
}
