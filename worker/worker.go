package worker

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gclaussn/go-camunda/camunda"
	"github.com/gclaussn/go-camunda/rest"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const DefaultWorkerId = "default-worker" // Default ID of a worker, used when no specific ID is provided via [Options].

var validate = validator.New(validator.WithRequiredStructEnabled())

func New(client *camunda.Client, customizers ...func(*Options)) (*Worker, error) {
	if client == nil {
		return nil, errors.New("client is nil")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	worker := Worker{
		client:   client,
		id:       options.WorkerId,
		logger:   logger.With(zap.String("workerId", options.WorkerId)),
		options:  options,
		handlers: make(map[string]Handler),
	}

	return &worker, nil
}

// NewBpmnError creates an error, which is reported as BPMN error with the given code.
// The error is handled by an error boundary event, attached to the external task.
func NewBpmnError(code string) error {
	return bpmnError{code: code}
}

func NewOptions() Options {
	return Options{
		FetchInterval: 5 * time.Second,
		LockDuration:  60 * time.Second,
		MaxTasks:      10,
		Retries:       3,
		RetryTimeout:  10 * time.Second,
		WorkerId:      DefaultWorkerId,
	}
}

// Handler is called to execute a locked external task.
//
// When nil is returned, the task is completed with the variables, set via [TaskContext.SetVariable].
// An error, created by [NewBpmnError], is reported as BPMN error.
// Any other error is reported as failure.
type Handler func(TaskContext) error

type Options struct {
	FetchInterval time.Duration `validate:"gt=0"`     // Interval between fetch and lock requests.
	LockDuration  time.Duration `validate:"gt=0"`     // Duration, for which fetched tasks are locked.
	MaxTasks      int           `validate:"gt=0"`     // Maximum number of tasks to fetch and lock at once.
	Retries       int           `validate:"gte=0"`    // Retries of a task, which fails for the first time.
	RetryTimeout  time.Duration `validate:"gte=0"`    // Timeout until a failed task can be fetched again.
	WorkerId      string        `validate:"required"` // Worker ID.

	UsePriority bool // Determines if tasks are fetched by priority.

	Logger *zap.Logger // Optional logger.

	OnTaskExecutionFailure func(ExternalTask, error) // Called when the worker failed to execute a locked task.
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}

		messages := make([]string, len(validationErrors))
		for i, fieldError := range validationErrors {
			messages[i] = fmt.Sprintf("option %s: %s %s", fieldError.Field(), fieldError.Tag(), fieldError.Param())
		}
		return errors.New(strings.TrimSpace(strings.Join(messages, "\n")))
	}
	if strings.TrimSpace(o.WorkerId) == "" {
		return errors.New("worker ID must not be empty or blank")
	}
	return nil
}

// Worker fetches, locks and executes external tasks of registered topics.
type Worker struct {
	client  *camunda.Client
	id      string
	logger  *zap.Logger
	options Options

	mu           sync.RWMutex
	handlers     map[string]Handler
	taskExecutor *taskExecutor
}

// ExecuteTask executes a locked external task and reports the outcome to the engine.
func (w *Worker) ExecuteTask(ctx context.Context, task ExternalTask) error {
	w.mu.RLock()
	handler := w.handlers[task.TopicName]
	w.mu.RUnlock()

	if handler == nil {
		return fmt.Errorf("no handler registered for topic %s", task.TopicName)
	}

	tc := TaskContext{
		Task: task,

		w:   w,
		ctx: ctx,

		variables: rest.NewVariables(),
	}

	var (
		result rest.Result
		err    error
	)

	handlerErr := handler(tc)
	switch handlerErr := handlerErr.(type) {
	case nil:
		req := rest.NewExternalTaskRequest().
			Set("workerId", w.id).
			Set("variables", tc.variables)

		result, err = w.client.CompleteExternalTask(ctx, task.Id, req)
	case bpmnError:
		req := rest.NewExternalTaskRequest().
			Set("workerId", w.id).
			Set("errorCode", handlerErr.code).
			Set("variables", tc.variables)

		result, err = w.client.HandleExternalTaskBpmnError(ctx, task.Id, req)
	default:
		retries, retryTimeout := w.retry(task, handlerErr)

		req := rest.NewExternalTaskRequest().
			Set("workerId", w.id).
			Set("errorMessage", handlerErr.Error()).
			Set("retries", retries).
			Set("retryTimeout", retryTimeout.Milliseconds())

		result, err = w.client.HandleExternalTaskFailure(ctx, task.Id, req)
	}

	if err != nil {
		return err
	}
	return result.Err()
}

// FetchAndLock fetches and locks external tasks of all registered topics.
func (w *Worker) FetchAndLock(ctx context.Context) ([]ExternalTask, error) {
	w.mu.RLock()
	topicNames := slices.Sorted(maps.Keys(w.handlers))
	w.mu.RUnlock()

	if len(topicNames) == 0 {
		return nil, nil
	}

	topics := make([]map[string]any, len(topicNames))
	for i, topicName := range topicNames {
		topics[i] = map[string]any{
			"topicName":    topicName,
			"lockDuration": w.options.LockDuration.Milliseconds(),
		}
	}

	req := rest.NewExternalTaskRequest().
		Set("workerId", w.id).
		Set("maxTasks", w.options.MaxTasks).
		Set("usePriority", w.options.UsePriority).
		Set("topics", topics)

	result, err := w.client.FetchAndLockExternalTasks(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	var tasks []ExternalTask
	if err := result.Decode(&tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Register registers a handler for the external tasks of a topic.
func (w *Worker) Register(topicName string, handler Handler) error {
	if strings.TrimSpace(topicName) == "" {
		return errors.New("topic name must not be empty or blank")
	}
	if handler == nil {
		return errors.New("handler is nil")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.handlers[topicName]; ok {
		return fmt.Errorf("handler for topic %s is already registered", topicName)
	}

	w.handlers[topicName] = handler
	return nil
}

func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.taskExecutor != nil {
		return
	}

	w.taskExecutor = newTaskExecutor(w)
	w.taskExecutor.execute()
}

// Stop stops fetching tasks and waits until the executor returns. Pending requests are canceled.
func (w *Worker) Stop() {
	w.mu.Lock()
	taskExecutor := w.taskExecutor
	w.taskExecutor = nil
	w.mu.Unlock()

	if taskExecutor != nil {
		taskExecutor.stop()
	}
}

// retry determines the retries and retry timeout of a failed task.
// Without an explicit task error, the remaining retries are decremented.
func (w *Worker) retry(task ExternalTask, err error) (int, time.Duration) {
	var taskErr taskError
	if errors.As(err, &taskErr) {
		return taskErr.retries, taskErr.retryTimeout
	}

	if task.Retries == nil {
		return w.options.Retries, w.options.RetryTimeout
	}
	return max(*task.Retries-1, 0), w.options.RetryTimeout
}

type bpmnError struct {
	code string
}

func (e bpmnError) Error() string {
	return e.code
}
