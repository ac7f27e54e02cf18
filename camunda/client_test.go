package camunda

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gclaussn/go-camunda/internal/camundatest"
	"github.com/gclaussn/go-camunda/rest"
	"github.com/stretchr/testify/assert"
)

const bpmnOrder = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="definitions">
  <bpmn:process id="order" isExecutable="true">
    <bpmn:startEvent id="startEvent" />
  </bpmn:process>
</bpmn:definitions>
`

func mustNew(t *testing.T, e *camundatest.Engine, customizers ...func(*Options)) *Client {
	client, err := New(e.URL(), customizers...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(client.Shutdown)
	return client
}

func mustDeploy(t *testing.T, client *Client, name string) string {
	files := rest.NewFiles().Add("order.bpmn", []byte(bpmnOrder), "order.bpmn")

	result, err := client.CreateDeployment(context.Background(), rest.NewDeploymentRequest().
		Set("deployment-name", name).
		Set("data", files),
	)
	if err != nil {
		t.Fatalf("failed to create deployment: %v", err)
	}
	if err := result.Err(); err != nil {
		t.Fatalf("failed to create deployment: %v", err)
	}

	var deployment struct {
		Id string `json:"id"`
	}
	if err := result.Decode(&deployment); err != nil {
		t.Fatalf("failed to decode deployment: %v", err)
	}
	return deployment.Id
}

func mustStart(t *testing.T, client *Client, businessKey string) string {
	result, err := client.StartProcessInstance(context.Background(), "order", rest.NewProcessDefinitionRequest().
		Set("businessKey", businessKey).
		Set("variables", rest.NewVariables().Add("amount", 5, "Integer").Add("customer", "acme")),
	)
	if err != nil {
		t.Fatalf("failed to start process instance: %v", err)
	}
	if err := result.Err(); err != nil {
		t.Fatalf("failed to start process instance: %v", err)
	}
	return result.Contents.(map[string]any)["id"].(string)
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	t.Run("invalid URL", func(t *testing.T) {
		_, err := New("")
		assert.EqualError(err, "URL is empty")
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := New("http://localhost:8080/engine-rest", func(o *Options) {
			o.Password = "secret"
		})
		assert.ErrorContains(err, "option Username: required_with Password")
	})
}

func TestClient(t *testing.T) {
	assert := assert.New(t)

	e := camundatest.New(func(o *camundatest.Options) {
		o.Username = "demo"
		o.Password = "demo"
	})
	defer e.Close()

	client := mustNew(t, e, func(o *Options) {
		o.Username = "demo"
		o.Password = "demo"
	})

	ctx := context.Background()

	t.Run("get version", func(t *testing.T) {
		// when
		result, err := client.GetVersion(ctx)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusOK, result.StatusCode)
		assert.Equal(map[string]any{"version": "7.22.0"}, result.Contents)
	})

	t.Run("get engines", func(t *testing.T) {
		result, err := client.GetEngines(ctx)

		assert.NoError(err)
		assert.Equal([]any{map[string]any{"name": "default"}}, result.Contents)
	})

	var deploymentId string

	t.Run("create deployment", func(t *testing.T) {
		// given
		files := rest.NewFiles().Add("order.bpmn", []byte(bpmnOrder), "order.bpmn")

		// when
		result, err := client.CreateDeployment(ctx, rest.NewDeploymentRequest().
			Set("deployment-name", "order").
			Set("deployment-source", "test").
			Set("data", files),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusOK, result.StatusCode)

		contents := result.Contents.(map[string]any)
		assert.Equal("order", contents["name"])
		assert.Equal("test", contents["source"])
		assert.Len(contents["deployedProcessDefinitions"], 1)

		deploymentId = contents["id"].(string)

		deployments := e.Deployments()
		assert.Len(deployments, 1)
		assert.Equal([]string{"order.bpmn"}, deployments[0].Resources)

		lastRequest := e.LastRequest()
		assert.Equal(http.MethodPost, lastRequest.Method)
		assert.Equal(camundatest.BasePath+"/deployment/create", lastRequest.Path)
		assert.NotEmpty(lastRequest.Header.Get(rest.HeaderRequestId))
	})

	t.Run("get deployment", func(t *testing.T) {
		// when
		result, err := client.GetDeployment(ctx, deploymentId)

		// then
		assert.NoError(err)
		assert.Equal(deploymentId, result.Contents.(map[string]any)["id"])
	})

	t.Run("get deployment returns status error when not found", func(t *testing.T) {
		// when
		result, err := client.GetDeployment(ctx, "not-existing")

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNotFound, result.StatusCode)
		assert.False(result.IsSuccess())

		var statusErr *rest.StatusError
		assert.True(errors.As(result.Err(), &statusErr))
		assert.Equal("HTTP 404: InvalidRequestException: Deployment with id 'not-existing' does not exist", statusErr.Error())
	})

	t.Run("get deployments", func(t *testing.T) {
		// when
		result, err := client.GetDeployments(ctx, rest.NewDeploymentRequest().
			Set("nameLike", "ord%").
			Set("maxResults", 10),
		)

		// then
		assert.NoError(err)
		assert.Len(result.Contents, 1)
		assert.Equal("nameLike=ord%25&maxResults=10", e.LastRequest().Query)
	})

	t.Run("get process definitions", func(t *testing.T) {
		// when
		result, err := client.GetProcessDefinitions(ctx, rest.NewProcessDefinitionRequest().
			Set("key", "order").
			Set("latestVersion", true),
		)

		// then
		assert.NoError(err)
		if !assert.Len(result.Contents, 1) {
			return
		}

		processDefinition := result.Contents.([]any)[0].(map[string]any)
		assert.Equal("order", processDefinition["key"])
		assert.Equal(float64(1), processDefinition["version"])
		assert.Equal(deploymentId, processDefinition["deploymentId"])
	})

	var processInstanceId string

	t.Run("start process instance", func(t *testing.T) {
		// when
		result, err := client.StartProcessInstance(ctx, "order", rest.NewProcessDefinitionRequest().
			Set("businessKey", "order-1").
			Set("variables", rest.NewVariables().Add("amount", 5, "Integer").Add("express", true)),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusOK, result.StatusCode)

		contents := result.Contents.(map[string]any)
		assert.Equal("order-1", contents["businessKey"])

		processInstanceId = contents["id"].(string)

		variables := e.Variables(processInstanceId)
		assert.Equal(map[string]any{"value": float64(5), "type": "Integer", "valueInfo": map[string]any{}}, variables["amount"])
		assert.Equal(map[string]any{"value": true, "type": "Boolean", "valueInfo": map[string]any{}}, variables["express"])
	})

	t.Run("start process instance returns status error when key not found", func(t *testing.T) {
		// when
		result, err := client.StartProcessInstance(ctx, "not-existing", nil)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNotFound, result.StatusCode)
		assert.EqualError(result.Err(), "HTTP 404: RestException: No matching process definition with key: not-existing and no tenant-id")
	})

	t.Run("get process instances", func(t *testing.T) {
		// when
		result, err := client.GetProcessInstances(ctx, rest.NewProcessInstanceRequest().
			Set("businessKey", "order-1"),
		)

		// then
		assert.NoError(err)
		if !assert.Len(result.Contents, 1) {
			return
		}
		assert.Equal(processInstanceId, result.Contents.([]any)[0].(map[string]any)["id"])
	})

	t.Run("get process instance variables", func(t *testing.T) {
		// when
		result, err := client.GetProcessInstanceVariables(ctx, processInstanceId)

		// then
		assert.NoError(err)

		var variables map[string]struct {
			Value any    `json:"value"`
			Type  string `json:"type"`
		}
		assert.NoError(result.Decode(&variables))
		assert.Equal("Integer", variables["amount"].Type)
		assert.Equal(float64(5), variables["amount"].Value)
	})

	t.Run("get variable instances", func(t *testing.T) {
		// when
		result, err := client.GetVariableInstances(ctx, rest.NewVariableInstanceRequest().
			Set("processInstanceIdIn", []string{processInstanceId}).
			Set("variableName", "express"),
		)

		// then
		assert.NoError(err)
		if !assert.Len(result.Contents, 1) {
			return
		}

		variableInstance := result.Contents.([]any)[0].(map[string]any)
		assert.Equal("express", variableInstance["name"])
		assert.Equal(true, variableInstance["value"])
	})

	var taskId string

	t.Run("get tasks", func(t *testing.T) {
		// when
		result, err := client.GetTasks(ctx, rest.NewTaskRequest().
			Set("processInstanceId", processInstanceId).
			Set("unassigned", true),
		)

		// then
		assert.NoError(err)
		if !assert.Len(result.Contents, 1) {
			return
		}

		task := result.Contents.([]any)[0].(map[string]any)
		assert.Equal("Review", task["name"])

		taskId = task["id"].(string)
	})

	t.Run("claim task", func(t *testing.T) {
		// when
		result, err := client.ClaimTask(ctx, taskId, rest.NewTaskRequest().Set("userId", "demo"))

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)
		assert.Equal("", result.Contents)
		assert.Equal("demo", e.Tasks()[0].Assignee)
	})

	t.Run("claim task returns status error when claimed by someone else", func(t *testing.T) {
		// when
		result, err := client.ClaimTask(ctx, taskId, rest.NewTaskRequest().Set("userId", "other"))

		// then
		assert.NoError(err)
		assert.Equal(http.StatusInternalServerError, result.StatusCode)
		assert.ErrorContains(result.Err(), "TaskAlreadyClaimedException")
	})

	t.Run("complete task", func(t *testing.T) {
		// when
		result, err := client.CompleteTask(ctx, taskId, rest.NewTaskRequest().
			Set("variables", rest.NewVariables().Add("approved", true, "Boolean")),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)
		assert.Empty(e.Tasks())

		variables := e.Variables(processInstanceId)
		assert.Equal(true, variables["approved"].(map[string]any)["value"])
	})

	t.Run("correlate message", func(t *testing.T) {
		// when
		result, err := client.CorrelateMessage(ctx, rest.NewMessageRequest().
			Set("messageName", "orderReceived").
			Set("businessKey", "order-1").
			Set("processVariables", rest.NewVariables().Add("amount", 5)),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)

		messages := e.Messages()
		if !assert.Len(messages, 1) {
			return
		}
		assert.Equal("orderReceived", messages[0].MessageName)
		assert.Equal(map[string]any{"amount": float64(5)}, messages[0].ProcessVariables)
	})

	t.Run("correlate message with result", func(t *testing.T) {
		result, err := client.CorrelateMessage(ctx, rest.NewMessageRequest().
			Set("messageName", "orderReceived").
			Set("resultEnabled", true),
		)

		assert.NoError(err)
		assert.Equal(http.StatusOK, result.StatusCode)
		assert.Len(result.Contents, 1)
	})

	t.Run("correlate message returns status error when name is missing", func(t *testing.T) {
		result, err := client.CorrelateMessage(ctx, rest.NewMessageRequest())

		assert.NoError(err)
		assert.Equal(http.StatusBadRequest, result.StatusCode)
		assert.Equal(rest.ContentTypeJson, e.LastRequest().Header.Get(rest.HeaderContentType))
	})

	t.Run("deliver signal", func(t *testing.T) {
		// when
		result, err := client.DeliverSignal(ctx, rest.NewSignalRequest().
			Set("name", "cancel").
			Set("variables", rest.NewVariables().Add("reason", "test", "String")),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)

		signals := e.Signals()
		if !assert.Len(signals, 1) {
			return
		}
		assert.Equal("cancel", signals[0].Name)
	})

	t.Run("delete process instance", func(t *testing.T) {
		// when
		result, err := client.DeleteProcessInstance(ctx, processInstanceId, rest.NewProcessInstanceRequest().
			Set("skipCustomListeners", true),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)
		assert.Empty(e.ProcessInstances())

		lastRequest := e.LastRequest()
		assert.Equal(http.MethodDelete, lastRequest.Method)
		assert.Equal("skipCustomListeners=true", lastRequest.Query)
	})

	t.Run("delete deployment", func(t *testing.T) {
		// when
		result, err := client.DeleteDeployment(ctx, deploymentId, rest.NewDeploymentRequest().Set("cascade", true))

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)
		assert.Empty(e.Deployments())
	})
}

func TestClientExternalTask(t *testing.T) {
	assert := assert.New(t)

	e := camundatest.New()
	defer e.Close()

	client := mustNew(t, e)

	ctx := context.Background()

	externalTaskId := e.AddExternalTask("invoice", map[string]any{"amount": 5})
	e.AddExternalTask("shipping", nil)

	t.Run("fetch and lock", func(t *testing.T) {
		// when
		result, err := client.FetchAndLockExternalTasks(ctx, rest.NewExternalTaskRequest().
			Set("workerId", "worker-1").
			Set("maxTasks", 10).
			Set("topics", []map[string]any{{"topicName": "invoice", "lockDuration": 10000}}),
		)

		// then
		assert.NoError(err)
		if !assert.Len(result.Contents, 1) {
			return
		}

		externalTask := result.Contents.([]any)[0].(map[string]any)
		assert.Equal(externalTaskId, externalTask["id"])
		assert.Equal("worker-1", externalTask["workerId"])
	})

	t.Run("fetch and lock returns no locked tasks", func(t *testing.T) {
		result, err := client.FetchAndLockExternalTasks(ctx, rest.NewExternalTaskRequest().
			Set("workerId", "worker-2").
			Set("maxTasks", 10).
			Set("topics", []map[string]any{{"topicName": "invoice", "lockDuration": 10000}}),
		)

		assert.NoError(err)
		assert.Equal([]any{}, result.Contents)
	})

	t.Run("complete returns status error when locked by other worker", func(t *testing.T) {
		result, err := client.CompleteExternalTask(ctx, externalTaskId, rest.NewExternalTaskRequest().
			Set("workerId", "worker-2"),
		)

		assert.NoError(err)
		assert.Equal(http.StatusBadRequest, result.StatusCode)
	})

	t.Run("complete", func(t *testing.T) {
		// when
		result, err := client.CompleteExternalTask(ctx, externalTaskId, rest.NewExternalTaskRequest().
			Set("workerId", "worker-1").
			Set("variables", rest.NewVariables().Add("invoiceId", "inv-1")),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)

		externalTasks := e.ExternalTasks()
		assert.True(externalTasks[0].Completed)
		assert.Equal("inv-1", externalTasks[0].Variables["invoiceId"])
		assert.False(externalTasks[1].Completed)
	})

	t.Run("complete returns status error when not found", func(t *testing.T) {
		result, err := client.CompleteExternalTask(ctx, externalTaskId, rest.NewExternalTaskRequest().
			Set("workerId", "worker-1"),
		)

		assert.NoError(err)
		assert.Equal(http.StatusNotFound, result.StatusCode)
	})
}

func TestClientExternalTaskFailure(t *testing.T) {
	assert := assert.New(t)

	e := camundatest.New()
	defer e.Close()

	client := mustNew(t, e)

	ctx := context.Background()

	externalTaskId := e.AddExternalTask("invoice", nil)

	fetchAndLock := func() []any {
		result, err := client.FetchAndLockExternalTasks(ctx, rest.NewExternalTaskRequest().
			Set("workerId", "worker-1").
			Set("topics", []map[string]any{{"topicName": "invoice", "lockDuration": 10000}}),
		)
		if err != nil {
			t.Fatalf("failed to fetch and lock: %v", err)
		}
		return result.Contents.([]any)
	}

	t.Run("failure with retries", func(t *testing.T) {
		// given
		fetchAndLock()

		// when
		result, err := client.HandleExternalTaskFailure(ctx, externalTaskId, rest.NewExternalTaskRequest().
			Set("workerId", "worker-1").
			Set("errorMessage", "timeout").
			Set("retries", 1).
			Set("retryTimeout", 1000),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)

		externalTasks := fetchAndLock()
		if !assert.Len(externalTasks, 1) {
			return
		}

		externalTask := externalTasks[0].(map[string]any)
		assert.Equal(float64(1), externalTask["retries"])
		assert.Equal("timeout", externalTask["errorMessage"])
	})

	t.Run("failure without retries", func(t *testing.T) {
		// when
		result, err := client.HandleExternalTaskFailure(ctx, externalTaskId, rest.NewExternalTaskRequest().
			Set("workerId", "worker-1").
			Set("errorMessage", "timeout").
			Set("retries", 0),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)

		assert.True(e.ExternalTasks()[0].Incident)
		assert.Empty(fetchAndLock())
	})

	t.Run("BPMN error", func(t *testing.T) {
		// given
		bpmnErrorTaskId := e.AddExternalTask("invoice", nil)
		fetchAndLock()

		// when
		result, err := client.HandleExternalTaskBpmnError(ctx, bpmnErrorTaskId, rest.NewExternalTaskRequest().
			Set("workerId", "worker-1").
			Set("errorCode", "invoiceRejected"),
		)

		// then
		assert.NoError(err)
		assert.Equal(http.StatusNoContent, result.StatusCode)

		externalTask := e.ExternalTasks()[1]
		assert.True(externalTask.Completed)
		assert.Equal("invoiceRejected", externalTask.ErrorCode)
	})

	t.Run("BPMN error returns status error when locked by other worker", func(t *testing.T) {
		otherTaskId := e.AddExternalTask("invoice", nil)
		fetchAndLock()

		result, err := client.HandleExternalTaskBpmnError(ctx, otherTaskId, rest.NewExternalTaskRequest().
			Set("workerId", "worker-2").
			Set("errorCode", "invoiceRejected"),
		)

		assert.NoError(err)
		assert.Equal(http.StatusBadRequest, result.StatusCode)
	})
}

func TestClientHAL(t *testing.T) {
	assert := assert.New(t)

	e := camundatest.New()
	defer e.Close()

	client := mustNew(t, e, func(o *Options) {
		o.HAL = true
	})

	mustDeploy(t, client, "order")
	mustStart(t, client, "order-1")
	mustStart(t, client, "order-2")

	// when
	result, err := client.GetProcessInstances(context.Background(), rest.NewProcessInstanceRequest().
		Set("processDefinitionKey", "order"),
	)

	// then
	assert.NoError(err)
	assert.Equal(rest.ContentTypeHalJson, e.LastRequest().Header.Get(rest.HeaderAccept))
	assert.Equal(rest.ContentTypeHalJson, result.Header.Get(rest.HeaderContentType))

	contents := result.Contents.(map[string]any)
	assert.Equal(float64(2), contents["count"])
	assert.Len(contents["_embedded"].(map[string]any)["processInstance"], 2)
}

func TestClientDuplicateFiltering(t *testing.T) {
	assert := assert.New(t)

	e := camundatest.New()
	defer e.Close()

	client := mustNew(t, e)

	deploymentId := mustDeploy(t, client, "order")

	// when
	files := rest.NewFiles().Add("order.bpmn", []byte(bpmnOrder), "order.bpmn")

	result, err := client.CreateDeployment(context.Background(), rest.NewDeploymentRequest().
		Set("deployment-name", "order").
		Set("enable-duplicate-filtering", true).
		Set("data", files),
	)

	// then
	assert.NoError(err)

	contents := result.Contents.(map[string]any)
	assert.Equal(deploymentId, contents["id"])
	assert.Nil(contents["deployedProcessDefinitions"])
	assert.Len(e.Deployments(), 1)
}

func TestClientUnauthorized(t *testing.T) {
	assert := assert.New(t)

	e := camundatest.New(func(o *camundatest.Options) {
		o.Username = "demo"
		o.Password = "demo"
	})
	defer e.Close()

	client := mustNew(t, e)

	// when
	result, err := client.GetVersion(context.Background())

	// then
	assert.NoError(err)
	assert.Equal(http.StatusUnauthorized, result.StatusCode)
	assert.EqualError(result.Err(), "HTTP 401: RestException: authentication failed")
}

func TestClientNewService(t *testing.T) {
	assert := assert.New(t)

	e := camundatest.New()
	defer e.Close()

	client := mustNew(t, e)

	// when
	result, err := client.NewService().
		SetURL("/engine-rest/version").
		Run(context.Background(), false)

	// then
	assert.NoError(err)
	assert.Equal(http.StatusOK, result.StatusCode)
	assert.Equal("/engine-rest/version", e.LastRequest().Path)
}

func TestResolve(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("deployment/a%2Fb", resolve(PathDeploymentId, "{id}", "a/b"))
	assert.Equal("process-definition/key/order/start", resolve(PathProcessDefinitionKeyStart, "{key}", "order"))
}
