package camundatest

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"
)

func (e *Engine) getEngines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{{"name": "default"}})
}

func (e *Engine) getVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"version": "7.22.0"})
}

// deployment

func (e *Engine) createDeployment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	form := r.MultipartForm

	resources := make(map[string]string)
	for _, fileHeaders := range form.File {
		for _, fileHeader := range fileHeaders {
			f, err := fileHeader.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, err.Error())
				return
			}
			b, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, err.Error())
				return
			}
			resources[fileHeader.Filename] = string(b)
		}
	}

	if len(resources) == 0 {
		writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, "No deployment resources contained in the form upload.")
		return
	}

	name := r.FormValue("deployment-name")

	e.mu.Lock()
	defer e.mu.Unlock()

	if r.FormValue("enable-duplicate-filtering") == "true" {
		for i := len(e.deployments) - 1; i >= 0; i-- {
			d := e.deployments[i]
			if d.Name != name {
				continue
			}
			if equalResources(e.resources[d.Id], resources) {
				writeJSON(w, http.StatusOK, deploymentRes(d, nil))
				return
			}
			break
		}
	}

	deployment := Deployment{
		Id:             e.nextId(),
		Name:           name,
		Source:         r.FormValue("deployment-source"),
		TenantId:       r.FormValue("tenant-id"),
		DeploymentTime: time.Now().UTC(),
	}

	deployed := make(map[string]ProcessDefinition)
	for filename, content := range resources {
		deployment.Resources = append(deployment.Resources, filename)

		if !strings.HasSuffix(filename, ".bpmn") {
			continue
		}

		keys := processIds(content)
		if len(keys) == 0 {
			keys = append(keys, trimExtension(filename))
		}

		for _, key := range keys {
			version := 1
			for _, processDefinition := range e.processDefinitions {
				if processDefinition.Key == key {
					version++
				}
			}

			processDefinition := ProcessDefinition{
				Key:          key,
				Name:         key,
				Version:      version,
				DeploymentId: deployment.Id,
				Resource:     filename,
			}
			processDefinition.Id = fmt.Sprintf("%s:%d:%s", key, version, e.nextId())

			e.processDefinitions = append(e.processDefinitions, processDefinition)
			deployed[processDefinition.Id] = processDefinition
		}
	}

	slices.Sort(deployment.Resources)

	e.resources[deployment.Id] = resources
	e.deployments = append(e.deployments, deployment)

	writeJSON(w, http.StatusOK, deploymentRes(deployment, deployed))
}

func (e *Engine) deleteDeployment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.IndexFunc(e.deployments, func(d Deployment) bool { return d.Id == id })
	if i == -1 {
		writeError(w, http.StatusNotFound, errorTypeInvalidRequest, fmt.Sprintf("Deployment with id '%s' do not exist", id))
		return
	}

	cascade := r.URL.Query().Get("cascade") == "true"

	for _, processDefinition := range e.processDefinitions {
		if processDefinition.DeploymentId != id {
			continue
		}
		for _, processInstance := range e.processInstances {
			if processInstance.DefinitionId == processDefinition.Id && !cascade {
				writeError(w, http.StatusInternalServerError, errorTypeRest, fmt.Sprintf("Deletion of process definition %s without cascading failed: there are running process instances", processDefinition.Id))
				return
			}
		}
	}

	e.deployments = slices.Delete(e.deployments, i, i+1)
	e.processDefinitions = slices.DeleteFunc(e.processDefinitions, func(processDefinition ProcessDefinition) bool {
		if processDefinition.DeploymentId != id {
			return false
		}
		e.processInstances = slices.DeleteFunc(e.processInstances, func(processInstance ProcessInstance) bool {
			return processInstance.DefinitionId == processDefinition.Id
		})
		return true
	})
	delete(e.resources, id)

	w.WriteHeader(http.StatusNoContent)
}

func (e *Engine) getDeployment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, deployment := range e.deployments {
		if deployment.Id == id {
			writeJSON(w, http.StatusOK, deployment)
			return
		}
	}

	writeError(w, http.StatusNotFound, errorTypeInvalidRequest, fmt.Sprintf("Deployment with id '%s' does not exist", id))
}

func (e *Engine) getDeployments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]Deployment, 0)
	for _, deployment := range e.deployments {
		if id := query.Get("id"); id != "" && deployment.Id != id {
			continue
		}
		if name := query.Get("name"); name != "" && deployment.Name != name {
			continue
		}
		if nameLike := query.Get("nameLike"); nameLike != "" && !like(deployment.Name, nameLike) {
			continue
		}
		if source := query.Get("source"); source != "" && deployment.Source != source {
			continue
		}
		results = append(results, deployment)
	}

	writeList(w, r, "deployment", page(r, results))
}

// process definition

func (e *Engine) getProcessDefinitions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]ProcessDefinition, 0)
	for _, processDefinition := range e.processDefinitions {
		if key := query.Get("key"); key != "" && processDefinition.Key != key {
			continue
		}
		if deploymentId := query.Get("deploymentId"); deploymentId != "" && processDefinition.DeploymentId != deploymentId {
			continue
		}
		if query.Get("latestVersion") == "true" && processDefinition.Version != e.latestVersion(processDefinition.Key) {
			continue
		}
		results = append(results, processDefinition)
	}

	writeList(w, r, "processDefinition", page(r, results))
}

func (e *Engine) startProcessInstance(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		BusinessKey           string         `json:"businessKey"`
		Variables             map[string]any `json:"variables"`
		WithVariablesInReturn bool           `json:"withVariablesInReturn"`
	}
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	key := r.PathValue("key")

	e.mu.Lock()
	defer e.mu.Unlock()

	latestVersion := e.latestVersion(key)
	if latestVersion == 0 {
		writeError(w, http.StatusNotFound, errorTypeRest, fmt.Sprintf("No matching process definition with key: %s and no tenant-id", key))
		return
	}

	var definitionId string
	for _, processDefinition := range e.processDefinitions {
		if processDefinition.Key == key && processDefinition.Version == latestVersion {
			definitionId = processDefinition.Id
		}
	}

	processInstance := ProcessInstance{
		Id:           e.nextId(),
		DefinitionId: definitionId,
		BusinessKey:  reqBody.BusinessKey,
	}

	e.processInstances = append(e.processInstances, processInstance)
	e.variables[processInstance.Id] = toDescriptors(reqBody.Variables)

	e.tasks = append(e.tasks, Task{
		Id:                e.nextId(),
		Name:              "Review",
		ProcessInstanceId: processInstance.Id,
		TaskDefinitionKey: "review",
	})

	if !reqBody.WithVariablesInReturn {
		writeJSON(w, http.StatusOK, processInstance)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           processInstance.Id,
		"definitionId": processInstance.DefinitionId,
		"businessKey":  processInstance.BusinessKey,
		"ended":        processInstance.Ended,
		"suspended":    processInstance.Suspended,
		"variables":    e.variables[processInstance.Id],
	})
}

// process instance

func (e *Engine) deleteProcessInstance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.IndexFunc(e.processInstances, func(processInstance ProcessInstance) bool { return processInstance.Id == id })
	if i == -1 {
		writeError(w, http.StatusNotFound, errorTypeInvalidRequest, fmt.Sprintf("Process instance with id %s does not exist", id))
		return
	}

	e.processInstances = slices.Delete(e.processInstances, i, i+1)
	e.tasks = slices.DeleteFunc(e.tasks, func(task Task) bool { return task.ProcessInstanceId == id })
	delete(e.variables, id)

	w.WriteHeader(http.StatusNoContent)
}

func (e *Engine) getProcessInstances(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]ProcessInstance, 0)
	for _, processInstance := range e.processInstances {
		if businessKey := query.Get("businessKey"); businessKey != "" && processInstance.BusinessKey != businessKey {
			continue
		}
		if key := query.Get("processDefinitionKey"); key != "" && !strings.HasPrefix(processInstance.DefinitionId, key+":") {
			continue
		}
		if definitionId := query.Get("processDefinitionId"); definitionId != "" && processInstance.DefinitionId != definitionId {
			continue
		}
		results = append(results, processInstance)
	}

	writeList(w, r, "processInstance", page(r, results))
}

func (e *Engine) getProcessInstanceVariables(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	e.mu.Lock()
	defer e.mu.Unlock()

	variables, ok := e.variables[id]
	if !ok {
		writeError(w, http.StatusNotFound, errorTypeInvalidRequest, fmt.Sprintf("process instance with id %s does not exist", id))
		return
	}

	writeJSON(w, http.StatusOK, variables)
}

// task

func (e *Engine) claimTask(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		UserId string `json:"userId"`
	}
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	id := r.PathValue("id")

	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.IndexFunc(e.tasks, func(task Task) bool { return task.Id == id })
	if i == -1 {
		writeError(w, http.StatusNotFound, errorTypeInvalidRequest, fmt.Sprintf("Cannot find task with id %s", id))
		return
	}

	task := &e.tasks[i]
	if task.Assignee != "" && task.Assignee != reqBody.UserId {
		writeError(w, http.StatusInternalServerError, "TaskAlreadyClaimedException", fmt.Sprintf("Task '%s' is already claimed by someone else.", id))
		return
	}

	task.Assignee = reqBody.UserId
	w.WriteHeader(http.StatusNoContent)
}

func (e *Engine) completeTask(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		Variables             map[string]any `json:"variables"`
		WithVariablesInReturn bool           `json:"withVariablesInReturn"`
	}
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	id := r.PathValue("id")

	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.IndexFunc(e.tasks, func(task Task) bool { return task.Id == id })
	if i == -1 {
		writeError(w, http.StatusNotFound, errorTypeInvalidRequest, fmt.Sprintf("Cannot find task with id %s", id))
		return
	}

	task := e.tasks[i]
	e.tasks = slices.Delete(e.tasks, i, i+1)

	variables := e.variables[task.ProcessInstanceId]
	if variables == nil {
		variables = make(map[string]any)
		e.variables[task.ProcessInstanceId] = variables
	}
	for name, variable := range reqBody.Variables {
		variables[name] = toDescriptor(variable)
	}

	for i := range e.processInstances {
		if e.processInstances[i].Id == task.ProcessInstanceId {
			e.processInstances[i].Ended = true
		}
	}

	if reqBody.WithVariablesInReturn {
		writeJSON(w, http.StatusOK, variables)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (e *Engine) getTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]Task, 0)
	for _, task := range e.tasks {
		if assignee := query.Get("assignee"); assignee != "" && task.Assignee != assignee {
			continue
		}
		if processInstanceId := query.Get("processInstanceId"); processInstanceId != "" && task.ProcessInstanceId != processInstanceId {
			continue
		}
		if query.Get("unassigned") == "true" && task.Assignee != "" {
			continue
		}
		results = append(results, task)
	}

	writeList(w, r, "task", page(r, results))
}

// message and signal

func (e *Engine) correlateMessage(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		Message
		ResultEnabled bool `json:"resultEnabled"`
	}
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	if reqBody.MessageName == "" {
		writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, "No message name supplied")
		return
	}

	e.mu.Lock()
	e.messages = append(e.messages, reqBody.Message)
	e.mu.Unlock()

	if reqBody.ResultEnabled {
		writeJSON(w, http.StatusOK, []map[string]any{{"resultType": "Execution"}})
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (e *Engine) deliverSignal(w http.ResponseWriter, r *http.Request) {
	var reqBody Signal
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	if reqBody.Name == "" {
		writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, "No signal name given")
		return
	}

	e.mu.Lock()
	e.signals = append(e.signals, reqBody)
	e.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// external task

func (e *Engine) completeExternalTask(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		WorkerId  string         `json:"workerId"`
		Variables map[string]any `json:"variables"`
	}
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	externalTask := e.lockedExternalTask(w, r.PathValue("id"), reqBody.WorkerId)
	if externalTask == nil {
		return
	}

	externalTask.Completed = true
	for name, variable := range reqBody.Variables {
		if externalTask.Variables == nil {
			externalTask.Variables = make(map[string]any)
		}
		externalTask.Variables[name] = variable
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *Engine) handleExternalTaskBpmnError(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		WorkerId     string         `json:"workerId"`
		ErrorCode    string         `json:"errorCode"`
		ErrorMessage string         `json:"errorMessage"`
		Variables    map[string]any `json:"variables"`
	}
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	externalTask := e.lockedExternalTask(w, r.PathValue("id"), reqBody.WorkerId)
	if externalTask == nil {
		return
	}

	externalTask.Completed = true
	externalTask.ErrorCode = reqBody.ErrorCode
	externalTask.ErrorMessage = reqBody.ErrorMessage

	w.WriteHeader(http.StatusNoContent)
}

func (e *Engine) handleExternalTaskFailure(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		WorkerId     string `json:"workerId"`
		ErrorMessage string `json:"errorMessage"`
		ErrorDetails string `json:"errorDetails"`
		Retries      int    `json:"retries"`
		RetryTimeout int64  `json:"retryTimeout"`
	}
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	if reqBody.Retries < 0 {
		writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, "retries must be greater than or equal to 0")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	externalTask := e.lockedExternalTask(w, r.PathValue("id"), reqBody.WorkerId)
	if externalTask == nil {
		return
	}

	externalTask.ErrorMessage = reqBody.ErrorMessage
	externalTask.Retries = reqBody.Retries
	externalTask.WorkerId = ""

	if reqBody.Retries == 0 {
		externalTask.Incident = true
	}

	w.WriteHeader(http.StatusNoContent)
}

// lockedExternalTask returns the external task, if it is locked by the given worker.
// Otherwise an error is written and nil is returned.
func (e *Engine) lockedExternalTask(w http.ResponseWriter, id string, workerId string) *ExternalTask {
	i := slices.IndexFunc(e.externalTasks, func(externalTask ExternalTask) bool { return externalTask.Id == id })
	if i == -1 || e.externalTasks[i].Completed {
		writeError(w, http.StatusNotFound, errorTypeRest, fmt.Sprintf("External task with id %s does not exist", id))
		return nil
	}

	externalTask := &e.externalTasks[i]
	if externalTask.WorkerId != workerId {
		writeError(w, http.StatusBadRequest, errorTypeRest, fmt.Sprintf("External Task %s cannot be completed by worker '%s'. It is locked by worker '%s'.", id, workerId, externalTask.WorkerId))
		return nil
	}

	return externalTask
}

func (e *Engine) fetchAndLockExternalTasks(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		WorkerId string `json:"workerId"`
		MaxTasks int    `json:"maxTasks"`
		Topics   []struct {
			TopicName    string `json:"topicName"`
			LockDuration int64  `json:"lockDuration"`
		} `json:"topics"`
	}
	if !decodeJSONRequestBody(w, r, &reqBody) {
		return
	}

	if reqBody.WorkerId == "" {
		writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, "workerId is required")
		return
	}

	topicNames := make([]string, len(reqBody.Topics))
	for i, topic := range reqBody.Topics {
		topicNames[i] = topic.TopicName
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]map[string]any, 0)
	for i := range e.externalTasks {
		if reqBody.MaxTasks > 0 && len(results) == reqBody.MaxTasks {
			break
		}

		externalTask := &e.externalTasks[i]
		if externalTask.WorkerId != "" || externalTask.Completed || externalTask.Incident || !slices.Contains(topicNames, externalTask.TopicName) {
			continue
		}

		externalTask.WorkerId = reqBody.WorkerId

		result := map[string]any{
			"id":                externalTask.Id,
			"topicName":         externalTask.TopicName,
			"workerId":          externalTask.WorkerId,
			"processInstanceId": externalTask.ProcessInstanceId,
			"variables":         toDescriptors(externalTask.Variables),
			"retries":           nil,
			"errorMessage":      nil,
		}
		if externalTask.ErrorMessage != "" {
			result["retries"] = externalTask.Retries
			result["errorMessage"] = externalTask.ErrorMessage
		}

		results = append(results, result)
	}

	writeJSON(w, http.StatusOK, results)
}

// variable instance

func (e *Engine) getVariableInstances(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var processInstanceIds []string
	if s := query.Get("processInstanceIdIn"); s != "" {
		processInstanceIds = strings.Split(s, ",")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]map[string]any, 0)
	for _, processInstance := range e.processInstances {
		if len(processInstanceIds) != 0 && !slices.Contains(processInstanceIds, processInstance.Id) {
			continue
		}

		variables := e.variables[processInstance.Id]

		names := make([]string, 0, len(variables))
		for name := range variables {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			if variableName := query.Get("variableName"); variableName != "" && name != variableName {
				continue
			}

			descriptor := variables[name].(map[string]any)
			results = append(results, map[string]any{
				"name":              name,
				"type":              descriptor["type"],
				"value":             descriptor["value"],
				"processInstanceId": processInstance.Id,
			})
		}
	}

	writeList(w, r, "variableInstance", page(r, results))
}

// latestVersion must be called, while holding the lock.
func (e *Engine) latestVersion(key string) int {
	var version int
	for _, processDefinition := range e.processDefinitions {
		if processDefinition.Key == key && processDefinition.Version > version {
			version = processDefinition.Version
		}
	}
	return version
}

func deploymentRes(d Deployment, deployed map[string]ProcessDefinition) map[string]any {
	res := map[string]any{
		"id":                         d.Id,
		"name":                       d.Name,
		"source":                     d.Source,
		"tenantId":                   d.TenantId,
		"deploymentTime":             d.DeploymentTime,
		"deployedProcessDefinitions": nil,
	}
	if deployed != nil {
		res["deployedProcessDefinitions"] = deployed
	}
	return res
}

func equalResources(a map[string]string, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for name, content := range a {
		if other, ok := b[name]; !ok || other != content {
			return false
		}
	}
	return true
}

// like matches a value against a pattern, which uses % as wildcard.
func like(value string, pattern string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return value == pattern
	}

	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]

	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(value, part)
		if i == -1 {
			return false
		}
		value = value[i+len(part):]
	}

	return strings.HasSuffix(value, parts[len(parts)-1])
}
