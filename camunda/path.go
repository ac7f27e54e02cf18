package camunda

const (
	PathDeployment       = "deployment"
	PathDeploymentCreate = "deployment/create"
	PathDeploymentId     = "deployment/{id}"

	PathEngine = "engine"

	PathExternalTaskBpmnError    = "external-task/{id}/bpmnError"
	PathExternalTaskComplete     = "external-task/{id}/complete"
	PathExternalTaskFailure      = "external-task/{id}/failure"
	PathExternalTaskFetchAndLock = "external-task/fetchAndLock"

	PathMessage = "message"

	PathProcessDefinition         = "process-definition"
	PathProcessDefinitionKeyStart = "process-definition/key/{key}/start"

	PathProcessInstance          = "process-instance"
	PathProcessInstanceId        = "process-instance/{id}"
	PathProcessInstanceVariables = "process-instance/{id}/variables"

	PathSignal = "signal"

	PathTask         = "task"
	PathTaskClaim    = "task/{id}/claim"
	PathTaskComplete = "task/{id}/complete"

	PathVariableInstance = "variable-instance"

	PathVersion = "version"
)
