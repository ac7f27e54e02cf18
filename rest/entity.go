package rest

// Kind determines the operation, an entity is built for.
type Kind int

const (
	KindCustom Kind = iota
	KindDeployment
	KindExternalTask
	KindMessage
	KindProcessDefinition
	KindProcessInstance
	KindSignal
	KindTask
	KindVariableInstance
)

func (v Kind) String() string {
	switch v {
	case KindCustom:
		return "CUSTOM"
	case KindDeployment:
		return "DEPLOYMENT"
	case KindExternalTask:
		return "EXTERNAL_TASK"
	case KindMessage:
		return "MESSAGE"
	case KindProcessDefinition:
		return "PROCESS_DEFINITION"
	case KindProcessInstance:
		return "PROCESS_INSTANCE"
	case KindSignal:
		return "SIGNAL"
	case KindTask:
		return "TASK"
	case KindVariableInstance:
		return "VARIABLE_INSTANCE"
	default:
		return "UNKNOWN"
	}
}

// common paging and sorting parameters of list queries
var paging = []string{"firstResult", "maxResults", "sortBy", "sortOrder"}

var allowLists = map[Kind][]string{
	KindDeployment: {
		"id",
		"name",
		"nameLike",
		"source",
		"withoutSource",
		"tenantIdIn",
		"withoutTenantId",
		"includeDeploymentsWithoutTenantId",
		"after",
		"before",
		// create
		"deployment-name",
		"deployment-source",
		"deployment-activation-time",
		"enable-duplicate-filtering",
		"deploy-changed-only",
		"tenant-id",
		"data",
		// delete
		"cascade",
		"skipCustomListeners",
		"skipIoMappings",
	},
	KindExternalTask: {
		"workerId",
		"maxTasks",
		"usePriority",
		"asyncResponseTimeout",
		"topics",
		"variables",
		"localVariables",
		"errorMessage",
		"errorDetails",
		"errorCode",
		"retries",
		"retryTimeout",
		"newDuration",
	},
	KindMessage: {
		"messageName",
		"businessKey",
		"tenantId",
		"withoutTenantId",
		"processInstanceId",
		"correlationKeys",
		"localCorrelationKeys",
		"processVariables",
		"processVariablesLocal",
		"all",
		"resultEnabled",
		"variablesInResultEnabled",
	},
	KindProcessDefinition: {
		"processDefinitionId",
		"processDefinitionIdIn",
		"name",
		"nameLike",
		"deploymentId",
		"key",
		"keysIn",
		"keyLike",
		"category",
		"version",
		"latestVersion",
		"resourceName",
		"suspended",
		"active",
		"tenantIdIn",
		"withoutTenantId",
		// start
		"variables",
		"businessKey",
		"caseInstanceId",
		"startInstructions",
		"skipCustomListeners",
		"skipIoMappings",
		"withVariablesInReturn",
	},
	KindProcessInstance: {
		"processInstanceIds",
		"businessKey",
		"businessKeyLike",
		"caseInstanceId",
		"processDefinitionId",
		"processDefinitionKey",
		"deploymentId",
		"superProcessInstance",
		"subProcessInstance",
		"active",
		"suspended",
		"withIncident",
		"incidentId",
		"tenantIdIn",
		"withoutTenantId",
		"activityIdIn",
		"variables",
		// delete
		"skipCustomListeners",
		"skipIoMappings",
		"skipSubprocesses",
		"failIfNotExists",
		"deserializeValues",
	},
	KindSignal: {
		"name",
		"executionId",
		"variables",
		"tenantId",
		"withoutTenantId",
	},
	KindTask: {
		"processInstanceId",
		"processInstanceBusinessKey",
		"processDefinitionId",
		"processDefinitionKey",
		"executionId",
		"activityInstanceIdIn",
		"assignee",
		"assigneeLike",
		"owner",
		"candidateGroup",
		"candidateUser",
		"unassigned",
		"taskDefinitionKey",
		"name",
		"nameLike",
		"active",
		"suspended",
		"tenantIdIn",
		// claim and complete
		"userId",
		"variables",
		"withVariablesInReturn",
	},
	KindVariableInstance: {
		"variableName",
		"variableNameLike",
		"processInstanceIdIn",
		"executionIdIn",
		"caseInstanceIdIn",
		"taskIdIn",
		"activityInstanceIdIn",
		"tenantIdIn",
		"deserializeValues",
	},
}

func init() {
	for kind, fields := range allowLists {
		switch kind {
		case KindDeployment, KindProcessDefinition, KindProcessInstance, KindTask, KindVariableInstance:
			allowLists[kind] = append(fields, paging...)
		}
	}
}

// Entity is a property bag for a specific operation.
// Only fields of the operation's allow-list are retained, others are silently dropped.
type Entity struct {
	kind    Kind
	allowed map[string]struct{}
	fields  Object
}

// NewEntity creates an entity for a custom operation, which is not covered by one of the predefined kinds.
func NewEntity(allowed ...string) *Entity {
	return newEntity(KindCustom, allowed)
}

func NewDeploymentRequest() *Entity {
	return newEntity(KindDeployment, allowLists[KindDeployment])
}

func NewExternalTaskRequest() *Entity {
	return newEntity(KindExternalTask, allowLists[KindExternalTask])
}

func NewMessageRequest() *Entity {
	return newEntity(KindMessage, allowLists[KindMessage])
}

func NewProcessDefinitionRequest() *Entity {
	return newEntity(KindProcessDefinition, allowLists[KindProcessDefinition])
}

func NewProcessInstanceRequest() *Entity {
	return newEntity(KindProcessInstance, allowLists[KindProcessInstance])
}

func NewSignalRequest() *Entity {
	return newEntity(KindSignal, allowLists[KindSignal])
}

func NewTaskRequest() *Entity {
	return newEntity(KindTask, allowLists[KindTask])
}

func NewVariableInstanceRequest() *Entity {
	return newEntity(KindVariableInstance, allowLists[KindVariableInstance])
}

func newEntity(kind Kind, allowed []string) *Entity {
	e := Entity{
		kind:    kind,
		allowed: make(map[string]struct{}, len(allowed)),
	}
	for _, field := range allowed {
		e.allowed[field] = struct{}{}
	}
	return &e
}

// IsAllowed determines if a field is part of the entity's allow-list.
func (e *Entity) IsAllowed(field string) bool {
	_, ok := e.allowed[field]
	return ok
}

func (e *Entity) Kind() Kind {
	return e.kind
}

// MarshalJSON encodes the retained fields as JSON object, flattened like a JSON request body.
func (e *Entity) MarshalJSON() ([]byte, error) {
	b, err := e.flatten(ContentTypeJSON)
	if err != nil {
		return nil, err
	}
	return b.params.MarshalJSON()
}

// Object returns the retained fields in the order of their first assignment.
// Variables, files and nested entities are returned as [*Variables], [*Files] and [*Entity].
func (e *Entity) Object() *Object {
	o := NewObject()
	if e == nil {
		return o
	}
	for field, value := range e.fields.All() {
		o.Set(field, fromValue(value.(Value)))
	}
	return o
}

// Set sets the value of a field, if allowed. A value can be a scalar, [*Variables], [*Files] or a nested [*Entity].
func (e *Entity) Set(field string, value any) *Entity {
	if e.IsAllowed(field) {
		e.fields.Set(field, toValue(value))
	}
	return e
}

func (e *Entity) flatten(contentType ContentType) (*body, error) {
	b := newBody(contentType)
	if e == nil {
		return b, nil
	}

	for field, value := range e.fields.All() {
		if err := value.(Value).flatten(field, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
