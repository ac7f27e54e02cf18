// Package camunda provides a client for the engine's REST API.
/*
A client is created with the base URL of the REST API, e.g. http://localhost:8080/engine-rest:

	client, err := camunda.New("http://localhost:8080/engine-rest", func(o *camunda.Options) {
		o.Username = "demo"
		o.Password = "demo"
	})
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}

	defer client.Shutdown()

Every operation accepts a request entity, created by one of the rest.New*Request functions, and returns a [rest.Result]:

	result, err := client.StartProcessInstance(ctx, "order", rest.NewProcessDefinitionRequest().
		Set("businessKey", "order-1").
		Set("variables", rest.NewVariables().Add("amount", 5, "Integer")),
	)
	if err != nil {
		log.Fatalf("failed to start process instance: %v", err)
	}
	if err := result.Err(); err != nil {
		log.Fatalf("failed to start process instance: %v", err)
	}

An error is only returned, if a request could not be constructed.
HTTP error status codes are part of the result and can be checked via [rest.Result.Err].

Operations, which are not covered by the client, can be dispatched via [Client.NewService].
*/
package camunda
