// Package rest dispatches requests to the REST API of a Camunda engine.
/*
rest builds HTTP requests from request entities, sends them via a [Transport] and normalizes the responses.

Create a Transport

A transport requires the base URL of the engine's REST API. Basic authentication is optional.

	transport, err := rest.NewTransport("http://localhost:8080/engine-rest", func(o *rest.Options) {
		o.Username = "demo"
		o.Password = "demo"
	})
	if err != nil {
		log.Fatalf("failed to create transport: %v", err)
	}

Dispatch a Request

An entity holds the fields of a request. Only fields, which are known by the operation, are retained.
The content type determines whether the fields are sent as query string, JSON object or multipart form.

	files := rest.NewFiles()
	if err := files.AddFile("order.bpmn", "./order.bpmn"); err != nil {
		log.Fatal(err)
	}

	entity := rest.NewDeploymentRequest().
		Set("deployment-name", "order").
		Set("data", files)

	result, err := rest.NewService(transport).
		SetURL("deployment/create").
		SetMethod("post").
		SetContentType("multipart").
		SetEntity(entity).
		Run(context.Background(), false)
	if err != nil {
		log.Fatal(err)
	}
	if err := result.Err(); err != nil {
		log.Fatalf("failed to create deployment: %v", err)
	}

Relative request URLs are resolved against the base URL, so "deployment/create" targets "http://localhost:8080/engine-rest/deployment/create".
*/
package rest
