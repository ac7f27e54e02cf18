// Package worker provides a SDK to execute external tasks.
/*
A worker fetches and locks external tasks of registered topics and reports the outcome of each execution to the engine.

Create a Worker

A worker requires a client.

	client, err := camunda.New("http://localhost:8080/engine-rest")
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}

	w, err := worker.New(client, func(o *worker.Options) {
		o.WorkerId = "invoice-worker"
		o.OnTaskExecutionFailure = func(task worker.ExternalTask, err error) {
			log.Printf("failed to execute task %s: %v", task, err)
		}
	})
	if err != nil {
		log.Fatalf("failed to create worker: %v", err)
	}

Implement a Handler

A handler is registered per topic. Variables, set by the handler, are passed when the task is completed.

	err := w.Register("invoice", func(tc worker.TaskContext) error {
		var amount int
		if variable, ok := tc.Variable("amount"); ok {
			if err := variable.Decode(&amount); err != nil {
				return err
			}
		}

		if amount > 1000 {
			return worker.NewBpmnError("amountTooHigh")
		}

		tc.SetVariable("invoiceId", "inv-1")
		return nil
	})

A handler error is reported as failure. The retries of a task are decremented, starting with [Options].Retries.
Specific retries can be returned by using [NewTaskError].

	return worker.NewTaskError(err, 0, 0) // creates an incident

Run a Worker

	w.Start()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	w.Stop()
*/
package worker
