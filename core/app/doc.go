// Package app wires the pieces of an owner-executor service together: a
// bounded request queue, the executor owning a [resource.Manager], the
// status notifier and the periodic status refresh.
//
// # Basic Usage
//
//	a, err := app.Run(app.Config{
//	    QueueCapacity: 128,
//	    Status:        app.StatusConfig{Interval: time.Second},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a.Subscribe(func(s resource.StatusRecord) {
//	    // runs on the executor goroutine, keep it short
//	})
//
//	reply, err := a.SendData(ctx, "caller-1")
//
//	// stop callers, stop the scheduler, complete the queue, drain
//	a.Shutdown(ctx)
//
// # Callers
//
// [App.RunCaller] and [App.RunCallers] reproduce the request loops of the
// ownerd daemon: each caller sends a request, waits for the reply and
// sleeps for the configured interval, until its context is cancelled or the
// app shuts down.
package app
