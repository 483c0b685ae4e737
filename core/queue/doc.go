// Package queue provides a bounded, blocking FIFO queue with a one-way
// completion protocol.
//
// Producers call [BlockingQueue.Add], which blocks while the queue is full.
// Consumers call [BlockingQueue.Take], which blocks while the queue is empty.
// Once [BlockingQueue.CompleteAdding] has been called no further items are
// accepted, but every item that was added before completion is still handed
// out to consumers:
//
//	q, err := queue.New[int](16)
//	if err != nil {
//	    return err
//	}
//
//	go func() {
//	    for {
//	        v, status := q.Take()
//	        if status == queue.StatusCompleted {
//	            return
//	        }
//	        process(v)
//	    }
//	}()
//
//	q.Add(1)
//	q.Add(2)
//	q.CompleteAdding() // consumer still receives 1 and 2
//
// Outcomes are reported as [Status] values rather than errors so that
// producer and consumer loops can branch on them directly.
package queue
