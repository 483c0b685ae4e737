// Package sf coalesces concurrent calls that share a key.
//
// While a call for a key is in flight, later callers with the same key wait
// for it and receive its result instead of starting their own. The app uses
// it so that many concurrent status reads put one task on the owner queue
// rather than one each.
//
//	var reads sf.Group[Status]
//	st, err := reads.Do(ctx, "status", func() (Status, error) {
//	    return fetch()
//	})
package sf
