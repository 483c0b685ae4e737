package sf

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Group deduplicates concurrent calls with the same key. The zero value is
// ready to use.
type Group[T any] struct {
	group singleflight.Group
}

// Do runs fn for key unless a call for key is already in flight, in which
// case it waits for that call. If ctx is done first, Do returns ctx.Err();
// the in-flight call keeps running for the other waiters.
func (g *Group[T]) Do(ctx context.Context, key string, fn func() (T, error)) (T, error) {
	ch := g.group.DoChan(key, func() (any, error) {
		return fn()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Forget makes the next Do for key start a new call even if one is in flight.
func (g *Group[T]) Forget(key string) {
	g.group.Forget(key)
}
