package tool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentCalls bounds the child processes one batch keeps alive.
const maxConcurrentCalls = 8

// InvokeAll issues independent requests concurrently and returns their
// responses in request order once every call has finished. Responses never
// carry Go errors, so one failed call does not cancel its siblings; the
// shared ctx still cancels them all.
func InvokeAll(ctx context.Context, inv Invoker, reqs ...Request) []Response {
	out := make([]Response, len(reqs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentCalls)
	for i, req := range reqs {
		g.Go(func() error {
			out[i] = inv.Invoke(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
