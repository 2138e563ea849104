// Package async holds small concurrency helpers.
//
// Go starts a function and returns a Future; Settle waits for a batch of
// futures and keeps every error:
//
//	futures := make([]*async.Future[string], len(channels))
//	for i, c := range channels {
//	    futures[i] = async.Go(ctx, c, deliver)
//	}
//	for _, o := range async.Settle(futures...) {
//	    // o.Value, o.Err
//	}
//
// ForEach runs a function over a slice with bounded parallelism.
package async
