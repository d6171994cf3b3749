// Package dispatch runs polyline decoding off the caller's goroutine.
//
// A Dispatcher owns a single shared Worker, created on the first Decode and
// kept until Cleanup. Callers are multiplexed onto it by correlation id:
//
//   - Decode registers id -> resolver, posts {type:"decode", id, encoded},
//     and waits for the matching reply or the timeout (10s by default).
//   - The receive loop looks each reply's id up, removes the entry and
//     delivers it once. Replies for unknown ids (late, after a timeout) are
//     dropped.
//   - If the worker cannot be created, Decode decodes inline instead and the
//     caller never sees the failure. The next call tries to create it again.
//
// A timeout or an error reply fails only the request it belongs to; the
// worker keeps serving others.
package dispatch
