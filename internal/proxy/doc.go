// Package proxy keeps local mirrors of remote locomotives, switch groups and
// server directories in sync with their servers.
//
// # Threading
//
// Every proxy lives on a Scheduler (normally a *loop.Loop). Poll ticks,
// network completions and all getters and setters run on that loop, so the
// mirrors need no locks. Network I/O runs on the loop's worker pool and
// reports back through a continuation.
//
// # Polling
//
// A poll tick first schedules the next tick, then fetches the selected
// server's state if one is selected. A tick without a selection makes no
// request. Every successful fetch overwrites the mirror and is published to
// subscribers; failures go to the ErrorHandler and polling carries on.
//
// # Propagation
//
// A setter whose value differs from the mirror applies the value locally,
// then on a worker fetches the remote state, applies the one changed field to
// it and PATCHes the result. Fields changed on the server since the last poll
// therefore survive. A failure is reported and the local value stays until
// the next poll overwrites it.
//
// Servers that send ETags get If-Match writes and a rejected write is merged
// again on a fresh snapshot. Without ETags two clients writing at the same
// time race and the last PATCH wins. A propagation in flight when the
// selection changes still completes against the server it started on.
package proxy
