// Package loop provides a single-threaded event loop with timers and a
// bounded worker pool.
//
// Every callback posted to a Loop, every timer set with After and every
// continuation returned by a Go job runs on the goroutine executing Run, one
// at a time and in the order it was queued. Code that keeps all of its state
// behind a Loop needs no locks.
package loop
