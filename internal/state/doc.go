// Package state holds the thread-safe snapshot the console renders.
//
// The proxies own their mirrors on the event loop. The app forwards every
// mirror and directory update, selection change and reported error into a
// Store, and the UI reads copies through Snapshot on its own tick. Errors are
// counted per source so that a failing switch server does not mark the
// locomotive offline. Only RecordSuccess resets a count: mirror updates also
// carry optimistic local changes, which say nothing about the server.
package state
