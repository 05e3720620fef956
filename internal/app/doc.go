// Package app is the composition root of railcab.
//
// # Startup
//
//  1. Load ~/.config/railcab/config.toml and apply command-line overrides
//  2. Open the zap JSON log file
//  3. Create the railroad HTTP client and the shared state.Store
//  4. Build the Controller and run it next to the console in an errgroup
//
// Quitting the console cancels the context, which stops the loop. A failing
// loop cancels the console the same way.
//
// # Controller
//
// The Controller owns one event loop. Every proxy, both directories and the
// session countdown live on it, so their state is only touched by the loop
// goroutine. The exported actions (SelectLocomotive, ChangeSpeed,
// ToggleTrack and the rest) post a closure and return immediately.
//
// Component updates are forwarded into state.Store:
//
//	LocomotiveProxy ──> store.UpdateLocomotive
//	SwitchProxy     ──> store.UpdateSwitches
//	Directory       ──> store.UpdateServers, then prune on the loop
//
// Selecting a locomotive arms the session countdown and records its
// deadline with store.SetSessionDeadline.
//
// When a directory no longer lists the selected server, the matching proxy
// is deselected. An expired session stops the locomotive and deselects it.
//
// # Errors
//
// Only configuration and logger failures end Run early. Poll, propagate and
// directory failures are logged and recorded in the store, and the proxies
// keep polling.
package app
