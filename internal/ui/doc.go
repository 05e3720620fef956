// Package ui provides the railcab terminal console, built on Bubble Tea.
//
// # Layout
//
// A header shows connection badges for the locomotive and switch proxies,
// the remaining control session and the most recent error. Below it two
// panes sit side by side: the locomotive pane lists locomotive servers and
// the mirrored locomotive, the switches pane lists switch servers and the
// four switch positions. A footer shows short key help.
//
// # Event Flow
//
//  1. Run starts the Bubble Tea program
//  2. A tick at PollTick copies state.Store into the model
//  3. Key presses become Actions calls; the controller posts them to its
//     event loop and never blocks the UI
//  4. The next tick renders whatever the loop has applied
//  5. Context cancellation quits on the following tick
//
// The console never reads proxies directly. Everything it shows comes from
// snapshots, so rendering cannot race the loop.
package ui
