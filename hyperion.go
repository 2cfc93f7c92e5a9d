// Package hyperion is an asynchronous client library for the Hyperion
// ambient-lighting controller's newline-delimited JSON-over-TCP protocol.
// It maintains a long-lived connection, mirrors a slice of the server's
// live state (components, priorities, effects, LED layout, instance list,
// session discovery, video mode, adjustments), correlates concurrent
// in-flight requests with their asynchronous responses, dispatches
// server-initiated updates to subscribers, and transparently re-
// establishes connectivity after failures.
//
// For a synchronous façade that runs the client on a background goroutine
// and blocks every call, see ThreadedClient in hyperion_sync.go.
package hyperion

// ModuleVersion is the library's own version string, independent of any
// Hyperion server version it talks to.
const ModuleVersion = "0.1.0"
