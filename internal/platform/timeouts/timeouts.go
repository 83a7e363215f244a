// Package timeouts defines shared timeout constants used by the portal
// commands and their outbound clients.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// RemoteRequest caps a single call to the remote portal backend.
const RemoteRequest = 10 * time.Second

// SessionSweep is the interval between expired-session cleanups.
const SessionSweep = time.Minute
