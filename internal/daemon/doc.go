// Package daemon runs photoreport as a long-lived local process.
//
// It holds a single session.Controller and serves it over a loopback HTTP
// workbench, ingests photos dropped into the configured drop folder, or both.
// A flock on the data directory prevents two instances from editing the same
// reports at once. Keep report semantics in the session package; the daemon
// only covers startup, shutdown, and transport.
package daemon
