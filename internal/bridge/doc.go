// Package bridge carries editor notifications to the native host.
//
// The editor core never waits on the host: ViewUpdate notifications are
// queued on a bounded channel and delivered by a single worker goroutine.
// When the queue is full the oldest pending update is dropped, so the
// host always sees the most recent state. A nil *Bridge is valid and
// discards everything, which is how the core runs without a host.
//
// Hosts declare optional features up front as Capabilities instead of
// being probed at runtime.
package bridge
