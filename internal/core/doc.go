// Package core hosts a grid engine behind a concurrency-safe service.
//
// The grid package is single-threaded by contract. This package adds what
// a server needs around it, independent of any transport layer:
//
//   - Service: serializes edits from concurrent callers and answers queries
//     against the latest snapshot.
//   - Actor propagation: the editing identity travels in the request context
//     (see [ContextWithActor]) and is recorded on every audit entry.
//   - Subscriptions: [Service.Watch] hands out buffered snapshot channels for
//     streaming clients; slow readers only ever miss intermediate versions.
//   - Audit export: [Service.ExportAudit] writes the in-memory audit trail as CSV.
//
// # Listener Contract
//
// Listeners registered through [Options] or [Service.Subscribe] run while the
// service lock is held, in registration order. They must not call back into
// the Service; hand the snapshot to another goroutine if more work is needed.
//
// # Audit Severity
//
//   - Medium: Cell edits
//   - High: Bulk edits
package core
