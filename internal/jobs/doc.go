// Package jobs persists dubbing jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, and the
// create/get/update/list/delete operations shared by every orchestrator
// goroutine and status poller. Each Update applies as one atomic unit and
// refreshes updatedAt; updating an unknown id is a silent no-op. Jobs capture
// the immutable submission parameters, progress checkpoints, the terminal
// artifact set, and which stages substituted a fallback.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// delete the database to adopt the new schema.
package jobs
