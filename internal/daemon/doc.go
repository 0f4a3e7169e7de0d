// Package daemon hosts the long-running dubforge process: single-instance
// locking, job submission and deletion, crash recovery, and the HTTP API.
package daemon
