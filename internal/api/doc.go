// Package api provides read-only query facades and transport DTOs shared by
// the HTTP server and the CLI.
package api
