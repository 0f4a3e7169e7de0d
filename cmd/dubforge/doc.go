// Command dubforge is the CLI and daemon entry point for the media dubbing
// pipeline.
package main
