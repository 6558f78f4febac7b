// Package stdio provides the newline-delimited JSON-RPC transport over
// standard input and output. One process serves one client: requests are
// read a line at a time, fully processed, and answered with exactly one
// newline-terminated JSON document before the next line is read. Standard
// error is reserved for logging and never mixes into the protocol stream.
package stdio
