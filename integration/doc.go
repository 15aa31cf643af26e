// Package integration drives a wildproof daemon process over its REST API.
//
// The harness compiles the daemon once per test binary, launches it on a free
// local port and exposes a client bound to it.
package integration
