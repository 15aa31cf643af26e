// Package api defines the JSON messages exchanged with the wildproof REST API.
package api
