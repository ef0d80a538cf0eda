// Package api contains the HTTP handlers fronting the task producers, the
// queue health probe, and the internal dispatch drain endpoint, plus the
// service-error to HTTP mapping. Routing and middleware wiring live in
// cmd/server.
package api
