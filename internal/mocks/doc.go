// Package mocks provides in-memory implementations of the persistence and
// collaborator interfaces, shared across package tests. The fakes keep
// real state (maps guarded by a mutex) so tests exercise protocol
// semantics such as idempotent insert and claim transitions rather than
// canned return values; each fake also exposes error fields to force
// infrastructure failures.
package mocks
