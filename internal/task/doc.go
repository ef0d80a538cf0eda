// Package task implements the durable task dispatch core: idempotent
// enqueue of task records into the relational store, per-queue retry
// policies with exponential backoff, dispatcher outcome reporting with
// dead-lettering, and queue health snapshots.
//
// The store is the only channel between producers and the dispatcher.
// Enqueue is a single fire-and-forget insert; the unique constraint on the
// task name is the idempotency mechanism, and a duplicate insert is the
// success path, never an error surfaced to callers.
package task
