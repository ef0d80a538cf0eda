// Package postgres contains PostgreSQL implementations of the store
// interfaces, including the task record store whose unique constraint on
// task_name backs the idempotent enqueue protocol and whose SKIP LOCKED
// claim query backs dispatch.
package postgres
