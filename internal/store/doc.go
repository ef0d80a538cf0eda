// Package store defines persistence interfaces for the domain entities the
// task core touches, the DBTX abstraction over *sql.DB / *sql.Tx, shared
// store error sentinels, and the RunInTransaction helper that lets an
// enqueue commit atomically with the domain write that triggered it.
package store
