package mocks

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
)

// NewTxDB returns a *sql.DB whose transactions begin, commit, and roll
// back successfully but support no statements. It lets transactional
// service code run against the in-memory fakes, which ignore the *sql.Tx
// handed to their WithTx methods.
func NewTxDB() *sql.DB {
	registerOnce.Do(func() {
		sql.Register("mocktx", noopDriver{})
	})
	db, err := sql.Open("mocktx", "")
	if err != nil {
		panic(err)
	}
	return db
}

var registerOnce sync.Once

type noopDriver struct{}

func (noopDriver) Open(name string) (driver.Conn, error) { return &noopConn{}, nil }

type noopConn struct{}

func (*noopConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("mocktx: statements are not supported")
}

func (*noopConn) Close() error { return nil }

func (*noopConn) Begin() (driver.Tx, error) { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error { return nil }

func (noopTx) Rollback() error { return nil }
