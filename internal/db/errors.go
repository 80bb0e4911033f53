package db

import "errors"

var (
	// ErrKeyNotFound is returned for a missing hash or key.
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrIndexNotFound is returned when an FT index does not exist.
	ErrIndexNotFound = errors.New("db: index not found")
	// ErrIndexExists is returned by CreateIndex for a duplicate name.
	ErrIndexExists = errors.New("db: index already exists")
)

// Command names recorded in Error.Op.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpScan        = "SCAN"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error is a transport or server failure of a single command.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "db " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }
