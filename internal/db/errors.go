package db

import "errors"

var (
	// ErrKeyNotFound is returned by KVStore.Get for a missing key.
	ErrKeyNotFound = errors.New("db: no such key")
	// ErrIndexExists is returned by CreateIndex when the index is already defined.
	ErrIndexExists = errors.New("db: index already exists")
)

// Server commands named in Error.Op.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpHSet        = "HSET"
	OpScan        = "SCAN"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error is a failed server command. Target is the key, pattern or index it addressed.
type Error struct {
	Op     string
	Target string
	Err    error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Target + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
