package store

import "errors"

// StoreError wraps an underlying I/O or constraint failure from the database.
// It is never retried by the core; the HTTP surface maps it to a 500 and the
// search tools report it as an isError tool result.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// ErrNotFound names the not-found outcome. No lookup in this package returns
// it: GetSessionByExternalID reports a missing row as (nil, nil).
var ErrNotFound = errors.New("store: not found")
