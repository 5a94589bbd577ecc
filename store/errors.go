package store

import "errors"

// ErrStorage matches every error caused by the database being unreachable or a statement failing
var ErrStorage = errors.New("storage unavailable")

// StorageError wraps the underlying db error of a store operation
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
