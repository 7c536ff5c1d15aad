package store

import (
	"fmt"

	"calendo/internal/datekey"
)

// EmptyTaskError rejects a task whose trimmed text is empty.
type EmptyTaskError struct {
	Key datekey.Key
}

func (e EmptyTaskError) Error() string {
	return fmt.Sprintf("task for %s is empty", e.Key)
}

// IndexOutOfRangeError reports an edit against a row that no longer exists.
type IndexOutOfRangeError struct {
	Key   datekey.Key
	Index int
	Len   int
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("task index %d out of range for %s (%d tasks)", e.Index, e.Key, e.Len)
}

// PersistenceFormatError means the stored blob could not be decoded.
type PersistenceFormatError struct {
	Err error
}

func (e PersistenceFormatError) Error() string {
	return fmt.Sprintf("stored tasks are malformed: %v", e.Err)
}

func (e PersistenceFormatError) Unwrap() error { return e.Err }

// PersistenceWriteError wraps a failed write to the backend.
type PersistenceWriteError struct {
	Err error
}

func (e PersistenceWriteError) Error() string {
	return fmt.Sprintf("saving tasks failed: %v", e.Err)
}

func (e PersistenceWriteError) Unwrap() error { return e.Err }
