package core

import (
	"fmt"
)

// Error taxonomy for the ingestion/search core. Every failure is scoped to a
// single request or job; nothing here is fatal to the process. Handlers map
// these to HTTP statuses with errors.As.

// ValidationError reports bad input. No side effects have occurred.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotFoundError reports an unknown collection, job or document.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Key)
}

// ConflictError reports a uniqueness clash, e.g. creating a collection that
// already exists.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// CapacityError reports a request rejected before any work was started,
// e.g. a batch larger than the configured maximum.
type CapacityError struct {
	Reason string
}

func (e *CapacityError) Error() string { return e.Reason }

// PersistenceError wraps a storage failure. Chunk writes are committed in
// fixed-size batches, so batches committed before the failure remain
// persisted; callers must not assume all-or-nothing per document.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CancelledError reports a job stopped by request. It is not a data
// integrity failure: batches committed before cancellation stay in place.
type CancelledError struct {
	JobID string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("job %s cancelled", e.JobID)
}
