package docsync

import (
	"errors"
	"fmt"
)

// ErrBusy is the sentinel the Backend returns from Delete when the backend
// is currently processing the document and the delete must be retried on a
// later tick. Never surfaced as a user-visible failure — it only drives the
// pending-delete queue (original spec §7, §9 "Exceptions for busy").
var ErrBusy = errors.New("docsync: backend busy")

// BusyError wraps ErrBusy with context for logging. Backend implementations
// may return this instead of the bare sentinel; errors.Is(err, ErrBusy)
// still matches.
type BusyError struct {
	DocID string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("docsync: backend busy deleting %s", e.DocID)
}

func (e *BusyError) Unwrap() error {
	return ErrBusy
}

// IsBusy reports whether err (or any error it wraps) is ErrBusy.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
