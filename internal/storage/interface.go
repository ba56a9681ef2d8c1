package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirosfoundation/go-dugong/internal/domain"
)

// Common errors
var (
	// ErrUnavailable means no data service is configured or reachable
	ErrUnavailable = errors.New("data service unavailable")
	// ErrDatabase wraps failures reported by the data service
	ErrDatabase = errors.New("database error")
)

// GuestbookStore defines the read access to the guestbook dataset
type GuestbookStore interface {
	// ListEntries returns every row of the dataset ordered by id, highest first
	ListEntries(ctx context.Context) (domain.GuestbookEntries, error)
}

// QueryError carries the details a data service reported for a failed query.
// It matches ErrDatabase with errors.Is.
type QueryError struct {
	Status  int    // HTTP status for remote services, 0 otherwise
	Code    string // service specific error code
	Message string
	Hint    string
}

func (e *QueryError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "query failed"
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (code %s)", msg, e.Code)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s [status %d]", msg, e.Status)
	}
	return msg
}

// Is reports ErrDatabase as the sentinel of every query error
func (e *QueryError) Is(target error) bool {
	return target == ErrDatabase
}
