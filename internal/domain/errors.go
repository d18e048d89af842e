package domain

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Sentinel errors for domain operations
var (
	// ErrStorageLimitExceeded indicates a write would push a collection past its capacity
	ErrStorageLimitExceeded = errors.New("storage limit exceeded")

	// ErrImmutableField indicates an update tried to change a record's id or creation time
	ErrImmutableField = errors.New("record id and dateAdded are immutable")

	// ErrInvalidSource indicates a source failed validation
	ErrInvalidSource = errors.New("invalid source")

	// ErrSourceNotFound indicates the requested source does not exist
	ErrSourceNotFound = errors.New("source not found")

	// ErrItemNotFound indicates the requested media record does not exist
	ErrItemNotFound = errors.New("media item not found")
)

// CapacityError reports the serialized size that tripped the storage limit.
type CapacityError struct {
	Size  int
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("storage limit exceeded: total size %s, limit %s",
		humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

func (e *CapacityError) Unwrap() error { return ErrStorageLimitExceeded }
