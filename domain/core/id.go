package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ResultID ID
	BatchID  ID
)

// String conversions for domain IDs
func (id ResultID) String() string { return ID(id).String() }
func (id BatchID) String() string  { return ID(id).String() }

// NewResultID mints an identifier for a stored test result
func NewResultID() ResultID {
	return ResultID(NewID())
}

// NewBatchID mints an identifier for a batch run
func NewBatchID() BatchID {
	return BatchID(NewID())
}

// ParseResultID parses a string into ResultID
func ParseResultID(s string) (ResultID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("result ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("result ID must be a UUID: %v", err)
	}
	return ResultID(s), nil
}
