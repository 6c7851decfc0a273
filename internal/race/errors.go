package race

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyTagID indicates an arrival without a tag identifier.
	ErrEmptyTagID = errors.New("EMPTY_TAG_ID")

	// ErrInvalidTotalLaps indicates a race configured with a non-positive lap count.
	ErrInvalidTotalLaps = errors.New("INVALID_TOTAL_LAPS")
)

// ValidateTagID rejects empty and whitespace-only tag identifiers.
func ValidateTagID(tagID string) error {
	if strings.TrimSpace(tagID) == "" {
		return ErrEmptyTagID
	}
	return nil
}
