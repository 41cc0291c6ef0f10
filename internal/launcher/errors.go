package launcher

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/dorcha-inc/pal/internal/prompt"
)

// ErrCancelled is returned when the user dismisses a selection or prompt.
var ErrCancelled = prompt.ErrCancelled

// ResolutionError is returned for palette, frontend or action ids that do
// not resolve to a usable plugin.
type ResolutionError struct {
	Kind       string `json:"kind"`
	ID         string `json:"id"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Error returns the error message for the ResolutionError
func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Kind, e.ID, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// NewResolutionError creates a new ResolutionError
func NewResolutionError(kind, id, reason string) *ResolutionError {
	return &ResolutionError{Kind: kind, ID: id, Reason: reason}
}

// newUnknownError reports an unknown id with the closest known id, if any
// is close enough.
func newUnknownError(kind, id string, known []string) *ResolutionError {
	err := NewResolutionError(kind, id, "not configured")
	err.Suggestion = suggest(id, known)
	return err
}

// Interface guard for ResolutionError
var _ error = &ResolutionError{}

func suggest(id string, known []string) string {
	best, bestDist := "", -1
	for _, k := range known {
		d := levenshtein.ComputeDistance(id, k)
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	limit := max(2, len(id)/3)
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
