package validation

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/refgate/internal/common"
)

// Issue is a single field violation. Field uses dotted JSON names, e.g.
// "storage.bucket"; an empty Field refers to the body as a whole.
type Issue struct {
	Field   string `json:"path"`
	Message string `json:"message"`
}

// Error aggregates every violation found in a payload. It matches
// common.ErrValidation under errors.Is.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Field == "" {
			parts = append(parts, is.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", is.Field, is.Message))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error {
	return common.ErrValidation
}

type issues []Issue

func (is *issues) add(field, msg string) {
	*is = append(*is, Issue{Field: field, Message: msg})
}

func (is issues) err() error {
	if len(is) == 0 {
		return nil
	}
	return &Error{Issues: is}
}
