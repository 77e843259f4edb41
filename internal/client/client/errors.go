package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/refgate/internal/validation"
)

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrCredentialExpired = errors.New("upload credential expired")
)

// APIError is a non-2xx reply from the gateway, or a 2xx reply whose
// envelope reports failure.
type APIError struct {
	Status  int
	Code    string
	Message string
	Issues  []validation.Issue
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gateway returned %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, is := range e.Issues {
		fmt.Fprintf(&b, "; %s: %s", is.Field, is.Message)
	}
	return b.String()
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
