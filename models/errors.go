package models

import (
	"errors"
	"fmt"
)

// Error codes used in placeholder rows, logs and exit handling.
const (
	ErrCodeNavigation         = "NAVIGATION_FAILED"
	ErrCodeElementNotFound    = "ELEMENT_NOT_FOUND"
	ErrCodeExtraction         = "EXTRACTION_FAILED"
	ErrCodeIO                 = "IO_ERROR"
	ErrCodeBrowserUnreachable = "BROWSER_UNREACHABLE"
	ErrCodeInvalidConfig      = "INVALID_CONFIG"
	ErrCodeInterrupted        = "INTERRUPTED"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Description is the human-readable form used in error rows: the message
// and its cause, without the code.
func (e *ScrapeError) Description() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or ""
// if there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Describe returns the row description for any error: the ScrapeError
// description when err carries one, err.Error() otherwise.
func Describe(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Description()
	}
	return err.Error()
}
