package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLawyerStoreNotSet    = errors.New("lawyer store not set")
	ErrDatasetStorageNotSet = errors.New("dataset storage not set")
)

// FieldError describes one invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports a request that was rejected before retrieval
type ValidationError struct {
	Message string
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// RetrievalError reports a storage failure. It is never used for an empty result.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed during %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRetrieval reports whether err is or wraps a *RetrievalError
func IsRetrieval(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}
