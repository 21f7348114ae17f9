package fiscal

import (
	"errors"
	"fmt"

	"fiscal/pkg/models"
)

// Common decoding errors
var (
	// ErrMalformedDocument is returned when the input is not well-formed XML.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrUnrecognizedDocumentType is returned when the tree is well-formed but
	// holds neither an invoice nor a waybill container.
	ErrUnrecognizedDocumentType = errors.New("unrecognized document type")

	// ErrMissingRequiredSection is returned when the document family was
	// detected but a section its decoder requires is absent.
	ErrMissingRequiredSection = errors.New("missing required section")

	// ErrDocumentTooLarge is returned when the input exceeds MaxDocumentSizeBytes.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")
)

// DecodeError wraps errors with the operation that failed.
type DecodeError struct {
	// Op is the operation that failed (e.g., "Decode", "DecodeInvoice").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("fiscal: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("fiscal: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *DecodeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(op string, err error, details string) *DecodeError {
	return &DecodeError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapDecodeError wraps an error as a DecodeError if it isn't already one.
func WrapDecodeError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return err
	}

	return NewDecodeError(op, err, details)
}

// SectionError names the required container that was missing.
type SectionError struct {
	Family  models.Family
	Section string
}

// Error implements the error interface.
func (e *SectionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMissingRequiredSection, e.Family, e.Section)
}

// Is matches ErrMissingRequiredSection.
func (e *SectionError) Is(target error) bool {
	return target == ErrMissingRequiredSection
}

func missingSection(family models.Family, section string) error {
	return &SectionError{Family: family, Section: section}
}

// FailureReason maps a decode error to a short label for metrics and reports.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedDocument):
		return "malformed"
	case errors.Is(err, ErrUnrecognizedDocumentType):
		return "unrecognized"
	case errors.Is(err, ErrMissingRequiredSection):
		return "missing_section"
	case errors.Is(err, ErrDocumentTooLarge):
		return "too_large"
	default:
		return "other"
	}
}
