package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPixelID       = errors.New("pixelId is required")
	ErrUnknownEventName     = errors.New("unknown event name")
	ErrUnrecognizedCurrency = errors.New("unrecognized currency")
	ErrUnknownContentType   = errors.New("unknown content type")
	ErrUnknownTravelClass   = errors.New("unknown travel class")
	ErrMixedContentIDs      = errors.New("content_ids must be all strings or all numbers")
	ErrInvalidContentID     = errors.New("content_ids entries must be strings or numbers")
	ErrInvalidContent       = errors.New("contents entry requires id and quantity")
)

// FieldError ties a validation failure to the JSON field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
