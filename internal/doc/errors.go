package doc

import "errors"

// Model errors. Steps fail with one of these and leave the input version
// untouched.
var (
	// ErrInvalidPosition is returned when a position lies outside the document.
	ErrInvalidPosition = errors.New("doc: invalid position")
	// ErrInvalidRange is returned for reversed ranges or ranges a step cannot span.
	ErrInvalidRange = errors.New("doc: invalid range")
	// ErrInvalidStep is returned when a step's parameters do not fit the document.
	ErrInvalidStep = errors.New("doc: invalid step")
)
