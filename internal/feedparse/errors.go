package feedparse

import "errors"

var (
	// ErrUnknownFormat is returned when the document matches none of the
	// supported feed formats.
	ErrUnknownFormat = errors.New("unknown feed format")

	// ErrEmptyDocument is returned for an empty or whitespace-only body.
	ErrEmptyDocument = errors.New("empty feed document")
)
