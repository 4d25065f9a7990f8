package xchina

import "errors"

var (
	// ErrInvalidURL is returned for input that is not one of the known URL kinds.
	ErrInvalidURL = errors.New("unrecognized url")

	// ErrMissingField means a required element was absent from a card or page.
	ErrMissingField = errors.New("missing required field")

	// ErrNumericParse means a count or page number could not be parsed.
	ErrNumericParse = errors.New("invalid number")

	// ErrNotContentPage means the HTML is not a usable content item page.
	ErrNotContentPage = errors.New("not a content page")
)
