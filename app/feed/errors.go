package feed

import "errors"

var (
	// ErrFetch marks network, timeout, HTTP status and empty body failures.
	ErrFetch = errors.New("fetch failed")
	// ErrParse marks feed bodies that are neither RSS nor Atom.
	ErrParse = errors.New("parse failed")
)
