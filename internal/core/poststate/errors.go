package poststate

import "errors"

var (
	// ErrAlreadyHydrated is returned when Hydrate is called a second time on the same store
	ErrAlreadyHydrated = errors.New("post state store already hydrated")

	// ErrMalformedState indicates the persisted blob does not decode to a post state map
	ErrMalformedState = errors.New("malformed persisted post state")

	// ErrMirrorClosed is returned by Flush after the store has been closed
	ErrMirrorClosed = errors.New("post state mirror closed")
)
