package postsync

import "errors"

var (
	// ErrNoRemoteCall is reported through OnError when a toggle is issued without a remote call
	ErrNoRemoteCall = errors.New("toggle requires a remote call")
)
