package models

import "errors"

// Failure classes shared by the client, session and cycle layers.
var (
	ErrAuth             = errors.New("authentication rejected")
	ErrTransport        = errors.New("remote transport failure")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPowerUnavailable = errors.New("power unavailable")
	ErrUpstream         = errors.New("remote write rejected")
	ErrSessionExpired   = errors.New("session expired")
	ErrUnknownSite      = errors.New("unknown site")
)
