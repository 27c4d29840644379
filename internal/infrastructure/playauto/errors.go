package playauto

import "errors"

var (
	// ErrRequestFailed is returned when the hub API rejects a request
	ErrRequestFailed = errors.New("playauto request failed")

	// ErrAuthFailed is returned when authentication is rejected
	ErrAuthFailed = errors.New("playauto authentication failed")

	// ErrEmptyToken is returned when the auth response carries no token
	ErrEmptyToken = errors.New("playauto auth response contained no token")

	// ErrInvalidResponse is returned for undecodable response bodies
	ErrInvalidResponse = errors.New("invalid playauto response")
)
