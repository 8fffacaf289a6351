package domain

import "errors"

var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrAuthenticationFailed = errors.New("incorrect email or password")
	ErrUnauthenticated      = errors.New("could not validate credentials")
	ErrPostNotFound         = errors.New("post not found")
	ErrForbidden            = errors.New("you don't have permission to modify this post")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrValidation           = errors.New("validation failed")

	// ErrUnavailable is returned when a backing store cannot hand out a
	// connection within its configured wait.
	ErrUnavailable = errors.New("service unavailable")
)
