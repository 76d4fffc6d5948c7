package middlewares

import "errors"

var (
	ErrEmptyField     = errors.New("all fields must be filled")
	ErrUserIDTooLong  = errors.New("user id is too long")
	ErrInvalidHandle  = errors.New("invalid profile handle")
	ErrInvalidItem    = errors.New("invalid item")
	ErrMissingToken   = errors.New("authorization header is missing")
	ErrNotAccessToken = errors.New("token is not an access token")
)
