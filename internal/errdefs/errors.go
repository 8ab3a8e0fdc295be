package errdefs

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream service error")
	ErrConfig     = errors.New("configuration error")
)
