package externalApi

import "errors"

var (
	ErrNotFound = errors.New("error not found")
	ErrUpstream = errors.New("error upstream provider")
)
