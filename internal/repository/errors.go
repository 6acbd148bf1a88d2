package repository

import "errors"

var (
	// ErrNotFound indicates the query returned no rows.
	ErrNotFound = errors.New("not found")
)
