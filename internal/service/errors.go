package service

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("service: not found")
	// ErrValidation indicates rejected input; wrapped with field detail.
	ErrValidation = errors.New("service: validation failed")
	// ErrInvalidHorizon indicates an acknowledge request named an unknown horizon.
	ErrInvalidHorizon = errors.New("service: invalid horizon")
	// ErrOrderTerminal indicates a mutation on a delivered or cancelled order.
	ErrOrderTerminal = errors.New("service: order already delivered or cancelled")
	// ErrInvalidToken indicates a calendar feed token mismatch.
	ErrInvalidToken = errors.New("service: invalid token")
)
