package usecase

import "errors"

// Handlers map these onto HTTP statuses; trade rule violations are
// trade.RejectionError instead.
var (
	ErrInvalidInput          = errors.New("invalid request")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("caller is not authenticated")
	ErrDependencyUnavailable = errors.New("upstream dependency unavailable")

	// ErrDispatcherClosed marks intents handed to a dispatcher after Close.
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)
