package repository

import "errors"

var (
	// ErrSourceNotConfigured indicates no fetcher is registered for a URL scheme
	ErrSourceNotConfigured = errors.New("image source not configured")
)
