package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrNotImplemented     = errors.New("operation is not implemented")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	ErrPriceUnavailable = errors.New("no current price revealed for instrument")
	ErrConnectionFailed = errors.New("failed to connect to the upstream exchange")
	ErrRateLimited      = errors.New("API rate limit exceeded")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
