package domain

import "errors"

var (
	// ErrNotFound is returned when an input path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for arguments outside their valid range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingCredentials is returned when a remote provider has no API key configured.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrDimensionMismatch is returned when a vector does not have the configured length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyEmbedding is returned when a provider answers without a vector.
	ErrEmptyEmbedding = errors.New("no embedding returned")
)
