package domain

import "errors"

var (
	// ErrNotHost is returned when a non-host attempts a host-only mutation.
	ErrNotHost = errors.New("only the host may perform this action")
	// ErrGameNotFound is returned where a missing game cannot be treated as a no-op.
	ErrGameNotFound = errors.New("game not found")
	// ErrEmptyPool indicates no round can be generated from the given pool.
	ErrEmptyPool = errors.New("no entities available for a round")
	// ErrCatalogNotFound indicates the country catalog could not be loaded.
	ErrCatalogNotFound = errors.New("country catalog not found")
)
