package watchdog

import (
	"errors"
)

// The errors in this library can check the error type via errors.Is function.
var (
	// ErrProbe is an error for an expected probe failure, like an unreachable service.
	// It is recorded as data and never stops a polling cycle.
	ErrProbe = errors.New("probe failed")

	// ErrCommand is an error for an external command that exited with non-zero code or timed out.
	ErrCommand = errors.New("command failed")

	// ErrPersistence is an error for the observation store is unavailable or failed to write.
	ErrPersistence = errors.New("failed to read/write observation store")

	// ErrRecovery is an error for all of restart strategies are exhausted.
	ErrRecovery = errors.New("recovery failed")

	// ErrNotFound is an error for the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidConfig is an error for the configuration has invalid value.
	ErrInvalidConfig = errors.New("invalid configuration")
)
