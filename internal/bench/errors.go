package bench

import "errors"

var (
	// ErrUnknownWorkload is returned for a workload name that is not
	// registered.
	ErrUnknownWorkload = errors.New("bench: unknown workload")

	// ErrInvalidParams is returned when a workload cannot run with the
	// given parameters.
	ErrInvalidParams = errors.New("bench: invalid parameters")

	// ErrVerify is returned when a workload's end state is wrong.
	ErrVerify = errors.New("bench: verification failed")
)
