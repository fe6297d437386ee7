package domain

import "errors"

// ErrUnknownFault is returned when a fault name cannot be parsed.
var ErrUnknownFault = errors.New("unknown fault type")

// ErrInjectedFailure is returned by a probe point armed with an exception or termination fault.
var ErrInjectedFailure = errors.New("injected failure")
