package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the root of every input validation failure in the
// pricing core. Callers test for it with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrUnknownKind = fmt.Errorf("%w: unknown option kind", ErrInvalidArgument)
	ErrUnknownType = fmt.Errorf("%w: unknown option type", ErrInvalidArgument)
	// ErrExpired is returned when Greeks are requested for a contract with T <= 0.
	ErrExpired = fmt.Errorf("%w: greeks are undefined at expiry", ErrInvalidArgument)
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
