package fitting

import "errors"

var (
	// ErrInvalidFittingSpec is returned when the fitting values do not match
	// the cardinality required by the key.
	ErrInvalidFittingSpec = errors.New("invalid fitting spec")
	// ErrUnknownFittingKey is returned for keys outside of Keys.
	ErrUnknownFittingKey = errors.New("unknown fitting key")
)
