package domain

import "fmt"

// NormalizationError reports malformed or insufficient raw rows. It names
// the offending symbol and field so callers can identify the source.
type NormalizationError struct {
	Symbol string
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("normalization failed for %s (field %s): %s", e.Symbol, e.Field, e.Reason)
	}
	return fmt.Sprintf("normalization failed for %s: %s", e.Symbol, e.Reason)
}

// ClassificationError reports an ambiguous asset-class inference. Callers
// must supply an explicit asset class to resolve it.
type ClassificationError struct {
	Symbol string
	Reason string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify %s: %s", e.Symbol, e.Reason)
}

// ResolutionError wraps a price-lookup failure from the injected resolver.
// The cause is opaque to the analytics core.
type ResolutionError struct {
	Symbol string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("price resolution failed for %s: %v", e.Symbol, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ConfigurationError reports an invalid parameter, such as an unknown
// indicator name or a non-positive period.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}
