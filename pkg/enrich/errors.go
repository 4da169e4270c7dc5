package enrich

import "fmt"

// ErrorKind classifies enrichment failures for logging and metrics.
type ErrorKind string

const (
	// KindTransport covers request failures: network, timeout, HTTP status,
	// empty completion.
	KindTransport ErrorKind = "transport"

	// KindMalformedResponse covers completions that are not the expected
	// JSON document.
	KindMalformedResponse ErrorKind = "malformed_response"

	// KindInvalidField covers structurally valid responses whose field
	// values violate the output contract.
	KindInvalidField ErrorKind = "invalid_field"
)

// AdapterError is returned by the enrichment adapter on any failure. The
// record it concerns is dropped, never partially persisted.
type AdapterError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("enrichment failed (%s): %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("enrichment failed (%s): %s", e.Kind, e.Detail)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// IsAdapterError returns true if the error is an AdapterError.
func IsAdapterError(err error) bool {
	_, ok := err.(*AdapterError)
	return ok
}

// KindOf returns the error kind, or an empty kind for non-adapter errors.
func KindOf(err error) ErrorKind {
	if ae, ok := err.(*AdapterError); ok {
		return ae.Kind
	}
	return ""
}
