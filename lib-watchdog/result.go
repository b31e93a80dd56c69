package watchdog

import (
	"time"

	"github.com/goccy/go-json"
)

// ErrorType is a machine readable category of a probe failure.
type ErrorType string

const (
	ErrorTypeNone             ErrorType = ""
	ErrorTypeConnectionFailed ErrorType = "connection_failed"
	ErrorTypeDNSFailed        ErrorType = "dns_failed"
	ErrorTypeTLSUntrusted     ErrorType = "tls_untrusted"
	ErrorTypeCommandFailed    ErrorType = "command_failed"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeException        ErrorType = "exception"
)

// ProbeError describes why a probe failed.
type ProbeError struct {
	Type    ErrorType
	Message string
}

// Error implements error interface.
func (e *ProbeError) Error() string {
	if e.Type == ErrorTypeNone {
		return e.Message
	}
	return string(e.Type) + ": " + e.Message
}

// Is makes errors.Is(err, ErrProbe) true for every ProbeError.
func (e *ProbeError) Is(err error) bool {
	return err == ErrProbe
}

// Result is the outcome of a single probe.
//
// A Result is either succeeded, or failed with an error kind and a message.
// A failed Result may still carry a Value, because some probes report the failure itself as data. For example, the internet probe reports Reachable=false together with a connection_failed error.
type Result[T any] struct {
	Value     T
	Err       *ProbeError
	CheckedAt time.Time
}

// Ok makes a succeeded Result.
func Ok[T any](value T, checkedAt time.Time) Result[T] {
	return Result[T]{
		Value:     value,
		CheckedAt: checkedAt,
	}
}

// Failed makes a failed Result.
func Failed[T any](value T, kind ErrorType, message string, checkedAt time.Time) Result[T] {
	return Result[T]{
		Value:     value,
		Err:       &ProbeError{Type: kind, Message: message},
		CheckedAt: checkedAt,
	}
}

// Success reports the probe finished without any error.
func (r Result[T]) Success() bool {
	return r.Err == nil
}

// ErrorMessage returns the error message, or an empty string if succeeded.
func (r Result[T]) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message
}

// ErrorType returns the error kind, or ErrorTypeNone if succeeded.
func (r Result[T]) ErrorType() ErrorType {
	if r.Err == nil {
		return ErrorTypeNone
	}
	return r.Err.Type
}

type jsonResult[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data"`
	Error     *string   `json:"error"`
	ErrorType *string   `json:"error_type"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler.
// The output is the uniform envelope shape, {success, data, error, error_type, timestamp}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	jr := jsonResult[T]{
		Success:   r.Success(),
		Data:      r.Value,
		Timestamp: r.CheckedAt.UTC(),
	}
	if r.Err != nil {
		msg := r.Err.Message
		kind := string(r.Err.Type)
		jr.Error = &msg
		jr.ErrorType = &kind
	}
	return json.Marshal(jr)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var jr jsonResult[T]
	if err := json.Unmarshal(data, &jr); err != nil {
		return err
	}

	*r = Result[T]{
		Value:     jr.Data,
		CheckedAt: jr.Timestamp,
	}
	if !jr.Success || jr.Error != nil {
		r.Err = &ProbeError{}
		if jr.Error != nil {
			r.Err.Message = *jr.Error
		}
		if jr.ErrorType != nil {
			r.Err.Type = ErrorType(*jr.ErrorType)
		}
	}
	return nil
}
