package analyzer

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is matched by errors.Is on a *MalformedResponseError.
var ErrMalformedResponse = errors.New("malformed model response")

// MalformedResponseError reports a completion whose content could not be
// unwrapped, parsed or mapped. Raw holds the full completion text for
// operator diagnosis and must not be sent to clients.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedResponse, e.Err)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// schemaError points at the offending location in the model's reply.
type schemaError struct {
	Path    string
	Problem string
}

func (e *schemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Problem)
}
