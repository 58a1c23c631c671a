package batchexec

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame indicates a response frame did not have the expected
// positional shape.
var ErrMalformedFrame = errors.New("malformed rpc response frame")

// ErrNoPayload indicates the remote service accepted the call but returned
// a null inner payload, e.g. for an input it silently rejected.
var ErrNoPayload = errors.New("rpc response carried no inner payload")

// TransportError is a non-success HTTP status from the batch endpoint.
type TransportError struct {
	Status     int
	StatusText string
}

func (e *TransportError) Error() string {
	if e.StatusText != "" {
		return fmt.Sprintf("rpc transport error: %d %s", e.Status, e.StatusText)
	}
	return fmt.Sprintf("rpc transport error: %d", e.Status)
}
