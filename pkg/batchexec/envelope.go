package batchexec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Frame is one parsed response frame: the JSON array from the single
// response line whose first element's first element is "wrb.fr". The real
// payload travels inside it as a JSON-encoded string at a fixed position.
type Frame []interface{}

// frameMarker identifies the payload line in a batch RPC response.
const frameMarker = "wrb.fr"

// Positional layout of a response frame. The protocol is addressed by
// array index, so the indices live here rather than inline at call sites.
const (
	// frameInnerIndex is the position of the JSON-encoded inner payload
	// within the first element of a frame.
	frameInnerIndex = 2

	// createdIDIndex is the position of the new notebook id within a
	// decoded create-notebook inner payload.
	createdIDIndex = 2
)

// BuildEnvelope wraps an RPC id and payload into the positional envelope
// the batch endpoint expects: [[[rpcID, jsonPayload, null, "generic"]]].
// The payload is JSON-encoded into a string first; this double encoding is
// mandatory and the remote service rejects anything else.
func BuildEnvelope(rpcID string, payload interface{}) (string, error) {
	inner, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode rpc payload: %w", err)
	}

	envelope := []interface{}{
		[]interface{}{
			[]interface{}{rpcID, string(inner), nil, "generic"},
		},
	}

	encoded, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to encode rpc envelope: %w", err)
	}
	return string(encoded), nil
}

// ParseResponse scans a multi-line response body for the one line carrying
// a wrb.fr frame. Lines that do not parse as such are discarded. Returns
// nil when no frame is present; callers decide whether that is "no data"
// or a protocol failure.
func ParseResponse(text string) Frame {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "[[") {
			continue
		}

		var data []interface{}
		if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
			continue
		}
		if len(data) == 0 {
			continue
		}

		first, ok := data[0].([]interface{})
		if !ok || len(first) == 0 {
			continue
		}
		if marker, ok := first[0].(string); ok && marker == frameMarker {
			return Frame(data)
		}
	}
	return nil
}

// Inner returns the frame's JSON-encoded inner payload. The remote service
// sends null here when it accepted the call but produced no data.
func (f Frame) Inner() (string, error) {
	if len(f) == 0 {
		return "", ErrMalformedFrame
	}
	first, ok := f[0].([]interface{})
	if !ok || len(first) <= frameInnerIndex {
		return "", ErrMalformedFrame
	}
	inner, ok := first[frameInnerIndex].(string)
	if !ok {
		return "", ErrNoPayload
	}
	return inner, nil
}

// DecodeInner decodes the frame's inner payload into its JSON structure.
func (f Frame) DecodeInner() (interface{}, error) {
	inner, err := f.Inner()
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(inner), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode inner payload: %w", err)
	}
	return decoded, nil
}

// CreatedNotebookID extracts the new notebook id from a decoded
// create-notebook inner payload.
func CreatedNotebookID(inner interface{}) (string, error) {
	arr, ok := inner.([]interface{})
	if !ok || len(arr) <= createdIDIndex {
		return "", fmt.Errorf("create response too short: %w", ErrMalformedFrame)
	}
	id, ok := arr[createdIDIndex].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("create response missing notebook id: %w", ErrMalformedFrame)
	}
	return id, nil
}
