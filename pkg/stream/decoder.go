// Package stream decodes the incremental response format used by the
// streamed-generation endpoint: a byte buffer holding a sequence of JSON
// array literals with no reliable delimiter or length prefix between them.
//
// The decoder mines the text for arrays instead of trusting length
// prefixes, which are fragile against multibyte text and protocol drift:
// at each '[' it attempts a standard JSON parse, processes the array on
// success, and advances one character on failure. A corrupted fragment
// therefore cannot desynchronize the remainder of the stream.
package stream

import (
	"encoding/json"
	"math"
	"strings"
)

// antiHijackGuard is the fixed prefix some responses carry to defeat JSON
// hijacking. It is stripped before mining.
const antiHijackGuard = ")]}'"

// envelopeMarker identifies a response envelope subarray.
const envelopeMarker = "wrb.fr"

// envelopeInnerIndex is the position of the JSON-encoded inner payload
// within an envelope subarray.
const envelopeInnerIndex = 2

// identifierLength is the fixed length of a canonical identifier. Bare
// strings of exactly this length are rejected as stray identifiers leaking
// into the text stream; this is a heuristic, not strict validation.
const identifierLength = 36

// nodeKind classifies one array node of an answer payload before the
// walker decides whether to recurse, skip, or collect.
type nodeKind int

const (
	// kindTranscriptChunk is a raw transcript/citation chunk shaped
	// [startMs, endMs, ...]. Skipped entirely.
	kindTranscriptChunk nodeKind = iota

	// kindTranscriptChunkWrapper is a chunk wrapper shaped
	// [null, startMs, endMs]. Skipped entirely.
	kindTranscriptChunkWrapper

	// kindGenericContainer is any other array. Recursed into.
	kindGenericContainer
)

// Decode extracts the final generated text from a raw streamed response.
// Successive streamed updates are refinements of the same answer, so each
// extracted block overwrites the previous one; only the last block is the
// true final text. An empty or unusable stream yields "", never an error.
func Decode(raw []byte) string {
	// Permissive decode: replace undecodable sequences rather than
	// failing the whole stream.
	text := strings.ToValidUTF8(string(raw), "�")

	if strings.HasPrefix(text, antiHijackGuard) {
		text = strings.TrimSpace(text[len(antiHijackGuard):])
	}

	var final string
	pos := 0
	for pos < len(text) {
		next := strings.IndexByte(text[pos:], '[')
		if next == -1 {
			break
		}
		pos += next

		node, consumed, err := decodeArrayAt(text[pos:])
		if err != nil {
			// False positive or partial fragment; resynchronize at
			// the next bracket.
			pos++
			continue
		}

		if block := extract(node); block != "" {
			final = block
		}
		pos += consumed
	}

	return strings.TrimSpace(final)
}

// decodeArrayAt parses one JSON value starting at the beginning of s and
// reports how many bytes it consumed.
func decodeArrayAt(s string) (interface{}, int, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	var node interface{}
	if err := dec.Decode(&node); err != nil {
		return nil, 0, err
	}
	return node, int(dec.InputOffset()), nil
}

// extract walks one parsed array for envelope subarrays and returns the
// answer text they carry, joined by newlines.
func extract(node interface{}) string {
	var collected []string
	walk(node, false, &collected)
	return strings.Join(collected, "\n")
}

// walk recursively visits node. Outside a payload it looks for envelope
// subarrays and descends only into final-answer roots; inside a payload it
// applies the anti-transcript filter before collecting strings.
func walk(node interface{}, inPayload bool, out *[]string) {
	switch v := node.(type) {
	case []interface{}:
		if inner, ok := envelopeInner(v); ok {
			// Envelope subarray: descend only into a final-answer
			// payload, never into the envelope's own elements.
			if root, ok := finalAnswerRoot(inner); ok {
				walk(root, true, out)
			}
			return
		}

		if inPayload {
			switch classify(v) {
			case kindTranscriptChunk, kindTranscriptChunkWrapper:
				return
			}
		}
		for _, child := range v {
			walk(child, inPayload, out)
		}

	case string:
		if !inPayload {
			return
		}
		val := strings.TrimSpace(v)
		if val != "" && len(val) != identifierLength {
			*out = append(*out, val)
		}
	}
}

// envelopeInner reports whether v is an envelope subarray
// ["wrb.fr", *, innerJSON, ...] and returns its inner JSON string.
func envelopeInner(v []interface{}) (string, bool) {
	if len(v) <= envelopeInnerIndex {
		return "", false
	}
	marker, ok := v[0].(string)
	if !ok || marker != envelopeMarker {
		return "", false
	}
	inner, ok := v[envelopeInnerIndex].(string)
	if !ok {
		return "", false
	}
	return inner, true
}

// finalAnswerRoot decodes an envelope's inner JSON and, when it matches
// the final-answer profile (an array longer than two elements, since
// citation/metadata-bearing responses are longer than bare transcript
// echoes), returns its first element as the answer payload root.
func finalAnswerRoot(inner string) (interface{}, bool) {
	trimmed := strings.TrimSpace(inner)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}

	var decoded []interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, false
	}
	if len(decoded) <= 2 {
		return nil, false
	}
	return decoded[0], true
}

// classify tags one payload array with its variant.
func classify(v []interface{}) nodeKind {
	if len(v) >= 2 && isInteger(v[0]) && isInteger(v[1]) {
		return kindTranscriptChunk
	}
	if len(v) >= 3 && v[0] == nil && isInteger(v[1]) && isInteger(v[2]) {
		return kindTranscriptChunkWrapper
	}
	return kindGenericContainer
}

// isInteger reports whether a decoded JSON value is an integral number.
func isInteger(v interface{}) bool {
	f, ok := v.(float64)
	return ok && f == math.Trunc(f)
}
