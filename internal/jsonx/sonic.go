// Package jsonx provides JSON serialization using Sonic.
// It is the codec for LLM payloads, intent parsing, cache values and HTTP bodies.
package jsonx

import (
	"io"

	"github.com/bytedance/sonic"
)

// api mirrors encoding/json behavior for map key ordering and HTML escaping so
// responses are stable across runs.
var api = sonic.Config{
	EscapeHTML:       false,
	SortMapKeys:      true,
	UseInt64:         true,
	ValidateString:   true,
	CompactMarshaler: true,
}.Froze()

// Marshal returns the JSON encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent is like Marshal but applies indentation.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal parses the JSON-encoded data and stores the result
// in the value pointed to by v.
func Unmarshal(data []byte, v interface{}) error {
	return api.Unmarshal(data, v)
}

// UnmarshalFromString parses the JSON string and stores the result in v.
func UnmarshalFromString(data string, v interface{}) error {
	return api.UnmarshalFromString(data, v)
}

// NewDecoder returns a streaming decoder that reads from r.
func NewDecoder(r io.Reader) sonic.Decoder {
	return api.NewDecoder(r)
}

// NewEncoder returns a streaming encoder that writes to w.
func NewEncoder(w io.Writer) sonic.Encoder {
	return api.NewEncoder(w)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return api.Valid(data)
}
