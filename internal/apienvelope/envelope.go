// Package apienvelope unwraps the `{"result": ...}` envelope used by the
// key-value HTTP API. Values written through the API are stored as JSON
// strings, so a result may arrive as a string holding the real document,
// sometimes quoted more than once.
package apienvelope

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// maxUnquote bounds how many string layers Unwrap peels off.
const maxUnquote = 4

// Unwrap returns the JSON document carried by body. Bodies without a
// "result" member are returned as-is; an empty body yields nil.
func Unwrap(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || envelope.Result == nil {
		return clone(trimmed), nil
	}

	var text string
	if err := json.Unmarshal(envelope.Result, &text); err != nil {
		return clone(envelope.Result), nil
	}
	for i := 0; i < maxUnquote; i++ {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			break
		}
		text = unquoted
	}
	if json.Valid([]byte(text)) {
		return clone(bytes.TrimSpace([]byte(text))), nil
	}
	// a plain string value; keep its JSON encoding
	return clone(envelope.Result), nil
}

// Decode unwraps body and unmarshals the document into out. An empty body
// decodes as JSON null.
func Decode(body []byte, out any) error {
	payload, err := Unwrap(body)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		payload = []byte("null")
	}
	return json.Unmarshal(payload, out)
}

// IsNull reports whether payload is empty or the JSON literal null.
func IsNull(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
