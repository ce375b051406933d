// internal/clients/message.go
package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// extractMessage pulls a human readable message out of an error payload,
// trying message, error and errors in that order.
func extractMessage(data json.RawMessage) string {
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(data, &obj) != nil {
		return ""
	}
	if msg := asText(obj["message"]); msg != "" {
		return msg
	}
	if msg := asText(obj["error"]); msg != "" {
		return msg
	}

	raw, ok := obj["errors"]
	if !ok {
		return ""
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, asText(item))
		}
		return strings.Join(parts, ", ")
	}
	var parts []string
	for _, v := range objectValues(raw) {
		var nested []json.RawMessage
		if json.Unmarshal(v, &nested) == nil {
			for _, n := range nested {
				parts = append(parts, asText(n))
			}
			continue
		}
		parts = append(parts, asText(v))
	}
	return strings.Join(parts, ", ")
}

// asText renders a JSON scalar the way string coercion would.
func asText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var v any
	if json.Unmarshal(raw, &v) == nil {
		switch t := v.(type) {
		case bool, float64:
			return fmt.Sprint(t)
		}
	}
	return string(raw)
}

// objectValues returns the values of a JSON object in document order.
func objectValues(raw json.RawMessage) []json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var out []json.RawMessage
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return out
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return out
		}
		out = append(out, v)
	}
	return out
}
