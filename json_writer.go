package loan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// jsonObjectWriter helps construct a JSON object with a specific field order.
// Its zero value is ready to use.
type jsonObjectWriter struct {
	bytes.Buffer
	err error
}

// Append adds a key/value pair to the JSON object being built.
func (w *jsonObjectWriter) Append(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	keyJSON, err := json.Marshal(key)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal key %q: %w", key, err)
		return w
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal value for key %q: %w", key, err)
		return w
	}
	w.Write(keyJSON)
	w.WriteString(":")
	w.Write(valueJSON)
	w.WriteString(",")
	return w
}

// Optional adds a key/value pair only when the value is not the zero value of
// its type, keeping encoded objects free of empty fields.
func (w *jsonObjectWriter) Optional(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	if value == nil || reflect.ValueOf(value).IsZero() {
		return w
	}
	return w.Append(key, value)
}

// MarshalJSON finalizes and returns the JSON object.
func (w *jsonObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	inner := bytes.TrimSuffix(w.Bytes(), []byte(","))
	var out bytes.Buffer
	out.Grow(len(inner) + 2)
	out.WriteString("{")
	out.Write(inner)
	out.WriteString("}")
	return out.Bytes(), nil
}

// jsonUnmarshalStrictOrNumber accepts either a bare JSON number, decoded into
// number, or a JSON object, decoded into obj.
func jsonUnmarshalStrictOrNumber(data []byte, number any, obj any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		return json.Unmarshal(trimmed, number)
	}
	return json.Unmarshal(trimmed, obj)
}
