package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// ErrNotObject is returned when a FormInput payload is not a JSON object.
var ErrNotObject = errors.New("model: form input must be a JSON object")

// FormInput is the flat name -> value map built from the prediction form at
// submission time. Keys keep the position of their first appearance; setting an
// existing key replaces its value, so repeated controls keep the last value.
// The JSON encoding preserves key order.
type FormInput struct {
	keys   []string
	values map[string]string
}

// NewFormInput builds a FormInput from alternating name/value pairs.
func NewFormInput(pairs ...string) FormInput {
	var in FormInput
	for i := 0; i+1 < len(pairs); i += 2 {
		in.Set(pairs[i], pairs[i+1])
	}
	return in
}

// FormInputFromValues builds a FormInput from decoded form values. Names are
// visited in the order given; for multi-valued names only the last value is
// kept.
func FormInputFromValues(values url.Values, order []string) FormInput {
	var in FormInput
	seen := make(map[string]struct{}, len(values))
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		vals, ok := values[name]
		if !ok || len(vals) == 0 {
			return
		}
		seen[name] = struct{}{}
		in.Set(name, vals[len(vals)-1])
	}
	for _, name := range order {
		add(name)
	}
	for _, name := range sortedKeys(values) {
		add(name)
	}
	return in
}

// Set assigns value to name.
func (in *FormInput) Set(name, value string) {
	if in.values == nil {
		in.values = make(map[string]string)
	}
	if _, exists := in.values[name]; !exists {
		in.keys = append(in.keys, name)
	}
	in.values[name] = value
}

// Get returns the value for name.
func (in FormInput) Get(name string) (string, bool) {
	value, ok := in.values[name]
	return value, ok
}

// Keys returns the field names in insertion order.
func (in FormInput) Keys() []string {
	return append([]string(nil), in.keys...)
}

// Len reports the number of fields.
func (in FormInput) Len() int {
	return len(in.keys)
}

// Map returns an unordered copy of the values.
func (in FormInput) Map() map[string]string {
	out := make(map[string]string, len(in.values))
	for key, value := range in.values {
		out[key] = value
	}
	return out
}

// MarshalJSON encodes the input as a JSON object in insertion order.
func (in FormInput) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range in.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(in.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, keeping key order. String values
// are kept as-is, other scalars keep their JSON literal text and null becomes
// an empty string. Nested objects and arrays are rejected.
func (in *FormInput) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("model: decode form input: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	out := FormInput{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("model: decode form input: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("model: decode form input: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("model: decode form input %q: %w", key, err)
		}
		value, err := scalarText(raw)
		if err != nil {
			return fmt.Errorf("model: decode form input %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("model: decode form input: %w", err)
	}

	*in = out
	return nil
}

func scalarText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", errors.New("nested values are not supported")
	case 'n':
		return "", nil
	default:
		return string(trimmed), nil
	}
}
