// Package format reshapes provider JSON bodies into the caller's chosen return type.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-albis-sdk/albiserr"
	"github.com/jrsteele09/go-albis-sdk/mapping"
)

// ReturnType selects the output shape of a formatted response.
type ReturnType int

const (
	Raw     ReturnType = iota // body unchanged
	Object                    // decoded JSON value
	Mapping                   // mapping.Map for JSON objects
)

const resultField = "result"

func (r ReturnType) String() string {
	switch r {
	case Raw:
		return "raw"
	case Object:
		return "object"
	case Mapping:
		return "mapping"
	default:
		return fmt.Sprintf("ReturnType(%d)", int(r))
	}
}

// ParseReturnType accepts raw, object, mapping and the legacy alias assoc.
func ParseReturnType(s string) (ReturnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return Raw, nil
	case "object":
		return Object, nil
	case "mapping", "assoc":
		return Mapping, nil
	default:
		return Raw, fmt.Errorf("unknown return type %q", s)
	}
}

// Format returns body unchanged for Raw. For Object and Mapping it decodes the
// body and, when a non-null top-level "result" field exists, returns only that field.
func Format(body string, rt ReturnType) (any, error) {
	if rt == Raw {
		return body, nil
	}

	value, err := decode(body)
	if err != nil {
		return nil, err
	}
	value = unwrap(value)

	if rt == Mapping {
		if obj, ok := value.(map[string]any); ok {
			return mapping.Map(obj), nil
		}
	}
	return value, nil
}

// Into decodes the unwrapped body into v.
func Into(body string, v any) error {
	raw, err := Result(body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return albiserr.Format(body, err)
	}
	return nil
}

// Result returns the raw JSON of the "result" field, or of the whole body when there is none.
func Result(body string) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err == nil {
		if r, ok := envelope[resultField]; ok && !bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
			return r, nil
		}
		return json.RawMessage(body), nil
	}
	if !json.Valid([]byte(body)) {
		return nil, albiserr.Format(body, fmt.Errorf("invalid JSON"))
	}
	return json.RawMessage(body), nil
}

func decode(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, albiserr.Format(body, err)
	}
	if dec.More() {
		return nil, albiserr.Format(body, fmt.Errorf("trailing data after JSON value"))
	}
	return value, nil
}

func unwrap(value any) any {
	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	if r, ok := obj[resultField]; ok && r != nil {
		return r
	}
	return value
}
