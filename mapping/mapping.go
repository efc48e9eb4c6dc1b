// Package mapping provides the single payload type shared by requests and
// responses: a JSON-shaped string keyed map.
package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Map is a JSON object. Nested objects may be Map or map[string]any.
type Map map[string]any

// FromStruct converts any JSON-marshalable value into a Map. Strings are
// normalized to UTF-8 before marshaling; v itself is not modified.
func FromStruct(v any) (Map, error) {
	if m, ok := v.(Map); ok {
		return m, nil
	}
	if v != nil {
		v = normalizeReflect(reflect.ValueOf(v), 0).Interface()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "mapping.FromStruct Marshal")
	}
	return Parse(b)
}

// Parse decodes a JSON object, keeping numbers as json.Number.
func Parse(b []byte) (Map, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m Map
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "mapping.Parse Decode")
	}
	return m, nil
}

// Clone returns a shallow copy of m.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MergeDefaults sets every key of defaults that is missing or null in m.
// Existing values are never overridden. A nil m is allocated; the merged map is returned.
func (m Map) MergeDefaults(defaults Map) Map {
	if len(defaults) == 0 {
		return m
	}
	if m == nil {
		m = make(Map, len(defaults))
	}
	for k, v := range defaults {
		if cur, ok := m[k]; !ok || cur == nil {
			m[k] = v
		}
	}
	return m
}

// Decode unmarshals m into v.
func (m Map) Decode(v any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "mapping.Decode Marshal")
	}
	return errors.Wrap(json.Unmarshal(b, v), "mapping.Decode Unmarshal")
}

// NormalizeUTF8 returns a deep copy of m in which every string key and value is
// valid NFC UTF-8. Byte sequences that are not UTF-8 are read as ISO-8859-1.
func (m Map) NormalizeUTF8() Map {
	if m == nil {
		return nil
	}
	return normalizeValue(m).(Map)
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return normalizeString(t)
	case Map:
		out := make(Map, len(t))
		for k, val := range t {
			out[normalizeString(k)] = normalizeValue(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[normalizeString(k)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, val := range t {
			out[i] = normalizeString(val)
		}
		return out
	default:
		return v
	}
}

const maxNormalizeDepth = 32

// normalizeReflect returns a copy of v with every reachable exported string
// normalized. Values deeper than maxNormalizeDepth are returned unchanged.
func normalizeReflect(v reflect.Value, depth int) reflect.Value {
	if depth > maxNormalizeDepth {
		return v
	}
	switch v.Kind() {
	case reflect.String:
		if n := normalizeString(v.String()); n != v.String() {
			out := reflect.New(v.Type()).Elem()
			out.SetString(n)
			return out
		}
	case reflect.Pointer:
		if !v.IsNil() {
			out := reflect.New(v.Type().Elem())
			out.Elem().Set(normalizeReflect(v.Elem(), depth+1))
			return out
		}
	case reflect.Interface:
		if !v.IsNil() {
			out := reflect.New(v.Type()).Elem()
			out.Set(normalizeReflect(v.Elem(), depth+1))
			return out
		}
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				out.Field(i).Set(normalizeReflect(v.Field(i), depth+1))
			}
		}
		return out
	case reflect.Slice:
		if !v.IsNil() && v.Type().Elem().Kind() != reflect.Uint8 {
			out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
			for i := 0; i < v.Len(); i++ {
				out.Index(i).Set(normalizeReflect(v.Index(i), depth+1))
			}
			return out
		}
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(normalizeReflect(v.Index(i), depth+1))
		}
		return out
	case reflect.Map:
		if !v.IsNil() {
			out := reflect.MakeMapWithSize(v.Type(), v.Len())
			iter := v.MapRange()
			for iter.Next() {
				out.SetMapIndex(normalizeReflect(iter.Key(), depth+1), normalizeReflect(iter.Value(), depth+1))
			}
			return out
		}
	}
	return v
}

func normalizeString(s string) string {
	if !utf8.ValidString(s) {
		if decoded, err := charmap.ISO8859_1.NewDecoder().String(s); err == nil {
			s = decoded
		}
	}
	return norm.NFC.String(s)
}

// Values flattens m into form values the way PHP's http_build_query does:
// nested objects become key[sub], lists key[0], booleans 1/0, nulls are skipped.
func (m Map) Values() url.Values {
	values := url.Values{}
	for _, k := range sortedKeys(m) {
		appendValue(values, k, m[k])
	}
	return values
}

// Encode is m.Values().Encode().
func (m Map) Encode() string {
	return m.Values().Encode()
}

func appendValue(values url.Values, key string, v any) {
	switch t := v.(type) {
	case nil:
	case Map:
		for _, k := range sortedKeys(t) {
			appendValue(values, key+"["+k+"]", t[k])
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			appendValue(values, key+"["+k+"]", t[k])
		}
	case []any:
		for i, val := range t {
			appendValue(values, key+"["+strconv.Itoa(i)+"]", val)
		}
	case []string:
		for i, val := range t {
			values.Add(key+"["+strconv.Itoa(i)+"]", val)
		}
	default:
		values.Add(key, scalarString(t))
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
