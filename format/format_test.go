package format_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-albis-sdk/albiserr"
	"github.com/jrsteele09/go-albis-sdk/format"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	wrapped := `{"result": {"a":1}}`
	plain := `{"a":1}`

	t.Run("mapping unwraps result", func(t *testing.T) {
		v, err := format.Format(wrapped, format.Mapping)
		require.NoError(t, err)
		require.Equal(t, mapping.Map{"a": json.Number("1")}, v)
	})

	t.Run("mapping without result", func(t *testing.T) {
		v, err := format.Format(plain, format.Mapping)
		require.NoError(t, err)
		require.Equal(t, mapping.Map{"a": json.Number("1")}, v)
	})

	t.Run("object unwraps result", func(t *testing.T) {
		v, err := format.Format(wrapped, format.Object)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"a": json.Number("1")}, v)
	})

	t.Run("raw is verbatim", func(t *testing.T) {
		for _, body := range []string{wrapped, plain, "not json"} {
			v, err := format.Format(body, format.Raw)
			require.NoError(t, err)
			require.Equal(t, body, v)
		}
	})

	t.Run("scalar result", func(t *testing.T) {
		v, err := format.Format(`{"result":"JVBERi0="}`, format.Mapping)
		require.NoError(t, err)
		require.Equal(t, "JVBERi0=", v)
	})

	t.Run("null result keeps envelope", func(t *testing.T) {
		v, err := format.Format(`{"result":null,"b":2}`, format.Object)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"result": nil, "b": json.Number("2")}, v)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := format.Format("<html>", format.Object)
		require.ErrorIs(t, err, albiserr.ErrFormat)

		_, err = format.Format(`{"a":1} {}`, format.Mapping)
		require.ErrorIs(t, err, albiserr.ErrFormat)
	})
}

func TestInto(t *testing.T) {
	var out []struct {
		ID   int    `json:"id"`
		Text string `json:"text"`
	}
	err := format.Into(`{"result":[{"id":1,"text":"Herr"},{"id":2,"text":"Frau"}]}`, &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "Frau", out[1].Text)

	var s string
	require.ErrorIs(t, format.Into(`{"result":5}`, &s), albiserr.ErrFormat)
	require.ErrorIs(t, format.Into(`nope`, &s), albiserr.ErrFormat)
}

func TestParseReturnType(t *testing.T) {
	for in, want := range map[string]format.ReturnType{
		"":        format.Raw,
		"raw":     format.Raw,
		"Object":  format.Object,
		"assoc":   format.Mapping,
		"mapping": format.Mapping,
	} {
		got, err := format.ParseReturnType(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}

	_, err := format.ParseReturnType("xml")
	require.Error(t, err)
	require.Equal(t, "mapping", format.Mapping.String())
}
