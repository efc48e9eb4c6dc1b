package catalog_test

import (
	"net/http"
	"testing"

	"github.com/jrsteele09/go-albis-sdk/catalog"
	"github.com/jrsteele09/go-albis-sdk/dispatch"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		method   string
		encoding dispatch.Encoding
		auth     bool
	}{
		{catalog.Token, "token", http.MethodPost, dispatch.JSON, false},
		{catalog.Ping, "ping", http.MethodGet, dispatch.Form, true},
		{catalog.Echo, "echo", http.MethodGet, dispatch.Form, true},
		{catalog.ApplicationRead, "application", http.MethodGet, dispatch.Form, true},
		{catalog.ApplicationCreate, "application", http.MethodPost, dispatch.JSON, true},
		{catalog.ApplicationUpdate, "application", http.MethodPut, dispatch.JSON, true},
		{catalog.ApplicationCancel, "application", http.MethodDelete, dispatch.Form, true},
		{catalog.Rate, "rate", http.MethodGet, dispatch.Form, true},
		{catalog.Documents, "documents", http.MethodGet, dispatch.Form, true},
		{catalog.ContractDocuments, "contract-documents", http.MethodGet, dispatch.Form, true},
		{catalog.FrameRates, "frame-rates", http.MethodGet, dispatch.Form, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := catalog.Lookup(tt.name)
			require.True(t, ok)
			require.Equal(t, tt.path, e.Path)
			require.Equal(t, tt.method, e.Method)
			require.Equal(t, tt.encoding, e.Encoding)
			require.Equal(t, tt.auth, e.Authenticated)
		})
	}

	_, ok := catalog.Lookup("nope")
	require.False(t, ok)
	require.Panics(t, func() { catalog.MustLookup("nope") })
}

func TestEndpoint_Request(t *testing.T) {
	req := catalog.MustLookup(catalog.Token).Request(map[string]string{}, "ignored")
	require.Empty(t, req.AuthToken)

	req = catalog.MustLookup(catalog.Rate).Request(nil, "tok")
	require.Equal(t, "tok", req.AuthToken)
	require.Equal(t, http.MethodGet, req.Method)
	require.Len(t, catalog.MustLookup(catalog.Rate).Fields, 7)
}

func TestEndpoint_Writes(t *testing.T) {
	require.False(t, catalog.MustLookup(catalog.Token).Writes())
	require.False(t, catalog.MustLookup(catalog.Salutations).Writes())
	require.True(t, catalog.MustLookup(catalog.ApplicationCancel).Writes())
	require.True(t, catalog.MustLookup(catalog.DocumentsUpload).Writes())
}

func TestAll(t *testing.T) {
	all := catalog.All()
	require.Len(t, all, 22)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Name, all[i].Name)
	}
}
