package fakeprovider_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jrsteele09/go-albis-sdk/internal/fakeprovider"
	"github.com/jrsteele09/go-albis-sdk/token"
	"github.com/stretchr/testify/require"
)

var account = token.Credentials{
	Username:      "user",
	Password:      "pass",
	Auth0Username: "a0user",
	Auth0Password: "a0pass",
	Realm:         "realm",
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestProvider_Token(t *testing.T) {
	p, srv := fakeprovider.NewServer(fakeprovider.WithAccount(account))
	defer srv.Close()

	creds, err := json.Marshal(account)
	require.NoError(t, err)

	resp, body := post(t, srv.URL+"/staging/token", string(creds))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	parsed, err := token.ParseResponse(body)
	require.NoError(t, err)
	require.Equal(t, int64(fakeprovider.DefaultExpiresIn), parsed.ExpiresIn)
	require.Equal(t, 1, p.Hits("token"))

	t.Run("wrong password", func(t *testing.T) {
		bad := account
		bad.Password = "nope"
		b, _ := json.Marshal(bad)
		resp, _ := post(t, srv.URL+"/staging/token", string(b))
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, body := post(t, srv.URL+"/staging/token", `{"username":"user"}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, body, "password, auth0Username, auth0Password, realm")
	})
}

func TestProvider_RequiresBearerToken(t *testing.T) {
	_, srv := fakeprovider.NewServer(fakeprovider.WithAccount(account))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/staging/ping")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/staging/ping", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProvider_Stage(t *testing.T) {
	_, srv := fakeprovider.NewServer(fakeprovider.WithStage("v1"), fakeprovider.WithAccount(account))
	defer srv.Close()

	creds, _ := json.Marshal(account)
	resp, _ := post(t, srv.URL+"/v1/token", string(creds))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/staging/token", string(creds))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
