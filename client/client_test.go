package client_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/go-albis-sdk/albiserr"
	"github.com/jrsteele09/go-albis-sdk/client"
	"github.com/jrsteele09/go-albis-sdk/config"
	"github.com/jrsteele09/go-albis-sdk/documents"
	"github.com/jrsteele09/go-albis-sdk/format"
	"github.com/jrsteele09/go-albis-sdk/internal/fakeprovider"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/jrsteele09/go-albis-sdk/store"
	"github.com/jrsteele09/go-albis-sdk/store/memstore"
	"github.com/jrsteele09/go-albis-sdk/token"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var account = token.Credentials{
	Username:      "user",
	Password:      "pass",
	Auth0Username: "a0user",
	Auth0Password: "a0pass",
	Realm:         "realm",
}

type fixture struct {
	provider *fakeprovider.Provider
	server   *httptest.Server
	store    *memstore.Store
	client   *client.Client
}

func newFixture(t *testing.T, opts ...config.Option) *fixture {
	t.Helper()
	p, srv := fakeprovider.NewServer(fakeprovider.WithAccount(account), fakeprovider.WithLogger(zerolog.Nop()))
	t.Cleanup(srv.Close)

	s := memstore.New()
	creds := account
	cfg := config.New(srv.URL, "staging", opts...)
	c := client.New(cfg, s, &creds, client.WithHTTPClient(srv.Client()), client.WithLogger(zerolog.Nop()))
	return &fixture{provider: p, server: srv, store: s, client: c}
}

func TestClient_PingAndEchoShareOneToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.client.Ping(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `{"result":"pong"}`, resp.Raw())

	value, err := resp.Value()
	require.NoError(t, err)
	require.Equal(t, resp.Raw(), value)

	resp, err = f.client.Echo(ctx, "hello world")
	require.NoError(t, err)
	obj, err := resp.Object()
	require.NoError(t, err)
	require.Equal(t, "hello world", obj)

	require.Equal(t, 1, f.provider.Hits("token"))
	require.Equal(t, 1, f.provider.Hits("ping"))
	require.Equal(t, 1, f.provider.Hits("echo"))
	require.True(t, strings.HasPrefix(f.provider.LastAuthorization("echo"), "Bearer "))
}

func TestClient_ReturnTypeFromConfig(t *testing.T) {
	f := newFixture(t, config.WithReturnType(format.Object))

	resp, err := f.client.GetSalutations(context.Background())
	require.NoError(t, err)

	value, err := resp.Value()
	require.NoError(t, err)
	list, ok := value.([]any)
	require.True(t, ok)
	require.Len(t, list, 3)

	_, err = resp.Mapping()
	require.ErrorIs(t, err, albiserr.ErrFormat)
}

func TestClient_ApplicationLifecycle(t *testing.T) {
	f := newFixture(t, config.WithStandardApplicationValues(mapping.Map{
		"receiverEndpoint": "https://callback.example.com",
		"dealer":           "default-dealer",
	}))
	ctx := context.Background()

	app := mapping.Map{
		"lessee": "M\xfcller GmbH",
		"dealer": "own-dealer",
	}
	resp, err := f.client.SaveApplication(ctx, app)
	require.NoError(t, err)
	require.NotContains(t, app, "receiverEndpoint", "caller's map is untouched")

	created, err := resp.Mapping()
	require.NoError(t, err)
	id, err := created["applicationId"].(json.Number).Int64()
	require.NoError(t, err)

	stored, ok := f.provider.Application(id)
	require.True(t, ok)
	require.Equal(t, "Müller GmbH", stored["lessee"])
	require.Equal(t, "own-dealer", stored["dealer"])
	require.Equal(t, "https://callback.example.com", stored["receiverEndpoint"])

	resp, err = f.client.FindApplication(ctx, id)
	require.NoError(t, err)
	found, err := resp.Mapping()
	require.NoError(t, err)
	require.Equal(t, "Müller GmbH", found["lessee"])

	_, err = f.client.UpdateApplication(ctx, mapping.Map{"applicationId": id, "lessee": "Neu AG"})
	require.NoError(t, err)
	stored, _ = f.provider.Application(id)
	require.Equal(t, "Neu AG", stored["lessee"])
	require.Equal(t, "default-dealer", stored["dealer"])

	resp, err = f.client.GetApplicationStatus(ctx, id)
	require.NoError(t, err)
	var status struct {
		Status string `json:"status"`
	}
	require.NoError(t, resp.Decode(&status))
	require.Equal(t, "updated", status.Status)

	resp, err = f.client.CancelApplication(ctx, id, "duplicate")
	require.NoError(t, err)
	cancelled, err := resp.Mapping()
	require.NoError(t, err)
	require.Equal(t, "duplicate", cancelled["cancelationReason"])

	require.Equal(t, 1, f.provider.Hits("token"))
}

func TestClient_SaveApplicationFromStruct(t *testing.T) {
	f := newFixture(t, config.WithStandardApplicationValues(mapping.Map{"receiverEndpoint": "https://cb"}))

	type application struct {
		Lessee           string `json:"lessee"`
		ReceiverEndpoint string `json:"receiverEndpoint,omitempty"`
	}
	resp, err := f.client.SaveApplication(context.Background(), application{Lessee: "Acme"})
	require.NoError(t, err)

	var created struct {
		ApplicationID int64 `json:"applicationId"`
	}
	require.NoError(t, resp.Decode(&created))
	stored, ok := f.provider.Application(created.ApplicationID)
	require.True(t, ok)
	require.Equal(t, "https://cb", stored["receiverEndpoint"])
}

func TestClient_SaveApplicationFromStructNormalizesLatin1(t *testing.T) {
	f := newFixture(t)

	type contact struct {
		City string `json:"city"`
	}
	type application struct {
		Lessee  string   `json:"lessee"`
		Contact *contact `json:"contact"`
	}
	resp, err := f.client.SaveApplication(context.Background(), application{Lessee: "M\xfcller", Contact: &contact{City: "K\xf6ln"}})
	require.NoError(t, err)

	var created struct {
		ApplicationID int64 `json:"applicationId"`
	}
	require.NoError(t, resp.Decode(&created))
	stored, ok := f.provider.Application(created.ApplicationID)
	require.True(t, ok)
	require.Equal(t, "Müller", stored["lessee"])
	require.Equal(t, map[string]any{"city": "Köln"}, stored["contact"])
}

func TestClient_RemoteError(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.FindApplication(context.Background(), 1)
	require.ErrorIs(t, err, albiserr.ErrRemote)

	var e *albiserr.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, 404, e.HTTPStatus)
	require.Equal(t, "application not found", e.Payload["message"])
	require.Equal(t, 404, e.Payload["httpStatus"])
}

func TestClient_GetRates(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.GetRates(context.Background(), client.RateQuery{
		ContractType:  1,
		DownPayment:   decimal.RequireFromString("200"),
		Object:        "Bagger",
		PaymentMethod: 1,
		ProductGroup:  1,
		PurchasePrice: decimal.RequireFromString("5000"),
		Provision:     0,
	})
	require.NoError(t, err)

	var rates []struct {
		Term int    `json:"term"`
		Rate string `json:"rate"`
	}
	require.NoError(t, resp.Decode(&rates))
	require.Len(t, rates, 3)
	require.Equal(t, 24, rates[0].Term)
	require.Equal(t, "200.00", rates[0].Rate)

	_, err = f.client.GetRatesByMapping(context.Background(), mapping.Map{"contractType": 1})
	require.ErrorIs(t, err, albiserr.ErrRemote)
}

func TestClient_Documents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content, err := f.client.GetDocuments(ctx, client.DocumentQuery{
		ApplicationID: 271840,
		PurchasePrice: decimal.RequireFromString("5000"),
		IBAN:          "DE02120300000000202051",
		Rate:          decimal.RequireFromString("200"),
	})
	require.NoError(t, err)
	pdf, err := documents.Decode(content)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4\n% application 271840\n", string(pdf))

	content, err = f.client.GetContractDocuments(ctx, 271840)
	require.NoError(t, err)
	pdf, err = documents.Decode(content)
	require.NoError(t, err)
	require.Contains(t, string(pdf), "contract 271840")
}

func TestClient_UploadsSendBearerToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.UploadDocuments(ctx, 271840,
		documents.New(documents.IdentityCard, "pdf", []byte("id")),
		documents.FromBase64(documents.Misc, "jpg", "aGVsbG8="),
	)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(f.provider.LastAuthorization("documents"), "Bearer "))

	_, err = f.client.UploadContractDocuments(ctx, 271840, documents.New(documents.SignedContract, "pdf", []byte("signed")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(f.provider.LastAuthorization("contract-documents"), "Bearer "))

	require.Equal(t, 3, f.provider.Uploads(271840))
	require.Equal(t, 1, f.provider.Hits("token"))
}

func TestClient_Lookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, call := range map[string]func(context.Context) (*client.Response, error){
		"legal-forms":     f.client.GetLegalForms,
		"salutations":     f.client.GetSalutations,
		"product-groups":  f.client.GetProductGroups,
		"contract-types":  f.client.GetContractTypes,
		"payment-methods": f.client.GetPaymentMethods,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := call(ctx)
			require.NoError(t, err)
			v, err := resp.Object()
			require.NoError(t, err)
			require.NotEmpty(t, v)
			require.Equal(t, 1, f.provider.Hits(name))
		})
	}
}

func TestClient_FrameEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, call := range map[string]func(context.Context, mapping.Map) (*client.Response, error){
		"frame-application":      f.client.GetFrameApplication,
		"frame-sub-applications": f.client.GetFrameSubApplications,
		"frame-rates":            f.client.GetFrameRates,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := call(ctx, mapping.Map{"frameId": 7})
			require.NoError(t, err)
			m, err := resp.Mapping()
			require.NoError(t, err)
			require.Equal(t, name, m["frame"])
			require.Equal(t, map[string]any{"frameId": "7"}, m["query"])
		})
	}
}

func TestClient_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.ChangePassword(ctx, "newAlbis", "newAuth0")
	require.NoError(t, err)

	_, err = f.client.TokenDetails(ctx, &account, true, false)
	require.ErrorIs(t, err, albiserr.ErrRemote)

	updated := account
	updated.Password = "newAlbis"
	updated.Auth0Password = "newAuth0"
	details, err := f.client.TokenDetails(ctx, &updated, false, false)
	require.NoError(t, err)
	require.Equal(t, "user", details.Claims["sub"])
}

func TestClient_InvalidStageMakesNoRequest(t *testing.T) {
	p, srv := fakeprovider.NewServer(fakeprovider.WithAccount(account))
	t.Cleanup(srv.Close)

	creds := account
	c := client.New(config.New(srv.URL, "v2"), nil, &creds, client.WithHTTPClient(srv.Client()))

	_, err := c.Ping(context.Background())
	require.ErrorIs(t, err, albiserr.ErrConfig)
	require.Zero(t, p.Hits("token"))
	require.Zero(t, p.Hits("ping"))
}

func TestClient_LogoutAndRenew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.client.Token(ctx)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, "unrelated", "x"))

	require.NoError(t, f.client.Logout(ctx))
	require.Zero(t, f.store.Len())
	_, ok, _ := f.store.Get(ctx, store.KeyToken)
	require.False(t, ok)

	_, err = f.client.Ping(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, f.provider.Hits("token"))

	renewed, err := f.client.RenewToken(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, f.provider.Hits("token"))
	require.NotEqual(t, first, renewed)
}

func TestClient_Call(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.Call(context.Background(), "echo", mapping.Map{"data": "x"})
	require.NoError(t, err)
	require.JSONEq(t, `{"result":"x"}`, resp.Raw())

	_, err = f.client.Call(context.Background(), "nope", nil)
	require.Error(t, err)
}

func TestClient_TokenSource(t *testing.T) {
	f := newFixture(t)

	httpClient := oauth2.NewClient(context.Background(), f.client.Tokens().TokenSource(context.Background()))
	resp, err := httpClient.Get(f.server.URL + "/staging/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, 1, f.provider.Hits("token"))
}
