// Package client exposes every provider operation on top of the token manager
// and the request dispatcher.
package client

import (
	"context"
	"time"

	"github.com/jrsteele09/go-albis-sdk/catalog"
	"github.com/jrsteele09/go-albis-sdk/config"
	"github.com/jrsteele09/go-albis-sdk/dispatch"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/jrsteele09/go-albis-sdk/store"
	"github.com/jrsteele09/go-albis-sdk/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Client struct {
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	tokens     *token.Manager
	logger     zerolog.Logger
}

type options struct {
	httpClient dispatch.Doer
	logger     *zerolog.Logger
	nowFunc    func() time.Time
}

type Option func(*options)

func WithHTTPClient(client dispatch.Doer) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithNowFunc overrides the clock used for token expiry.
func WithNowFunc(now func() time.Time) Option {
	return func(o *options) {
		o.nowFunc = now
	}
}

// New builds a client. s holds the token between requests; nil keeps it in memory.
func New(cfg *config.Config, s store.Store, credentials *token.Credentials, opts ...Option) *Client {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	dispatchOpts := []dispatch.Option{dispatch.WithLogger(logger)}
	if o.httpClient != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithHTTPClient(o.httpClient))
	}
	d := dispatch.New(cfg, dispatchOpts...)

	tokenOpts := []token.ManagerOption{token.WithLogger(logger)}
	if o.nowFunc != nil {
		tokenOpts = append(tokenOpts, token.WithNowFunc(o.nowFunc))
	}

	return &Client{
		cfg:        cfg,
		dispatcher: d,
		tokens:     token.New(cfg, d, s, credentials, tokenOpts...),
		logger:     logger,
	}
}

func (c *Client) Config() *config.Config {
	return c.cfg
}

func (c *Client) Tokens() *token.Manager {
	return c.tokens
}

// Token returns the cached token or acquires one.
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.tokens.GetToken(ctx, nil, false)
}

// RenewToken acquires a new token regardless of the cache.
func (c *Client) RenewToken(ctx context.Context) (string, error) {
	return c.tokens.GetToken(ctx, nil, true)
}

func (c *Client) TokenDetails(ctx context.Context, custom *token.Credentials, forceRenew, persist bool) (*token.Details, error) {
	return c.tokens.GetTokenDetails(ctx, custom, forceRenew, persist)
}

// Logout forgets the token and destroys the session store when it supports that.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.tokens.ClearToken(ctx); err != nil {
		return err
	}
	if d, ok := c.tokens.Store().(store.Destroyer); ok {
		if err := d.Destroy(ctx); err != nil {
			return errors.Wrap(err, "Client.Logout Destroy")
		}
	}
	return nil
}

// Call sends payload to the named catalog endpoint.
func (c *Client) Call(ctx context.Context, name string, payload any) (*Response, error) {
	endpoint, ok := catalog.Lookup(name)
	if !ok {
		return nil, errors.Errorf("unknown operation %q", name)
	}
	body, err := c.send(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	return NewResponse(body, c.cfg.ReturnType()), nil
}

func (c *Client) call(ctx context.Context, name string, payload any) (*Response, error) {
	body, err := c.send(ctx, catalog.MustLookup(name), payload)
	if err != nil {
		return nil, err
	}
	return NewResponse(body, c.cfg.ReturnType()), nil
}

func (c *Client) send(ctx context.Context, endpoint catalog.Endpoint, payload any) (string, error) {
	var authToken string
	if endpoint.Authenticated {
		tok, err := c.tokens.GetToken(ctx, nil, false)
		if err != nil {
			return "", err
		}
		authToken = tok
	}

	if endpoint.Writes() {
		normalized, err := normalize(payload)
		if err != nil {
			return "", err
		}
		payload = normalized
	}
	return c.dispatcher.Send(ctx, endpoint.Request(payload, authToken))
}

// normalize makes every string of a write payload valid UTF-8.
func normalize(payload any) (any, error) {
	switch payload.(type) {
	case nil, string, []byte:
		return payload, nil
	}
	m, err := mapping.FromStruct(payload)
	if err != nil {
		return nil, errors.Wrap(err, "Client.normalize")
	}
	return m.NormalizeUTF8(), nil
}
