// Package token acquires and caches the provider's bearer token.
package token

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-albis-sdk/albiserr"
	"github.com/jrsteele09/go-albis-sdk/catalog"
	"github.com/jrsteele09/go-albis-sdk/config"
	"github.com/jrsteele09/go-albis-sdk/dispatch"
	"github.com/jrsteele09/go-albis-sdk/store"
	"github.com/jrsteele09/go-albis-sdk/store/memstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Sender sends one provider request. *dispatch.Dispatcher satisfies it.
type Sender interface {
	Send(ctx context.Context, req dispatch.Request) (string, error)
}

// Details describes a token handed out by the Manager.
type Details struct {
	AccessToken string
	// ExpiresIn is the number of seconds until ExpiresAt.
	ExpiresIn int64
	// ExpiresAt is the provider-reported expiry.
	ExpiresAt time.Time
	// RenewAt is ExpiresAt minus the grace period; the token is not reused after it.
	RenewAt time.Time
	// Claims are the unverified claims when the token is a JWT.
	Claims jwt.MapClaims
}

type Manager struct {
	cfg         *config.Config
	sender      Sender
	store       store.Store
	credentials *Credentials
	logger      zerolog.Logger
	nowFunc     func() time.Time

	lock      sync.Mutex
	token     string
	expiresAt time.Time // grace-adjusted
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager. A nil store keeps the token in process memory only.
func New(cfg *config.Config, sender Sender, s store.Store, credentials *Credentials, options ...ManagerOption) *Manager {
	if s == nil {
		s = memstore.New()
	}
	m := &Manager{
		cfg:         cfg,
		sender:      sender,
		store:       s,
		credentials: credentials,
		logger:      log.Logger,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Store returns the key-value store the token is mirrored into.
func (m *Manager) Store() store.Store {
	return m.store
}

// GetToken returns a valid token, acquiring and storing a new one when needed.
// custom credentials always bypass the cache.
func (m *Manager) GetToken(ctx context.Context, custom *Credentials, forceRenew bool) (string, error) {
	details, err := m.GetTokenDetails(ctx, custom, forceRenew, true)
	if err != nil {
		return "", err
	}
	return details.AccessToken, nil
}

// GetTokenDetails is GetToken with expiry information. A freshly acquired token
// is only stored when persist is true.
func (m *Manager) GetTokenDetails(ctx context.Context, custom *Credentials, forceRenew, persist bool) (*Details, error) {
	if custom == nil && !forceRenew {
		if tok, renewAt, ok := m.cached(ctx); ok {
			return m.details(tok, renewAt.Add(m.cfg.TokenExpiryGracePeriod())), nil
		}
	}

	body, resp, err := m.acquire(ctx, custom, persist)
	if err != nil {
		return nil, err
	}

	expiresAt := m.nowFunc().Add(time.Duration(resp.ExpiresIn) * time.Second)
	if persist {
		if err := m.SetToken(ctx, resp.AccessToken, expiresAt); err != nil {
			return nil, err
		}
	}
	m.logger.Debug().Int64("expires_in", resp.ExpiresIn).Bool("persisted", persist).Int("body_bytes", len(body)).Msg("token acquired")
	return m.details(resp.AccessToken, expiresAt), nil
}

// SetToken stores token with its expiry moved forward by the grace period.
// The in-memory cache only changes once the store holds both keys.
func (m *Manager) SetToken(ctx context.Context, token string, expiresAt time.Time) error {
	renewAt := time.Unix(expiresAt.Add(-m.cfg.TokenExpiryGracePeriod()).Unix(), 0)

	if err := m.store.Set(ctx, store.KeyToken, token); err != nil {
		return errors.Wrap(err, "Manager.SetToken store.Set token")
	}
	if err := m.store.Set(ctx, store.KeyTokenExpires, strconv.FormatInt(renewAt.Unix(), 10)); err != nil {
		if delErr := m.store.Delete(ctx, store.KeyToken); delErr != nil {
			m.logger.Warn().Err(delErr).Msg("removing token without expiry from store")
		}
		return errors.Wrap(err, "Manager.SetToken store.Set expiry")
	}

	m.lock.Lock()
	m.token = token
	m.expiresAt = renewAt
	m.lock.Unlock()
	return nil
}

// ClearToken drops the cached token from memory and the store.
func (m *Manager) ClearToken(ctx context.Context) error {
	m.lock.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.lock.Unlock()

	for _, key := range []string{store.KeyToken, store.KeyTokenExpires, store.KeyTokenRaw} {
		if err := m.store.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "Manager.ClearToken store.Delete %s", key)
		}
	}
	return nil
}

// TokenSource adapts the Manager for oauth2.NewClient and friends.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, manager: m}
}

type tokenSource struct {
	ctx     context.Context
	manager *Manager
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	details, err := s.manager.GetTokenDetails(s.ctx, nil, false, true)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: details.AccessToken,
		TokenType:   "Bearer",
		Expiry:      details.RenewAt,
	}, nil
}

// cached returns the in-memory token, falling back to the store.
func (m *Manager) cached(ctx context.Context) (string, time.Time, bool) {
	now := m.nowFunc()

	m.lock.Lock()
	tok, renewAt := m.token, m.expiresAt
	m.lock.Unlock()
	if tok != "" && now.Before(renewAt) {
		return tok, renewAt, true
	}

	tok, ok, err := m.store.Get(ctx, store.KeyToken)
	if err != nil {
		m.logger.Warn().Err(err).Msg("reading cached token")
		return "", time.Time{}, false
	}
	if !ok || tok == "" {
		return "", time.Time{}, false
	}
	rawExpiry, ok, err := m.store.Get(ctx, store.KeyTokenExpires)
	if err != nil {
		m.logger.Warn().Err(err).Msg("reading cached token expiry")
		return "", time.Time{}, false
	}
	if !ok {
		return "", time.Time{}, false
	}
	secs, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		m.logger.Warn().Str("value", rawExpiry).Msg("ignoring malformed token expiry")
		return "", time.Time{}, false
	}
	renewAt = time.Unix(secs, 0)
	if !now.Before(renewAt) {
		return "", time.Time{}, false
	}

	m.lock.Lock()
	m.token, m.expiresAt = tok, renewAt
	m.lock.Unlock()
	return tok, renewAt, true
}

func (m *Manager) acquire(ctx context.Context, custom *Credentials, persist bool) (string, *Response, error) {
	creds := m.credentials
	if custom != nil {
		creds = custom
	}
	if creds == nil {
		return "", nil, albiserr.Credential("no credentials sent")
	}
	if missing := creds.Missing(); len(missing) > 0 {
		return "", nil, albiserr.MissingCredentialFields(missing)
	}

	body, err := m.sender.Send(ctx, catalog.MustLookup(catalog.Token).Request(creds, ""))
	if err != nil {
		return "", nil, err
	}
	if persist {
		if err := m.store.Set(ctx, store.KeyTokenRaw, body); err != nil {
			return "", nil, errors.Wrap(err, "Manager.acquire store.Set raw")
		}
	}

	resp, err := ParseResponse(body)
	if err != nil {
		return "", nil, err
	}
	return body, resp, nil
}

func (m *Manager) details(tok string, expiresAt time.Time) *Details {
	d := &Details{
		AccessToken: tok,
		ExpiresIn:   int64(expiresAt.Sub(m.nowFunc()) / time.Second),
		ExpiresAt:   expiresAt,
		RenewAt:     expiresAt.Add(-m.cfg.TokenExpiryGracePeriod()),
		Claims:      unverifiedClaims(tok),
	}
	return d
}

func unverifiedClaims(tok string) jwt.MapClaims {
	if strings.Count(tok, ".") != 2 {
		return nil
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, _ := parsed.Claims.(jwt.MapClaims)
	return claims
}
