// Package fakeprovider is an in-process stand-in for the leasing API, used by
// tests and by the CLI's serve-fake command.
package fakeprovider

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/jrsteele09/go-albis-sdk/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStage     = "staging"
	DefaultExpiresIn = 7200
)

type Provider struct {
	stage      string
	expiresIn  int64
	signingKey []byte
	nowFunc    func() time.Time
	logger     zerolog.Logger

	accounts *accountRepo
	mux      *http.ServeMux

	lock         sync.RWMutex
	hits         map[string]int
	lastAuth     map[string]string
	applications map[int64]mapping.Map
	statuses     map[int64]string
	uploads      map[int64]int
	nextID       int64
}

type Option func(*Provider)

// WithStage mounts every route under /<stage>/.
func WithStage(stage string) Option {
	return func(p *Provider) {
		p.stage = stage
	}
}

// WithExpiresIn sets the expires_in value of issued tokens, in seconds.
func WithExpiresIn(seconds int64) Option {
	return func(p *Provider) {
		p.expiresIn = seconds
	}
}

func WithSigningKey(key []byte) Option {
	return func(p *Provider) {
		p.signingKey = key
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(p *Provider) {
		p.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithAccount registers a credential set the token endpoint accepts.
func WithAccount(creds token.Credentials) Option {
	return func(p *Provider) {
		if err := p.accounts.Add(creds); err != nil {
			p.logger.Err(err).Str("username", creds.Username).Msg("registering account")
		}
	}
}

func New(options ...Option) *Provider {
	p := &Provider{
		stage:        DefaultStage,
		expiresIn:    DefaultExpiresIn,
		signingKey:   []byte("fake-provider-signing-key"),
		nowFunc:      time.Now,
		logger:       log.Logger,
		accounts:     newAccountRepo(),
		hits:         make(map[string]int),
		lastAuth:     make(map[string]string),
		applications: make(map[int64]mapping.Map),
		statuses:     make(map[int64]string),
		uploads:      make(map[int64]int),
		nextID:       271840,
	}
	for _, opt := range options {
		opt(p)
	}
	p.mux = http.NewServeMux()
	p.initRoutes()
	return p
}

// NewServer starts p on a local httptest server.
func NewServer(options ...Option) (*Provider, *httptest.Server) {
	p := New(options...)
	return p, httptest.NewServer(p)
}

func (p *Provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

// AddAccount registers another credential set.
func (p *Provider) AddAccount(creds token.Credentials) error {
	return p.accounts.Add(creds)
}

// Hits returns how many requests reached the named path, e.g. "token".
func (p *Provider) Hits(path string) int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.hits[path]
}

// LastAuthorization returns the Authorization header of the last request to path.
func (p *Provider) LastAuthorization(path string) string {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.lastAuth[path]
}

// Application returns a stored application.
func (p *Provider) Application(id int64) (mapping.Map, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	app, ok := p.applications[id]
	return app, ok
}

// Uploads returns the number of documents uploaded for an application.
func (p *Provider) Uploads(id int64) int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.uploads[id]
}

func (p *Provider) record(path string, r *http.Request) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.hits[path]++
	p.lastAuth[path] = r.Header.Get("Authorization")
}
