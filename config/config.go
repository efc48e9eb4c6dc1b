// Package config holds the settings shared by every operation of one SDK client.
// A Config is built once with New and is read-only afterwards.
package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/jrsteele09/go-albis-sdk/albiserr"
	"github.com/jrsteele09/go-albis-sdk/format"
	"github.com/jrsteele09/go-albis-sdk/mapping"
)

const (
	// SDKVersion is the API version this SDK speaks.
	SDKVersion = "v1"
	// StageStaging selects the provider's staging API, which accepts any SDK version.
	StageStaging = "staging"

	DefaultTokenExpiryGracePeriod = 3600 * time.Second
	// DefaultRequestTimeout is the provider's documented request budget.
	DefaultRequestTimeout = 120 * time.Second
)

var stagePattern = regexp.MustCompile(`^v[0-9]+$`)

type Config struct {
	endpoint                  string
	apiStage                  string
	tokenExpiryGracePeriod    time.Duration
	debugRequests             bool
	returnType                format.ReturnType
	standardApplicationValues mapping.Map
	requestTimeout            time.Duration
	sdkVersion                string
}

type Option func(*Config)

// WithTokenExpiryGracePeriod sets how long before the reported expiry a token is renewed.
func WithTokenExpiryGracePeriod(d time.Duration) Option {
	return func(c *Config) {
		c.tokenExpiryGracePeriod = d
	}
}

// WithDebugRequests logs every outgoing request before it is sent.
func WithDebugRequests(enabled bool) Option {
	return func(c *Config) {
		c.debugRequests = enabled
	}
}

// WithReturnType sets the shape returned by Response.Value.
func WithReturnType(rt format.ReturnType) Option {
	return func(c *Config) {
		c.returnType = rt
	}
}

// WithStandardApplicationValues sets defaults merged into outgoing application objects.
func WithStandardApplicationValues(values mapping.Map) Option {
	return func(c *Config) {
		c.standardApplicationValues = values.Clone()
	}
}

// WithSDKVersion overrides the version a non-staging API stage must match.
func WithSDKVersion(version string) Option {
	return func(c *Config) {
		c.sdkVersion = version
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.requestTimeout = d
	}
}

// New stores endpoint and apiStage without validating them; the stage is checked per request.
func New(endpoint, apiStage string, options ...Option) *Config {
	c := &Config{
		endpoint:               endpoint,
		apiStage:               apiStage,
		tokenExpiryGracePeriod: DefaultTokenExpiryGracePeriod,
		returnType:             format.Raw,
		requestTimeout:         DefaultRequestTimeout,
		sdkVersion:             SDKVersion,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Config) Endpoint() string {
	return c.endpoint
}

func (c *Config) APIStage() string {
	return c.apiStage
}

func (c *Config) TokenExpiryGracePeriod() time.Duration {
	return c.tokenExpiryGracePeriod
}

func (c *Config) DebugRequests() bool {
	return c.debugRequests
}

func (c *Config) ReturnType() format.ReturnType {
	return c.returnType
}

// StandardApplicationValues returns a copy of the configured defaults, nil when unset.
func (c *Config) StandardApplicationValues() mapping.Map {
	return c.standardApplicationValues.Clone()
}

func (c *Config) RequestTimeout() time.Duration {
	return c.requestTimeout
}

func (c *Config) SDKVersion() string {
	return c.sdkVersion
}

// ValidateStage checks that the API stage is "staging" or vN, and that vN matches the SDK version.
func (c *Config) ValidateStage() error {
	if c.apiStage != StageStaging && !stagePattern.MatchString(c.apiStage) {
		return albiserr.Config("invalid API version: %q", c.apiStage)
	}
	if c.apiStage != StageStaging && c.apiStage != c.sdkVersion {
		return albiserr.Config("version mismatch: SDK version %s does not match API version %s", c.sdkVersion, c.apiStage)
	}
	return nil
}

// URL resolves endpoint/stage/path after validating the stage.
func (c *Config) URL(path string) (string, error) {
	if err := c.ValidateStage(); err != nil {
		return "", err
	}
	return strings.TrimRight(c.endpoint, "/") + "/" + c.apiStage + "/" + strings.TrimLeft(path, "/"), nil
}
