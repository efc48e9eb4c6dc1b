// Package config loads the albisctl settings from a YAML file and the environment.
package config

import (
	"os"
	"time"

	sdkconfig "github.com/jrsteele09/go-albis-sdk/config"
	"github.com/jrsteele09/go-albis-sdk/format"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/jrsteele09/go-albis-sdk/token"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "./albis.yaml"

type Config struct {
	Albis       AlbisConfig       `yaml:"albis"`
	Credentials token.Credentials `yaml:"credentials"`
	Redis       RedisConfig       `yaml:"redis"`
	Log         LogConfig         `yaml:"log"`
}

type AlbisConfig struct {
	Endpoint                  string         `yaml:"endpoint"`
	APIStage                  string         `yaml:"api_stage"`
	TokenExpiryGraceSeconds   int            `yaml:"token_expiry_grace_seconds"`
	RequestTimeoutSeconds     int            `yaml:"request_timeout_seconds"`
	DebugRequests             bool           `yaml:"debug_requests"`
	ReturnType                string         `yaml:"return_type"`
	StandardApplicationValues map[string]any `yaml:"standard_application_values"`
}

// RedisConfig selects the redis token store. An empty Addr keeps tokens in memory.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	SessionID  string `yaml:"session_id"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads path, or ALBIS_CONFIG, or DefaultPath. Only an explicitly named file must exist.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = GetEnv(configPathEnvVar, "")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	case explicit || !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	applyEnv(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Albis.APIStage == "" {
		cfg.Albis.APIStage = sdkconfig.StageStaging
	}
	if cfg.Albis.TokenExpiryGraceSeconds == 0 {
		cfg.Albis.TokenExpiryGraceSeconds = int(sdkconfig.DefaultTokenExpiryGracePeriod / time.Second)
	}
	if cfg.Albis.RequestTimeoutSeconds == 0 {
		cfg.Albis.RequestTimeoutSeconds = int(sdkconfig.DefaultRequestTimeout / time.Second)
	}
	if cfg.Redis.SessionID == "" {
		cfg.Redis.SessionID = "albisctl"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// SDK builds the library configuration.
func (c *Config) SDK() (*sdkconfig.Config, error) {
	if c.Albis.Endpoint == "" {
		return nil, errors.New("albis endpoint is not configured")
	}
	rt, err := format.ParseReturnType(c.Albis.ReturnType)
	if err != nil {
		return nil, errors.Wrap(err, "albis return_type")
	}

	opts := []sdkconfig.Option{
		sdkconfig.WithTokenExpiryGracePeriod(c.TokenExpiryGracePeriod()),
		sdkconfig.WithRequestTimeout(c.RequestTimeout()),
		sdkconfig.WithDebugRequests(c.Albis.DebugRequests),
		sdkconfig.WithReturnType(rt),
	}
	if len(c.Albis.StandardApplicationValues) > 0 {
		opts = append(opts, sdkconfig.WithStandardApplicationValues(mapping.Map(c.Albis.StandardApplicationValues)))
	}
	return sdkconfig.New(c.Albis.Endpoint, c.Albis.APIStage, opts...), nil
}

func (c *Config) TokenExpiryGracePeriod() time.Duration {
	return time.Duration(c.Albis.TokenExpiryGraceSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Albis.RequestTimeoutSeconds) * time.Second
}

func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}
