package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-albis-sdk/albiserr"
	"github.com/jrsteele09/go-albis-sdk/config"
	"github.com/jrsteele09/go-albis-sdk/format"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c := config.New("https://api.example.com", "staging")

	require.Equal(t, "https://api.example.com", c.Endpoint())
	require.Equal(t, "staging", c.APIStage())
	require.Equal(t, time.Hour, c.TokenExpiryGracePeriod())
	require.False(t, c.DebugRequests())
	require.Equal(t, format.Raw, c.ReturnType())
	require.Nil(t, c.StandardApplicationValues())
	require.Equal(t, 120*time.Second, c.RequestTimeout())
	require.Equal(t, config.SDKVersion, c.SDKVersion())
}

func TestNew_Options(t *testing.T) {
	defaults := mapping.Map{"receiverEndpoint": "http://x"}
	c := config.New("https://api.example.com", "v1",
		config.WithTokenExpiryGracePeriod(time.Minute),
		config.WithDebugRequests(true),
		config.WithReturnType(format.Mapping),
		config.WithStandardApplicationValues(defaults),
		config.WithRequestTimeout(time.Second),
	)

	require.Equal(t, time.Minute, c.TokenExpiryGracePeriod())
	require.True(t, c.DebugRequests())
	require.Equal(t, format.Mapping, c.ReturnType())
	require.Equal(t, time.Second, c.RequestTimeout())

	got := c.StandardApplicationValues()
	require.Equal(t, defaults, got)
	got["receiverEndpoint"] = "changed"
	require.Equal(t, "http://x", c.StandardApplicationValues()["receiverEndpoint"])
}

func TestConfig_ValidateStage(t *testing.T) {
	tests := []struct {
		stage   string
		version string
		wantErr string
	}{
		{stage: "staging"},
		{stage: "v1"},
		{stage: "v2", version: "v2"},
		{stage: "v12", version: "v12"},
		{stage: "v2", wantErr: "version mismatch"},
		{stage: "v2x", version: "v2x", wantErr: "invalid API version"},
		{stage: "V1", wantErr: "invalid API version"},
		{stage: "", wantErr: "invalid API version"},
		{stage: "production", wantErr: "invalid API version"},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			opts := []config.Option{}
			if tt.version != "" {
				opts = append(opts, config.WithSDKVersion(tt.version))
			}
			err := config.New("https://api.example.com", tt.stage, opts...).ValidateStage()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, albiserr.ErrConfig)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_URL(t *testing.T) {
	c := config.New("https://api.example.com/", "v2", config.WithSDKVersion("v2"))
	url, err := c.URL("ping")
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com/v2/ping", url)

	_, err = config.New("https://api.example.com", "v2x").URL("ping")
	require.ErrorIs(t, err, albiserr.ErrConfig)
}
