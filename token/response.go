package token

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-albis-sdk/albiserr"
)

// Response is the body of the provider's token endpoint.
type Response struct {
	// AccessToken is sent as "Authorization: Bearer <access_token>".
	AccessToken string `json:"access_token"`

	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`

	TokenType string `json:"token_type,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// maxExpiresIn is the largest lifetime, in seconds, a time.Duration can hold.
const maxExpiresIn = int64(math.MaxInt64 / time.Second)

type wireResponse struct {
	AccessToken *string         `json:"access_token"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
	TokenType   string          `json:"token_type"`
	Scope       string          `json:"scope"`
}

// ParseResponse decodes a token endpoint body. expires_in may be a number or a numeric string.
func ParseResponse(body string) (*Response, error) {
	var wire wireResponse
	if err := json.Unmarshal([]byte(body), &wire); err != nil || wire.AccessToken == nil || *wire.AccessToken == "" {
		return nil, albiserr.Protocol(albiserr.SeverityError, "token response doesn't include token", body)
	}

	expiresIn, ok := parseExpiresIn(wire.ExpiresIn)
	if !ok {
		return nil, albiserr.Protocol(albiserr.SeverityWarning, "token response doesn't include expiry", body)
	}
	if expiresIn <= 0 || expiresIn > maxExpiresIn {
		return nil, albiserr.Protocol(albiserr.SeverityWarning, "token response has an invalid expiry", body)
	}

	return &Response{
		AccessToken: *wire.AccessToken,
		ExpiresIn:   expiresIn,
		TokenType:   wire.TokenType,
		Scope:       wire.Scope,
	}, nil
}

func parseExpiresIn(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	switch {
	case f > float64(maxExpiresIn):
		return maxExpiresIn + 1, true
	case f < 0:
		return -1, true
	}
	return int64(f), true
}
