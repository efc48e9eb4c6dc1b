package fakeprovider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type contextKey string

const contextKeyUsername contextKey = "username"

func chainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (p *Provider) loggingMiddleware(path string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p.record(path, r)
			p.logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", r.Header.Get("X-Request-ID")).
				Msg("fake provider request")
			next(w, r)
		}
	}
}

// requireAuth validates the Bearer token issued by the token endpoint.
func (p *Provider) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
			return
		}

		claims, err := p.verifyToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		sub, _ := claims["sub"].(string)
		ctx := context.WithValue(r.Context(), contextKeyUsername, sub)
		next(w, r.WithContext(ctx))
	}
}

func (p *Provider) issueToken(username, realm string) (string, error) {
	now := p.nowFunc()
	claims := jwt.MapClaims{
		"sub":   username,
		"realm": realm,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Duration(p.expiresIn) * time.Second).Unix(),
		"jti":   uuid.New().String(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "Provider.issueToken SignedString")
	}
	return signed, nil
}

func (p *Provider) verifyToken(raw string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return p.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.nowFunc))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func usernameFrom(ctx context.Context) string {
	username, _ := ctx.Value(contextKeyUsername).(string)
	return username
}
