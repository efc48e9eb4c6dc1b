package token

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Credentials are the five fields the provider's token endpoint requires.
type Credentials struct {
	Username      string `json:"username" yaml:"username"`
	Password      string `json:"password" yaml:"password"`
	Auth0Username string `json:"auth0Username" yaml:"auth0Username"`
	Auth0Password string `json:"auth0Password" yaml:"auth0Password"`
	Realm         string `json:"realm" yaml:"realm"`
}

// Missing returns the names of every empty field in wire order.
func (c Credentials) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"username", c.Username},
		{"password", c.Password},
		{"auth0Username", c.Auth0Username},
		{"auth0Password", c.Auth0Password},
		{"realm", c.Realm},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// IsZero reports whether no field is set.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// CredentialsFromJSON reads a credential set from a JSON document.
func CredentialsFromJSON(r io.Reader) (*Credentials, error) {
	var c Credentials
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, errors.Wrap(err, "CredentialsFromJSON Decode")
	}
	return &c, nil
}

// CredentialsFromRequest reads a credential set from an inbound request body.
func CredentialsFromRequest(r *http.Request) (*Credentials, error) {
	if r.Body == nil {
		return nil, errors.New("CredentialsFromRequest: empty body")
	}
	defer r.Body.Close()
	return CredentialsFromJSON(r.Body)
}
