package fakeprovider

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-albis-sdk/token"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("invalid credentials")

type account struct {
	username          string
	passwordHash      string
	auth0Username     string
	auth0PasswordHash string
	realm             string
}

type accountRepo struct {
	accounts map[string]*account
	lock     sync.RWMutex
}

func newAccountRepo() *accountRepo {
	return &accountRepo{
		accounts: make(map[string]*account),
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (ar *accountRepo) Add(creds token.Credentials) error {
	if missing := creds.Missing(); len(missing) > 0 {
		return errors.New("incomplete credentials")
	}
	passwordHash, err := hashPassword(creds.Password)
	if err != nil {
		return err
	}
	auth0Hash, err := hashPassword(creds.Auth0Password)
	if err != nil {
		return err
	}

	ar.lock.Lock()
	defer ar.lock.Unlock()
	ar.accounts[creds.Username] = &account{
		username:          creds.Username,
		passwordHash:      passwordHash,
		auth0Username:     creds.Auth0Username,
		auth0PasswordHash: auth0Hash,
		realm:             creds.Realm,
	}
	return nil
}

func (ar *accountRepo) Authenticate(creds token.Credentials) error {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	a, ok := ar.accounts[creds.Username]
	if !ok || a.auth0Username != creds.Auth0Username || a.realm != creds.Realm {
		return errInvalidCredentials
	}
	if !checkPasswordHash(creds.Password, a.passwordHash) || !checkPasswordHash(creds.Auth0Password, a.auth0PasswordHash) {
		return errInvalidCredentials
	}
	return nil
}

func (ar *accountRepo) ChangePasswords(username, albisPassword, auth0Password string) error {
	passwordHash, err := hashPassword(albisPassword)
	if err != nil {
		return err
	}
	auth0Hash, err := hashPassword(auth0Password)
	if err != nil {
		return err
	}

	ar.lock.Lock()
	defer ar.lock.Unlock()
	a, ok := ar.accounts[username]
	if !ok {
		return errors.New("not found")
	}
	a.passwordHash = passwordHash
	a.auth0PasswordHash = auth0Hash
	return nil
}
