package admin

import "crypto/subtle"

//go:generate mockgen -source=authenticator.go -package admin -destination authenticator_mock.go Authenticator

// Authenticator decides who may use the admin. Injected so deployments can
// plug in their own credential check.
type Authenticator interface {
	Authenticate(username string, password string) bool
}

type staticAuthenticator struct {
	username string
	password string
}

// NewStaticAuthenticator checks against a single configured credential pair.
// An empty configured password locks the admin out entirely.
func NewStaticAuthenticator(username string, password string) Authenticator {
	return &staticAuthenticator{
		username: username,
		password: password,
	}
}

func (a *staticAuthenticator) Authenticate(username string, password string) bool {
	if a.password == "" {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1

	return userOK && passOK
}
