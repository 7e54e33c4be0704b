// Package auth provides the credential lookup used by the login endpoint and
// HS256 token issuing for the API. The signoff core never consults it; actor
// identity reaches the engine as a plain string.
package auth

import (
	"crypto/subtle"

	"github.com/billerops/onboarding-workflow/internal/models"
	"go.uber.org/zap"
)

// Authenticator validates a username/password pair and yields the caller's
// role when the credentials match.
type Authenticator interface {
	Authenticate(username, password string) (role string, ok bool)
}

// StaticAuthenticator checks credentials against a fixed user set supplied by
// configuration.
type StaticAuthenticator struct {
	users  map[string]models.User
	logger *zap.Logger
}

// NewStaticAuthenticator creates an authenticator over the given users.
func NewStaticAuthenticator(users []models.User, logger *zap.Logger) *StaticAuthenticator {
	byName := make(map[string]models.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &StaticAuthenticator{
		users:  byName,
		logger: logger,
	}
}

// Authenticate implements Authenticator.
func (a *StaticAuthenticator) Authenticate(username, password string) (string, bool) {
	user, exists := a.users[username]
	if !exists {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		a.logger.Warn("Failed login attempt", zap.String("username", username))
		return "", false
	}
	return user.Role, true
}

// Lookup returns the stored user record for a username.
func (a *StaticAuthenticator) Lookup(username string) (models.User, bool) {
	user, exists := a.users[username]
	return user, exists
}
