package remote

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// Session holds the tokens of a logged-in user.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"id"`
}

// Credentials identify the user. Exactly one of Email and Username is used,
// Email taking precedence.
type Credentials struct {
	Email    string
	Username string
	Password string
}

// HashPassword returns the hex SHA-512 digest the API expects instead of the
// clear-text password.
func HashPassword(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login authenticates and stores the session on the client.
func (c *Client) Login(ctx context.Context, cred Credentials) (Session, error) {
	body := map[string]string{"password": HashPassword(cred.Password)}
	if cred.Email != "" {
		body["email"] = cred.Email
	} else {
		body["username"] = cred.Username
	}

	c.log.Info("Authenticating")
	var s Session
	if _, err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", body, &s); err != nil {
		return Session{}, redactPassword(err)
	}
	c.session = s
	return s, nil
}

// Logout revokes both tokens. It is a no-op without a session.
func (c *Client) Logout(ctx context.Context) error {
	if c.session.AccessToken == "" {
		return nil
	}
	c.log.Info("Signing out")
	if _, err := c.doJSON(ctx, http.MethodDelete, "/auth/revoke-access", c.session.AccessToken, nil, nil); err != nil {
		return err
	}
	if _, err := c.doJSON(ctx, http.MethodDelete, "/auth/revoke-refresh", c.session.RefreshToken, nil, nil); err != nil {
		return err
	}
	c.session = Session{}
	return nil
}

// Session returns the current session.
func (c *Client) Session() Session {
	return c.session
}

func (c *Client) token() (string, error) {
	if c.session.AccessToken == "" {
		return "", types.ErrNotAuthenticated
	}
	return c.session.AccessToken, nil
}

// redactPassword keeps the password digest out of error output.
func redactPassword(err error) error {
	if remote, ok := err.(*types.RemoteOperationError); ok {
		if body, ok := remote.Payload.(map[string]string); ok {
			redacted := make(map[string]string, len(body))
			for k, v := range body {
				redacted[k] = v
			}
			redacted["password"] = "***"
			remote.Payload = redacted
		}
	}
	return err
}
