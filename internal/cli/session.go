package cli

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/beaverport/internal/remote"
	"github.com/mesh-intelligence/beaverport/internal/sqlite"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// target is an opened destination: a logged-in API client or an attached
// sandbox.
type target interface {
	types.Destination
	types.Source
}

type session struct {
	target  target
	name    string
	userID  string
	client  *remote.Client
	sandbox *sqlite.Backend
}

// open connects to the configured destination. API sessions log in; the
// caller must call close to log out again.
func (a *app) open(ctx context.Context) (*session, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	if cfg.Backend == types.BackendSQLite {
		sb := sqlite.NewBackend(a.log)
		if err := sb.Attach(cfg); err != nil {
			return nil, fmt.Errorf("open sandbox: %w", err)
		}
		userID, err := sb.UserID(ctx)
		if err != nil {
			sb.Detach()
			return nil, err
		}
		return &session{target: sb, name: "sandbox " + cfg.DataDir, userID: userID, sandbox: sb}, nil
	}

	if cfg.Password == "" {
		pw, err := a.readPassword()
		if err != nil {
			return nil, err
		}
		cfg.Password = pw
	}
	client, err := remote.New(cfg.API,
		remote.WithTimeout(cfg.Timeout),
		remote.WithInsecureTLS(cfg.SSLNoVerify),
		remote.WithLogger(a.log),
	)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	s, err := client.Login(ctx, remote.Credentials{
		Email:    cfg.Email,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	login := cfg.Email
	if login == "" {
		login = cfg.Username
	}
	return &session{target: client, name: login + " at " + cfg.API, userID: s.UserID, client: client}, nil
}

// close logs out of the API or detaches the sandbox.
func (s *session) close(ctx context.Context) error {
	if s.sandbox != nil {
		return s.sandbox.Detach()
	}
	return s.client.Logout(ctx)
}
