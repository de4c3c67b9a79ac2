package types

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the destination selection and session parameters for one
// invocation.
type Config struct {
	Backend     string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	API         string        `json:"api" yaml:"api" mapstructure:"api"`
	Email       string        `json:"email" yaml:"email" mapstructure:"email"`
	Username    string        `json:"username" yaml:"username" mapstructure:"username"`
	Password    string        `json:"password" yaml:"password" mapstructure:"password"`
	DataDir     string        `json:"sandbox_dir" yaml:"sandbox_dir" mapstructure:"sandbox_dir"`
	LogLevel    string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	SSLNoVerify bool          `json:"ssl_no_verify" yaml:"ssl_no_verify" mapstructure:"ssl_no_verify"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Supported backend names.
const (
	BackendAPI    = "api"
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrAPIEmpty        = errors.New("api url must not be empty")
	ErrLoginEmpty      = errors.New("email or username is required")
	ErrDataDirEmpty    = errors.New("sandbox directory must not be empty")
	ErrTimeoutInvalid  = errors.New("timeout must be positive")
	ErrLogLevelUnknown = errors.New("unknown log level")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendAPI:    true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. The password is not checked here because the
// CLI may prompt for it.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.Backend {
	case BackendAPI:
		if c.API == "" {
			return ErrAPIEmpty
		}
		if c.Email == "" && c.Username == "" {
			return ErrLoginEmpty
		}
		if c.Timeout <= 0 {
			return ErrTimeoutInvalid
		}
	case BackendSQLite:
		if c.DataDir == "" {
			return ErrDataDirEmpty
		}
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return ErrLogLevelUnknown
		}
	}
	return nil
}
