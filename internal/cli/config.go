package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/beaverport/internal/paths"
	"github.com/mesh-intelligence/beaverport/internal/remote"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "BEAVERPORT"

	cfgKeyBackend     = "backend"
	cfgKeyAPI         = "api"
	cfgKeyEmail       = "email"
	cfgKeyUsername    = "username"
	cfgKeyPassword    = "password"
	cfgKeySandboxDir  = "sandbox_dir"
	cfgKeyLogLevel    = "log_level"
	cfgKeySSLNoVerify = "ssl_no_verify"
	cfgKeyTimeout     = "timeout"

	defaultTimeout = 30 * time.Second
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# beaverport configuration
# Every key can be overridden with a BEAVERPORT_<KEY> environment variable.

# Destination: api or sqlite (the local sandbox).
backend: api

# API base URL.
api: https://beaverlog.cc/api/v1

# Login. Set either email or username. The password is prompted when empty.
# email:
# username:

# Sandbox directory used when backend is sqlite or --sandbox is given.
# sandbox_dir:

log_level: info
timeout: 30s
ssl_no_verify: false
`

func defaultAPI() string { return remote.DefaultAPI }

// flagKeys maps global flag names to config keys.
var flagKeys = map[string]string{
	"api":       cfgKeyAPI,
	"email":     cfgKeyEmail,
	"username":  cfgKeyUsername,
	"password":  cfgKeyPassword,
	"log-level": cfgKeyLogLevel,
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. A missing or unreadable
// directory is not fatal; defaults and the environment still apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendAPI)
	v.SetDefault(cfgKeyAPI, remote.DefaultAPI)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyTimeout, defaultTimeout)
	v.SetDefault(cfgKeySSLNoVerify, false)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv(cfgKeySSLNoVerify, envPrefix+"_SSL_NO_VERIFY", "SSL_NO_VERIFY"); err != nil {
		return nil, err
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return v, nil
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates the config directory and a default
// config.yaml if the file does not exist.
func ensureDefaultConfigFile(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o600)
}

// bindFlags makes explicitly set flags override the config file and the
// environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// config assembles the destination configuration. --sandbox selects the
// sandbox regardless of the configured backend.
func (a *app) config() (types.Config, error) {
	cfg := types.Config{
		Backend:     a.v.GetString(cfgKeyBackend),
		API:         a.v.GetString(cfgKeyAPI),
		Email:       a.v.GetString(cfgKeyEmail),
		Username:    a.v.GetString(cfgKeyUsername),
		Password:    a.v.GetString(cfgKeyPassword),
		LogLevel:    a.v.GetString(cfgKeyLogLevel),
		SSLNoVerify: a.v.GetBool(cfgKeySSLNoVerify),
		Timeout:     a.v.GetDuration(cfgKeyTimeout),
	}
	if a.flags.sandbox != "" {
		cfg.Backend = types.BackendSQLite
	}
	if cfg.Backend == types.BackendSQLite {
		dir, err := paths.ResolveSandboxDir(a.flags.sandbox, a.v.GetString(cfgKeySandboxDir))
		if err != nil {
			return types.Config{}, err
		}
		cfg.DataDir = dir
	}
	if cfg.Backend == types.BackendAPI && cfg.Email != "" && cfg.Username != "" {
		// A username from the config file yields to an email from the
		// command line and vice versa.
		if a.flags.email != "" {
			cfg.Username = ""
		} else {
			cfg.Email = ""
		}
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, withCode(exitUsage, err)
	}
	return cfg, nil
}
