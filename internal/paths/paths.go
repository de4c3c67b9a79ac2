// Package paths resolves the configuration and sandbox directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "beaverport"

// Environment variable names for directory overrides.
const (
	EnvConfigDir  = "BEAVERPORT_CONFIG_DIR"
	EnvSandboxDir = "BEAVERPORT_SANDBOX_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/beaverport (fallback ~/.config/beaverport)
// macOS:   ~/Library/Application Support/beaverport
// Windows: %APPDATA%/beaverport
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultSandboxDir returns the platform-specific default sandbox directory.
//
// Linux:   $XDG_DATA_HOME/beaverport/sandbox (fallback ~/.local/share/beaverport/sandbox)
// macOS and Windows: <config dir>/sandbox
func DefaultSandboxDir() (string, error) {
	if runtime.GOOS == "linux" {
		dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "sandbox"), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "sandbox"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > BEAVERPORT_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveSandboxDir returns the sandbox directory following the precedence
// chain: flag > configValue > BEAVERPORT_SANDBOX_DIR env > DefaultSandboxDir().
func ResolveSandboxDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvSandboxDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultSandboxDir()
}
