package paths

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T, home string) {
	t.Helper()
	orig := platformDir
	platformDir.homeDir = func() (string, error) { return home, nil }
	platformDir.userConfigDir = func() (string, error) { return filepath.Join(home, "cfg"), nil }
	t.Cleanup(func() { platformDir = orig })
}

func TestDefaultDirs_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	withHome(t, "/home/ada")

	t.Run("uses XDG variables when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

		cfg, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/beaverport", cfg)

		sandbox, err := DefaultSandboxDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/beaverport/sandbox", sandbox)
	})

	t.Run("falls back to the home directory", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")

		cfg, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ada/.config/beaverport", cfg)

		sandbox, err := DefaultSandboxDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ada/.local/share/beaverport/sandbox", sandbox)
	})

	t.Run("home lookup failure", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
		_, err := DefaultConfigDir()
		assert.Error(t, err)
	})
}

func TestResolveConfigDir(t *testing.T) {
	withHome(t, "/home/ada")
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string
	}{
		{name: "flag wins over env", flag: "/explicit/config", envVal: "/env/config", wantSub: "/explicit/config"},
		{name: "env wins when flag empty", envVal: "/env/config", wantSub: "/env/config"},
		{name: "platform default when both empty", wantSub: "beaverport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveSandboxDir(t *testing.T) {
	withHome(t, "/home/ada")
	tests := []struct {
		name     string
		flag     string
		cfgValue string
		envVal   string
		want     string
	}{
		{name: "flag wins over all", flag: "/flag/sb", cfgValue: "/config/sb", envVal: "/env/sb", want: "/flag/sb"},
		{name: "config wins over env", cfgValue: "/config/sb", envVal: "/env/sb", want: "/config/sb"},
		{name: "env wins when flag and config empty", envVal: "/env/sb", want: "/env/sb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvSandboxDir, tt.envVal)
			got, err := ResolveSandboxDir(tt.flag, tt.cfgValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("relative values become absolute", func(t *testing.T) {
		t.Setenv(EnvSandboxDir, "")
		got, err := ResolveSandboxDir("relative/path", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}
