package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestConfigDirRespectsXDG(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("XDG paths are linux-only")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	dir := ConfigDir()
	if dir != filepath.Join("/tmp/xdg-config", "cage") {
		t.Errorf("ConfigDir() = %q, want XDG path", dir)
	}
}

func TestDataDirRespectsXDG(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("XDG paths are linux-only")
	}

	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	dir := DataDir()
	if dir != filepath.Join("/tmp/xdg-data", "cage") {
		t.Errorf("DataDir() = %q, want XDG path", dir)
	}
}

func TestPathsEndWithExpectedFiles(t *testing.T) {
	if !strings.HasSuffix(ConfigPath(), "config.toml") {
		t.Errorf("ConfigPath() = %q, want config.toml suffix", ConfigPath())
	}
	if !strings.HasSuffix(HistoryPath(), "history.db") {
		t.Errorf("HistoryPath() = %q, want history.db suffix", HistoryPath())
	}
}
