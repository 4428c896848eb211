// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSettingsFrom_Defaults(t *testing.T) {
	t.Parallel()

	s, err := SettingsFrom(NewViper())
	if err != nil {
		t.Fatalf("SettingsFrom() error: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("SettingsFrom(defaults) = %+v, want %+v", s, DefaultSettings())
	}
}

func TestSettingsFrom_Environment(t *testing.T) {
	t.Setenv("DECOUPAGE_MAPSHAPER", "/opt/mapshaper/bin/mapshaper")
	t.Setenv("DECOUPAGE_TOOL_TIMEOUT", "90s")
	t.Setenv("DECOUPAGE_HTTP_TIMEOUT", "0")
	t.Setenv("DECOUPAGE_STRICT", "true")

	s, err := SettingsFrom(NewViper())
	if err != nil {
		t.Fatalf("SettingsFrom() error: %v", err)
	}

	if s.Mapshaper != "/opt/mapshaper/bin/mapshaper" {
		t.Errorf("Mapshaper = %q", s.Mapshaper)
	}
	if s.ToolTimeout != 90*time.Second {
		t.Errorf("ToolTimeout = %s", s.ToolTimeout)
	}
	if s.HTTPTimeout != 0 {
		t.Errorf("HTTPTimeout = %s, want 0 (disabled)", s.HTTPTimeout)
	}
	if !s.Strict {
		t.Error("Strict should be true")
	}
	if s.Archiver != DefaultArchiver {
		t.Errorf("Archiver = %q", s.Archiver)
	}
}

func TestSettingsFrom_Invalid(t *testing.T) {
	t.Parallel()

	v := NewViper()
	v.Set(KeyToolTimeout, -time.Second)
	if _, err := SettingsFrom(v); err == nil {
		t.Error("negative timeout should be rejected")
	}

	v = NewViper()
	v.Set(KeyMapshaper, "  ")
	s, err := SettingsFrom(v)
	if err != nil {
		t.Fatalf("SettingsFrom() error: %v", err)
	}
	if s.Mapshaper != DefaultMapshaper {
		t.Errorf("blank mapshaper should fall back to default, got %q", s.Mapshaper)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("DECOUPAGE_ARCHIVER=/usr/bin/7za\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Register cleanup for the variable godotenv is about to set.
	t.Setenv("DECOUPAGE_ARCHIVER", "")
	if err := os.Unsetenv("DECOUPAGE_ARCHIVER"); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}

	s, err := SettingsFrom(NewViper())
	if err != nil {
		t.Fatalf("SettingsFrom() error: %v", err)
	}
	if s.Archiver != "/usr/bin/7za" {
		t.Errorf("Archiver = %q, want value from .env", s.Archiver)
	}
}
