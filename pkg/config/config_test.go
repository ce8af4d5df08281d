package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "error")
	}
	if cfg.Difficulty != "Expert" {
		t.Errorf("Difficulty = %q, want %q", cfg.Difficulty, "Expert")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("M2S_PORT", "9090")
	t.Setenv("M2S_LOG_LEVEL", "debug")
	t.Setenv("M2S_LOG_FILE", "/tmp/m2s.log")
	t.Setenv("M2S_DIFFICULTY", "Master")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.LogFile != "/tmp/m2s.log" {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, "/tmp/m2s.log")
	}
	if cfg.Difficulty != "Master" {
		t.Errorf("Difficulty = %q, want %q", cfg.Difficulty, "Master")
	}
}

func TestLoadIgnoresInvalidPort(t *testing.T) {
	t.Setenv("M2S_PORT", "not-a-port")

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want fallback 8080", cfg.Port)
	}
}
