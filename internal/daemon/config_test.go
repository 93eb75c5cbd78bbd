package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7420 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7420)
	}
	if cfg.Storage.DBFile != "holdfast.db" {
		t.Errorf("Storage.DBFile = %q, want %q", cfg.Storage.DBFile, "holdfast.db")
	}
	if cfg.Tracker.Timezone != "Local" {
		t.Errorf("Tracker.Timezone = %q, want Local", cfg.Tracker.Timezone)
	}
	if cfg.Tracker.CelebrationDuration != "3s" {
		t.Errorf("Tracker.CelebrationDuration = %q, want 3s", cfg.Tracker.CelebrationDuration)
	}
	if !cfg.Telemetry.Metrics || !cfg.Telemetry.Tracing {
		t.Error("metrics and tracing should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOLDFAST_PORT", "")
	t.Setenv("HOLDFAST_TZ", "")
	t.Setenv("HOLDFAST_HOST", "")
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 7420 {
		t.Errorf("API.Port = %d, want default", cfg.API.Port)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	body := `
[api]
port = 9000

[tracker]
timezone = "UTC"
celebration_duration = "5s"

[telemetry]
metrics = false
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOLDFAST_PORT", "")
	t.Setenv("HOLDFAST_TZ", "")
	t.Setenv("HOLDFAST_HOST", "0.0.0.0")

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host = %q, want env override", cfg.API.Host)
	}
	if cfg.Telemetry.Metrics {
		t.Error("Telemetry.Metrics should be false from file")
	}
	if !cfg.Telemetry.Tracing {
		t.Error("Telemetry.Tracing should keep its default")
	}

	rt := cfg.TrackerRuntime()
	if rt.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", rt.Location)
	}
	if rt.CelebrationDuration != 5*time.Second {
		t.Errorf("CelebrationDuration = %v, want 5s", rt.CelebrationDuration)
	}

	t.Setenv("HOLDFAST_PORT", "9100")
	cfg, _ = LoadConfig(home)
	if cfg.API.Port != 9100 {
		t.Errorf("API.Port = %d, want env override 9100", cfg.API.Port)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad toml", "[api\nport = "},
		{"bad port", "[api]\nport = 70000\n"},
		{"bad timezone", "[tracker]\ntimezone = \"Mars/Olympus\"\n"},
		{"bad duration", "[tracker]\ncelebration_duration = \"soon\"\n"},
	}
	t.Setenv("HOLDFAST_PORT", "")
	t.Setenv("HOLDFAST_TZ", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			os.WriteFile(filepath.Join(home, "config.toml"), []byte(tt.body), 0600)
			if _, err := LoadConfig(home); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"3s", 3 * time.Second, true},
		{"1500ms", 1500 * time.Millisecond, true},
		{"", 3 * time.Second, true}, // Default
		{"-1s", 0, false},
		{"later", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err == nil) != tt.ok {
				t.Fatalf("parseDuration(%q) err = %v, want ok=%v", tt.input, err, tt.ok)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDBPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DBPath("/data"); got != filepath.Join("/data", "holdfast.db") {
		t.Errorf("DBPath = %q", got)
	}
	cfg.Storage.DBFile = "/abs/elsewhere.db"
	if got := cfg.DBPath("/data"); got != "/abs/elsewhere.db" {
		t.Errorf("absolute DBPath = %q", got)
	}
}

func TestHomeDir_Env(t *testing.T) {
	t.Setenv("HOLDFAST_HOME", "/tmp/hf-home")
	if HomeDir() != "/tmp/hf-home" {
		t.Errorf("HomeDir() = %q", HomeDir())
	}
}

func TestEncode(t *testing.T) {
	out, err := DefaultConfig().Encode()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[api]", "port = 7420", "[tracker]", "celebration_duration = \"3s\""} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode() missing %q:\n%s", want, out)
		}
	}
}
