package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gitmorph/pkg/errors"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{Dir: t.TempDir(), LookupEnv: env(nil)})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() without sources (-want +got):\n%s", diff)
	}
	if cfg.ProjectName != "GitViz" || cfg.Port != 3000 || cfg.MaxLogEntries != 30 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Addr() != "localhost:3000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "gitmorph.toml", `
project_name = "Demo"
base_path = "viz/"
port = 8080
policy = "queue"
debounce = "1s"
`)
	cfg, err := Load(Options{Dir: dir, LookupEnv: env(nil)})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ProjectName != "Demo" || cfg.Port != 8080 || cfg.Policy != "queue" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.BasePath != "/viz" {
		t.Errorf("BasePath = %q, want /viz", cfg.BasePath)
	}
	if cfg.Debounce != time.Second {
		t.Errorf("Debounce = %v", cfg.Debounce)
	}
	if cfg.MaxLogEntries != 30 {
		t.Errorf("unset keys should keep defaults, MaxLogEntries = %d", cfg.MaxLogEntries)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "custom.yml", "project_name: Yam\nmax_log_entries: 50\nwatch: false\n")
	cfg, err := Load(Options{Path: p, Dir: dir, LookupEnv: env(nil)})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ProjectName != "Yam" || cfg.MaxLogEntries != 50 || cfg.Watch {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "gitmorph.toml", "port = 8080\n")
	write(t, dir, ".env", "GITMORPH_PORT=9000\nGITMORPH_PROJECT_NAME=FromDotEnv\n")

	cfg, err := Load(Options{Dir: dir, LookupEnv: env(map[string]string{
		"GITMORPH_PORT":      "9100",
		"GITMORPH_BASE_PATH": "/api/",
		"GITMORPH_WATCH":     "false",
	})})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want the process environment to win", cfg.Port)
	}
	if cfg.ProjectName != "FromDotEnv" {
		t.Errorf("ProjectName = %q, want .env value", cfg.ProjectName)
	}
	if cfg.BasePath != "/api" || cfg.Watch {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		vars map[string]string
	}{
		{name: "bad port env", vars: map[string]string{"GITMORPH_PORT": "http"}},
		{name: "port out of range", vars: map[string]string{"GITMORPH_PORT": "70000"}},
		{name: "unknown policy", vars: map[string]string{"GITMORPH_POLICY": "drop"}},
		{name: "unknown toml key", file: "gitmorph.toml", body: "colour = \"red\"\n"},
		{name: "unknown yaml key", file: "gitmorph.yaml", body: "colour: red\n"},
		{name: "malformed toml", file: "gitmorph.toml", body: "port = \n"},
		{name: "empty project", file: "gitmorph.toml", body: "project_name = \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				write(t, dir, tt.file, tt.body)
			}
			_, err := Load(Options{Dir: dir, LookupEnv: env(tt.vars)})
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "gitmorph.json", "{}")
	if _, err := Load(Options{Path: p, LookupEnv: env(nil)}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load() error = %v", err)
	}
}
