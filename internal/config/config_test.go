package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Endpoint != "https://graphqlzero.almansi.me/api" {
		t.Errorf("default endpoint = %q", cfg.API.Endpoint)
	}
	if cfg.Query.StaleTime != 0 {
		t.Errorf("default stale time = %v, want 0", cfg.Query.StaleTime)
	}
	if cfg.Query.GCTime != 5*time.Minute {
		t.Errorf("default gc time = %v, want %v", cfg.Query.GCTime, 5*time.Minute)
	}
	if cfg.Query.Retry.MaxAttempts != 3 {
		t.Errorf("default max attempts = %d, want 3", cfg.Query.Retry.MaxAttempts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), "querydemo.yaml", `
api:
  endpoint: http://localhost:4000/graphql
  timeout: 3s
query:
  stale_time: 30s
  retry:
    max_attempts: 5
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Endpoint != "http://localhost:4000/graphql" {
		t.Errorf("endpoint = %q", cfg.API.Endpoint)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.API.Timeout)
	}
	if cfg.Query.StaleTime != 30*time.Second {
		t.Errorf("stale time = %v, want 30s", cfg.Query.StaleTime)
	}
	if cfg.Query.Retry.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", cfg.Query.Retry.MaxAttempts)
	}
	// Unset fields keep their defaults.
	if cfg.Query.GCTime != 5*time.Minute {
		t.Errorf("gc time = %v, want default", cfg.Query.GCTime)
	}
	if cfg.Query.Retry.BackoffFactor != 2.0 {
		t.Errorf("backoff factor = %v, want default 2.0", cfg.Query.Retry.BackoffFactor)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/querydemo.yaml")
	if err != nil {
		t.Fatalf("Load() should return defaults for missing file, got error: %v", err)
	}
	if want := DefaultConfig(); *cfg != want {
		t.Errorf("Load(missing) = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), "querydemo.yaml", "api: [unclosed")

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("Load() should fail on invalid YAML")
	}
}

func TestLoad_UnknownField(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), "querydemo.yaml", `
query:
  stale_tme: 1m
`)

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("Load() should return error for unknown field 'stale_tme'")
	}
}

func TestLoad_CommentOnlyFile(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), "querydemo.yaml", "# just a comment\n")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load(comment-only) error = %v", err)
	}
	if want := DefaultConfig(); *cfg != want {
		t.Errorf("Load(comment-only) = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), "querydemo.yaml", "")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load(empty) error = %v", err)
	}
	if want := DefaultConfig(); *cfg != want {
		t.Errorf("Load(empty) = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoadLayered_Priority(t *testing.T) {
	// Given: a user file and a project file that overlap
	dir := t.TempDir()
	user := writeConfig(t, dir, "user.yaml", `
api:
  endpoint: http://user.example/graphql
query:
  stale_time: 1m
log:
  file: user.log
`)
	project := writeConfig(t, dir, "project.yaml", `
query:
  stale_time: 5s
`)

	// When: loaded user first, project second
	cfg, err := LoadLayered(user, project)
	if err != nil {
		t.Fatalf("LoadLayered() error = %v", err)
	}

	// Then: the project wins where set and the user layer fills the rest
	if cfg.Query.StaleTime != 5*time.Second {
		t.Errorf("stale time = %v, want project value 5s", cfg.Query.StaleTime)
	}
	if cfg.API.Endpoint != "http://user.example/graphql" {
		t.Errorf("endpoint = %q, want user value", cfg.API.Endpoint)
	}
	if cfg.Log.File != "user.log" {
		t.Errorf("log file = %q, want user value", cfg.Log.File)
	}
}

func TestLoadLayered_AllMissing(t *testing.T) {
	cfg, err := LoadLayered("/no/user.yaml", "/no/project.yaml")
	if err != nil {
		t.Fatalf("LoadLayered(all missing) error = %v", err)
	}
	if want := DefaultConfig(); *cfg != want {
		t.Errorf("got %+v, want defaults %+v", *cfg, want)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr bool
		check   func(*testing.T, Config)
	}{
		{
			name: "QUERYDEMO_ENDPOINT overrides endpoint",
			envs: map[string]string{"QUERYDEMO_ENDPOINT": "http://env.example/graphql"},
			check: func(t *testing.T, c Config) {
				if c.API.Endpoint != "http://env.example/graphql" {
					t.Errorf("endpoint = %q", c.API.Endpoint)
				}
			},
		},
		{
			name: "QUERYDEMO_STALE_TIME and QUERYDEMO_GC_TIME override the cache",
			envs: map[string]string{"QUERYDEMO_STALE_TIME": "45s", "QUERYDEMO_GC_TIME": "1m"},
			check: func(t *testing.T, c Config) {
				if c.Query.StaleTime != 45*time.Second {
					t.Errorf("stale time = %v, want 45s", c.Query.StaleTime)
				}
				if c.Query.GCTime != time.Minute {
					t.Errorf("gc time = %v, want 1m", c.Query.GCTime)
				}
			},
		},
		{
			name: "QUERYDEMO_RETRY_ATTEMPTS overrides attempts",
			envs: map[string]string{"QUERYDEMO_RETRY_ATTEMPTS": "7"},
			check: func(t *testing.T, c Config) {
				if c.Query.Retry.MaxAttempts != 7 {
					t.Errorf("max attempts = %d, want 7", c.Query.Retry.MaxAttempts)
				}
			},
		},
		{
			name: "unset variables keep current values",
			envs: map[string]string{},
			check: func(t *testing.T, c Config) {
				if want := DefaultConfig(); c != want {
					t.Errorf("config = %+v, want defaults", c)
				}
			},
		},
		{
			name:    "invalid QUERYDEMO_TIMEOUT returns error",
			envs:    map[string]string{"QUERYDEMO_TIMEOUT": "notaduration"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			err := cfg.ApplyEnv()

			if tt.wantErr {
				if err == nil {
					t.Fatal("ApplyEnv() should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnv() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:    "empty endpoint",
			modify:  func(c *Config) { c.API.Endpoint = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.API.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative stale time",
			modify:  func(c *Config) { c.Query.StaleTime = -time.Second },
			wantErr: true,
		},
		{
			name:   "zero gc time disables eviction",
			modify: func(c *Config) { c.Query.GCTime = 0 },
		},
		{
			name:    "zero attempts",
			modify:  func(c *Config) { c.Query.Retry.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "shrinking backoff",
			modify:  func(c *Config) { c.Query.Retry.BackoffFactor = 0.5 },
			wantErr: true,
		},
		{
			name:   "backoff disabled",
			modify: func(c *Config) { c.Query.Retry.BackoffFactor = 0 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Query.StaleTime = 20 * time.Second

	qc := cfg.QueryConfig()

	if qc.StaleTime != 20*time.Second {
		t.Errorf("StaleTime = %v, want 20s", qc.StaleTime)
	}
	if qc.GCTime != cfg.Query.GCTime || qc.FetchTimeout != cfg.Query.FetchTimeout {
		t.Errorf("timing not carried over: %+v", qc)
	}
	if qc.Retry.MaxAttempts != 3 || qc.Retry.BackoffFactor != 2.0 {
		t.Errorf("Retry = %+v, want defaults", qc.Retry)
	}
}
