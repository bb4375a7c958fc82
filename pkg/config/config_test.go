package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Origin != DefaultOrigin || cfg.RateLimit != DefaultRateLimit || cfg.Player != DefaultPlayer {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "overrides",
			content: `origin: https://hdrezka.me/
rate_limit: 0.5
cookies:
  dle_user_id: "42"
  dle_password: secret
browser: true
`,
			check: func(t *testing.T, cfg Config) {
				if cfg.Origin != "https://hdrezka.me" {
					t.Errorf("Expected trimmed origin, got %q", cfg.Origin)
				}
				if cfg.RateLimit != 0.5 || !cfg.Browser {
					t.Errorf("Unexpected rate %v browser %v", cfg.RateLimit, cfg.Browser)
				}
				if cfg.Cookies["dle_user_id"] != "42" || len(cfg.Cookies) != 2 {
					t.Errorf("Unexpected cookies %v", cfg.Cookies)
				}
				if cfg.UserAgent != DefaultUserAgent || cfg.Player != DefaultPlayer {
					t.Errorf("Expected defaults for unset keys, got %+v", cfg)
				}
			},
		},
		{name: "not yaml", content: "origin: [", err: true},
		{name: "bad origin", content: "origin: ftp://mirror", err: true},
		{name: "negative rate", content: "rate_limit: -1", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if (err != nil) != tt.err {
				t.Fatalf("Input: %q, expected error %v, got %v", tt.content, tt.err, err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Cookies = map[string]string{"PHPSESSID": "abc"}
	cfg.Player = "vlc"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Player != "vlc" || loaded.Cookies["PHPSESSID"] != "abc" {
		t.Errorf("Unexpected config after reload %+v", loaded)
	}
}

func TestRuntimePremium(t *testing.T) {
	r := &Runtime{}
	if r.Premium() != 0 {
		t.Fatalf("Expected 0 before any report, got %d", r.Premium())
	}

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			r.SetPremium(v)
			_ = r.Premium()
		}(i)
	}
	wg.Wait()

	if p := r.Premium(); p < 1 || p > 8 {
		t.Errorf("Expected one of the reported values, got %d", p)
	}
}
