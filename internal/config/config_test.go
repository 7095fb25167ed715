package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		LoginURL:             DefaultLoginURL,
		CategoryPath:         DefaultCategoryPath,
		ClipboardSettleDelay: time.Second,
		ElementTimeout:       10 * time.Second,
		StepTimeout:          5 * time.Second,
		TreeTimeout:          2 * time.Second,
		PopupTimeout:         5 * time.Second,
		ProtocolScheme:       DefaultScheme,
		LogLevel:             "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero settle delay is allowed",
			mutate:  func(c *Config) { c.ClipboardSettleDelay = 0 },
			wantErr: false,
		},
		{
			name:        "invalid login URL scheme",
			mutate:      func(c *Config) { c.LoginURL = "ftp://ch2ch.or.kr/login.asp" },
			wantErr:     true,
			errorString: "invalid login URL scheme 'ftp': must be 'http' or 'https'",
		},
		{
			name:        "unparseable login URL",
			mutate:      func(c *Config) { c.LoginURL = "://nope" },
			wantErr:     true,
			errorString: "invalid login URL",
		},
		{
			name:        "empty category path",
			mutate:      func(c *Config) { c.CategoryPath = nil },
			wantErr:     true,
			errorString: "category path cannot be empty",
		},
		{
			name:        "missing browser binary",
			mutate:      func(c *Config) { c.ChromeBin = "/non/existent/chrome" },
			wantErr:     true,
			errorString: "browser binary does not exist: /non/existent/chrome",
		},
		{
			name:        "negative settle delay",
			mutate:      func(c *Config) { c.ClipboardSettleDelay = -time.Second },
			wantErr:     true,
			errorString: "invalid clipboard settle delay -1s",
		},
		{
			name:        "element timeout too short",
			mutate:      func(c *Config) { c.ElementTimeout = 10 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid element timeout 10ms: must be at least 100ms",
		},
		{
			name:        "popup timeout too long",
			mutate:      func(c *Config) { c.PopupTimeout = 3 * time.Minute },
			wantErr:     true,
			errorString: "invalid popup timeout 3m0s: must be at most 2 minutes",
		},
		{
			name:        "invalid protocol scheme",
			mutate:      func(c *Config) { c.ProtocolScheme = "Web Church" },
			wantErr:     true,
			errorString: "invalid protocol scheme 'Web Church'",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.LoginURL = "ftp://x"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Count(err.Error(), "\n- "); got != 2 {
		t.Errorf("expected 2 collected errors, got %d in %q", got, err.Error())
	}
}

func TestConfig_ValidateWithBrowserBinary(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "chrome")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("Failed to create fake browser binary: %v", err)
	}

	cfg := validConfig()
	cfg.ChromeBin = bin
	if err := cfg.Validate(); err != nil {
		t.Errorf("Config.Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, key := range []string{
			"WEBCHURCH_LOGIN_URL", "WEBCHURCH_USERNAME", "WEBCHURCH_CATEGORY_PATH",
			"BROWSER_HEADLESS", "BROWSER_KEEP_OPEN", "CLIPBOARD_SETTLE_DELAY",
			"PROTOCOL_SCHEME", "LOG_LEVEL",
		} {
			t.Setenv(key, "")
		}

		cfg := Load()

		if cfg.LoginURL != DefaultLoginURL {
			t.Errorf("Load() LoginURL = %v, want %v", cfg.LoginURL, DefaultLoginURL)
		}
		if cfg.Username != "" {
			t.Errorf("Load() Username = %v, want empty", cfg.Username)
		}
		if !reflect.DeepEqual(cfg.CategoryPath, DefaultCategoryPath) {
			t.Errorf("Load() CategoryPath = %v, want %v", cfg.CategoryPath, DefaultCategoryPath)
		}
		if cfg.Headless {
			t.Errorf("Load() Headless = true, want false")
		}
		if !cfg.KeepOpen {
			t.Errorf("Load() KeepOpen = false, want true")
		}
		if cfg.ClipboardSettleDelay != time.Second {
			t.Errorf("Load() ClipboardSettleDelay = %v, want 1s", cfg.ClipboardSettleDelay)
		}
		if cfg.ProtocolScheme != DefaultScheme {
			t.Errorf("Load() ProtocolScheme = %v, want %v", cfg.ProtocolScheme, DefaultScheme)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("WEBCHURCH_USERNAME", "treasurer")
		t.Setenv("WEBCHURCH_PASSWORD", "secret")
		t.Setenv("WEBCHURCH_CATEGORY_PATH", " 교육위원회 , ,유년부")
		t.Setenv("BROWSER_HEADLESS", "true")
		t.Setenv("TREE_TIMEOUT", "750ms")

		cfg := Load()

		if cfg.Username != "treasurer" || cfg.Password != "secret" {
			t.Errorf("Load() credentials = %q/%q", cfg.Username, cfg.Password)
		}
		want := []string{"교육위원회", "유년부"}
		if !reflect.DeepEqual(cfg.CategoryPath, want) {
			t.Errorf("Load() CategoryPath = %v, want %v", cfg.CategoryPath, want)
		}
		if !cfg.Headless {
			t.Errorf("Load() Headless = false, want true")
		}
		if cfg.TreeTimeout != 750*time.Millisecond {
			t.Errorf("Load() TreeTimeout = %v, want 750ms", cfg.TreeTimeout)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("BROWSER_HEADLESS", "maybe")
		t.Setenv("POPUP_TIMEOUT", "soon")

		cfg := Load()

		if cfg.Headless {
			t.Errorf("Load() Headless = true, want false (default for invalid input)")
		}
		if cfg.PopupTimeout != 5*time.Second {
			t.Errorf("Load() PopupTimeout = %v, want 5s (default for invalid input)", cfg.PopupTimeout)
		}
	})
}
