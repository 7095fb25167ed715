package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	applog "webchurch/internal/log"
)

const (
	DefaultLoginURL = "https://ch2ch.or.kr/login.asp"
	DefaultScheme   = "webchurch"
)

// DefaultCategoryPath is the fixed part of the budget tree above the record's category.
var DefaultCategoryPath = []string{"다음세대사역위원회", "다음세대지원", "유치부"}

var schemePattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*$`)

type Config struct {
	// Target site
	LoginURL string
	Username string
	Password string

	// Identity fields written into every form
	WriterName string
	WriterTel  string

	CategoryPath []string

	// Browser
	ChromeBin string
	Headless  bool
	KeepOpen  bool

	// Waits
	ClipboardSettleDelay time.Duration
	ElementTimeout       time.Duration
	StepTimeout          time.Duration
	TreeTimeout          time.Duration
	PopupTimeout         time.Duration

	// Protocol registrar
	ProtocolScheme string
	BotExecutable  string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		LoginURL: getEnv("WEBCHURCH_LOGIN_URL", DefaultLoginURL),
		Username: getEnv("WEBCHURCH_USERNAME", ""),
		Password: getEnv("WEBCHURCH_PASSWORD", ""),

		WriterName: getEnv("WEBCHURCH_WRITER_NAME", ""),
		WriterTel:  getEnv("WEBCHURCH_WRITER_TEL", ""),

		CategoryPath: getEnvList("WEBCHURCH_CATEGORY_PATH", DefaultCategoryPath),

		ChromeBin: getEnv("CHROME_BIN", ""),
		Headless:  getEnvBool("BROWSER_HEADLESS", false),
		KeepOpen:  getEnvBool("BROWSER_KEEP_OPEN", true),

		ClipboardSettleDelay: getEnvDuration("CLIPBOARD_SETTLE_DELAY", time.Second),
		ElementTimeout:       getEnvDuration("ELEMENT_TIMEOUT", 10*time.Second),
		StepTimeout:          getEnvDuration("STEP_TIMEOUT", 5*time.Second),
		TreeTimeout:          getEnvDuration("TREE_TIMEOUT", 2*time.Second),
		PopupTimeout:         getEnvDuration("POPUP_TIMEOUT", 5*time.Second),

		ProtocolScheme: getEnv("PROTOCOL_SCHEME", DefaultScheme),
		BotExecutable:  getEnv("BOT_EXECUTABLE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if parsed, err := url.Parse(c.LoginURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid login URL '%s': %v", c.LoginURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid login URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if len(c.CategoryPath) == 0 {
		errors = append(errors, "category path cannot be empty")
	}

	if c.ChromeBin != "" {
		if _, err := os.Stat(c.ChromeBin); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("browser binary does not exist: %s", c.ChromeBin))
		}
	}

	if c.ClipboardSettleDelay < 0 || c.ClipboardSettleDelay > 30*time.Second {
		errors = append(errors, fmt.Sprintf("invalid clipboard settle delay %v: must be between 0 and 30s", c.ClipboardSettleDelay))
	}

	waits := []struct {
		name  string
		value time.Duration
	}{
		{"element timeout", c.ElementTimeout},
		{"step timeout", c.StepTimeout},
		{"tree timeout", c.TreeTimeout},
		{"popup timeout", c.PopupTimeout},
	}
	for _, w := range waits {
		if w.value < 100*time.Millisecond {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at least 100ms", w.name, w.value))
		} else if w.value > 2*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at most 2 minutes", w.name, w.value))
		}
	}

	if !schemePattern.MatchString(c.ProtocolScheme) {
		errors = append(errors, fmt.Sprintf("invalid protocol scheme '%s': must match %s", c.ProtocolScheme, schemePattern))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blank items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
