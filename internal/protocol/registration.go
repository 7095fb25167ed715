// Package protocol registers the custom URL scheme that lets the budgeting
// app start the bot with a single link click.
package protocol

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	applog "webchurch/internal/log"
)

// BotName is the base name of the form automation executable.
const BotName = "webchurch-bot"

var (
	ErrInvalidScheme = errors.New("invalid URL scheme")
	// ErrUnsupported is returned where no handler store exists for the OS.
	ErrUnsupported = errors.New("protocol registration not supported on this platform")
)

var schemePattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*$`)

// Registration binds a URL scheme to the executable that handles it.
type Registration struct {
	Scheme     string
	Executable string
}

// Entry is one named string value under a registry key. An empty Name is
// the key's default value.
type Entry struct {
	Key   string
	Name  string
	Value string
}

// Store writes string values under per-user registry keys, creating keys
// as needed.
type Store interface {
	SetString(key, name, value string) error
}

// Registrar persists a Registration and returns where it was written.
type Registrar interface {
	Register(reg Registration) (string, error)
}

// DefaultExecutable returns the bot executable expected next to the
// running program.
func DefaultExecutable() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate running executable: %w", err)
	}
	name := BotName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(self), name), nil
}

func (r Registration) Validate() error {
	if !schemePattern.MatchString(r.Scheme) {
		return fmt.Errorf("%w: %q", ErrInvalidScheme, r.Scheme)
	}
	if r.Executable == "" {
		return errors.New("executable path is empty")
	}
	return nil
}

// Command is the handler command line. The OS substitutes %1 with the
// invoked URL.
func (r Registration) Command() string {
	return fmt.Sprintf(`"%s" "%%1"`, r.Executable)
}

// Key is the scheme's key relative to HKEY_CURRENT_USER.
func (r Registration) Key() string {
	return `Software\Classes\` + r.Scheme
}

// Entries lists the values that make up the registration.
func (r Registration) Entries() []Entry {
	key := r.Key()
	return []Entry{
		{Key: key, Name: "", Value: "URL:" + r.Scheme + " Protocol"},
		{Key: key, Name: "URL Protocol", Value: ""},
		{Key: key + `\shell\open\command`, Name: "", Value: r.Command()},
	}
}

// Apply writes every entry of reg to store. Writing the same registration
// twice leaves the store unchanged.
func Apply(store Store, reg Registration) error {
	for _, e := range reg.Entries() {
		if err := store.SetString(e.Key, e.Name, e.Value); err != nil {
			return fmt.Errorf("set %s\\%s: %w", e.Key, valueLabel(e.Name), err)
		}
	}
	return nil
}

func valueLabel(name string) string {
	if name == "" {
		return "(Default)"
	}
	return name
}

// StoreRegistrar registers through a Store.
type StoreRegistrar struct {
	Store Store
	// Root names the hive the store writes under, for messages.
	Root string
}

func (s StoreRegistrar) Register(reg Registration) (string, error) {
	if err := Apply(s.Store, reg); err != nil {
		return "", err
	}
	return s.Root + `\` + reg.Key(), nil
}

// Register validates reg and hands it to registrar. A missing executable
// is only a warning: the bot may be installed after the scheme.
func Register(reg Registration, registrar Registrar, logger *applog.Logger) (string, error) {
	logger = logger.WithComponent(applog.ComponentProtocol).
		With(applog.FieldOperation, applog.OpRegister, applog.FieldScheme, reg.Scheme, applog.FieldExecutable, reg.Executable)

	if err := reg.Validate(); err != nil {
		logger.Error("Invalid protocol registration", applog.FieldError, err)
		return "", err
	}
	if _, err := os.Stat(reg.Executable); err != nil {
		logger.Warn("Bot executable not found, registering anyway", applog.FieldError, err)
	}

	where, err := registrar.Register(reg)
	if err != nil {
		logger.Error("Failed to register protocol", applog.FieldError, err)
		return "", err
	}
	logger.Info("Protocol registered", "location", where)
	return where, nil
}
