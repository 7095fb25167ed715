// Package cli provides common CLI initialization utilities shared by
// cmd/webchurch-bot and cmd/register-protocol.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"webchurch/internal/config"
	applog "webchurch/internal/log"
)

// SetupLogger initializes structured logging at the given level.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string, component string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: component,
		Output:    os.Stdout,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, applies command line
// overrides and validates the result.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger, overrides ...func(*config.Config)) *config.Config {
	cfg := config.Load()
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Prompter shows a message to the operator and blocks until Enter is
// pressed or ctx is done, in which case it returns ctx.Err().
type Prompter interface {
	Pause(ctx context.Context, msg string) error
}

// Console is a Prompter reading lines from In and writing to Out.
type Console struct {
	In  io.Reader
	Out io.Writer

	once  sync.Once
	lines chan struct{}
}

// NewConsole returns a Console bound to stdin/stdout.
func NewConsole() *Console {
	return &Console{In: os.Stdin, Out: os.Stdout}
}

// Pause prints msg and waits for a line. EOF counts as acknowledgment.
func (c *Console) Pause(ctx context.Context, msg string) error {
	if msg != "" {
		fmt.Fprintln(c.Out, msg)
	}
	c.once.Do(c.startReader)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.lines:
		return nil
	}
}

// startReader reads In on a single goroutine so a cancelled Pause does not
// leave a competing reader behind. lines is closed at EOF.
func (c *Console) startReader() {
	c.lines = make(chan struct{})
	go func() {
		r := bufio.NewReader(c.In)
		for {
			if _, err := r.ReadString('\n'); err != nil {
				close(c.lines)
				return
			}
			c.lines <- struct{}{}
		}
	}()
}

// NoPrompt acknowledges immediately. Used with --no-wait and in tests.
type NoPrompt struct{}

func (NoPrompt) Pause(ctx context.Context, _ string) error { return ctx.Err() }
