package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"webchurch/internal/config"
	applog "webchurch/internal/log"
)

func TestConsolePause(t *testing.T) {
	var out bytes.Buffer
	c := &Console{In: strings.NewReader("\n\n"), Out: &out}
	ctx := context.Background()

	if err := c.Pause(ctx, "Press Enter to continue..."); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if err := c.Pause(ctx, ""); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	if got := out.String(); got != "Press Enter to continue...\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConsolePauseAtEOF(t *testing.T) {
	var out bytes.Buffer
	c := &Console{In: strings.NewReader(""), Out: &out}

	// Must return instead of blocking when stdin is closed, every time.
	for i := 0; i < 2; i++ {
		if err := c.Pause(context.Background(), "Press Enter to exit..."); err != nil {
			t.Fatalf("Pause() error = %v", err)
		}
	}

	if !strings.Contains(out.String(), "Press Enter to exit") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestConsolePauseCancelled(t *testing.T) {
	in, w := io.Pipe()
	defer w.Close()
	c := &Console{In: in, Out: io.Discard}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Pause(ctx, "Press Enter when ready...") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Pause() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pause did not return after cancellation")
	}

	// A line typed later still acknowledges the next prompt.
	go func() { _, _ = w.Write([]byte("\n")) }()
	if err := c.Pause(context.Background(), ""); err != nil {
		t.Fatalf("Pause() after cancel error = %v", err)
	}
}

func TestNoPrompt(t *testing.T) {
	if err := (NoPrompt{}).Pause(context.Background(), "ignored"); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (NoPrompt{}).Pause(ctx, "ignored"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Pause() error = %v, want context.Canceled", err)
	}
}

func TestLoadAndValidateConfigAppliesOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("BROWSER_HEADLESS", "false")

	cfg := LoadAndValidateConfig(applog.Discard(), func(c *config.Config) {
		c.LogLevel = "debug"
		c.Headless = true
	})

	if cfg.LogLevel != "debug" || !cfg.Headless {
		t.Fatalf("overrides not applied: level=%q headless=%v", cfg.LogLevel, cfg.Headless)
	}
}
