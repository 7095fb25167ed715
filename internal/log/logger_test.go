package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{" warning ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentBot, Output: &buf})

	logger.WithComponent(ComponentForm).With(FieldRunID, "r-1").Info("Step done", FieldStep, "subject")

	out := buf.String()
	for _, want := range []string{"component=form", "run_id=r-1", "step=subject", `msg="Step done"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithRunID("r-1").
		WithOperation(OpFill).
		WithStep("sday", "skipped", "field not found").
		WithError(errors.New("timeout")).
		WithError(nil).
		ToSlice()

	got := map[string]any{}
	for i := 0; i+1 < len(fields); i += 2 {
		got[fields[i].(string)] = fields[i+1]
	}
	if got[FieldRunID] != "r-1" || got[FieldStep] != "sday" || got[FieldStatus] != "skipped" || got[FieldOperation] != OpFill {
		t.Errorf("unexpected fields %v", got)
	}
	if got[FieldError] != "timeout" {
		t.Errorf("error field = %v", got[FieldError])
	}
}
