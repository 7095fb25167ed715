package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"webchurch/internal/browser"
	"webchurch/internal/cli"
	"webchurch/internal/clipboard"
	"webchurch/internal/core"
	applog "webchurch/internal/log"
	"webchurch/internal/webform"
)

var (
	// ErrClipboard means no expense record could be read. No browser is
	// launched after it.
	ErrClipboard = errors.New("clipboard data unusable")
	// ErrLaunch means the browser could not be started.
	ErrLaunch = errors.New("browser launch failed")
)

const previewRunes = 50

// RunnerConfig holds what one run needs besides its collaborators.
type RunnerConfig struct {
	Form webform.Settings

	// SettleDelay is waited in auto-run mode before reading the clipboard,
	// giving the budgeting app time to finish writing it.
	SettleDelay time.Duration
}

// Runner performs one form-fill run: read the clipboard, launch the
// browser, drive the form, hand over to the operator and close.
type Runner struct {
	config  RunnerConfig
	clip    clipboard.Reader
	launch  browser.Launcher
	prompt  cli.Prompter
	out     io.Writer
	logger  *applog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	history []State
	started time.Time
	entered time.Time
}

func NewRunner(config RunnerConfig, clip clipboard.Reader, launch browser.Launcher, prompt cli.Prompter, out io.Writer, logger *applog.Logger) *Runner {
	return &Runner{
		config: config,
		clip:   clip,
		launch: launch,
		prompt: prompt,
		out:    out,
		logger: logger.WithComponent(applog.ComponentBot),
		sleep:  sleepContext,
	}
}

// WithSleep replaces the settle delay implementation.
func (r *Runner) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Runner {
	r.sleep = sleep
	return r
}

// History returns the states entered by the last run.
func (r *Runner) History() []State {
	return append([]State(nil), r.history...)
}

// enter records s and logs how long the previous state took.
func (r *Runner) enter(ctx context.Context, logger *applog.Logger, s State, degraded bool) {
	now := time.Now()
	r.history = append(r.history, s)
	logger.InfoContext(ctx, "State", applog.FieldState, string(s), "degraded", degraded,
		applog.FieldDuration, now.Sub(r.entered).Milliseconds())
	r.entered = now
}

// Run executes one run. autoRun is set when launched through the custom URL
// protocol. The error is non-nil only for fatal conditions (ErrClipboard,
// ErrLaunch) or cancellation; degraded steps are in the report.
func (r *Runner) Run(ctx context.Context, autoRun bool) (*webform.Report, error) {
	r.history = nil
	r.started = time.Now()
	r.entered = r.started
	report := &webform.Report{}
	logger := r.logger.With(applog.FieldRunID, uuid.NewString())
	logger.InfoContext(ctx, "Web church expense bot started", applog.FieldAutoRun, autoRun)

	r.enter(ctx, logger, StateAwaitingInput, false)
	rec, err := r.acquire(ctx, logger, autoRun)
	if err != nil {
		report.Add(webform.Fatal(webform.StepInput, "expense data could not be read from the clipboard", err))
		if ctx.Err() != nil {
			logger.WarnContext(ctx, "Interrupted while waiting for expense data")
			return report, ctx.Err()
		}
		logger.ErrorContext(ctx, "Error reading clipboard data, make sure you clicked the button in the budget app", applog.FieldError, err)
		if !autoRun {
			_ = r.prompt.Pause(ctx, "Press Enter to exit...")
		}
		return report, fmt.Errorf("%w: %w", ErrClipboard, err)
	}
	report.Add(webform.Succeeded(webform.StepInput, rec.Description))
	r.enter(ctx, logger, StateDataLoaded, false)

	logger.InfoContext(ctx, "Launching browser")
	b, page, err := r.start(ctx)
	if err != nil {
		report.Add(webform.Fatal(webform.StepLaunch, "browser could not be started, make sure Chrome is installed", err))
		fields := applog.NewFields().WithOperation(applog.OpLaunch).WithError(err)
		logger.ErrorContext(ctx, "Failed to launch browser", fields.ToSlice()...)
		_ = r.prompt.Pause(ctx, "Press Enter to exit...")
		return report, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	report.Add(webform.Succeeded(webform.StepLaunch, ""))
	r.enter(ctx, logger, StateBrowserLaunched, false)

	d := webform.NewDriver(b, page, r.config.Form, report, logger)

	res := d.Login(ctx)
	r.enter(ctx, logger, StateLoggedIn, !res.OK())

	res = d.OpenMenu(ctx)
	r.enter(ctx, logger, StateMenuNavigated, !res.OK())

	entry := d.OpenNewEntry(ctx)
	res = d.SwitchToPopup(ctx)
	r.enter(ctx, logger, StateFormWindowActive, !entry.OK() || !res.OK())

	res = d.FillFields(ctx, rec)
	r.enter(ctx, logger, StateFieldsPopulated, !res.OK())

	if err := ctx.Err(); err != nil {
		r.close(ctx, logger, b, report)
		return report, err
	}

	if err := r.handoff(ctx, logger, report); err != nil {
		r.close(ctx, logger, b, report)
		return report, err
	}
	r.close(ctx, logger, b, report)
	logger.InfoContext(ctx, "Run finished", applog.FieldDuration, time.Since(r.started).Milliseconds())
	return report, nil
}

// acquire reads and parses the expense record from the clipboard.
func (r *Runner) acquire(ctx context.Context, logger *applog.Logger, autoRun bool) (core.Record, error) {
	if autoRun {
		logger.InfoContext(ctx, "Started via web protocol, giving the clipboard a moment to settle", "delay", r.config.SettleDelay)
		if err := r.sleep(ctx, r.config.SettleDelay); err != nil {
			return core.Record{}, err
		}
	} else {
		if err := r.prompt.Pause(ctx, "1. Copy the expense data in the budget app (click 'Web Church Send').\n2. Press Enter here when ready..."); err != nil {
			return core.Record{}, err
		}
	}

	clipLogger := logger.WithComponent(applog.ComponentClipboard)
	text, err := r.clip.ReadAll(ctx)
	if err != nil {
		clipLogger.DebugContext(ctx, "Clipboard read failed", applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		return core.Record{}, err
	}
	clipLogger.DebugContext(ctx, "Clipboard content", "preview", preview(text))

	rec, warnings, err := core.ParseRecord([]byte(text))
	if err != nil {
		clipLogger.DebugContext(ctx, "Clipboard data rejected", applog.FieldOperation, applog.OpParse, applog.FieldError, err)
		return core.Record{}, err
	}
	for _, w := range warnings {
		clipLogger.WarnContext(ctx, "Unexpected field shape", applog.FieldReason, w)
	}
	if missing := rec.Missing(); len(missing) > 0 {
		clipLogger.WarnContext(ctx, "Fields missing, using empty values", "fields", missing)
	}
	fields := applog.NewFields().WithExpense(rec.Description, rec.DisplayAmount(), rec.Category)
	clipLogger.InfoContext(ctx, "Expense record loaded", fields.ToSlice()...)
	return rec, nil
}

func (r *Runner) start(ctx context.Context) (browser.Browser, browser.Page, error) {
	b, err := r.launch(ctx)
	if err != nil {
		return nil, nil, err
	}
	page, err := b.Open(ctx, "about:blank")
	if err != nil {
		_ = b.Close()
		return nil, nil, fmt.Errorf("open first tab: %w", err)
	}
	return b, page, nil
}

func (r *Runner) handoff(ctx context.Context, logger *applog.Logger, report *webform.Report) error {
	r.enter(ctx, logger, StateAwaitingHumanConfirmation, report.Degraded())
	fmt.Fprintln(r.out)
	report.Render(r.out)
	if report.Degraded() {
		fmt.Fprintln(r.out, "\nSome steps were skipped. Complete the form by hand where needed.")
	}
	report.Add(webform.Succeeded(webform.StepHandoff, ""))
	return r.prompt.Pause(ctx, "\n>> Automation complete. Please verify the form and click Save.\nPress Enter to close the browser and exit...")
}

func (r *Runner) close(ctx context.Context, logger *applog.Logger, b browser.Browser, report *webform.Report) {
	if err := b.Close(); err != nil {
		report.Add(webform.Skipped(webform.StepClose, "browser did not close", err))
		fields := applog.NewFields().WithOperation(applog.OpShutdown).WithError(err)
		logger.WarnContext(ctx, "Browser did not close cleanly", fields.ToSlice()...)
	} else {
		report.Add(webform.Succeeded(webform.StepClose, ""))
	}
	r.enter(ctx, logger, StateClosed, false)
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes]) + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
