// Command webchurch-bot fills the web church expense resolution form from
// the expense record on the clipboard. Run it without arguments for
// interactive mode; when started through the webchurch:// protocol the URL
// argument switches it to auto-run.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"webchurch/internal/browser/chrome"
	"webchurch/internal/cli"
	"webchurch/internal/clipboard/system"
	"webchurch/internal/config"
	applog "webchurch/internal/log"
	"webchurch/internal/services"
	"webchurch/internal/webform"
)

const (
	Version = "0.1.0"
	appName = "webchurch-bot"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errLogged) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// errLogged marks failures the run has already reported.
var errLogged = errors.New("run failed")

func rootCmd() *cobra.Command {
	var (
		logLevel string
		headless bool
	)

	cmd := &cobra.Command{
		Use:   appName + " [webchurch://...]",
		Short: "Fill the web church expense form from the clipboard",
		Long: `webchurch-bot reads an expense record copied by the budgeting app,
logs into the web church site and fills the expense resolution form.
It never saves the form: check the values and click Save yourself.

With any argument (as passed by the webchurch:// protocol handler) it
starts immediately instead of waiting for Enter.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, len(args) > 0, logLevel, headless)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window; overrides BROWSER_HEADLESS")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func run(cmd *cobra.Command, autoRun bool, logLevel string, headless bool) error {
	cli.LoadEnvFile()

	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	logger := cli.SetupLogger(level, applog.ComponentBot)
	cfg := cli.LoadAndValidateConfig(logger, func(c *config.Config) {
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		if cmd.Flags().Changed("headless") {
			c.Headless = headless
		}
	})

	logger.Debug("Web church expense bot", "version", Version, applog.FieldAutoRun, autoRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	launch := chrome.Launcher(chrome.Options{
		Bin:      cfg.ChromeBin,
		Headless: cfg.Headless,
		KeepOpen: cfg.KeepOpen,
	}, logger)

	runner := services.NewRunner(services.RunnerConfig{
		Form: webform.Settings{
			LoginURL:     cfg.LoginURL,
			Username:     cfg.Username,
			Password:     cfg.Password,
			WriterName:   cfg.WriterName,
			WriterTel:    cfg.WriterTel,
			CategoryPath: cfg.CategoryPath,
			Timeouts: webform.Timeouts{
				Element: cfg.ElementTimeout,
				Step:    cfg.StepTimeout,
				Tree:    cfg.TreeTimeout,
				Popup:   cfg.PopupTimeout,
				Probe:   webform.DefaultProbe,
			},
		},
		SettleDelay: cfg.ClipboardSettleDelay,
	}, system.New(), launch, cli.NewConsole(), os.Stdout, logger)

	_, err := runner.Run(ctx, autoRun)
	switch {
	case err == nil:
		logger.Info("Bot finished")
		return nil
	case errors.Is(err, context.Canceled):
		logger.Warn("Interrupted")
	case errors.Is(err, services.ErrClipboard), errors.Is(err, services.ErrLaunch):
		// Already reported by the runner.
	default:
		logger.Error("Bot failed", applog.FieldError, err)
	}
	return fmt.Errorf("%w: %w", errLogged, err)
}
