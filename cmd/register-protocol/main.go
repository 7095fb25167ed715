// Command register-protocol registers the webchurch:// URL scheme for the
// current user so the budgeting app can start webchurch-bot with one click.
// It always exits with status 0; problems are logged.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"webchurch/internal/cli"
	"webchurch/internal/config"
	applog "webchurch/internal/log"
	"webchurch/internal/protocol"
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
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func rootCmd() *cobra.Command {
	var (
		scheme string
		exe    string
		noWait bool
	)

	cmd := &cobra.Command{
		Use:   "register-protocol",
		Short: "Register the webchurch:// URL protocol for the current user",
		Long: `register-protocol points the webchurch:// URL scheme at webchurch-bot.
On Windows it writes HKEY_CURRENT_USER\Software\Classes\<scheme>; on
Linux it installs a desktop entry handling x-scheme-handler/<scheme>.
No administrator rights are needed. Running it again is harmless.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			run(scheme, exe, noWait)
		},
	}

	cmd.Flags().StringVar(&scheme, "scheme", "", "URL scheme to register (default PROTOCOL_SCHEME or webchurch)")
	cmd.Flags().StringVar(&exe, "exe", "", "Path of webchurch-bot (default BOT_EXECUTABLE or next to this program)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Exit without waiting for Enter")

	return cmd
}

func run(scheme, exe string, noWait bool) {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentProtocol)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var prompt cli.Prompter = cli.NewConsole()
	if noWait {
		prompt = cli.NoPrompt{}
	}
	defer func() { _ = prompt.Pause(ctx, "Press Enter to exit...") }()

	cfg := config.Load()
	if scheme == "" {
		scheme = cfg.ProtocolScheme
	}
	if exe == "" {
		exe = cfg.BotExecutable
	}
	if exe == "" {
		found, err := protocol.DefaultExecutable()
		if err != nil {
			logger.Error("Cannot determine the bot executable, pass --exe", applog.FieldError, err)
			return
		}
		exe = found
	}

	reg := protocol.Registration{Scheme: scheme, Executable: exe}
	where, err := protocol.Register(reg, protocol.NewSystemRegistrar(), logger)
	if err != nil {
		return
	}

	fmt.Printf("\nRegistered %s:// at %s\n", reg.Scheme, where)
	fmt.Printf("Handler: %s\n", reg.Command())
	fmt.Println("The 'Web Church Send' button in the budget app now starts the bot.")
	fmt.Println("If you move webchurch-bot, run this program again.")
}
