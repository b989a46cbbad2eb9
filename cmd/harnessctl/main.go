// Command harnessctl drives element operations against a running Chrome
// through one of the harness backends.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/kylejwatson/playwright-harness/cdpharness"
	"github.com/kylejwatson/playwright-harness/chromedpharness"
	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/chrome"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitError          = 1
	ExitConnFailed     = 2
	ExitTimeout        = 3
	ExitNotImplemented = 4
)

// Config is the resolved CLI configuration plus the process streams.
type Config struct {
	Port       int
	Host       string
	Timeout    time.Duration
	Output     string // json, ndjson, text
	Quiet      bool
	Target     string // target index or ID
	Backend    string // cdp, chromedp
	URL        string
	LogLevel   string
	ConfigFile string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// LookupEnv reads environment variables. Tests replace it.
	LookupEnv func(key string) (string, bool)
	// HomeDir is searched for .harnessctlrc after the working directory.
	HomeDir string
}

// DefaultConfig returns the built-in defaults wired to the real process.
// The config file, environment and flags are applied later.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Port:      9222,
		Host:      "localhost",
		Timeout:   10 * time.Second,
		Output:    "json",
		Backend:   "cdp",
		LogLevel:  "warn",
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
		HomeDir:   home,
	}
}

func main() {
	os.Exit(run(os.Args[1:], DefaultConfig()))
}

func run(args []string, cfg *Config) int {
	fs := pflag.NewFlagSet("harnessctl", pflag.ContinueOnError)
	fs.SetOutput(cfg.Stderr)
	fs.SetInterspersed(false)

	var fv Config
	fs.IntVar(&fv.Port, "port", cfg.Port, "Chrome debug port (env: HARNESSCTL_PORT)")
	fs.StringVar(&fv.Host, "host", cfg.Host, "Chrome debug host (env: HARNESSCTL_HOST)")
	fs.DurationVar(&fv.Timeout, "timeout", cfg.Timeout, "Command timeout (env: HARNESSCTL_TIMEOUT)")
	fs.StringVarP(&fv.Output, "output", "o", cfg.Output, "Output format: json, ndjson, text (env: HARNESSCTL_OUTPUT)")
	fs.BoolVarP(&fv.Quiet, "quiet", "q", cfg.Quiet, "Only log errors")
	fs.StringVar(&fv.Target, "target", cfg.Target, "Target page (index or ID)")
	fs.StringVar(&fv.Backend, "backend", cfg.Backend, "Harness backend: cdp, chromedp (env: HARNESSCTL_BACKEND)")
	fs.StringVar(&fv.URL, "url", cfg.URL, "Navigate the target to this URL first")
	fs.StringVar(&fv.LogLevel, "log-level", cfg.LogLevel, "Log level (env: HARNESSCTL_LOG_LEVEL)")
	fs.StringVar(&fv.ConfigFile, "config", "", "Config file (default: ./.harnessctlrc, then ~/.harnessctlrc)")

	fs.Usage = func() { printUsage(cfg, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitSuccess
		}
		return ExitError
	}

	// Config precedence: built-in defaults < config file < env vars < CLI flags
	if err := loadConfigFile(cfg, fv.ConfigFile); err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitError
	}
	if err := applyEnvVars(cfg); err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitError
	}
	reapplyExplicitFlags(cfg, &fv, fs)

	remaining := fs.Args()
	if len(remaining) < 1 {
		printUsage(cfg, fs)
		return ExitError
	}

	info, ok := commands[remaining[0]]
	if !ok {
		fmt.Fprintf(cfg.Stderr, "unknown command: %s\n", remaining[0])
		return ExitError
	}
	return info.Run(cfg, remaining[1:])
}

// reapplyExplicitFlags copies flag values that were set on the command line,
// since the config file and environment may have overwritten them.
func reapplyExplicitFlags(cfg *Config, fv *Config, fs *pflag.FlagSet) {
	if fs.Changed("port") {
		cfg.Port = fv.Port
	}
	if fs.Changed("host") {
		cfg.Host = fv.Host
	}
	if fs.Changed("timeout") {
		cfg.Timeout = fv.Timeout
	}
	if fs.Changed("output") {
		cfg.Output = fv.Output
	}
	if fs.Changed("quiet") {
		cfg.Quiet = fv.Quiet
	}
	if fs.Changed("target") {
		cfg.Target = fv.Target
	}
	if fs.Changed("backend") {
		cfg.Backend = fv.Backend
	}
	if fs.Changed("url") {
		cfg.URL = fv.URL
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = fv.LogLevel
	}
}

// newLogger builds the logger element operations report to. Lines go to
// stderr so they never mix with command output.
func newLogger(cfg *Config) (*harnesslog.Logger, error) {
	l := logrus.New()
	l.SetOutput(cfg.Stderr)
	log := harnesslog.New(l, nil)
	level := cfg.LogLevel
	if cfg.Quiet {
		level = "error"
	}
	if err := log.SetLevel(level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log, nil
}

// resolveTarget picks the page named by --target: the first page when unset,
// an index into Pages when numeric, and a target id otherwise.
func resolveTarget(ctx context.Context, client *chrome.Client, cfg *Config) (*chrome.TargetInfo, error) {
	pages, err := client.Pages(ctx)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages available")
	}

	if cfg.Target == "" {
		return &pages[0], nil
	}

	if idx, err := strconv.Atoi(cfg.Target); err == nil {
		if idx < 0 || idx >= len(pages) {
			return nil, fmt.Errorf("invalid target index: %d (have %d pages)", idx, len(pages))
		}
		return &pages[idx], nil
	}

	for i := range pages {
		if pages[i].ID == cfg.Target {
			return &pages[i], nil
		}
	}

	return nil, fmt.Errorf("invalid target: %s (not found)", cfg.Target)
}

// exitCode maps a command error onto the CLI exit codes and reports it.
func exitCode(ctx context.Context, cfg *Config, err error) int {
	switch {
	case errors.Is(err, harness.ErrNotImplemented):
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitNotImplemented
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(cfg.Stderr, "error: timeout")
		return ExitTimeout
	default:
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitError
	}
}

// withClient connects to the browser, runs fn under cfg.Timeout and prints
// its result.
func withClient(cfg *Config, fn func(ctx context.Context, client *chrome.Client, log *harnesslog.Logger) (interface{}, error)) int {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitError
	}

	client, err := cdpharness.Connect(ctx, cfg.Host, cfg.Port, chrome.WithLogger(log))
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitConnFailed
	}
	defer client.Close()

	result, err := fn(ctx, client, log)
	if err != nil {
		return exitCode(ctx, cfg, err)
	}
	return outputResult(cfg, result)
}

// withLoader connects, resolves the target page and hands fn the root
// loader of the configured backend.
func withLoader(cfg *Config, fn func(ctx context.Context, loader harness.Loader) (interface{}, error)) int {
	if cfg.Backend != "cdp" && cfg.Backend != "chromedp" {
		fmt.Fprintf(cfg.Stderr, "error: unknown backend: %s\n", cfg.Backend)
		return ExitError
	}
	return withClient(cfg, func(ctx context.Context, client *chrome.Client, log *harnesslog.Logger) (interface{}, error) {
		info, err := resolveTarget(ctx, client, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.URL != "" {
			res, err := client.NavigateAndWait(ctx, info.ID, cfg.URL)
			if err != nil {
				return nil, err
			}
			if res.ErrorText != "" {
				return nil, fmt.Errorf("navigating to %s: %s", cfg.URL, res.ErrorText)
			}
		}

		switch cfg.Backend {
		case "cdp":
			loader, err := cdpharness.Loader(ctx, client, info.ID, cdpharness.WithLogger(log))
			if err != nil {
				return nil, err
			}
			return fn(ctx, loader)
		default:
			tabCtx, release, err := chromedpharness.Attach(ctx, client.WebSocketURL(), target.ID(info.ID))
			if err != nil {
				return nil, err
			}
			defer release()

			loader, err := chromedpharness.Loader(tabCtx, chromedpharness.WithLogger(log))
			if err != nil {
				return nil, err
			}
			return fn(ctx, loader)
		}
	})
}
