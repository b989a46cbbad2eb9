// Package launcher finds, starts and stops a Chrome process with remote
// debugging enabled. Integration tests use it to get a browser that every
// harness backend can attach to on a known port.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

// ErrNotFound is returned by Launch when no Chrome binary can be located.
var ErrNotFound = errors.New("chrome not found")

// DefaultStartTimeout bounds how long Launch waits for the debugging port.
const DefaultStartTimeout = 30 * time.Second

// LaunchOptions configures Launch.
type LaunchOptions struct {
	ChromePath   string        // binary; searched for when empty
	Port         int           // debugging port; a free one when 0
	Headless     bool          // run without a window
	DataDir      string        // profile dir; a temp dir owned by the Instance when empty
	Args         []string      // extra flags, appended after the defaults
	StartTimeout time.Duration // DefaultStartTimeout when 0
	Runner       CommandRunner // helper-process cleanup; os/exec when nil
}

// Instance is a running Chrome.
type Instance struct {
	cmd      *exec.Cmd
	runner   CommandRunner
	Port     int
	PID      int
	DataDir  string
	ownsData bool
}

// CommandRunner runs a command to completion. Tests replace it to observe
// the cleanup Stop performs.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner runs commands through os/exec.
type DefaultCommandRunner struct{}

func (DefaultCommandRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

var (
	binaryNames = []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"}

	installPaths = map[string][]string{
		"darwin": {
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		},
		"linux": {
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		},
		"windows": {
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		},
	}
)

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FindChrome returns chromePath when it is set and exists, "" when it is set
// and missing, and otherwise the first Chrome found on PATH or in the usual
// install locations.
func FindChrome(chromePath string) string {
	if chromePath != "" {
		if exists(chromePath) {
			return chromePath
		}
		return ""
	}
	for _, name := range binaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, p := range installPaths[runtime.GOOS] {
		if exists(p) {
			return p
		}
	}
	return ""
}

// FreePort asks the kernel for an unused TCP port on localhost.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func addr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// IsPortOpen reports whether host:port accepts TCP connections.
func IsPortOpen(host string, port int) bool {
	conn, err := net.DialTimeout("tcp", addr(host, port), 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WaitForPort polls host:port until it accepts connections or ctx ends.
func WaitForPort(ctx context.Context, host string, port int) error {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for !IsPortOpen(host, port) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", addr(host, port), ctx.Err())
		case <-tick.C:
		}
	}
	return nil
}

// defaultFlags keep a test browser quiet and deterministic.
var defaultFlags = []string{
	"--disable-gpu",
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-extensions",
	"--disable-background-networking",
	"--disable-sync",
	"--disable-translate",
	"--mute-audio",
	"--no-first-run",
	"--disable-default-apps",
}

// args returns the command line Launch starts Chrome with.
func (opts LaunchOptions) args(dataDir string) []string {
	var args []string
	if opts.Headless {
		args = append(args, "--headless")
	}
	args = append(args, defaultFlags...)
	args = append(args,
		"--remote-debugging-port="+strconv.Itoa(opts.Port),
		"--user-data-dir="+dataDir,
	)
	args = append(args, opts.Args...)
	return append(args, "about:blank")
}

// Launch starts Chrome and waits until its debugging port is open.
func Launch(ctx context.Context, opts LaunchOptions) (*Instance, error) {
	chromePath := FindChrome(opts.ChromePath)
	if chromePath == "" {
		return nil, ErrNotFound
	}
	if opts.Port == 0 {
		port, err := FreePort()
		if err != nil {
			return nil, fmt.Errorf("picking debugging port: %w", err)
		}
		opts.Port = port
	}
	if opts.Runner == nil {
		opts.Runner = DefaultCommandRunner{}
	}
	if opts.StartTimeout == 0 {
		opts.StartTimeout = DefaultStartTimeout
	}

	inst := &Instance{runner: opts.Runner, Port: opts.Port, DataDir: opts.DataDir}
	if inst.DataDir == "" {
		dir, err := os.MkdirTemp("", "harness-chrome-*")
		if err != nil {
			return nil, fmt.Errorf("creating profile dir: %w", err)
		}
		inst.DataDir, inst.ownsData = dir, true
	}

	inst.cmd = exec.Command(chromePath, opts.args(inst.DataDir)...)
	if err := inst.cmd.Start(); err != nil {
		inst.cmd = nil
		inst.Stop()
		return nil, fmt.Errorf("starting %s: %w", chromePath, err)
	}
	inst.PID = inst.cmd.Process.Pid

	waitCtx, cancel := context.WithTimeout(ctx, opts.StartTimeout)
	defer cancel()
	if err := WaitForPort(waitCtx, "localhost", opts.Port); err != nil {
		inst.Stop()
		return nil, fmt.Errorf("chrome did not open its debugging port: %w", err)
	}
	return inst, nil
}

// Stop kills Chrome and its helper processes, then removes the profile dir
// when Launch created it.
func (inst *Instance) Stop() error {
	if inst.cmd != nil && inst.cmd.Process != nil {
		inst.cmd.Process.Kill()
		inst.cmd.Wait()
		inst.cmd = nil
	}
	// Renderer and GPU helpers outlive the browser process; they all carry
	// the data dir on their command line.
	if inst.runner != nil && inst.DataDir != "" {
		inst.runner.Run("pkill", "-9", "-f", inst.DataDir)
	}
	if inst.ownsData && inst.DataDir != "" {
		time.Sleep(100 * time.Millisecond)
		os.RemoveAll(inst.DataDir)
		inst.DataDir = ""
	}
	return nil
}
