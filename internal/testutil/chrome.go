// Package testutil provides fakes and browser fixtures for tests.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/kylejwatson/playwright-harness/internal/chrome/launcher"
)

// ChromeInstance represents a running Chrome instance for testing.
type ChromeInstance struct {
	*launcher.Instance
}

// StartChrome starts a headless Chrome on a free port and stops it when t
// finishes. The test is skipped under -short, when HARNESS_SKIP_BROWSER is
// set, or when no Chrome binary can be found.
func StartChrome(t testing.TB) *ChromeInstance {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("HARNESS_SKIP_BROWSER") != "" {
		t.Skip("HARNESS_SKIP_BROWSER is set")
	}
	chromePath := launcher.FindChrome(os.Getenv("HARNESS_CHROME"))
	if chromePath == "" {
		t.Skip("Chrome not found")
	}

	inst, err := launcher.Launch(context.Background(), launcher.LaunchOptions{
		ChromePath: chromePath,
		Headless:   true,
	})
	if err != nil {
		t.Fatalf("failed to start Chrome: %v", err)
	}
	t.Cleanup(func() { inst.Stop() })

	return &ChromeInstance{Instance: inst}
}
