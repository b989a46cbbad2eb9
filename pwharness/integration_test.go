package pwharness_test

import (
	"context"
	"os"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harness/harnesstest"
	"github.com/kylejwatson/playwright-harness/pwharness"
)

// TestConformance needs the Playwright driver and browsers, installed with
// `go run github.com/playwright-community/playwright-go/cmd/playwright install chromium`.
func TestConformance(t *testing.T) {
	if testing.Short() || os.Getenv("HARNESS_SKIP_BROWSER") != "" {
		t.Skip("browser tests disabled")
	}
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		t.Skipf("playwright not available: %v", err)
	}
	t.Cleanup(func() { pw.Stop() })

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		t.Skipf("chromium not available: %v", err)
	}
	t.Cleanup(func() { browser.Close() })

	harnesstest.Run(t, func(t *testing.T) harness.Loader {
		page, err := browser.NewPage()
		require.NoError(t, err)
		t.Cleanup(func() { page.Close() })

		require.NoError(t, page.SetContent(harnesstest.Page))

		env, err := pwharness.Loader(context.Background(), page, pwharness.WithLogger(quietLogger()))
		require.NoError(t, err)
		return env
	})
}
