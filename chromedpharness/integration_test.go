package chromedpharness_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylejwatson/playwright-harness/chromedpharness"
	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harness/harnesstest"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/testutil"
)

func quietLogger() *harnesslog.Logger {
	l := harnesslog.NewNullLogger()
	l.Log.SetLevel(logrus.WarnLevel)
	return l
}

func TestLoader_NoTarget(t *testing.T) {
	_, err := chromedpharness.Loader(context.Background())
	assert.ErrorIs(t, err, chromedpharness.ErrNoTarget)
}

func TestConformance(t *testing.T) {
	chrome := testutil.StartChrome(t)

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), fmt.Sprintf("ws://localhost:%d", chrome.Port))
	t.Cleanup(cancelAlloc)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	t.Cleanup(cancelBrowser)
	require.NoError(t, chromedp.Run(browserCtx))

	harnesstest.Run(t, func(t *testing.T) harness.Loader {
		tabCtx, cancelTab := chromedp.NewContext(browserCtx)
		t.Cleanup(cancelTab)
		require.NoError(t, chromedp.Run(tabCtx))

		ctx, cancel := context.WithTimeout(tabCtx, 30*time.Second)
		defer cancel()
		require.NoError(t, chromedp.Run(ctx, chromedp.Navigate(harnesstest.DataURL())))

		env, err := chromedpharness.Loader(ctx, chromedpharness.WithLogger(quietLogger()))
		require.NoError(t, err)
		return env
	})
}
