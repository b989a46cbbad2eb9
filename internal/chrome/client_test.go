package chrome

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kylejwatson/playwright-harness/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func connectFake(t *testing.T) (*Client, *testutil.FakeBrowser) {
	t.Helper()

	fb := testutil.NewFakeBrowser(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, fb.Host, fb.Port)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, fb
}

func TestConnect_ResolvesWebSocketURL(t *testing.T) {
	client, fb := connectFake(t)
	assert.Equal(t, fb.WSURL(), client.WebSocketURL())
}

func TestConnect_NoBrowser(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, "127.0.0.1", 1)
	assert.Error(t, err)
}

func TestClient_Version(t *testing.T) {
	client, fb := connectFake(t)
	fb.Handle("Browser.getVersion", testutil.Reply(map[string]string{
		"product":         "HeadlessChrome/120.0",
		"protocolVersion": "1.3",
		"jsVersion":       "12.0",
	}))

	v, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HeadlessChrome/120.0", v.Browser)
	assert.Equal(t, "1.3", v.ProtocolVersion)
	assert.Equal(t, "12.0", v.V8Version)
}

func TestClient_ProtocolError(t *testing.T) {
	client, fb := connectFake(t)
	fb.Handle("DOM.focus", testutil.Fail(-32000, "Element is not focusable"))

	_, err := client.CallSession(context.Background(), "S1", "DOM.focus", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocolError))

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, -32000, perr.Code)
	assert.Equal(t, "Element is not focusable", perr.Message)
}

func TestClient_SessionCached(t *testing.T) {
	client, fb := connectFake(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.RawCallSession(ctx, "T1", "Runtime.enable", nil)
		require.NoError(t, err)
	}

	assert.Len(t, fb.CallsTo("Target.attachToTarget"), 1)
	for _, c := range fb.CallsTo("Runtime.enable") {
		assert.Equal(t, "S1", c.SessionID)
	}
}

func TestClient_CallSessionAddressesSession(t *testing.T) {
	client, fb := connectFake(t)

	_, err := client.CallSession(context.Background(), "S1", "Runtime.enable", nil)
	require.NoError(t, err)
	_, err = client.Call(context.Background(), "Runtime.enable", nil)
	require.NoError(t, err)

	calls := fb.CallsTo("Runtime.enable")
	require.Len(t, calls, 2)
	assert.Equal(t, "S1", calls[0].SessionID)
	assert.Empty(t, calls[1].SessionID)
}

func TestClient_ConnectionDropped(t *testing.T) {
	client, fb := connectFake(t)

	fb.DropConnections()
	require.Eventually(t, func() bool {
		_, err := client.Call(context.Background(), "Runtime.enable", nil)
		return errors.Is(err, ErrConnectionClosed)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_ContextCancelled(t *testing.T) {
	client, fb := connectFake(t)
	block := make(chan struct{})
	fb.Handle("Runtime.evaluate", func(testutil.Call) (interface{}, error) {
		<-block
		return nil, nil
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.CallSession(ctx, "S1", "Runtime.evaluate", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_NavigateAndWait(t *testing.T) {
	client, fb := connectFake(t)
	fb.Handle("Page.navigate", func(testutil.Call) (interface{}, error) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			fb.Emit("S1", "Page.loadEventFired", map[string]float64{"timestamp": 1})
		}()
		return map[string]string{"frameId": "F1", "loaderId": "L1"}, nil
	})

	res, err := client.NavigateAndWait(context.Background(), "T1", "http://example.test/")
	require.NoError(t, err)
	assert.Equal(t, "F1", res.FrameID)
	assert.Equal(t, "http://example.test/", res.URL)
	assert.Equal(t, []string{"Target.attachToTarget", "Page.enable", "Page.navigate"}, fb.Methods())
}

func TestClient_NavigateError(t *testing.T) {
	client, fb := connectFake(t)
	fb.Handle("Page.navigate", testutil.Reply(map[string]string{"frameId": "F1", "errorText": "net::ERR_NAME_NOT_RESOLVED"}))

	res, err := client.NavigateAndWait(context.Background(), "T1", "http://nowhere.invalid/")
	require.NoError(t, err)
	assert.Equal(t, "net::ERR_NAME_NOT_RESOLVED", res.ErrorText)
}

func TestClient_PagesAndTabs(t *testing.T) {
	client, fb := connectFake(t)
	ctx := context.Background()
	fb.Handle("Target.getTargets", testutil.Reply(map[string]interface{}{
		"targetInfos": []map[string]string{
			{"targetId": "T1", "type": "page", "title": "One", "url": "about:blank"},
			{"targetId": "W1", "type": "service_worker", "url": "sw.js"},
		},
	}))
	fb.Handle("Target.createTarget", testutil.Reply(map[string]string{"targetId": "T2"}))
	fb.Handle("Target.closeTarget", testutil.Reply(map[string]bool{"success": true}))

	pages, err := client.Pages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "T1", pages[0].ID)

	id, err := client.NewTab(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "T2", id)
	assert.Equal(t, "about:blank", fb.CallsTo("Target.createTarget")[0].Param("url"))

	require.NoError(t, client.CloseTab(ctx, "T2"))
}

func TestClient_Eval(t *testing.T) {
	client, fb := connectFake(t)
	fb.Handle("Runtime.evaluate", testutil.Reply(map[string]interface{}{
		"result": map[string]interface{}{"type": "number", "value": 42},
	}))

	var n int
	require.NoError(t, client.Eval(context.Background(), "T1", "6*7", &n))
	assert.Equal(t, 42, n)

	call := fb.CallsTo("Runtime.evaluate")[0]
	assert.Equal(t, true, call.Param("awaitPromise"))
	assert.Equal(t, true, call.Param("returnByValue"))
}

func TestClient_EvalException(t *testing.T) {
	client, fb := connectFake(t)
	fb.Handle("Runtime.evaluate", testutil.Reply(map[string]interface{}{
		"result": map[string]interface{}{"type": "object"},
		"exceptionDetails": map[string]interface{}{
			"text":      "Uncaught",
			"exception": map[string]string{"description": "ReferenceError: nope is not defined"},
		},
	}))

	err := client.Eval(context.Background(), "T1", "nope", nil)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "JS exception: ReferenceError: nope is not defined", err.Error())
}

func TestClient_RawCallSession(t *testing.T) {
	client, fb := connectFake(t)
	fb.Handle("Page.reload", testutil.Reply(struct{}{}))

	_, err := client.RawCallSession(context.Background(), "T1", "Page.reload", []byte(`{"ignoreCache":true}`))
	require.NoError(t, err)
	assert.Equal(t, true, fb.CallsTo("Page.reload")[0].Param("ignoreCache"))

	_, err = client.RawCallSession(context.Background(), "T1", "Page.reload", []byte(`{`))
	assert.Error(t, err)
}
