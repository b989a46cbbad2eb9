package cdpharness_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/kylejwatson/playwright-harness/cdpharness"
	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/chrome"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
	"github.com/kylejwatson/playwright-harness/internal/testutil"
)

// fakePage scripts a FakeBrowser as a tiny DOM: a tree of object ids, the
// answers of selector queries, and canned results for the other scripts.
type fakePage struct {
	fb *testutil.FakeBrowser

	mu      sync.Mutex
	queries map[string][]string    // objectID + "|" + selector -> matches
	results map[string]interface{} // script -> value
	errors  map[string]string      // script -> exception description
}

func newFakePage(t *testing.T) *fakePage {
	t.Helper()

	p := &fakePage{
		fb:      testutil.NewFakeBrowser(t),
		queries: make(map[string][]string),
		results: map[string]interface{}{
			domscript.Dimensions: map[string]float64{"top": 10, "left": 20, "width": 100, "height": 40},
			domscript.Describe:   "element",
		},
		errors: make(map[string]string),
	}
	p.fb.Handle("Runtime.evaluate", testutil.Reply(map[string]interface{}{
		"result": map[string]string{"type": "object", "objectId": "doc"},
	}))
	p.fb.Handle("Runtime.callFunctionOn", p.callFunctionOn)
	p.fb.Handle("Runtime.getProperties", p.getProperties)
	for _, m := range []string{"Runtime.releaseObject", "DOM.focus", "DOM.scrollIntoViewIfNeeded", "Input.dispatchMouseEvent", "Input.dispatchKeyEvent"} {
		p.fb.Handle(m, testutil.Reply(struct{}{}))
	}
	return p
}

func (p *fakePage) query(objectID, selector string, matches ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries[objectID+"|"+selector] = matches
}

func (p *fakePage) result(script string, v interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[script] = v
}

func (p *fakePage) throw(script, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors[script] = description
}

func argument(c testutil.Call) (interface{}, bool) {
	args, ok := c.Param("arguments").([]interface{})
	if !ok || len(args) == 0 {
		return nil, false
	}
	v, ok := args[0].(map[string]interface{})["value"]
	return v, ok
}

func (p *fakePage) callFunctionOn(c testutil.Call) (interface{}, error) {
	fn, _ := c.Param("functionDeclaration").(string)
	objectID, _ := c.Param("objectId").(string)

	p.mu.Lock()
	defer p.mu.Unlock()

	for script, desc := range p.errors {
		if strings.Contains(fn, script) {
			return map[string]interface{}{
				"result":           map[string]string{"type": "object"},
				"exceptionDetails": map[string]interface{}{"text": "Uncaught", "exception": map[string]string{"description": desc}},
			}, nil
		}
	}

	if strings.Contains(fn, domscript.QueryAll) {
		sel, _ := argument(c)
		key := objectID + "|" + sel.(string)
		return map[string]interface{}{
			"result": map[string]string{"type": "object", "subtype": "array", "objectId": "arr:" + key},
		}, nil
	}

	for script, v := range p.results {
		if strings.Contains(fn, script) {
			return map[string]interface{}{"result": map[string]interface{}{"type": "object", "value": v}}, nil
		}
	}
	return map[string]interface{}{"result": map[string]string{"type": "undefined"}}, nil
}

func (p *fakePage) getProperties(c testutil.Call) (interface{}, error) {
	id, _ := c.Param("objectId").(string)

	p.mu.Lock()
	matches := p.queries[strings.TrimPrefix(id, "arr:")]
	p.mu.Unlock()

	props := []map[string]interface{}{}
	for i, m := range matches {
		props = append(props, map[string]interface{}{
			"name":  strconv.Itoa(i),
			"value": map[string]string{"type": "object", "subtype": "node", "objectId": m},
		})
	}
	props = append(props, map[string]interface{}{
		"name":  "length",
		"value": map[string]interface{}{"type": "number", "value": len(matches)},
	})
	return map[string]interface{}{"result": props}, nil
}

// callsOn returns the function calls made with script against any object.
func (p *fakePage) callsOn(script string) []testutil.Call {
	var out []testutil.Call
	for _, c := range p.fb.CallsTo("Runtime.callFunctionOn") {
		if fn, _ := c.Param("functionDeclaration").(string); strings.Contains(fn, script) {
			out = append(out, c)
		}
	}
	return out
}

func quietLogger() *harnesslog.Logger {
	l := harnesslog.NewNullLogger()
	l.Log.SetLevel(logrus.WarnLevel)
	return l
}

// load connects to the fake page and returns its root environment. Calls made
// while loading are forgotten.
func (p *fakePage) load(t *testing.T, opts ...cdpharness.Option) *harness.Environment[*chrome.Element] {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := cdpharness.Connect(ctx, p.fb.Host, p.fb.Port)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	if len(opts) == 0 {
		opts = []cdpharness.Option{cdpharness.WithLogger(quietLogger())}
	}
	env, err := cdpharness.Loader(ctx, client, "T1", opts...)
	require.NoError(t, err)
	p.fb.Reset()
	return env
}

// element resolves selector from the document root.
func (p *fakePage) element(t *testing.T, env harness.Loader, selector, objectID string) harness.TestElement {
	t.Helper()

	p.query("doc", selector, objectID)
	el, err := env.LocatorFor(context.Background(), selector)
	require.NoError(t, err)
	p.fb.Reset()
	return el
}
