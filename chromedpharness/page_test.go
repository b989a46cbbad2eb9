package chromedpharness_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/require"

	"github.com/kylejwatson/playwright-harness/chromedpharness"
	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
	"github.com/kylejwatson/playwright-harness/internal/testutil"
)

// Node ids of the fake document.
const (
	nodeHTML    = 2
	nodeLi1     = 5
	nodeLi2     = 6
	nodeDt      = 8
	nodeSelect  = 9
	nodeOpt0    = 10
	nodeOpt1    = 11
	nodeOpt2    = 12
	nodeInput   = 13
	nodeSection = 14
	nodeButton  = 15
)

func fakeDocument() *testutil.DOMNode {
	el := testutil.Element
	return testutil.Document(1, "T1",
		el(nodeHTML, "html",
			el(3, "body",
				el(4, "ul", el(nodeLi1, "li"), el(nodeLi2, "li")),
				el(7, "dl", el(nodeDt, "dt")),
				el(nodeSelect, "select", el(nodeOpt0, "option"), el(nodeOpt1, "option"), el(nodeOpt2, "option")),
				el(nodeInput, "input"),
				el(nodeSection, "section", el(nodeButton, "button")),
			),
		),
	)
}

// fakeTab scripts a FakeBrowser as one page chromedp can attach to. Selector
// queries are answered per scope node and other scripts from results.
type fakeTab struct {
	fb *testutil.FakeBrowser

	mu      sync.Mutex
	queries map[string][]int64     // scope node id + "|" + selector -> matches
	results map[string]interface{} // script -> value
}

func newFakeTab(t *testing.T) *fakeTab {
	t.Helper()

	p := &fakeTab{
		fb:      testutil.NewFakeBrowser(t),
		queries: make(map[string][]int64),
		results: map[string]interface{}{
			domscript.Dimensions: map[string]float64{"top": 10, "left": 20, "width": 100, "height": 40},
		},
	}
	p.fb.ServePage("T1", fakeDocument())
	p.fb.Handle("DOM.querySelector", func(c testutil.Call) (interface{}, error) {
		var id int64
		if c.Param("selector") == ":root" {
			id = nodeHTML
		}
		return map[string]int64{"nodeId": id}, nil
	})
	p.fb.Handle("DOM.querySelectorAll", p.querySelectorAll)
	p.fb.Handle("DOM.resolveNode", func(c testutil.Call) (interface{}, error) {
		return map[string]interface{}{
			"object": map[string]string{"type": "object", "subtype": "node", "objectId": objectID(c.Param("nodeId"))},
		}, nil
	})
	p.fb.Handle("Runtime.callFunctionOn", p.callFunctionOn)
	for _, m := range []string{"DOM.focus", "DOM.scrollIntoViewIfNeeded", "Input.dispatchMouseEvent", "Input.dispatchKeyEvent"} {
		p.fb.Handle(m, testutil.Reply(struct{}{}))
	}
	return p
}

func objectID(nodeID interface{}) string {
	return fmt.Sprintf("node:%v", nodeID)
}

func (p *fakeTab) query(scope int64, selector string, matches ...int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries[fmt.Sprintf("%d|%s", scope, selector)] = matches
}

func (p *fakeTab) querySelectorAll(c testutil.Call) (interface{}, error) {
	scope, _ := c.Param("nodeId").(float64)
	selector, _ := c.Param("selector").(string)
	p.mu.Lock()
	ids := p.queries[fmt.Sprintf("%d|%s", int64(scope), selector)]
	p.mu.Unlock()
	if ids == nil {
		ids = []int64{}
	}
	return map[string][]int64{"nodeIds": ids}, nil
}

func (p *fakeTab) callFunctionOn(c testutil.Call) (interface{}, error) {
	fn, _ := c.Param("functionDeclaration").(string)
	p.mu.Lock()
	defer p.mu.Unlock()
	for script, v := range p.results {
		if strings.Contains(fn, script) {
			return map[string]interface{}{"result": map[string]interface{}{"type": "object", "value": v}}, nil
		}
	}
	return map[string]interface{}{"result": map[string]string{"type": "undefined"}}, nil
}

func (p *fakeTab) callsOn(script string) []testutil.Call {
	var out []testutil.Call
	for _, c := range p.fb.CallsTo("Runtime.callFunctionOn") {
		if fn, _ := c.Param("functionDeclaration").(string); strings.Contains(fn, script) {
			out = append(out, c)
		}
	}
	return out
}

func argument(c testutil.Call) (interface{}, bool) {
	args, ok := c.Param("arguments").([]interface{})
	if !ok || len(args) == 0 {
		return nil, false
	}
	v, ok := args[0].(map[string]interface{})["value"]
	return v, ok
}

// load attaches to the fake page and returns its root environment. Calls
// made while loading are forgotten.
func (p *fakeTab) load(t *testing.T) *harness.Environment[*cdp.Node] {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tabCtx, release, err := chromedpharness.Attach(ctx, p.fb.WSURL(), "T1")
	require.NoError(t, err)
	t.Cleanup(release)

	env, err := chromedpharness.Loader(tabCtx, chromedpharness.WithLogger(quietLogger()))
	require.NoError(t, err)
	p.fb.Reset()
	return env
}

// element resolves selector from the document element to node id.
func (p *fakeTab) element(t *testing.T, env harness.Loader, selector string, id int64) harness.TestElement {
	t.Helper()

	p.query(nodeHTML, selector, id)
	el, err := env.LocatorFor(context.Background(), selector)
	require.NoError(t, err)
	p.fb.Reset()
	return el
}

func nodeIDs(t *testing.T, elements []harness.TestElement) []int64 {
	t.Helper()
	out := make([]int64, len(elements))
	for i, el := range elements {
		te, ok := el.(*chromedpharness.TestElement)
		require.True(t, ok)
		out[i] = int64(te.Node().NodeID)
	}
	return out
}

func indexOfCall(calls []testutil.Call, id int64) int {
	for i, c := range calls {
		if c.ID == id {
			return i
		}
	}
	return -1
}
