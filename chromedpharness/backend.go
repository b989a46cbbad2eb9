// Package chromedpharness runs component harnesses on top of chromedp.
//
// The backend is bound to the chromedp target (tab) it was loaded from, so
// element operations accept any context: cancellation comes from the
// caller, the browser connection from the tab.
package chromedpharness

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
)

// ErrNoTarget is returned by Loader when ctx carries no chromedp tab.
var ErrNoTarget = errors.New("context has no chromedp target")

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger element operations are reported to.
func WithLogger(l *harnesslog.Logger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// Attach connects to the browser at wsURL and binds a chromedp tab to the
// existing page targetID. The returned context is cancelled with ctx;
// release detaches from the page and disconnects, leaving the page open.
// ctx also bounds the attach itself.
func Attach(ctx context.Context, wsURL string, targetID target.ID) (context.Context, func(), error) {
	// The tab must outlive ctx: chromedp tears the attachment down when the
	// context of its first Run ends.
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.WithoutCancel(ctx), wsURL)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithTargetID(targetID))
	detach := func() {
		// chromedp closes a target it attached to when the tab context
		// ends unless it has no target id to close.
		if c := chromedp.FromContext(tabCtx); c.Target != nil {
			c.Target.TargetID = ""
		}
		cancelTab()
		cancelAlloc()
		chromedp.FromContext(allocCtx).Allocator.Wait()
	}

	attached := make(chan error, 1)
	go func() { attached <- chromedp.Run(tabCtx) }()
	select {
	case err := <-attached:
		if err != nil {
			detach()
			return nil, nil, fmt.Errorf("attaching to target %s: %w", targetID, err)
		}
	case <-ctx.Done():
		go func() {
			<-attached
			detach()
		}()
		return nil, nil, ctx.Err()
	}

	opCtx, cancelOp := context.WithCancel(tabCtx)
	stop := context.AfterFunc(ctx, cancelOp)
	release := func() {
		stop()
		cancelOp()
		detach()
	}
	return opCtx, release, nil
}

// Loader returns an environment rooted at the document element of the tab
// in ctx, which must come from Attach or chromedp.NewContext. The tab is
// started if it is not running yet.
func Loader(ctx context.Context, opts ...Option) (*harness.Environment[*cdp.Node], error) {
	if chromedp.FromContext(ctx) == nil {
		return nil, ErrNoTarget
	}
	var roots []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(":root", &roots, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("resolving document element: %w", err)
	}
	target := chromedp.FromContext(ctx).Target
	if target == nil || len(roots) == 0 {
		return nil, ErrNoTarget
	}
	return harness.NewEnvironment[*cdp.Node](NewBackend(target, roots[0], opts...)), nil
}

// Backend implements harness.Backend over chromedp DOM nodes.
type Backend struct {
	target   *chromedp.Target
	root     *cdp.Node
	document *cdp.Node
	log      *harnesslog.Logger
}

var _ harness.Backend[*cdp.Node] = (*Backend)(nil)

// NewBackend returns a backend for the tab target rooted at document.
func NewBackend(target *chromedp.Target, document *cdp.Node, opts ...Option) *Backend {
	b := &Backend{
		target:   target,
		root:     document,
		document: document,
		log:      harnesslog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// run executes actions against the backend's tab under ctx.
func (b *Backend) run(ctx context.Context, actions ...chromedp.Action) error {
	return chromedp.Tasks(actions).Do(cdp.WithExecutor(ctx, b.target))
}

func (b *Backend) RawRootElement() *cdp.Node { return b.root }

func (b *Backend) DocumentRoot() *cdp.Node { return b.document }

func (b *Backend) CreateTestElement(element *cdp.Node) harness.TestElement {
	return &TestElement{node: element, backend: b}
}

func (b *Backend) CreateEnvironment(element *cdp.Node) harness.Backend[*cdp.Node] {
	return &Backend{
		target:   b.target,
		root:     element,
		document: b.document,
		log:      b.log,
	}
}

func (b *Backend) AllRawElements(ctx context.Context, selector string) ([]*cdp.Node, error) {
	b.log.Action("GET_ALL_RAW_ELEMENTS", selector)
	return harness.QueryFragments(ctx, selector, func(ctx context.Context, fragment string) ([]*cdp.Node, error) {
		var nodes []*cdp.Node
		err := b.run(ctx, chromedp.Nodes(fragment, &nodes,
			chromedp.ByQueryAll,
			chromedp.FromNode(b.root),
			chromedp.AtLeast(0),
		))
		return nodes, err
	})
}

// ForceStabilize waits for the next animation frame of the page.
func (b *Backend) ForceStabilize(ctx context.Context) error {
	return b.run(ctx, callOn(b.document, domscript.AnimationFrame, nil))
}

func (b *Backend) WaitForTasksOutsideAngular(context.Context) error {
	return harness.ErrNotImplemented
}
