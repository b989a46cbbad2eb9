// Package cdpharness runs component harnesses over a raw Chrome DevTools
// Protocol connection.
//
// Elements are Runtime remote objects resolved in a page session of a
// chrome.Client. Every TestElement operation is a handful of protocol
// commands: Runtime.callFunctionOn for reads, Input.dispatchMouseEvent and
// Input.dispatchKeyEvent for user input.
package cdpharness

import (
	"context"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/chrome"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger element operations are reported to.
func WithLogger(l *harnesslog.Logger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// Connect attaches to the browser debugging at host:port.
func Connect(ctx context.Context, host string, port int, opts ...chrome.Option) (*chrome.Client, error) {
	return chrome.Connect(ctx, host, port, opts...)
}

// Loader resolves the document element of the page targetID and returns an
// environment rooted there.
func Loader(ctx context.Context, client *chrome.Client, targetID string, opts ...Option) (*harness.Environment[*chrome.Element], error) {
	doc, err := client.DocumentElement(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return harness.NewEnvironment[*chrome.Element](NewBackend(doc, opts...)), nil
}

// Backend implements harness.Backend over chrome.Element handles.
type Backend struct {
	root     *chrome.Element
	document *chrome.Element
	log      *harnesslog.Logger
}

var _ harness.Backend[*chrome.Element] = (*Backend)(nil)

// NewBackend returns a backend rooted at document, which is also remembered
// as the document root of every environment derived from it.
func NewBackend(document *chrome.Element, opts ...Option) *Backend {
	b := &Backend{
		root:     document,
		document: document,
		log:      harnesslog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Backend) RawRootElement() *chrome.Element { return b.root }

func (b *Backend) DocumentRoot() *chrome.Element { return b.document }

func (b *Backend) CreateTestElement(element *chrome.Element) harness.TestElement {
	return &TestElement{el: element, log: b.log}
}

func (b *Backend) CreateEnvironment(element *chrome.Element) harness.Backend[*chrome.Element] {
	return &Backend{
		root:     element,
		document: b.document,
		log:      b.log,
	}
}

func (b *Backend) AllRawElements(ctx context.Context, selector string) ([]*chrome.Element, error) {
	b.log.Action("GET_ALL_RAW_ELEMENTS", selector)
	return harness.QueryFragments(ctx, selector, b.root.QuerySelectorAll)
}

// ForceStabilize waits for the next animation frame of the page.
func (b *Backend) ForceStabilize(ctx context.Context) error {
	return b.document.Eval(ctx, domscript.AnimationFrame, nil, nil)
}

func (b *Backend) WaitForTasksOutsideAngular(context.Context) error {
	return harness.ErrNotImplemented
}
