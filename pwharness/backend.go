// Package pwharness runs component harnesses on top of Playwright locators.
//
// Playwright calls take no context; every operation checks ctx before it
// starts and otherwise relies on Playwright's own timeouts.
package pwharness

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
)

// Element is the raw handle of this backend: a locator resolving to exactly
// one element, plus the selector chain that produced it.
type Element struct {
	Locator  playwright.Locator
	Selector string
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger element operations are reported to.
func WithLogger(l *harnesslog.Logger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// Loader returns an environment rooted at the document element of page.
func Loader(ctx context.Context, page playwright.Page, opts ...Option) (*harness.Environment[Element], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := Element{Locator: page.Locator(":root"), Selector: ":root"}
	return harness.NewEnvironment[Element](NewBackend(doc, opts...)), nil
}

// Backend implements harness.Backend over Playwright locators.
type Backend struct {
	root     Element
	document Element
	log      *harnesslog.Logger
}

var _ harness.Backend[Element] = (*Backend)(nil)

// NewBackend returns a backend rooted at document.
func NewBackend(document Element, opts ...Option) *Backend {
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

func (b *Backend) RawRootElement() Element { return b.root }

func (b *Backend) DocumentRoot() Element { return b.document }

func (b *Backend) CreateTestElement(element Element) harness.TestElement {
	return &TestElement{el: element, log: b.log}
}

func (b *Backend) CreateEnvironment(element Element) harness.Backend[Element] {
	return &Backend{root: element, document: b.document, log: b.log}
}

// AllRawElements resolves each fragment under the root and expands it into
// one nth= locator per match.
func (b *Backend) AllRawElements(ctx context.Context, selector string) ([]Element, error) {
	b.log.Action("GET_ALL_RAW_ELEMENTS", selector)
	return harness.QueryFragments(ctx, selector, func(ctx context.Context, fragment string) ([]Element, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		locs, err := b.root.Locator.Locator(fragment).All()
		if err != nil {
			return nil, err
		}
		out := make([]Element, len(locs))
		for i, l := range locs {
			out[i] = Element{
				Locator:  l,
				Selector: fmt.Sprintf("%s >> %s >> nth=%d", b.root.Selector, fragment, i),
			}
		}
		return out, nil
	})
}

// ForceStabilize waits for the next animation frame of the page.
func (b *Backend) ForceStabilize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.document.Locator.Evaluate(domscript.AnimationFrame, nil)
	return err
}

func (b *Backend) WaitForTasksOutsideAngular(context.Context) error {
	return harness.ErrNotImplemented
}
