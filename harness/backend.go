// Package harness defines the contract between component test harnesses and
// the browser automation backends that drive them.
//
// A backend wraps its native element handle type E and implements Backend[E].
// Environment turns any Backend into a Loader, the backend-agnostic surface
// component harnesses are written against.
package harness

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotImplemented is returned by operations a backend cannot provide.
	ErrNotImplemented = errors.New("not implemented")
	// ErrNoMatch is returned when a required element or harness is not found.
	ErrNoMatch = errors.New("no matching element")
)

// Backend adapts one automation library's element tree to the harness.
//
// A Backend is rooted at a raw element and remembers the document root of the
// page it was loaded from. Every backend created from it with
// CreateEnvironment shares that document root.
type Backend[E any] interface {
	// RawRootElement returns the raw element this backend is rooted at.
	RawRootElement() E
	// DocumentRoot returns the raw document root remembered at load time.
	DocumentRoot() E
	// CreateTestElement wraps a raw element.
	CreateTestElement(element E) TestElement
	// CreateEnvironment returns a backend rooted at element.
	CreateEnvironment(element E) Backend[E]
	// AllRawElements resolves selector within the root element. A selector
	// list is split on commas and every part is queried on its own; matches
	// come back grouped by part in the order the parts were written.
	AllRawElements(ctx context.Context, selector string) ([]E, error)
	// ForceStabilize waits for the page to render pending changes.
	ForceStabilize(ctx context.Context) error
	// WaitForTasksOutsideAngular always fails with ErrNotImplemented.
	WaitForTasksOutsideAngular(ctx context.Context) error
}

// SplitSelector splits a selector list on commas and trims each part. Empty
// parts are kept so the backend reports them.
func SplitSelector(selector string) []string {
	parts := strings.Split(selector, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// QueryFragments runs query once per comma separated part of selector,
// concurrently, and joins the results in part order. The first error wins.
func QueryFragments[E any](ctx context.Context, selector string, query func(ctx context.Context, fragment string) ([]E, error)) ([]E, error) {
	fragments := SplitSelector(selector)
	results := make([][]E, len(fragments))

	g, gctx := errgroup.WithContext(ctx)
	for i, fragment := range fragments {
		g.Go(func() error {
			elements, err := query(gctx, fragment)
			if err != nil {
				return err
			}
			results[i] = elements
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var n int
	for _, r := range results {
		n += len(r)
	}
	all := make([]E, 0, n)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
