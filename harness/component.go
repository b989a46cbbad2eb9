package harness

import (
	"context"
	"fmt"
	"strings"
)

// ComponentHarness is embedded by component harnesses. It scopes the
// harness's queries to the component's host element.
type ComponentHarness struct {
	Loader
}

// NewComponentHarness scopes a harness to loader's root element.
func NewComponentHarness(loader Loader) ComponentHarness {
	return ComponentHarness{Loader: loader}
}

// Host returns the component's host element.
func (c ComponentHarness) Host() TestElement {
	return c.RootElement()
}

// Query describes how to find harnesses of type H.
type Query[H any] struct {
	// HostSelector matches the component's host element.
	HostSelector string
	// Ancestor, if set, restricts hosts to descendants of matching elements.
	Ancestor string
	// Selector, if set, restricts hosts to those also matching it.
	Selector string
	// New builds a harness over a loader scoped to a host.
	New func(Loader) H
	// Filters are applied in order; a host is kept only if all return true.
	Filters []func(context.Context, H) (bool, error)
}

// With returns a copy of q with an extra filter.
func (q Query[H]) With(filter func(context.Context, H) (bool, error)) Query[H] {
	q.Filters = append(append([]func(context.Context, H) (bool, error){}, q.Filters...), filter)
	return q
}

func (q Query[H]) hostSelector() string {
	if q.Ancestor == "" {
		return q.HostSelector
	}
	var parts []string
	for _, anc := range SplitSelector(q.Ancestor) {
		for _, host := range SplitSelector(q.HostSelector) {
			parts = append(parts, anc+" "+host)
		}
	}
	return strings.Join(parts, ", ")
}

// GetAllHarnesses returns a harness for every matching host below loader.
func GetAllHarnesses[H any](ctx context.Context, loader Loader, q Query[H]) ([]H, error) {
	if q.New == nil {
		return nil, fmt.Errorf("harness query for %q has no constructor", q.HostSelector)
	}
	loaders, err := loader.AllChildLoaders(ctx, q.hostSelector())
	if err != nil {
		return nil, err
	}

	var harnesses []H
	for _, l := range loaders {
		if q.Selector != "" {
			ok, err := l.RootElement().MatchesSelector(ctx, q.Selector)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		h := q.New(l)
		keep := true
		for _, f := range q.Filters {
			ok, err := f(ctx, h)
			if err != nil {
				return nil, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			harnesses = append(harnesses, h)
		}
	}
	return harnesses, nil
}

// GetHarnessOrNil returns the first matching harness. ok is false if there is
// none.
func GetHarnessOrNil[H any](ctx context.Context, loader Loader, q Query[H]) (h H, ok bool, err error) {
	all, err := GetAllHarnesses(ctx, loader, q)
	if err != nil || len(all) == 0 {
		return h, false, err
	}
	return all[0], true, nil
}

// GetHarness returns the first matching harness or an error wrapping
// ErrNoMatch.
func GetHarness[H any](ctx context.Context, loader Loader, q Query[H]) (H, error) {
	h, ok, err := GetHarnessOrNil(ctx, loader, q)
	if err != nil {
		return h, err
	}
	if !ok {
		return h, fmt.Errorf("%w: harness for %q", ErrNoMatch, q.hostSelector())
	}
	return h, nil
}

// HasHarness reports whether any host matches q.
func HasHarness[H any](ctx context.Context, loader Loader, q Query[H]) (bool, error) {
	_, ok, err := GetHarnessOrNil(ctx, loader, q)
	return ok, err
}
