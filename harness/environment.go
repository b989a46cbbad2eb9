package harness

import (
	"context"
	"fmt"
)

// Loader locates elements and child harness scopes below a root element.
type Loader interface {
	// RootElement is the element this loader is scoped to.
	RootElement() TestElement
	// DocumentRootLocatorFactory returns a loader scoped to the document root.
	DocumentRootLocatorFactory() Loader
	// LocatorFor returns the first element matching selector, or an error
	// wrapping ErrNoMatch.
	LocatorFor(ctx context.Context, selector string) (TestElement, error)
	// LocatorForOptional returns the first element matching selector, or nil.
	LocatorForOptional(ctx context.Context, selector string) (TestElement, error)
	LocatorForAll(ctx context.Context, selector string) ([]TestElement, error)
	// ChildLoader returns a loader scoped to the first match of selector, or
	// an error wrapping ErrNoMatch.
	ChildLoader(ctx context.Context, selector string) (Loader, error)
	AllChildLoaders(ctx context.Context, selector string) ([]Loader, error)
	ForceStabilize(ctx context.Context) error
	WaitForTasksOutsideAngular(ctx context.Context) error
}

// Environment implements Loader on top of a Backend.
type Environment[E any] struct {
	backend Backend[E]
}

// NewEnvironment wraps backend.
func NewEnvironment[E any](backend Backend[E]) *Environment[E] {
	return &Environment[E]{backend: backend}
}

// Backend returns the wrapped backend.
func (e *Environment[E]) Backend() Backend[E] {
	return e.backend
}

func (e *Environment[E]) RootElement() TestElement {
	return e.backend.CreateTestElement(e.backend.RawRootElement())
}

func (e *Environment[E]) DocumentRootLocatorFactory() Loader {
	return NewEnvironment(e.backend.CreateEnvironment(e.backend.DocumentRoot()))
}

func (e *Environment[E]) LocatorFor(ctx context.Context, selector string) (TestElement, error) {
	el, err := e.LocatorForOptional(ctx, selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, selector)
	}
	return el, nil
}

func (e *Environment[E]) LocatorForOptional(ctx context.Context, selector string) (TestElement, error) {
	raw, err := e.backend.AllRawElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return e.backend.CreateTestElement(raw[0]), nil
}

func (e *Environment[E]) LocatorForAll(ctx context.Context, selector string) ([]TestElement, error) {
	raw, err := e.backend.AllRawElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	elements := make([]TestElement, len(raw))
	for i, r := range raw {
		elements[i] = e.backend.CreateTestElement(r)
	}
	return elements, nil
}

func (e *Environment[E]) ChildLoader(ctx context.Context, selector string) (Loader, error) {
	raw, err := e.backend.AllRawElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, selector)
	}
	return NewEnvironment(e.backend.CreateEnvironment(raw[0])), nil
}

func (e *Environment[E]) AllChildLoaders(ctx context.Context, selector string) ([]Loader, error) {
	raw, err := e.backend.AllRawElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	loaders := make([]Loader, len(raw))
	for i, r := range raw {
		loaders[i] = NewEnvironment(e.backend.CreateEnvironment(r))
	}
	return loaders, nil
}

func (e *Environment[E]) ForceStabilize(ctx context.Context) error {
	return e.backend.ForceStabilize(ctx)
}

func (e *Environment[E]) WaitForTasksOutsideAngular(ctx context.Context) error {
	return e.backend.WaitForTasksOutsideAngular(ctx)
}
