package cdpharness

import (
	"context"
	"strings"
	"sync"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/chrome"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
)

// TestElement implements harness.TestElement over a chrome.Element.
type TestElement struct {
	el  *chrome.Element
	log *harnesslog.Logger

	descOnce sync.Once
	desc     string
}

var _ harness.TestElement = (*TestElement)(nil)

// Element returns the wrapped protocol handle.
func (e *TestElement) Element() *chrome.Element { return e.el }

// describe labels the element for log lines. The label is fetched from the
// page once, and only when action lines are written at all.
func (e *TestElement) describe(ctx context.Context) string {
	if !e.log.ActionEnabled() {
		return ""
	}
	e.descOnce.Do(func() {
		d, err := e.el.Describe(ctx)
		if err != nil || d == "" {
			d = "object " + e.el.ObjectID()
		}
		e.desc = d
	})
	return e.desc
}

func (e *TestElement) logAction(ctx context.Context, action string, arg ...any) {
	if !e.log.ActionEnabled() {
		return
	}
	e.log.Action(action, e.describe(ctx), arg...)
}

func toKeyModifiers(m harness.ModifierKeys) chrome.KeyModifiers {
	return chrome.KeyModifiers{
		Ctrl:  m.Control,
		Alt:   m.Alt,
		Shift: m.Shift,
		Meta:  m.Meta,
	}
}

func (e *TestElement) Blur(ctx context.Context) error {
	e.logAction(ctx, "BLUR")
	return e.el.Eval(ctx, domscript.Blur, nil, nil)
}

func (e *TestElement) Clear(ctx context.Context) error {
	e.logAction(ctx, "CLEAR")
	return e.el.Eval(ctx, domscript.SetValue, "", nil)
}

func (e *TestElement) Click(ctx context.Context, opts ...harness.ClickOption) error {
	p := harness.ResolveClick(opts...)
	e.logAction(ctx, "CLICK", p.Mods())

	click := chrome.ClickOptions{Modifiers: toKeyModifiers(p.Mods())}
	if x, y, ok := p.Position(); ok {
		click.Position = &chrome.Point{X: x, Y: y}
	}
	return e.el.Click(ctx, click)
}

func (e *TestElement) RightClick(ctx context.Context, x, y float64, mods harness.ModifierKeys) error {
	e.logAction(ctx, "RIGHT_CLICK", mods)
	return e.el.Click(ctx, chrome.ClickOptions{
		Button:    chrome.MouseRight,
		Position:  &chrome.Point{X: x, Y: y},
		Modifiers: toKeyModifiers(mods),
	})
}

func (e *TestElement) Focus(ctx context.Context) error {
	e.logAction(ctx, "FOCUS")
	return e.el.Focus(ctx)
}

func (e *TestElement) GetCSSValue(ctx context.Context, property string) (string, error) {
	e.logAction(ctx, "GET_CSS_VALUE", property)
	var v string
	err := e.el.Eval(ctx, domscript.CSSValue, property, &v)
	return v, err
}

func (e *TestElement) Hover(ctx context.Context) error {
	e.logAction(ctx, "HOVER")
	return e.el.Hover(ctx)
}

// MouseAway parks the pointer just outside the viewport.
func (e *TestElement) MouseAway(ctx context.Context) error {
	e.logAction(ctx, "MOUSE_AWAY")
	return e.el.MoveMouse(ctx, -1, -1)
}

func (e *TestElement) SendKeys(ctx context.Context, keys ...harness.Key) error {
	return e.SendKeysWithModifiers(ctx, harness.ModifierKeys{}, keys...)
}

// SendKeysWithModifiers focuses the element and presses every key in turn
// with mods held. Text is typed one character per press.
func (e *TestElement) SendKeysWithModifiers(ctx context.Context, mods harness.ModifierKeys, keys ...harness.Key) error {
	expanded := harness.ExpandKeys(keys...)
	names := make([]string, len(expanded))
	for i, k := range expanded {
		names[i] = k.String()
	}
	e.logAction(ctx, "SEND_KEYS", "["+strings.Join(names, ", ")+"]", mods)
	if len(expanded) == 0 {
		return nil
	}

	if err := e.el.Focus(ctx); err != nil {
		return err
	}
	km := toKeyModifiers(mods)
	for _, name := range names {
		if err := e.el.Press(ctx, name, km); err != nil {
			return err
		}
	}
	return nil
}

func (e *TestElement) Text(ctx context.Context, opts harness.TextOptions) (string, error) {
	e.logAction(ctx, "TEXT", opts)
	var arg interface{}
	if opts.Exclude != "" {
		arg = opts.Exclude
	}
	var s string
	err := e.el.Eval(ctx, domscript.Text, arg, &s)
	return s, err
}

func (e *TestElement) attribute(ctx context.Context, name string) (*string, error) {
	var v *string
	if err := e.el.Eval(ctx, domscript.Attribute, name, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *TestElement) GetAttribute(ctx context.Context, name string) (*string, error) {
	e.logAction(ctx, "GET_ATTRIBUTE", name)
	return e.attribute(ctx, name)
}

func (e *TestElement) HasClass(ctx context.Context, name string) (bool, error) {
	e.logAction(ctx, "HAS_CLASS", name)
	class, err := e.attribute(ctx, "class")
	if err != nil || class == nil {
		return false, err
	}
	return harness.HasClassToken(*class, name), nil
}

func (e *TestElement) GetDimensions(ctx context.Context) (harness.ElementDimensions, error) {
	e.logAction(ctx, "GET_DIMENSIONS")
	var d harness.ElementDimensions
	err := e.el.Eval(ctx, domscript.Dimensions, nil, &d)
	return d, err
}

func (e *TestElement) GetProperty(ctx context.Context, name string) (any, error) {
	e.logAction(ctx, "GET_PROPERTY", name)
	var v any
	err := e.el.Eval(ctx, domscript.Property, name, &v)
	return v, err
}

func (e *TestElement) MatchesSelector(ctx context.Context, selector string) (bool, error) {
	e.logAction(ctx, "MATCHES_SELECTOR", selector)
	var ok bool
	err := e.el.Eval(ctx, domscript.Matches, selector, &ok)
	return ok, err
}

func (e *TestElement) IsFocused(ctx context.Context) (bool, error) {
	e.logAction(ctx, "IS_FOCUSED")
	var ok bool
	err := e.el.Eval(ctx, domscript.IsFocused, nil, &ok)
	return ok, err
}

// SetInputValue assigns value in a single call. No key events are sent.
func (e *TestElement) SetInputValue(ctx context.Context, value string) error {
	e.logAction(ctx, "SET_INPUT_VALUE", value)
	return e.el.Eval(ctx, domscript.SetValue, value, nil)
}

// SelectOptions selects the options at indexes of a native select. The
// current selection is cleared first and each option is clicked with
// Control held so multi-selects accumulate.
func (e *TestElement) SelectOptions(ctx context.Context, indexes ...int) error {
	e.logAction(ctx, "SELECT_OPTIONS", indexes)

	options, err := e.el.QuerySelectorAll(ctx, "option")
	if err != nil {
		return err
	}
	defer func() {
		for _, o := range options {
			o.Release(ctx)
		}
	}()

	want := harness.OptionIndexSet(indexes)
	if len(options) == 0 || len(want) == 0 {
		return nil
	}
	if err := e.el.Eval(ctx, domscript.SetValue, "", nil); err != nil {
		return err
	}
	for i, o := range options {
		if _, ok := want[i]; !ok {
			continue
		}
		if err := o.Click(ctx, chrome.ClickOptions{Modifiers: chrome.KeyModifiers{Ctrl: true}}); err != nil {
			return err
		}
	}
	return nil
}

func (e *TestElement) DispatchEvent(ctx context.Context, name string, data map[string]harness.EventData) error {
	e.logAction(ctx, "DISPATCH_EVENT", name)
	return e.el.Eval(ctx, domscript.DispatchEvent, map[string]interface{}{
		"name": name,
		"data": data,
	}, nil)
}
