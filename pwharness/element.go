package pwharness

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
)

// TestElement implements harness.TestElement over a Playwright locator.
type TestElement struct {
	el  Element
	log *harnesslog.Logger
}

var _ harness.TestElement = (*TestElement)(nil)

// Locator returns the wrapped locator.
func (e *TestElement) Locator() playwright.Locator { return e.el.Locator }

func (e *TestElement) begin(ctx context.Context, action string, arg ...any) error {
	e.log.Action(action, e.el.Selector, arg...)
	return ctx.Err()
}

// eval runs a domscript function against the element and decodes its result
// into out, when out is not nil.
func (e *TestElement) eval(script string, arg any, out any) error {
	v, err := e.el.Locator.Evaluate(script, arg)
	if err != nil || out == nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (e *TestElement) Blur(ctx context.Context) error {
	if err := e.begin(ctx, "BLUR"); err != nil {
		return err
	}
	return e.el.Locator.Blur()
}

func (e *TestElement) Clear(ctx context.Context) error {
	if err := e.begin(ctx, "CLEAR"); err != nil {
		return err
	}
	return e.el.Locator.Clear()
}

func (e *TestElement) Click(ctx context.Context, opts ...harness.ClickOption) error {
	p := harness.ResolveClick(opts...)
	if err := e.begin(ctx, "CLICK", p.Mods()); err != nil {
		return err
	}
	click := playwright.LocatorClickOptions{Modifiers: toModifiers(p.Mods())}
	if x, y, ok := p.Position(); ok {
		click.Position = &playwright.Position{X: x, Y: y}
	}
	return e.el.Locator.Click(click)
}

func (e *TestElement) RightClick(ctx context.Context, x, y float64, mods harness.ModifierKeys) error {
	if err := e.begin(ctx, "RIGHT_CLICK", mods); err != nil {
		return err
	}
	return e.el.Locator.Click(playwright.LocatorClickOptions{
		Button:    playwright.MouseButtonRight,
		Modifiers: toModifiers(mods),
		Position:  &playwright.Position{X: x, Y: y},
	})
}

func (e *TestElement) Focus(ctx context.Context) error {
	if err := e.begin(ctx, "FOCUS"); err != nil {
		return err
	}
	return e.el.Locator.Focus()
}

func (e *TestElement) GetCSSValue(ctx context.Context, property string) (string, error) {
	if err := e.begin(ctx, "GET_CSS_VALUE", property); err != nil {
		return "", err
	}
	var v string
	err := e.eval(domscript.CSSValue, property, &v)
	return v, err
}

func (e *TestElement) Hover(ctx context.Context) error {
	if err := e.begin(ctx, "HOVER"); err != nil {
		return err
	}
	return e.el.Locator.Hover()
}

// MouseAway moves the page's mouse outside the viewport.
func (e *TestElement) MouseAway(ctx context.Context) error {
	if err := e.begin(ctx, "MOUSE_AWAY"); err != nil {
		return err
	}
	page, err := e.el.Locator.Page()
	if err != nil {
		return err
	}
	return page.Mouse().Move(-1, -1)
}

func (e *TestElement) SendKeys(ctx context.Context, keys ...harness.Key) error {
	return e.SendKeysWithModifiers(ctx, harness.ModifierKeys{}, keys...)
}

// SendKeysWithModifiers presses each key in order, holding mods for every
// press. Stops at the first failure.
func (e *TestElement) SendKeysWithModifiers(ctx context.Context, mods harness.ModifierKeys, keys ...harness.Key) error {
	expanded := harness.ExpandKeys(keys...)
	names := make([]string, len(expanded))
	for i, k := range expanded {
		names[i] = keyName(k)
	}
	if err := e.begin(ctx, "SEND_KEYS", "["+strings.Join(names, ", ")+"]", mods); err != nil {
		return err
	}

	held := modifierNames(mods)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.el.Locator.Press(chord(held, name)); err != nil {
			return err
		}
	}
	return nil
}

func (e *TestElement) Text(ctx context.Context, opts harness.TextOptions) (string, error) {
	if err := e.begin(ctx, "TEXT", opts); err != nil {
		return "", err
	}
	var exclude any
	if opts.Exclude != "" {
		exclude = opts.Exclude
	}
	var s string
	err := e.eval(domscript.Text, exclude, &s)
	return s, err
}

func (e *TestElement) attribute(name string) (*string, error) {
	var v *string
	if err := e.eval(domscript.Attribute, name, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *TestElement) GetAttribute(ctx context.Context, name string) (*string, error) {
	if err := e.begin(ctx, "GET_ATTRIBUTE", name); err != nil {
		return nil, err
	}
	return e.attribute(name)
}

func (e *TestElement) HasClass(ctx context.Context, name string) (bool, error) {
	if err := e.begin(ctx, "HAS_CLASS", name); err != nil {
		return false, err
	}
	class, err := e.attribute("class")
	if err != nil || class == nil {
		return false, err
	}
	return harness.HasClassToken(*class, name), nil
}

func (e *TestElement) GetDimensions(ctx context.Context) (harness.ElementDimensions, error) {
	var d harness.ElementDimensions
	if err := e.begin(ctx, "GET_DIMENSIONS"); err != nil {
		return d, err
	}
	err := e.eval(domscript.Dimensions, nil, &d)
	return d, err
}

func (e *TestElement) GetProperty(ctx context.Context, name string) (any, error) {
	if err := e.begin(ctx, "GET_PROPERTY", name); err != nil {
		return nil, err
	}
	var v any
	err := e.eval(domscript.Property, name, &v)
	return v, err
}

func (e *TestElement) MatchesSelector(ctx context.Context, selector string) (bool, error) {
	if err := e.begin(ctx, "MATCHES_SELECTOR", selector); err != nil {
		return false, err
	}
	var ok bool
	err := e.eval(domscript.Matches, selector, &ok)
	return ok, err
}

func (e *TestElement) IsFocused(ctx context.Context) (bool, error) {
	if err := e.begin(ctx, "IS_FOCUSED"); err != nil {
		return false, err
	}
	var ok bool
	err := e.eval(domscript.IsFocused, nil, &ok)
	return ok, err
}

func (e *TestElement) SetInputValue(ctx context.Context, value string) error {
	if err := e.begin(ctx, "SET_INPUT_VALUE", value); err != nil {
		return err
	}
	return e.el.Locator.Fill(value)
}

// SelectOptions clears the selection of a native select, then clicks each
// requested option with Control held. Fill refuses select elements, so the
// reset assigns the value directly.
func (e *TestElement) SelectOptions(ctx context.Context, indexes ...int) error {
	if err := e.begin(ctx, "SELECT_OPTIONS", indexes); err != nil {
		return err
	}
	options, err := e.el.Locator.Locator("option").All()
	if err != nil {
		return err
	}
	want := harness.OptionIndexSet(indexes)
	if len(options) == 0 || len(want) == 0 {
		return nil
	}

	if err := e.eval(domscript.SetValue, "", nil); err != nil {
		return err
	}
	ctrl := playwright.LocatorClickOptions{
		Modifiers: []playwright.KeyboardModifier{*playwright.KeyboardModifierControl},
	}
	for i, o := range options {
		if _, ok := want[i]; !ok {
			continue
		}
		if err := o.Click(ctrl); err != nil {
			return err
		}
	}
	return nil
}

func (e *TestElement) DispatchEvent(ctx context.Context, name string, data map[string]harness.EventData) error {
	if err := e.begin(ctx, "DISPATCH_EVENT", name); err != nil {
		return err
	}
	return e.eval(domscript.DispatchEvent, map[string]any{"name": name, "data": data}, nil)
}
