package chromedpharness

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
)

// TestElement implements harness.TestElement over a chromedp DOM node.
type TestElement struct {
	node    *cdp.Node
	backend *Backend
}

var _ harness.TestElement = (*TestElement)(nil)

// Node returns the wrapped DOM node.
func (e *TestElement) Node() *cdp.Node { return e.node }

func (e *TestElement) logAction(action string, arg ...any) {
	e.backend.log.Action(action, e.node.FullXPath(), arg...)
}

// callOn runs a domscript function with the node bound to this. A nil arg
// is not passed at all.
func callOn(n *cdp.Node, script string, res any, arg ...any) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer runtime.ReleaseObject(obj.ObjectID).Do(ctx)

		return chromedp.CallFunctionOn(domscript.OnThis(script), res,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID).WithAwaitPromise(true)
			},
			arg...,
		).Do(ctx)
	})
}

// clickPoint scrolls n into view and returns the viewport point at offset
// from its top-left corner, or its center when offset is nil.
func clickPoint(ctx context.Context, n *cdp.Node, offset *[2]float64) (x, y float64, err error) {
	if err := dom.ScrollIntoViewIfNeeded().WithNodeID(n.NodeID).Do(ctx); err != nil {
		return 0, 0, err
	}
	var r harness.ElementDimensions
	if err := callOn(n, domscript.Dimensions, &r).Do(ctx); err != nil {
		return 0, 0, err
	}
	if offset != nil {
		return r.Left + offset[0], r.Top + offset[1], nil
	}
	return r.Left + r.Width/2, r.Top + r.Height/2, nil
}

func mouseClick(n *cdp.Node, button input.MouseButton, offset *[2]float64, mods input.Modifier) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		x, y, err := clickPoint(ctx, n, offset)
		if err != nil {
			return err
		}
		if err := input.DispatchMouseEvent(input.MouseMoved, x, y).WithModifiers(mods).Do(ctx); err != nil {
			return err
		}
		for _, typ := range []input.MouseType{input.MousePressed, input.MouseReleased} {
			err := input.DispatchMouseEvent(typ, x, y).
				WithButton(button).
				WithClickCount(1).
				WithModifiers(mods).
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *TestElement) Blur(ctx context.Context) error {
	e.logAction("BLUR")
	return e.backend.run(ctx, callOn(e.node, domscript.Blur, nil))
}

func (e *TestElement) Clear(ctx context.Context) error {
	e.logAction("CLEAR")
	return e.backend.run(ctx, callOn(e.node, domscript.SetValue, nil, ""))
}

func (e *TestElement) Click(ctx context.Context, opts ...harness.ClickOption) error {
	p := harness.ResolveClick(opts...)
	e.logAction("CLICK", p.Mods())

	var offset *[2]float64
	if x, y, ok := p.Position(); ok {
		offset = &[2]float64{x, y}
	}
	return e.backend.run(ctx, mouseClick(e.node, input.Left, offset, modifierMask(p.Mods())))
}

func (e *TestElement) RightClick(ctx context.Context, x, y float64, mods harness.ModifierKeys) error {
	e.logAction("RIGHT_CLICK", mods)
	return e.backend.run(ctx, mouseClick(e.node, input.Right, &[2]float64{x, y}, modifierMask(mods)))
}

func (e *TestElement) Focus(ctx context.Context) error {
	e.logAction("FOCUS")
	return e.backend.run(ctx, dom.Focus().WithNodeID(e.node.NodeID))
}

func (e *TestElement) GetCSSValue(ctx context.Context, property string) (string, error) {
	e.logAction("GET_CSS_VALUE", property)
	var v string
	err := e.backend.run(ctx, callOn(e.node, domscript.CSSValue, &v, property))
	return v, err
}

func (e *TestElement) Hover(ctx context.Context) error {
	e.logAction("HOVER")
	return e.backend.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		x, y, err := clickPoint(ctx, e.node, nil)
		if err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	}))
}

func (e *TestElement) MouseAway(ctx context.Context) error {
	e.logAction("MOUSE_AWAY")
	return e.backend.run(ctx, input.DispatchMouseEvent(input.MouseMoved, -1, -1))
}

func (e *TestElement) SendKeys(ctx context.Context, keys ...harness.Key) error {
	return e.SendKeysWithModifiers(ctx, harness.ModifierKeys{}, keys...)
}

// SendKeysWithModifiers focuses the node and sends one key event sequence
// per key, in order. Modifiers travel in each event's modifier mask.
func (e *TestElement) SendKeysWithModifiers(ctx context.Context, mods harness.ModifierKeys, keys ...harness.Key) error {
	expanded := harness.ExpandKeys(keys...)
	names := make([]string, len(expanded))
	for i, k := range expanded {
		names[i] = k.String()
	}
	e.logAction("SEND_KEYS", "["+strings.Join(names, ", ")+"]", mods)
	if len(expanded) == 0 {
		return nil
	}

	mask := modifierMask(mods)
	actions := []chromedp.Action{dom.Focus().WithNodeID(e.node.NodeID)}
	for _, k := range expanded {
		actions = append(actions, keyPress(keyString(k), mask))
	}
	return e.backend.run(ctx, actions...)
}

func (e *TestElement) Text(ctx context.Context, opts harness.TextOptions) (string, error) {
	e.logAction("TEXT", opts)
	var args []any
	if opts.Exclude != "" {
		args = append(args, opts.Exclude)
	}
	var s string
	err := e.backend.run(ctx, callOn(e.node, domscript.Text, &s, args...))
	return s, err
}

func (e *TestElement) attribute(ctx context.Context, name string) (*string, error) {
	var v *string
	if err := e.backend.run(ctx, callOn(e.node, domscript.Attribute, &v, name)); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *TestElement) GetAttribute(ctx context.Context, name string) (*string, error) {
	e.logAction("GET_ATTRIBUTE", name)
	return e.attribute(ctx, name)
}

func (e *TestElement) HasClass(ctx context.Context, name string) (bool, error) {
	e.logAction("HAS_CLASS", name)
	class, err := e.attribute(ctx, "class")
	if err != nil || class == nil {
		return false, err
	}
	return harness.HasClassToken(*class, name), nil
}

func (e *TestElement) GetDimensions(ctx context.Context) (harness.ElementDimensions, error) {
	e.logAction("GET_DIMENSIONS")
	var d harness.ElementDimensions
	err := e.backend.run(ctx, callOn(e.node, domscript.Dimensions, &d))
	return d, err
}

func (e *TestElement) GetProperty(ctx context.Context, name string) (any, error) {
	e.logAction("GET_PROPERTY", name)
	var v any
	err := e.backend.run(ctx, callOn(e.node, domscript.Property, &v, name))
	return v, err
}

func (e *TestElement) MatchesSelector(ctx context.Context, selector string) (bool, error) {
	e.logAction("MATCHES_SELECTOR", selector)
	var ok bool
	err := e.backend.run(ctx, callOn(e.node, domscript.Matches, &ok, selector))
	return ok, err
}

func (e *TestElement) IsFocused(ctx context.Context) (bool, error) {
	e.logAction("IS_FOCUSED")
	var ok bool
	err := e.backend.run(ctx, callOn(e.node, domscript.IsFocused, &ok))
	return ok, err
}

func (e *TestElement) SetInputValue(ctx context.Context, value string) error {
	e.logAction("SET_INPUT_VALUE", value)
	return e.backend.run(ctx, callOn(e.node, domscript.SetValue, nil, value))
}

// SelectOptions clears the selection of a native select, then clicks each
// requested option with Control held.
func (e *TestElement) SelectOptions(ctx context.Context, indexes ...int) error {
	e.logAction("SELECT_OPTIONS", indexes)

	var options []*cdp.Node
	err := e.backend.run(ctx, chromedp.Nodes("option", &options,
		chromedp.ByQueryAll,
		chromedp.FromNode(e.node),
		chromedp.AtLeast(0),
	))
	if err != nil {
		return err
	}
	want := harness.OptionIndexSet(indexes)
	if len(options) == 0 || len(want) == 0 {
		return nil
	}

	actions := []chromedp.Action{callOn(e.node, domscript.SetValue, nil, "")}
	for i, o := range options {
		if _, ok := want[i]; ok {
			actions = append(actions, mouseClick(o, input.Left, nil, input.ModifierCtrl))
		}
	}
	return e.backend.run(ctx, actions...)
}

func (e *TestElement) DispatchEvent(ctx context.Context, name string, data map[string]harness.EventData) error {
	e.logAction("DISPATCH_EVENT", name)
	return e.backend.run(ctx, callOn(e.node, domscript.DispatchEvent, nil, map[string]any{
		"name": name,
		"data": data,
	}))
}
