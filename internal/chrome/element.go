package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/kylejwatson/playwright-harness/internal/domscript"
)

// Element is a DOM element held as a Runtime remote object in a page session.
type Element struct {
	client    *Client
	sessionID string
	objectID  string
}

// ObjectID returns the element's remote object id.
func (e *Element) ObjectID() string { return e.objectID }

// SessionID returns the session the element lives in.
func (e *Element) SessionID() string { return e.sessionID }

type remoteObject struct {
	Type     string          `json:"type"`
	Subtype  string          `json:"subtype,omitempty"`
	ObjectID string          `json:"objectId,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
}

type exceptionDetails struct {
	Text      string `json:"text"`
	Exception *struct {
		Description string `json:"description"`
	} `json:"exception,omitempty"`
}

func (d *exceptionDetails) err() error {
	e := &EvalError{Text: d.Text}
	if d.Exception != nil {
		e.Description = d.Exception.Description
	}
	return e
}

type evalResponse struct {
	Result           remoteObject      `json:"result"`
	ExceptionDetails *exceptionDetails `json:"exceptionDetails,omitempty"`
}

// DocumentElement resolves document.documentElement in the page of targetID.
func (c *Client) DocumentElement(ctx context.Context, targetID string) (*Element, error) {
	sessionID, err := c.pageSession(ctx, targetID, "Runtime")
	if err != nil {
		return nil, err
	}

	var resp evalResponse
	err = c.callInto(ctx, sessionID, "Runtime.evaluate", map[string]interface{}{
		"expression": "document.documentElement",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("evaluating document element: %w", err)
	}
	if resp.ExceptionDetails != nil {
		return nil, resp.ExceptionDetails.err()
	}
	if resp.Result.ObjectID == "" {
		return nil, fmt.Errorf("document has no root element")
	}

	return &Element{client: c, sessionID: sessionID, objectID: resp.Result.ObjectID}, nil
}

// CallFunction calls fn, a function declaration, with this bound to the
// element and arg as its only argument. Promises are awaited and the result
// is decoded into out, which may be nil.
func (e *Element) CallFunction(ctx context.Context, fn string, arg interface{}, out interface{}) error {
	obj, err := e.callFunctionOn(ctx, fn, arg, true)
	if err != nil {
		return err
	}
	if out == nil || len(obj.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(obj.Value, out); err != nil {
		return fmt.Errorf("parsing function result: %w", err)
	}
	return nil
}

// Eval runs a domscript function against the element.
func (e *Element) Eval(ctx context.Context, script string, arg interface{}, out interface{}) error {
	return e.CallFunction(ctx, domscript.OnThis(script), arg, out)
}

func (e *Element) callFunctionOn(ctx context.Context, fn string, arg interface{}, byValue bool) (*remoteObject, error) {
	params := map[string]interface{}{
		"functionDeclaration": fn,
		"objectId":            e.objectID,
		"returnByValue":       byValue,
		"awaitPromise":        true,
	}
	if arg != nil {
		params["arguments"] = []map[string]interface{}{{"value": arg}}
	}

	result, err := e.client.CallSession(ctx, e.sessionID, "Runtime.callFunctionOn", params)
	if err != nil {
		return nil, err
	}

	var resp evalResponse
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("parsing callFunctionOn response: %w", err)
	}
	if resp.ExceptionDetails != nil {
		return nil, resp.ExceptionDetails.err()
	}
	return &resp.Result, nil
}

// QuerySelectorAll returns the element's descendants matching selector, in
// document order.
func (e *Element) QuerySelectorAll(ctx context.Context, selector string) ([]*Element, error) {
	array, err := e.callFunctionOn(ctx, domscript.OnThis(domscript.QueryAll), selector, false)
	if err != nil {
		return nil, err
	}
	if array.ObjectID == "" {
		return nil, nil
	}
	defer e.release(ctx, array.ObjectID)

	result, err := e.client.CallSession(ctx, e.sessionID, "Runtime.getProperties", map[string]interface{}{
		"objectId":      array.ObjectID,
		"ownProperties": true,
	})
	if err != nil {
		return nil, fmt.Errorf("getting query results: %w", err)
	}

	var resp struct {
		Result []struct {
			Name  string        `json:"name"`
			Value *remoteObject `json:"value,omitempty"`
		} `json:"result"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("parsing properties response: %w", err)
	}

	type indexed struct {
		i  int
		el *Element
	}
	var found []indexed
	for _, p := range resp.Result {
		i, err := strconv.Atoi(p.Name)
		if err != nil || p.Value == nil || p.Value.ObjectID == "" {
			continue
		}
		found = append(found, indexed{i, &Element{client: e.client, sessionID: e.sessionID, objectID: p.Value.ObjectID}})
	}
	sort.Slice(found, func(a, b int) bool { return found[a].i < found[b].i })

	elements := make([]*Element, len(found))
	for i, f := range found {
		elements[i] = f.el
	}
	return elements, nil
}

func (e *Element) release(ctx context.Context, objectID string) {
	e.client.CallSession(ctx, e.sessionID, "Runtime.releaseObject", map[string]interface{}{
		"objectId": objectID,
	})
}

// Release frees the element's remote object.
func (e *Element) Release(ctx context.Context) {
	e.release(ctx, e.objectID)
}

// Describe returns a short CSS-like label such as "button#save.primary".
func (e *Element) Describe(ctx context.Context) (string, error) {
	var s string
	err := e.Eval(ctx, domscript.Describe, nil, &s)
	return s, err
}

// Focus focuses the element.
func (e *Element) Focus(ctx context.Context) error {
	_, err := e.client.CallSession(ctx, e.sessionID, "DOM.focus", map[string]interface{}{
		"objectId": e.objectID,
	})
	if err != nil {
		return fmt.Errorf("focusing element: %w", err)
	}
	return nil
}

// ScrollIntoView scrolls the element into the viewport if it is not already
// visible.
func (e *Element) ScrollIntoView(ctx context.Context) error {
	_, err := e.client.CallSession(ctx, e.sessionID, "DOM.scrollIntoViewIfNeeded", map[string]interface{}{
		"objectId": e.objectID,
	})
	if err != nil {
		return fmt.Errorf("scrolling into view: %w", err)
	}
	return nil
}

// BoundingRect returns the element's bounding client rect.
func (e *Element) BoundingRect(ctx context.Context) (Rect, error) {
	var r Rect
	err := e.Eval(ctx, domscript.Dimensions, nil, &r)
	return r, err
}

func (e *Element) clickPoint(ctx context.Context, offset *Point) (Point, error) {
	if err := e.ScrollIntoView(ctx); err != nil {
		return Point{}, err
	}
	r, err := e.BoundingRect(ctx)
	if err != nil {
		return Point{}, err
	}
	if offset != nil {
		return Point{X: r.Left + offset.X, Y: r.Top + offset.Y}, nil
	}
	return r.Center(), nil
}

// Click scrolls the element into view and clicks it.
func (e *Element) Click(ctx context.Context, opts ClickOptions) error {
	p, err := e.clickPoint(ctx, opts.Position)
	if err != nil {
		return err
	}
	button := opts.Button
	if button == "" {
		button = MouseLeft
	}
	return e.client.dispatchMouseClick(ctx, e.sessionID, p.X, p.Y, button, 1, opts.Modifiers)
}

// Hover moves the mouse over the element's center.
func (e *Element) Hover(ctx context.Context) error {
	p, err := e.clickPoint(ctx, nil)
	if err != nil {
		return err
	}
	return e.client.dispatchMouseMove(ctx, e.sessionID, p.X, p.Y)
}

// MoveMouse moves the mouse to viewport coordinates in the element's page.
func (e *Element) MoveMouse(ctx context.Context, x, y float64) error {
	return e.client.dispatchMouseMove(ctx, e.sessionID, x, y)
}

// Press presses and releases key, holding mods. key is either a single
// character or a DOM key name such as "Enter".
func (e *Element) Press(ctx context.Context, key string, mods KeyModifiers) error {
	return e.client.pressKey(ctx, e.sessionID, key, mods)
}
