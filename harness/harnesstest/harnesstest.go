// Package harnesstest is a conformance suite every backend runs against a
// real browser.
package harnesstest

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harness/native"
)

// Page is the document the suite expects Setup to load.
const Page = `<!doctype html>
<html>
<head>
<style>
  #box { position: absolute; top: 400px; left: 300px; width: 120px; height: 30px; margin: 0; padding: 0; border: 0; display: block; }
  #box:hover { color: rgb(255, 0, 0); }
</style>
</head>
<body>
<ul id="list">
  <li class="a">a1</li>
  <li class="b">b1</li>
  <li class="a">a2</li>
</ul>
<div id="classy" class="  foo   bar "></div>
<p id="greeting">Hello <span class="badge">3</span> world</p>
<input id="name" placeholder="Name">
<select id="multi" multiple size="3">
  <option>zero</option>
  <option>one</option>
  <option>two</option>
</select>
<button id="counter" type="button">0</button>
<div id="box" title="box">box</div>
<div id="events"></div>
<script>
  const events = document.getElementById('events');
  const record = (s) => { events.textContent += s + ';'; };
  const counter = document.getElementById('counter');
  counter.addEventListener('click', (e) => {
    counter.textContent = String(Number(counter.textContent) + 1);
    record('click' + (e.shiftKey ? ':shift' : ''));
  });
  const box = document.getElementById('box');
  box.addEventListener('contextmenu', (e) => {
    e.preventDefault();
    record('contextmenu:' + e.button + ':' + e.offsetX + ',' + e.offsetY);
  });
  box.addEventListener('ping', (e) => record('ping:' + e.detail));
  document.getElementById('name').addEventListener('input', (e) => record('input:' + e.target.value));
</script>
</body>
</html>`

// DataURL is Page as a data: URL.
func DataURL() string {
	return "data:text/html," + url.PathEscape(Page)
}

// Setup loads Page into a fresh browser page and returns a loader rooted at
// its document element.
type Setup func(t *testing.T) harness.Loader

// Run runs the suite. Each subtest gets its own page from setup.
func Run(t *testing.T, setup Setup) {
	t.Helper()

	for _, tc := range []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, l harness.Loader)
	}{
		{"SelectorListOrder", selectorListOrder},
		{"HasClass", hasClass},
		{"TextExcludeLeavesDOM", textExclude},
		{"SendKeys", sendKeys},
		{"SetInputValue", setInputValue},
		{"SelectOptions", selectOptions},
		{"SelectOptionsNoIndexes", selectOptionsNoIndexes},
		{"Click", click},
		{"RightClick", rightClick},
		{"HoverAndMouseAway", hoverAndMouseAway},
		{"Focus", focus},
		{"Queries", queries},
		{"DispatchEvent", dispatchEvent},
		{"ChildLoaders", childLoaders},
		{"Stabilize", stabilize},
		{"NativeHarnesses", nativeHarnesses},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			tc.fn(t, ctx, setup(t))
		})
	}
}

func must(t *testing.T, ctx context.Context, l harness.Loader, selector string) harness.TestElement {
	t.Helper()
	el, err := l.LocatorFor(ctx, selector)
	require.NoError(t, err)
	return el
}

func texts(t *testing.T, ctx context.Context, els []harness.TestElement) []string {
	t.Helper()
	out := make([]string, len(els))
	for i, el := range els {
		s, err := el.Text(ctx, harness.TextOptions{})
		require.NoError(t, err)
		out[i] = s
	}
	return out
}

func events(t *testing.T, ctx context.Context, l harness.Loader) string {
	t.Helper()
	s, err := must(t, ctx, l, "#events").Text(ctx, harness.TextOptions{})
	require.NoError(t, err)
	return s
}

func selectorListOrder(t *testing.T, ctx context.Context, l harness.Loader) {
	els, err := l.LocatorForAll(ctx, "li.b, li.a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "a1", "a2"}, texts(t, ctx, els))

	els, err = l.LocatorForAll(ctx, "li, li.b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b1", "a2", "b1"}, texts(t, ctx, els))
}

func hasClass(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#classy")
	for name, want := range map[string]bool{"foo": true, "bar": true, "fo": false} {
		got, err := el.HasClass(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func textExclude(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#greeting")

	s, err := el.Text(ctx, harness.TextOptions{Exclude: ".badge"})
	require.NoError(t, err)
	assert.Equal(t, "Hello  world", s)

	s, err = el.Text(ctx, harness.TextOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Hello 3 world", s)

	badges, err := l.LocatorForAll(ctx, "#greeting .badge")
	require.NoError(t, err)
	assert.Len(t, badges, 1)
}

func sendKeys(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#name")

	require.NoError(t, el.SendKeys(ctx, harness.Text("ab")))
	v, err := el.GetProperty(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "ab", v)
	assert.Equal(t, "input:a;input:ab;", events(t, ctx, l))

	require.NoError(t, el.SendKeys(ctx, harness.Backspace))
	v, err = el.GetProperty(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func setInputValue(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#name")

	require.NoError(t, el.SetInputValue(ctx, "typed at once"))
	v, err := el.GetProperty(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "typed at once", v)
	assert.Equal(t, "input:typed at once;", events(t, ctx, l))

	require.NoError(t, el.Clear(ctx))
	v, err = el.GetProperty(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func selectedIndexes(t *testing.T, ctx context.Context, l harness.Loader) []int {
	t.Helper()
	h, err := harness.GetHarness(ctx, l, native.Selects())
	require.NoError(t, err)
	idx, err := h.SelectedIndexes(ctx)
	require.NoError(t, err)
	return idx
}

func selectOptions(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#multi")

	require.NoError(t, el.SelectOptions(ctx, 1))
	assert.Equal(t, []int{1}, selectedIndexes(t, ctx, l))

	require.NoError(t, el.SelectOptions(ctx, 0, 2))
	assert.Equal(t, []int{0, 2}, selectedIndexes(t, ctx, l))
}

func selectOptionsNoIndexes(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#multi")

	require.NoError(t, el.SelectOptions(ctx, 1))
	require.NoError(t, el.SelectOptions(ctx))
	assert.Equal(t, []int{1}, selectedIndexes(t, ctx, l), "selection is left alone")
}

func click(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#counter")

	require.NoError(t, el.Click(ctx))
	require.NoError(t, el.Click(ctx, harness.Center(), harness.WithModifiers(harness.ModifierKeys{Shift: true})))
	require.NoError(t, el.Click(ctx, harness.At(2, 2)))

	s, err := el.Text(ctx, harness.TextOptions{})
	require.NoError(t, err)
	assert.Equal(t, "3", s)
	assert.Equal(t, "click;click:shift;click;", events(t, ctx, l))
}

func rightClick(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#box")

	require.NoError(t, el.RightClick(ctx, 10, 5, harness.ModifierKeys{}))
	assert.Equal(t, "contextmenu:2:10,5;", events(t, ctx, l))
}

func hoverAndMouseAway(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#box")

	require.NoError(t, el.Hover(ctx))
	hovered, err := el.MatchesSelector(ctx, ":hover")
	require.NoError(t, err)
	assert.True(t, hovered)
	color, err := el.GetCSSValue(ctx, "color")
	require.NoError(t, err)
	assert.Equal(t, "rgb(255, 0, 0)", color)

	require.NoError(t, el.MouseAway(ctx))
	hovered, err = el.MatchesSelector(ctx, ":hover")
	require.NoError(t, err)
	assert.False(t, hovered)
}

func focus(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#name")

	require.NoError(t, el.Focus(ctx))
	ok, err := el.IsFocused(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, el.Blur(ctx))
	ok, err = el.IsFocused(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func queries(t *testing.T, ctx context.Context, l harness.Loader) {
	box := must(t, ctx, l, "#box")

	dims, err := box.GetDimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, harness.ElementDimensions{Top: 400, Left: 300, Width: 120, Height: 30}, dims)

	title, err := box.GetAttribute(ctx, "title")
	require.NoError(t, err)
	require.NotNil(t, title)
	assert.Equal(t, "box", *title)

	missing, err := box.GetAttribute(ctx, "data-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	id, err := box.GetProperty(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, "box", id)

	display, err := box.GetCSSValue(ctx, "display")
	require.NoError(t, err)
	assert.Equal(t, "block", display)

	ok, err := box.MatchesSelector(ctx, "div[title]")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = box.MatchesSelector(ctx, "span")
	require.NoError(t, err)
	assert.False(t, ok)
}

func dispatchEvent(t *testing.T, ctx context.Context, l harness.Loader) {
	el := must(t, ctx, l, "#box")

	require.NoError(t, el.DispatchEvent(ctx, "ping", map[string]harness.EventData{"detail": "pong"}))
	assert.Equal(t, "ping:pong;", events(t, ctx, l))
}

func childLoaders(t *testing.T, ctx context.Context, l harness.Loader) {
	list, err := l.ChildLoader(ctx, "#list")
	require.NoError(t, err)

	els, err := list.LocatorForAll(ctx, "li.a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, texts(t, ctx, els))

	none, err := list.LocatorForAll(ctx, "#box")
	require.NoError(t, err)
	assert.Empty(t, none)

	box, err := list.DocumentRootLocatorFactory().LocatorForAll(ctx, "#box")
	require.NoError(t, err)
	assert.Len(t, box, 1)

	items, err := l.AllChildLoaders(ctx, "li")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = l.ChildLoader(ctx, "dialog")
	assert.ErrorIs(t, err, harness.ErrNoMatch)
}

func stabilize(t *testing.T, ctx context.Context, l harness.Loader) {
	require.NoError(t, l.ForceStabilize(ctx))

	list, err := l.ChildLoader(ctx, "#list")
	require.NoError(t, err)
	require.NoError(t, list.ForceStabilize(ctx))

	assert.ErrorIs(t, l.WaitForTasksOutsideAngular(ctx), harness.ErrNotImplemented)
	assert.ErrorIs(t, list.WaitForTasksOutsideAngular(ctx), harness.ErrNotImplemented)
}

func nativeHarnesses(t *testing.T, ctx context.Context, l harness.Loader) {
	b, err := harness.GetHarness(ctx, l, native.Buttons())
	require.NoError(t, err)
	require.NoError(t, b.Click(ctx))
	label, err := b.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", label)

	in, err := harness.GetHarness(ctx, l, native.Inputs())
	require.NoError(t, err)
	require.NoError(t, in.SetValue(ctx, "Ada"))
	v, err := in.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)
	placeholder, err := in.Placeholder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Name", placeholder)

	sel, err := harness.GetHarness(ctx, l, native.Selects())
	require.NoError(t, err)
	options, err := sel.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zero", "one", "two"}, options)
}
