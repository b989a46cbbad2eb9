package pwharness_test

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/kylejwatson/playwright-harness/harnesslog"
)

// recorder collects the Playwright calls made through every fake sharing it.
type recorder struct {
	calls []string
	mouse [][2]float64
}

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

// locatorBase lets the fakes embed playwright.Locator while defining their
// own Locator method.
type locatorBase interface{ playwright.Locator }

// fakeLocator implements the Locator methods the backend uses; anything else
// panics through the nil embedded interface.
type fakeLocator struct {
	locatorBase

	name     string
	rec      *recorder
	children map[string][]*fakeLocator
	results  map[string]any
	errs     map[string]error
	clicks   []playwright.LocatorClickOptions
}

func newLocator(rec *recorder, name string) *fakeLocator {
	return &fakeLocator{
		name:     name,
		rec:      rec,
		children: map[string][]*fakeLocator{},
		results:  map[string]any{},
		errs:     map[string]error{},
	}
}

// query is the locator returned by Locator(selector) before All resolves it.
type query struct {
	locatorBase
	parent   *fakeLocator
	selector string
}

func (q *query) All() ([]playwright.Locator, error) {
	q.parent.rec.add("%s.all(%s)", q.parent.name, q.selector)
	if err := q.parent.errs["all:"+q.selector]; err != nil {
		return nil, err
	}
	var out []playwright.Locator
	for _, c := range q.parent.children[q.selector] {
		out = append(out, c)
	}
	return out, nil
}

func (l *fakeLocator) Locator(selector interface{}, _ ...playwright.LocatorLocatorOptions) playwright.Locator {
	return &query{parent: l, selector: selector.(string)}
}

func (l *fakeLocator) Evaluate(expression string, arg interface{}, _ ...playwright.LocatorEvaluateOptions) (interface{}, error) {
	l.rec.add("%s.evaluate(%v)", l.name, arg)
	if err := l.errs[expression]; err != nil {
		return nil, err
	}
	return l.results[expression], nil
}

func (l *fakeLocator) Blur(...playwright.LocatorBlurOptions) error {
	l.rec.add("%s.blur", l.name)
	return nil
}

func (l *fakeLocator) Clear(...playwright.LocatorClearOptions) error {
	l.rec.add("%s.clear", l.name)
	return nil
}

func (l *fakeLocator) Focus(...playwright.LocatorFocusOptions) error {
	l.rec.add("%s.focus", l.name)
	return l.errs["focus"]
}

func (l *fakeLocator) Hover(...playwright.LocatorHoverOptions) error {
	l.rec.add("%s.hover", l.name)
	return nil
}

func (l *fakeLocator) Fill(value string, _ ...playwright.LocatorFillOptions) error {
	l.rec.add("%s.fill(%s)", l.name, value)
	return nil
}

func (l *fakeLocator) Press(key string, _ ...playwright.LocatorPressOptions) error {
	l.rec.add("%s.press(%s)", l.name, key)
	return l.errs["press:"+key]
}

func (l *fakeLocator) Click(opts ...playwright.LocatorClickOptions) error {
	var o playwright.LocatorClickOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	l.clicks = append(l.clicks, o)

	var mods []string
	for _, m := range o.Modifiers {
		mods = append(mods, string(m))
	}
	l.rec.add("%s.click(%s)", l.name, strings.Join(mods, "+"))
	return nil
}

func (l *fakeLocator) Page() (playwright.Page, error) {
	return &fakePage{rec: l.rec}, nil
}

type fakePage struct {
	playwright.Page
	rec  *recorder
	root *fakeLocator
}

func (p *fakePage) Locator(selector string, _ ...playwright.PageLocatorOptions) playwright.Locator {
	p.rec.add("page.locator(%s)", selector)
	return p.root
}

func (p *fakePage) Mouse() playwright.Mouse {
	return &fakeMouse{rec: p.rec}
}

type fakeMouse struct {
	playwright.Mouse
	rec *recorder
}

func (m *fakeMouse) Move(x, y float64, _ ...playwright.MouseMoveOptions) error {
	m.rec.mouse = append(m.rec.mouse, [2]float64{x, y})
	return nil
}

func quietLogger() *harnesslog.Logger {
	l := harnesslog.NewNullLogger()
	l.Log.SetLevel(logrus.WarnLevel)
	return l
}
