package harness

import (
	"context"
	"strings"
)

// TextOptions controls TestElement.Text.
type TextOptions struct {
	// Exclude removes descendants matching this selector from the text. The
	// live DOM is never touched.
	Exclude string
}

// ElementDimensions is the bounding client rect of an element.
type ElementDimensions struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// EventData is a value in a dispatched event's payload: a string, number,
// bool, or a nested map of EventData.
type EventData = any

// TestElement is a backend-agnostic handle to one element in the page under
// test. Every method logs the operation before performing it and returns the
// backend's error unchanged.
type TestElement interface {
	Blur(ctx context.Context) error
	Clear(ctx context.Context) error
	Click(ctx context.Context, opts ...ClickOption) error
	RightClick(ctx context.Context, x, y float64, mods ModifierKeys) error
	Focus(ctx context.Context) error
	GetCSSValue(ctx context.Context, property string) (string, error)
	Hover(ctx context.Context) error
	MouseAway(ctx context.Context) error
	SendKeys(ctx context.Context, keys ...Key) error
	SendKeysWithModifiers(ctx context.Context, mods ModifierKeys, keys ...Key) error
	Text(ctx context.Context, opts TextOptions) (string, error)
	// GetAttribute returns nil when the attribute is absent.
	GetAttribute(ctx context.Context, name string) (*string, error)
	HasClass(ctx context.Context, name string) (bool, error)
	GetDimensions(ctx context.Context) (ElementDimensions, error)
	GetProperty(ctx context.Context, name string) (any, error)
	MatchesSelector(ctx context.Context, selector string) (bool, error)
	IsFocused(ctx context.Context) (bool, error)
	SetInputValue(ctx context.Context, value string) error
	SelectOptions(ctx context.Context, indexes ...int) error
	DispatchEvent(ctx context.Context, name string, data map[string]EventData) error
}

// HasClassToken reports whether name is one of the whitespace separated
// tokens of a class attribute value.
func HasClassToken(classAttr, name string) bool {
	for _, tok := range strings.Fields(classAttr) {
		if tok == name {
			return true
		}
	}
	return false
}

// OptionIndexSet collapses indexes into a set.
func OptionIndexSet(indexes []int) map[int]struct{} {
	set := make(map[int]struct{}, len(indexes))
	for _, i := range indexes {
		set[i] = struct{}{}
	}
	return set
}
