// Package native provides harnesses for plain HTML form controls.
package native

import (
	"context"
	"fmt"
	"strings"

	"github.com/kylejwatson/playwright-harness/harness"
)

// WithText keeps hosts whose trimmed text equals text.
func WithText[H interface{ Host() harness.TestElement }](text string) func(context.Context, H) (bool, error) {
	return func(ctx context.Context, h H) (bool, error) {
		s, err := h.Host().Text(ctx, harness.TextOptions{})
		return s == text, err
	}
}

func boolProperty(ctx context.Context, el harness.TestElement, name string) (bool, error) {
	v, err := el.GetProperty(ctx, name)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func stringProperty(ctx context.Context, el harness.TestElement, name string) (string, error) {
	v, err := el.GetProperty(ctx, name)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return fmt.Sprint(s), nil
	}
}

// ButtonHarness drives a button or a button-like input.
type ButtonHarness struct {
	harness.ComponentHarness
}

// NewButtonHarness scopes a ButtonHarness to l.
func NewButtonHarness(l harness.Loader) *ButtonHarness {
	return &ButtonHarness{harness.NewComponentHarness(l)}
}

// Buttons matches every button on the page.
func Buttons() harness.Query[*ButtonHarness] {
	return harness.Query[*ButtonHarness]{
		HostSelector: "button, input[type=button], input[type=submit]",
		New:          NewButtonHarness,
	}
}

func (b *ButtonHarness) Click(ctx context.Context) error {
	return b.Host().Click(ctx)
}

// Text returns the label of the button. Input buttons carry it in value.
func (b *ButtonHarness) Text(ctx context.Context) (string, error) {
	isInput, err := b.Host().MatchesSelector(ctx, "input")
	if err != nil {
		return "", err
	}
	if isInput {
		v, err := stringProperty(ctx, b.Host(), "value")
		return strings.TrimSpace(v), err
	}
	return b.Host().Text(ctx, harness.TextOptions{})
}

func (b *ButtonHarness) IsDisabled(ctx context.Context) (bool, error) {
	return boolProperty(ctx, b.Host(), "disabled")
}

// InputHarness drives an input or a textarea.
type InputHarness struct {
	harness.ComponentHarness
}

// NewInputHarness scopes an InputHarness to l.
func NewInputHarness(l harness.Loader) *InputHarness {
	return &InputHarness{harness.NewComponentHarness(l)}
}

// Inputs matches every text input and textarea.
func Inputs() harness.Query[*InputHarness] {
	return harness.Query[*InputHarness]{
		HostSelector: "input, textarea",
		New:          NewInputHarness,
	}
}

func (i *InputHarness) Value(ctx context.Context) (string, error) {
	return stringProperty(ctx, i.Host(), "value")
}

// SetValue replaces the value by clearing the control and typing value, so
// key handlers see every character.
func (i *InputHarness) SetValue(ctx context.Context, value string) error {
	if err := i.Host().Clear(ctx); err != nil {
		return err
	}
	if value == "" {
		return nil
	}
	return i.Host().SendKeys(ctx, harness.Text(value))
}

func (i *InputHarness) Placeholder(ctx context.Context) (string, error) {
	return stringProperty(ctx, i.Host(), "placeholder")
}

func (i *InputHarness) IsDisabled(ctx context.Context) (bool, error) {
	return boolProperty(ctx, i.Host(), "disabled")
}

func (i *InputHarness) Focus(ctx context.Context) error { return i.Host().Focus(ctx) }

func (i *InputHarness) Blur(ctx context.Context) error { return i.Host().Blur(ctx) }

func (i *InputHarness) IsFocused(ctx context.Context) (bool, error) {
	return i.Host().IsFocused(ctx)
}

// SelectHarness drives a native select.
type SelectHarness struct {
	harness.ComponentHarness
}

// NewSelectHarness scopes a SelectHarness to l.
func NewSelectHarness(l harness.Loader) *SelectHarness {
	return &SelectHarness{harness.NewComponentHarness(l)}
}

// Selects matches every select element.
func Selects() harness.Query[*SelectHarness] {
	return harness.Query[*SelectHarness]{
		HostSelector: "select",
		New:          NewSelectHarness,
	}
}

// Options returns the text of every option, in document order.
func (s *SelectHarness) Options(ctx context.Context) ([]string, error) {
	options, err := s.LocatorForAll(ctx, "option")
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(options))
	for i, o := range options {
		if texts[i], err = o.Text(ctx, harness.TextOptions{}); err != nil {
			return nil, err
		}
	}
	return texts, nil
}

func (s *SelectHarness) SelectOptions(ctx context.Context, indexes ...int) error {
	return s.Host().SelectOptions(ctx, indexes...)
}

func (s *SelectHarness) Value(ctx context.Context) (string, error) {
	return stringProperty(ctx, s.Host(), "value")
}

func (s *SelectHarness) IsMultiple(ctx context.Context) (bool, error) {
	return boolProperty(ctx, s.Host(), "multiple")
}

// SelectedIndexes returns the positions of the selected options.
func (s *SelectHarness) SelectedIndexes(ctx context.Context) ([]int, error) {
	options, err := s.LocatorForAll(ctx, "option")
	if err != nil {
		return nil, err
	}
	var selected []int
	for i, o := range options {
		ok, err := boolProperty(ctx, o, "selected")
		if err != nil {
			return nil, err
		}
		if ok {
			selected = append(selected, i)
		}
	}
	return selected, nil
}
