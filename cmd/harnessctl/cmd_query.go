package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/kylejwatson/playwright-harness/harness"
)

// CountResult is returned by the count command.
type CountResult struct {
	Selector string `json:"selector"`
	Count    int    `json:"count"`
}

// TextResult is returned by the text command.
type TextResult struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

// AttrResult is returned by the attr command. Value is null when the
// attribute is absent.
type AttrResult struct {
	Selector string  `json:"selector"`
	Name     string  `json:"name"`
	Value    *string `json:"value"`
}

// CheckResult is returned by the yes/no queries: has-class, matches, focused.
type CheckResult struct {
	Selector string `json:"selector"`
	Check    string `json:"check"`
	Arg      string `json:"arg,omitempty"`
	Value    bool   `json:"value"`
}

// PropResult is returned by the prop command.
type PropResult struct {
	Selector string      `json:"selector"`
	Name     string      `json:"name"`
	Value    interface{} `json:"value"`
}

// CSSResult is returned by the css command.
type CSSResult struct {
	Selector string `json:"selector"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// DimensionsResult is returned by the dims command.
type DimensionsResult struct {
	Selector string `json:"selector"`
	harness.ElementDimensions
}

// onElement resolves the first element matching selector and runs fn on it.
func onElement(cfg *Config, selector string, fn func(ctx context.Context, el harness.TestElement) (interface{}, error)) int {
	return withLoader(cfg, func(ctx context.Context, loader harness.Loader) (interface{}, error) {
		el, err := loader.LocatorFor(ctx, selector)
		if err != nil {
			return nil, err
		}
		return fn(ctx, el)
	})
}

func cmdCount(cfg *Config, selector string) int {
	return withLoader(cfg, func(ctx context.Context, loader harness.Loader) (interface{}, error) {
		els, err := loader.LocatorForAll(ctx, selector)
		if err != nil {
			return nil, err
		}
		return CountResult{Selector: selector, Count: len(els)}, nil
	})
}

func cmdText(cfg *Config, args []string) int {
	fs := pflag.NewFlagSet("text", pflag.ContinueOnError)
	fs.SetOutput(cfg.Stderr)
	exclude := fs.String("exclude", "", "Leave out descendants matching this selector")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return cmdMissingArg(cfg, "usage: harnessctl text <selector> [--exclude <selector>]")
	}
	selector := fs.Arg(0)

	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		text, err := el.Text(ctx, harness.TextOptions{Exclude: *exclude})
		if err != nil {
			return nil, err
		}
		return TextResult{Selector: selector, Text: text}, nil
	})
}

func cmdAttr(cfg *Config, selector, name string) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		v, err := el.GetAttribute(ctx, name)
		if err != nil {
			return nil, err
		}
		return AttrResult{Selector: selector, Name: name, Value: v}, nil
	})
}

func cmdHasClass(cfg *Config, selector, class string) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		ok, err := el.HasClass(ctx, class)
		if err != nil {
			return nil, err
		}
		return CheckResult{Selector: selector, Check: "has-class", Arg: class, Value: ok}, nil
	})
}

func cmdMatches(cfg *Config, selector, other string) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		ok, err := el.MatchesSelector(ctx, other)
		if err != nil {
			return nil, err
		}
		return CheckResult{Selector: selector, Check: "matches", Arg: other, Value: ok}, nil
	})
}

func cmdFocused(cfg *Config, selector string) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		ok, err := el.IsFocused(ctx)
		if err != nil {
			return nil, err
		}
		return CheckResult{Selector: selector, Check: "focused", Value: ok}, nil
	})
}

func cmdProp(cfg *Config, selector, name string) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		v, err := el.GetProperty(ctx, name)
		if err != nil {
			return nil, err
		}
		return PropResult{Selector: selector, Name: name, Value: v}, nil
	})
}

func cmdCSS(cfg *Config, selector, property string) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		v, err := el.GetCSSValue(ctx, property)
		if err != nil {
			return nil, err
		}
		return CSSResult{Selector: selector, Property: property, Value: v}, nil
	})
}

func cmdDims(cfg *Config, selector string) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		d, err := el.GetDimensions(ctx)
		if err != nil {
			return nil, err
		}
		return DimensionsResult{Selector: selector, ElementDimensions: d}, nil
	})
}
