package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/kylejwatson/playwright-harness/harness"
)

// ActionResult is returned by every command that acts on an element.
type ActionResult struct {
	Action   string      `json:"action"`
	Selector string      `json:"selector,omitempty"`
	Detail   interface{} `json:"detail,omitempty"`
}

// modifierFlags registers --ctrl, --alt, --shift and --meta on fs.
func modifierFlags(fs *pflag.FlagSet) *harness.ModifierKeys {
	var m harness.ModifierKeys
	fs.BoolVar(&m.Control, "ctrl", false, "Hold Control")
	fs.BoolVar(&m.Alt, "alt", false, "Hold Alt")
	fs.BoolVar(&m.Shift, "shift", false, "Hold Shift")
	fs.BoolVar(&m.Meta, "meta", false, "Hold Meta")
	return &m
}

// elementOps are the element operations that take no argument.
var elementOps = map[string]func(harness.TestElement, context.Context) error{
	"hover":      harness.TestElement.Hover,
	"mouse-away": harness.TestElement.MouseAway,
	"focus":      harness.TestElement.Focus,
	"blur":       harness.TestElement.Blur,
	"clear":      harness.TestElement.Clear,
}

// simpleAction runs a no-argument element operation.
func simpleAction(cfg *Config, action, selector string, op func(harness.TestElement, context.Context) error) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		if err := op(el, ctx); err != nil {
			return nil, err
		}
		return ActionResult{Action: action, Selector: selector}, nil
	})
}

func cmdClick(cfg *Config, args []string) int {
	fs := pflag.NewFlagSet("click", pflag.ContinueOnError)
	fs.SetOutput(cfg.Stderr)
	x := fs.Float64("x", 0, "Offset from the element's left edge")
	y := fs.Float64("y", 0, "Offset from the element's top edge")
	center := fs.Bool("center", false, "Click the element's center")
	mods := modifierFlags(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return cmdMissingArg(cfg, "usage: harnessctl click <selector> [--x <n> --y <n> | --center] [--ctrl --alt --shift --meta]")
	}
	selector := fs.Arg(0)

	opts := []harness.ClickOption{harness.WithModifiers(*mods)}
	switch {
	case fs.Changed("x") || fs.Changed("y"):
		if *center {
			fmt.Fprintln(cfg.Stderr, "error: --center cannot be combined with --x/--y")
			return ExitError
		}
		opts = append(opts, harness.At(*x, *y))
	case *center:
		opts = append(opts, harness.Center())
	}

	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		if err := el.Click(ctx, opts...); err != nil {
			return nil, err
		}
		return ActionResult{Action: "click", Selector: selector}, nil
	})
}

func cmdRightClick(cfg *Config, args []string) int {
	fs := pflag.NewFlagSet("right-click", pflag.ContinueOnError)
	fs.SetOutput(cfg.Stderr)
	mods := modifierFlags(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() != 3 {
		return cmdMissingArg(cfg, "usage: harnessctl right-click <selector> <x> <y> [--ctrl --alt --shift --meta]")
	}
	selector := fs.Arg(0)
	x, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: invalid x coordinate: %v\n", err)
		return ExitError
	}
	y, err := strconv.ParseFloat(fs.Arg(2), 64)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: invalid y coordinate: %v\n", err)
		return ExitError
	}

	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		if err := el.RightClick(ctx, x, y, *mods); err != nil {
			return nil, err
		}
		return ActionResult{Action: "right-click", Selector: selector}, nil
	})
}

func cmdFill(cfg *Config, selector, value string) int {
	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		if err := el.SetInputValue(ctx, value); err != nil {
			return nil, err
		}
		return ActionResult{Action: "fill", Selector: selector, Detail: value}, nil
	})
}

func cmdKeys(cfg *Config, args []string) int {
	fs := pflag.NewFlagSet("keys", pflag.ContinueOnError)
	fs.SetOutput(cfg.Stderr)
	mods := modifierFlags(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		return cmdMissingArg(cfg, "usage: harnessctl keys <selector> <text|{Key}>... [--ctrl --alt --shift --meta]")
	}
	selector := fs.Arg(0)
	keys, err := parseKeys(fs.Args()[1:])
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitError
	}

	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		if err := el.SendKeysWithModifiers(ctx, *mods, keys...); err != nil {
			return nil, err
		}
		return ActionResult{Action: "keys", Selector: selector, Detail: len(harness.ExpandKeys(keys...))}, nil
	})
}

func cmdSelect(cfg *Config, selector string, args []string) int {
	indexes := make([]int, 0, len(args))
	for _, a := range args {
		i, err := strconv.Atoi(a)
		if err != nil || i < 0 {
			fmt.Fprintf(cfg.Stderr, "error: invalid option index: %s\n", a)
			return ExitError
		}
		indexes = append(indexes, i)
	}

	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		if err := el.SelectOptions(ctx, indexes...); err != nil {
			return nil, err
		}
		return ActionResult{Action: "select", Selector: selector, Detail: indexes}, nil
	})
}

func cmdDispatch(cfg *Config, selector, event string, args []string) int {
	var data map[string]harness.EventData
	if len(args) > 0 {
		if err := json.Unmarshal([]byte(args[0]), &data); err != nil {
			fmt.Fprintf(cfg.Stderr, "error: invalid event data: %v\n", err)
			return ExitError
		}
	}

	return onElement(cfg, selector, func(ctx context.Context, el harness.TestElement) (interface{}, error) {
		if err := el.DispatchEvent(ctx, event, data); err != nil {
			return nil, err
		}
		return ActionResult{Action: "dispatch", Selector: selector, Detail: event}, nil
	})
}
