package main

import (
	"context"
	"encoding/json"

	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/harness/native"
	"github.com/kylejwatson/playwright-harness/harnesslog"
	"github.com/kylejwatson/playwright-harness/internal/chrome"
)

func cmdStabilize(cfg *Config) int {
	return withLoader(cfg, func(ctx context.Context, loader harness.Loader) (interface{}, error) {
		if err := loader.ForceStabilize(ctx); err != nil {
			return nil, err
		}
		return ActionResult{Action: "stabilize"}, nil
	})
}

func cmdWaitOutside(cfg *Config) int {
	return withLoader(cfg, func(ctx context.Context, loader harness.Loader) (interface{}, error) {
		if err := loader.WaitForTasksOutsideAngular(ctx); err != nil {
			return nil, err
		}
		return ActionResult{Action: "wait-outside"}, nil
	})
}

// TabsResult is returned by the tabs command.
type TabsResult struct {
	Tabs []chrome.TargetInfo `json:"tabs"`
}

func cmdTabs(cfg *Config) int {
	return withClient(cfg, func(ctx context.Context, client *chrome.Client, _ *harnesslog.Logger) (interface{}, error) {
		pages, err := client.Pages(ctx)
		if err != nil {
			return nil, err
		}
		return TabsResult{Tabs: pages}, nil
	})
}

func cmdVersion(cfg *Config) int {
	return withClient(cfg, func(ctx context.Context, client *chrome.Client, _ *harnesslog.Logger) (interface{}, error) {
		return client.Version(ctx)
	})
}

// ButtonInfo describes one native button.
type ButtonInfo struct {
	Text     string `json:"text"`
	Disabled bool   `json:"disabled"`
}

// ButtonsResult is returned by the buttons command.
type ButtonsResult struct {
	Buttons []ButtonInfo `json:"buttons"`
}

func cmdButtons(cfg *Config, args []string) int {
	q := native.Buttons()
	if len(args) > 0 {
		q.Ancestor = args[0]
	}
	return withLoader(cfg, func(ctx context.Context, loader harness.Loader) (interface{}, error) {
		buttons, err := harness.GetAllHarnesses(ctx, loader, q)
		if err != nil {
			return nil, err
		}
		res := ButtonsResult{Buttons: make([]ButtonInfo, 0, len(buttons))}
		for _, b := range buttons {
			text, err := b.Text(ctx)
			if err != nil {
				return nil, err
			}
			disabled, err := b.IsDisabled(ctx)
			if err != nil {
				return nil, err
			}
			res.Buttons = append(res.Buttons, ButtonInfo{Text: text, Disabled: disabled})
		}
		return res, nil
	})
}

// cmdPress clicks the first native button whose text is label.
func cmdPress(cfg *Config, label string) int {
	q := native.Buttons().With(native.WithText[*native.ButtonHarness](label))
	return withLoader(cfg, func(ctx context.Context, loader harness.Loader) (interface{}, error) {
		b, err := harness.GetHarness(ctx, loader, q)
		if err != nil {
			return nil, err
		}
		if err := b.Click(ctx); err != nil {
			return nil, err
		}
		return ActionResult{Action: "press", Detail: label}, nil
	})
}

// OptionsResult is returned by the options command.
type OptionsResult struct {
	Selector string   `json:"selector"`
	Options  []string `json:"options"`
	Selected []int    `json:"selected"`
	Multiple bool     `json:"multiple"`
}

func cmdOptions(cfg *Config, selector string) int {
	q := native.Selects()
	q.Selector = selector
	return withLoader(cfg, func(ctx context.Context, loader harness.Loader) (interface{}, error) {
		s, err := harness.GetHarness(ctx, loader, q)
		if err != nil {
			return nil, err
		}
		res := OptionsResult{Selector: selector}
		if res.Options, err = s.Options(ctx); err != nil {
			return nil, err
		}
		if res.Selected, err = s.SelectedIndexes(ctx); err != nil {
			return nil, err
		}
		if res.Multiple, err = s.IsMultiple(ctx); err != nil {
			return nil, err
		}
		return res, nil
	})
}

// EvalResult is returned by the eval command.
type EvalResult struct {
	Value interface{} `json:"value"`
}

func (r EvalResult) TextValue() string {
	if s, ok := r.Value.(string); ok {
		return s
	}
	b, _ := json.Marshal(r.Value)
	return string(b)
}

func cmdEval(cfg *Config, expression string) int {
	return withClient(cfg, func(ctx context.Context, client *chrome.Client, _ *harnesslog.Logger) (interface{}, error) {
		info, err := resolveTarget(ctx, client, cfg)
		if err != nil {
			return nil, err
		}
		var res EvalResult
		if err := client.Eval(ctx, info.ID, expression, &res.Value); err != nil {
			return nil, err
		}
		return res, nil
	})
}

// cmdRaw sends one protocol command to the target page and prints the
// unparsed result.
func cmdRaw(cfg *Config, method string, args []string) int {
	var params json.RawMessage
	if len(args) > 0 {
		params = json.RawMessage(args[0])
	}
	return withClient(cfg, func(ctx context.Context, client *chrome.Client, _ *harnesslog.Logger) (interface{}, error) {
		info, err := resolveTarget(ctx, client, cfg)
		if err != nil {
			return nil, err
		}
		return client.RawCallSession(ctx, info.ID, method, params)
	})
}
