package chromedpharness

import (
	"context"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/kylejwatson/playwright-harness/harness"
)

var keyMap = map[harness.TestKey]string{
	harness.Backspace:  kb.Backspace,
	harness.Tab:        kb.Tab,
	harness.Enter:      kb.Enter,
	harness.Shift:      kb.Shift,
	harness.Control:    kb.Control,
	harness.Alt:        kb.Alt,
	harness.Escape:     kb.Escape,
	harness.PageUp:     kb.PageUp,
	harness.PageDown:   kb.PageDown,
	harness.End:        kb.End,
	harness.Home:       kb.Home,
	harness.LeftArrow:  kb.ArrowLeft,
	harness.UpArrow:    kb.ArrowUp,
	harness.RightArrow: kb.ArrowRight,
	harness.DownArrow:  kb.ArrowDown,
	harness.Insert:     kb.Insert,
	harness.Delete:     kb.Delete,
	harness.F1:         kb.F1,
	harness.F2:         kb.F2,
	harness.F3:         kb.F3,
	harness.F4:         kb.F4,
	harness.F5:         kb.F5,
	harness.F6:         kb.F6,
	harness.F7:         kb.F7,
	harness.F8:         kb.F8,
	harness.F9:         kb.F9,
	harness.F10:        kb.F10,
	harness.F11:        kb.F11,
	harness.F12:        kb.F12,
	harness.Meta:       kb.Meta,
	harness.Comma:      ",",
}

// keyString returns the chromedp key string for one expanded key.
func keyString(k harness.Key) string {
	if tk, ok := k.(harness.TestKey); ok {
		if s, ok := keyMap[tk]; ok {
			return s
		}
	}
	return k.String()
}

func modifierMask(m harness.ModifierKeys) input.Modifier {
	var mask input.Modifier
	if m.Alt {
		mask |= input.ModifierAlt
	}
	if m.Control {
		mask |= input.ModifierCtrl
	}
	if m.Meta {
		mask |= input.ModifierMeta
	}
	if m.Shift {
		mask |= input.ModifierShift
	}
	return mask
}

const chordMask = input.ModifierAlt | input.ModifierCtrl | input.ModifierMeta

// keyPress dispatches the kb encoding of key with mask held. A chord with
// Control, Alt or Meta is a shortcut and types no text, so its char events
// are dropped.
func keyPress(key string, mask input.Modifier) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, r := range key {
			for _, ev := range kb.Encode(r) {
				if mask&chordMask != 0 && ev.Type == input.KeyChar {
					continue
				}
				ev.Modifiers |= mask
				if err := ev.Do(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
