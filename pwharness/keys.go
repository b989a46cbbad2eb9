package pwharness

import (
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kylejwatson/playwright-harness/harness"
)

// Playwright key names. Most TestKeys already print as their DOM key name,
// which Playwright accepts; the table exists so every key is spelled out.
var keyMap = map[harness.TestKey]string{
	harness.Backspace:  "Backspace",
	harness.Tab:        "Tab",
	harness.Enter:      "Enter",
	harness.Shift:      "Shift",
	harness.Control:    "Control",
	harness.Alt:        "Alt",
	harness.Escape:     "Escape",
	harness.PageUp:     "PageUp",
	harness.PageDown:   "PageDown",
	harness.End:        "End",
	harness.Home:       "Home",
	harness.LeftArrow:  "ArrowLeft",
	harness.UpArrow:    "ArrowUp",
	harness.RightArrow: "ArrowRight",
	harness.DownArrow:  "ArrowDown",
	harness.Insert:     "Insert",
	harness.Delete:     "Delete",
	harness.F1:         "F1",
	harness.F2:         "F2",
	harness.F3:         "F3",
	harness.F4:         "F4",
	harness.F5:         "F5",
	harness.F6:         "F6",
	harness.F7:         "F7",
	harness.F8:         "F8",
	harness.F9:         "F9",
	harness.F10:        "F10",
	harness.F11:        "F11",
	harness.F12:        "F12",
	harness.Meta:       "Meta",
	harness.Comma:      ",",
}

func keyName(k harness.Key) string {
	if tk, ok := k.(harness.TestKey); ok {
		if s, ok := keyMap[tk]; ok {
			return s
		}
	}
	return k.String()
}

// modifierNames lists held modifiers as Playwright key names in the order
// Control, Alt, Shift, Meta.
func modifierNames(m harness.ModifierKeys) []string {
	var names []string
	if m.Control {
		names = append(names, "Control")
	}
	if m.Alt {
		names = append(names, "Alt")
	}
	if m.Shift {
		names = append(names, "Shift")
	}
	if m.Meta {
		names = append(names, "Meta")
	}
	return names
}

// toModifiers returns nil when no modifier is held.
func toModifiers(m harness.ModifierKeys) []playwright.KeyboardModifier {
	var mods []playwright.KeyboardModifier
	if m.Control {
		mods = append(mods, *playwright.KeyboardModifierControl)
	}
	if m.Alt {
		mods = append(mods, *playwright.KeyboardModifierAlt)
	}
	if m.Shift {
		mods = append(mods, *playwright.KeyboardModifierShift)
	}
	if m.Meta {
		mods = append(mods, *playwright.KeyboardModifierMeta)
	}
	return mods
}

// chord builds a Locator.Press argument: "Control+Shift+a".
func chord(mods []string, key string) string {
	if len(mods) == 0 {
		return key
	}
	return strings.Join(mods, "+") + "+" + key
}
