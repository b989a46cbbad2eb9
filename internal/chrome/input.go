package chrome

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

type keyDefinition struct {
	code    string
	keyCode int
	text    string
}

var keyDefinitions = map[string]keyDefinition{
	"Enter":      {"Enter", 13, "\r"},
	"Tab":        {"Tab", 9, ""},
	"Escape":     {"Escape", 27, ""},
	"Backspace":  {"Backspace", 8, ""},
	"Delete":     {"Delete", 46, ""},
	"Insert":     {"Insert", 45, ""},
	"ArrowUp":    {"ArrowUp", 38, ""},
	"ArrowDown":  {"ArrowDown", 40, ""},
	"ArrowLeft":  {"ArrowLeft", 37, ""},
	"ArrowRight": {"ArrowRight", 39, ""},
	"Home":       {"Home", 36, ""},
	"End":        {"End", 35, ""},
	"PageUp":     {"PageUp", 33, ""},
	"PageDown":   {"PageDown", 34, ""},
	"Shift":      {"ShiftLeft", 16, ""},
	"Control":    {"ControlLeft", 17, ""},
	"Alt":        {"AltLeft", 18, ""},
	"Meta":       {"MetaLeft", 91, ""},
	"F1":         {"F1", 112, ""},
	"F2":         {"F2", 113, ""},
	"F3":         {"F3", 114, ""},
	"F4":         {"F4", 115, ""},
	"F5":         {"F5", 116, ""},
	"F6":         {"F6", 117, ""},
	"F7":         {"F7", 118, ""},
	"F8":         {"F8", 119, ""},
	"F9":         {"F9", 120, ""},
	"F10":        {"F10", 121, ""},
	"F11":        {"F11", 122, ""},
	"F12":        {"F12", 123, ""},
	",":          {"Comma", 188, ","},
	" ":          {"Space", 32, " "},
}

// lookupKey returns the definition of a named key or a single character.
func lookupKey(key string) (keyDefinition, error) {
	if def, ok := keyDefinitions[key]; ok {
		return def, nil
	}
	if utf8.RuneCountInString(key) != 1 {
		return keyDefinition{}, fmt.Errorf("unknown key %q", key)
	}

	def := keyDefinition{text: key}
	r, _ := utf8.DecodeRuneInString(key)
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		upper := strings.ToUpper(key)
		def.code = "Key" + upper
		def.keyCode = int(upper[0])
	case r >= '0' && r <= '9':
		def.code = "Digit" + key
		def.keyCode = int(r)
	}
	return def, nil
}

// modifierOrder is the order modifier keys go down in; they come up reversed.
var modifierOrder = []struct {
	key string
	on  func(KeyModifiers) bool
	set func(*KeyModifiers, bool)
}{
	{"Control", func(m KeyModifiers) bool { return m.Ctrl }, func(m *KeyModifiers, v bool) { m.Ctrl = v }},
	{"Alt", func(m KeyModifiers) bool { return m.Alt }, func(m *KeyModifiers, v bool) { m.Alt = v }},
	{"Shift", func(m KeyModifiers) bool { return m.Shift }, func(m *KeyModifiers, v bool) { m.Shift = v }},
	{"Meta", func(m KeyModifiers) bool { return m.Meta }, func(m *KeyModifiers, v bool) { m.Meta = v }},
}

// pressKey holds down mods, presses key, then releases mods.
func (c *Client) pressKey(ctx context.Context, sessionID string, key string, mods KeyModifiers) error {
	def, err := lookupKey(key)
	if err != nil {
		return err
	}

	var held KeyModifiers
	var down []int
	for i, m := range modifierOrder {
		if !m.on(mods) {
			continue
		}
		m.set(&held, true)
		if err := c.dispatchKey(ctx, sessionID, "rawKeyDown", m.key, keyDefinitions[m.key], held); err != nil {
			return err
		}
		down = append(down, i)
	}

	// Chords with Control, Alt or Meta are shortcuts and insert no text.
	if mods.Ctrl || mods.Alt || mods.Meta {
		def.text = ""
	}
	downType := "keyDown"
	if def.text == "" {
		downType = "rawKeyDown"
	}
	if err := c.dispatchKey(ctx, sessionID, downType, key, def, held); err != nil {
		return err
	}
	if err := c.dispatchKey(ctx, sessionID, "keyUp", key, def, held); err != nil {
		return err
	}

	for i := len(down) - 1; i >= 0; i-- {
		m := modifierOrder[down[i]]
		m.set(&held, false)
		if err := c.dispatchKey(ctx, sessionID, "keyUp", m.key, keyDefinitions[m.key], held); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) dispatchKey(ctx context.Context, sessionID, typ, key string, def keyDefinition, mods KeyModifiers) error {
	params := map[string]interface{}{
		"type":      typ,
		"key":       key,
		"modifiers": mods.Bitmask(),
	}
	if def.code != "" {
		params["code"] = def.code
	}
	if def.keyCode != 0 {
		params["windowsVirtualKeyCode"] = def.keyCode
		params["nativeVirtualKeyCode"] = def.keyCode
	}
	if typ == "keyDown" && def.text != "" {
		params["text"] = def.text
		params["unmodifiedText"] = def.text
	}
	_, err := c.CallSession(ctx, sessionID, "Input.dispatchKeyEvent", params)
	if err != nil {
		return fmt.Errorf("%s for %q: %w", typ, key, err)
	}
	return nil
}

// dispatchMouseClick dispatches mouseMoved, mousePressed, and mouseReleased events.
func (c *Client) dispatchMouseClick(ctx context.Context, sessionID string, x, y float64, button MouseButton, clickCount int, mods KeyModifiers) error {
	mask := mods.Bitmask()
	_, err := c.CallSession(ctx, sessionID, "Input.dispatchMouseEvent", map[string]interface{}{
		"type":      "mouseMoved",
		"x":         x,
		"y":         y,
		"modifiers": mask,
	})
	if err != nil {
		return fmt.Errorf("dispatching mouseMoved: %w", err)
	}

	_, err = c.CallSession(ctx, sessionID, "Input.dispatchMouseEvent", map[string]interface{}{
		"type":       "mousePressed",
		"x":          x,
		"y":          y,
		"button":     button,
		"clickCount": clickCount,
		"modifiers":  mask,
	})
	if err != nil {
		return fmt.Errorf("dispatching mousePressed: %w", err)
	}

	_, err = c.CallSession(ctx, sessionID, "Input.dispatchMouseEvent", map[string]interface{}{
		"type":       "mouseReleased",
		"x":          x,
		"y":          y,
		"button":     button,
		"clickCount": clickCount,
		"modifiers":  mask,
	})
	if err != nil {
		return fmt.Errorf("dispatching mouseReleased: %w", err)
	}

	return nil
}

func (c *Client) dispatchMouseMove(ctx context.Context, sessionID string, x, y float64) error {
	_, err := c.CallSession(ctx, sessionID, "Input.dispatchMouseEvent", map[string]interface{}{
		"type": "mouseMoved",
		"x":    x,
		"y":    y,
	})
	if err != nil {
		return fmt.Errorf("dispatching mouseMoved: %w", err)
	}
	return nil
}
