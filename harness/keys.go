package harness

import "fmt"

// ModifierKeys is the set of modifier keys held while a click or key press
// happens.
type ModifierKeys struct {
	Control bool `json:"control,omitempty" yaml:"control,omitempty"`
	Alt     bool `json:"alt,omitempty" yaml:"alt,omitempty"`
	Shift   bool `json:"shift,omitempty" yaml:"shift,omitempty"`
	Meta    bool `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// IsZero reports whether no modifier is held.
func (m ModifierKeys) IsZero() bool {
	return !m.Control && !m.Alt && !m.Shift && !m.Meta
}

// Key is one entry of a key sequence: either a TestKey or literal Text.
type Key interface {
	fmt.Stringer
	isKey()
}

// Text is a literal string typed one character at a time.
type Text string

func (t Text) String() string { return string(t) }
func (Text) isKey()           {}

// TestKey names a non-printable key, or a printable key that is awkward to
// express as text.
type TestKey int

const (
	Backspace TestKey = iota
	Tab
	Enter
	Shift
	Control
	Alt
	Escape
	PageUp
	PageDown
	End
	Home
	LeftArrow
	UpArrow
	RightArrow
	DownArrow
	Insert
	Delete
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	Meta
	Comma
)

var testKeyNames = [...]string{
	Backspace:  "Backspace",
	Tab:        "Tab",
	Enter:      "Enter",
	Shift:      "Shift",
	Control:    "Control",
	Alt:        "Alt",
	Escape:     "Escape",
	PageUp:     "PageUp",
	PageDown:   "PageDown",
	End:        "End",
	Home:       "Home",
	LeftArrow:  "ArrowLeft",
	UpArrow:    "ArrowUp",
	RightArrow: "ArrowRight",
	DownArrow:  "ArrowDown",
	Insert:     "Insert",
	Delete:     "Delete",
	F1:         "F1",
	F2:         "F2",
	F3:         "F3",
	F4:         "F4",
	F5:         "F5",
	F6:         "F6",
	F7:         "F7",
	F8:         "F8",
	F9:         "F9",
	F10:        "F10",
	F11:        "F11",
	F12:        "F12",
	Meta:       "Meta",
	Comma:      ",",
}

// String returns the DOM KeyboardEvent.key value of k.
func (k TestKey) String() string {
	if k < 0 || int(k) >= len(testKeyNames) {
		return fmt.Sprintf("TestKey(%d)", int(k))
	}
	return testKeyNames[k]
}

func (TestKey) isKey() {}

// AllTestKeys lists every TestKey in declaration order.
func AllTestKeys() []TestKey {
	keys := make([]TestKey, len(testKeyNames))
	for i := range keys {
		keys[i] = TestKey(i)
	}
	return keys
}

// ParseTestKey looks a key up by its DOM key name ("Enter", "ArrowLeft", ",").
func ParseTestKey(name string) (TestKey, bool) {
	for i, n := range testKeyNames {
		if n == name {
			return TestKey(i), true
		}
	}
	return 0, false
}

// ExpandKeys flattens keys into one entry per key press: every Text is split
// into single characters, TestKeys pass through unchanged. Order is kept.
func ExpandKeys(keys ...Key) []Key {
	var out []Key
	for _, k := range keys {
		t, ok := k.(Text)
		if !ok {
			out = append(out, k)
			continue
		}
		for _, r := range string(t) {
			out = append(out, Text(string(r)))
		}
	}
	return out
}
