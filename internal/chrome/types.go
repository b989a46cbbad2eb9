package chrome

// VersionInfo is what Browser.getVersion reports, renamed for CLI output.
type VersionInfo struct {
	Browser         string `json:"browser"`
	ProtocolVersion string `json:"protocol"`
	UserAgent       string `json:"userAgent,omitempty"`
	V8Version       string `json:"v8,omitempty"`
}

// TargetInfo describes one browser target. Type is "page" for tabs.
type TargetInfo struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// NavigateResult is the reply to Page.navigate. ErrorText is set when the
// browser could not load the URL at all.
type NavigateResult struct {
	FrameID   string `json:"frameId"`
	LoaderID  string `json:"loaderId,omitempty"`
	URL       string `json:"url"`
	ErrorText string `json:"errorText,omitempty"`
}

// MouseButton is a button name accepted by Input.dispatchMouseEvent.
type MouseButton string

const (
	MouseLeft   MouseButton = "left"
	MouseMiddle MouseButton = "middle"
	MouseRight  MouseButton = "right"
)

// Modifier bits of the Input domain's modifiers field.
const (
	modAlt   = 1 << iota // 1
	modCtrl              // 2
	modMeta              // 4
	modShift             // 8
)

// KeyModifiers are the modifier keys held during a key or mouse event.
type KeyModifiers struct {
	Ctrl  bool `json:"ctrl,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Shift bool `json:"shift,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// Bitmask packs m into the Input domain's modifiers field.
func (m KeyModifiers) Bitmask() int {
	var mask int
	for _, b := range []struct {
		held bool
		bit  int
	}{{m.Alt, modAlt}, {m.Ctrl, modCtrl}, {m.Meta, modMeta}, {m.Shift, modShift}} {
		if b.held {
			mask |= b.bit
		}
	}
	return mask
}

// ClickOptions configures Element.Click.
type ClickOptions struct {
	Button MouseButton
	// Position is an offset from the element's top-left corner; nil means
	// the center.
	Position  *Point
	Modifiers KeyModifiers
}

// Point is a viewport coordinate or an offset.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an element's bounding client rect.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of r.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}
