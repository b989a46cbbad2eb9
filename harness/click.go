package harness

// ClickLocation says where on an element a click lands.
type ClickLocation int

const (
	// ClickDefault lets the backend pick its usual click point.
	ClickDefault ClickLocation = iota
	// ClickCenter clicks the center of the element.
	ClickCenter
	// ClickAt clicks at ClickParams.X, ClickParams.Y relative to the
	// element's top-left corner.
	ClickAt
)

// ClickParams is the resolved form of a list of ClickOptions.
type ClickParams struct {
	Location  ClickLocation
	X, Y      float64
	Modifiers *ModifierKeys
}

// ClickOption configures a click.
type ClickOption func(*ClickParams)

// Center clicks the element's center.
func Center() ClickOption {
	return func(p *ClickParams) {
		p.Location = ClickCenter
	}
}

// At clicks at x, y relative to the element's top-left corner.
func At(x, y float64) ClickOption {
	return func(p *ClickParams) {
		p.Location = ClickAt
		p.X, p.Y = x, y
	}
}

// WithModifiers holds mods down for the duration of the click.
func WithModifiers(mods ModifierKeys) ClickOption {
	return func(p *ClickParams) {
		p.Modifiers = &mods
	}
}

// ResolveClick applies opts in order. Later options override earlier ones of
// the same kind.
func ResolveClick(opts ...ClickOption) ClickParams {
	var p ClickParams
	for _, o := range opts {
		if o != nil {
			o(&p)
		}
	}
	return p
}

// Position returns the explicit click offset, if one was given.
func (p ClickParams) Position() (x, y float64, ok bool) {
	if p.Location != ClickAt {
		return 0, 0, false
	}
	return p.X, p.Y, true
}

// Mods returns the modifier set, zero if none was given.
func (p ClickParams) Mods() ModifierKeys {
	if p.Modifiers == nil {
		return ModifierKeys{}
	}
	return *p.Modifiers
}
