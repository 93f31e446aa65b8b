package viewport

// MarginConfig holds scroll margin configuration.
type MarginConfig struct {
	Top    int // Rows to keep above the caret
	Bottom int // Rows to keep below the caret
}

// DefaultMargins returns sensible default margins.
func DefaultMargins() MarginConfig {
	return MarginConfig{Top: 2, Bottom: 2}
}

// NoMargins returns zero margins (caret can reach the edge).
func NoMargins() MarginConfig {
	return MarginConfig{}
}

// SetMargins sets the scroll margins.
func (v *Viewport) SetMargins(config MarginConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.marginTop = config.Top
	v.marginBottom = config.Bottom
}

// maxMarginRatio limits margins to 1/3 of the viewport height so there is
// always usable space in the middle.
const maxMarginRatio = 3

// EffectiveMargins returns margins adjusted for the viewport size.
func (v *Viewport) EffectiveMargins() MarginConfig {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.effectiveMargins()
}

func (v *Viewport) effectiveMargins() MarginConfig {
	m := MarginConfig{Top: v.marginTop, Bottom: v.marginBottom}
	limit := v.height / maxMarginRatio
	if m.Top > limit {
		m.Top = limit
	}
	if m.Bottom > limit {
		m.Bottom = limit
	}
	return m
}
