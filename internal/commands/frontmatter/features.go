package frontmattercmd

// FeatureGates exposes runtime toggles consulted by the handlers. The check
// command disables writes so every run becomes a dry run.
type FeatureGates struct {
	WritesEnabled func() bool
}

func (g FeatureGates) writesEnabled() bool {
	if g.WritesEnabled == nil {
		return true
	}
	return g.WritesEnabled()
}
