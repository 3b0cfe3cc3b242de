package engine

// SystemBase provides the dependencies every System needs (the World and
// its event Bus) so concrete Systems can embed it instead of repeating the
// same field.
type SystemBase struct {
	World *World
}

// NewSystemBase constructs a SystemBase bound to w.
func NewSystemBase(w *World) SystemBase {
	return SystemBase{World: w}
}
