// Package retention derives a MemoryEvent's retention_tier and
// retention_expires_at from its layer (spec invariant I5: "retention tier
// is derived deterministically from layer and is never manually
// overwritten").
package retention

import (
	"time"

	"github.com/aeonmind/mcore/internal/types"
)

// Days carries the per-layer TTL configuration (spec §6
// layer_retention_{layer}_days, falling back to a global default).
// A zero value for a layer means "use Default"; Default itself being zero
// means "no expiry" for long/none-tier layers.
type Days struct {
	Working    int
	Episodic   int
	Semantic   int
	Procedural int
	Identity   int
	Default    int
}

// tierForLayer is the fixed layer→tier mapping named in spec §4.1:
// "working: short TTL; episodic: medium; semantic/procedural/identity:
// long/none".
func tierForLayer(layer types.Layer) types.RetentionTier {
	switch layer {
	case types.LayerWorking:
		return types.RetentionShort
	case types.LayerEpisodic:
		return types.RetentionMedium
	case types.LayerSemantic, types.LayerProcedural, types.LayerIdentity:
		return types.RetentionLong
	default:
		return types.RetentionNone
	}
}

func daysForLayer(layer types.Layer, d Days) int {
	var v int
	switch layer {
	case types.LayerWorking:
		v = d.Working
	case types.LayerEpisodic:
		v = d.Episodic
	case types.LayerSemantic:
		v = d.Semantic
	case types.LayerProcedural:
		v = d.Procedural
	case types.LayerIdentity:
		v = d.Identity
	}
	if v == 0 {
		v = d.Default
	}
	return v
}

// Derive returns the tier and, if a TTL is configured for the layer, the
// expiry computed from occurredAt. A tier of RetentionLong/RetentionNone
// with no configured days yields a nil expiry (durable by default).
func Derive(layer types.Layer, occurredAt time.Time, d Days) (types.RetentionTier, *time.Time) {
	tier := tierForLayer(layer)
	days := daysForLayer(layer, d)
	if days <= 0 {
		return tier, nil
	}
	expires := occurredAt.Add(time.Duration(days) * 24 * time.Hour)
	return tier, &expires
}
