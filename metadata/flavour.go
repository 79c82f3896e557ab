package metadata

import "strings"

// Flavour identifies the originating slicer/dialect. It is a bit-set so
// filters (see the transform package) can match several flavours at once
// with a simple OR.
type Flavour uint8

const (
	FlavourUnknown Flavour = 1 << iota
	FlavourPrusaSlicer
	FlavourOrcaSlicer
	FlavourSuperSlicer
	FlavourRatOSDialect

	// FlavourAny matches every flavour bit, FlavourUnknown included.
	FlavourAny = FlavourPrusaSlicer | FlavourOrcaSlicer | FlavourSuperSlicer | FlavourRatOSDialect | FlavourUnknown
)

// Is reports whether f matches any of the bits in mask.
func (f Flavour) Is(mask Flavour) bool { return f&mask != 0 }

func (f Flavour) String() string {
	switch f {
	case FlavourPrusaSlicer:
		return "PrusaSlicer"
	case FlavourOrcaSlicer:
		return "OrcaSlicer"
	case FlavourSuperSlicer:
		return "SuperSlicer"
	case FlavourRatOSDialect:
		return "RatOS-dialect"
	default:
		return "Unknown"
	}
}

// FlavourFromGeneratorName maps a generator name token (as it appears in
// the identification header) to its canonical Flavour. Unrecognized names
// return FlavourUnknown.
func FlavourFromGeneratorName(name string) Flavour {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "prusaslicer":
		return FlavourPrusaSlicer
	case "orcaslicer":
		return FlavourOrcaSlicer
	case "superslicer":
		return FlavourSuperSlicer
	default:
		return FlavourUnknown
	}
}
