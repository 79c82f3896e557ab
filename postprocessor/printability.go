package postprocessor

import (
	"github.com/ratos/gcode-postprocessor/config"
	"github.com/ratos/gcode-postprocessor/metadata"
)

// Printability is the verdict returned by Inspect, per §4.8's decision
// table.
type Printability string

const (
	PrintabilityUnknown        Printability = "UNKNOWN"
	PrintabilityNotSupported   Printability = "NOT_SUPPORTED"
	PrintabilityMustReprocess  Printability = "MUST_REPROCESS"
	PrintabilityReady          Printability = "READY"
	PrintabilityCouldReprocess Printability = "COULD_REPROCESS"
	PrintabilityMustProcess    Printability = "MUST_PROCESS"
)

// classify evaluates the printability decision table against an already
// identified header. The "header unparsable" row is handled by the caller
// before id is ever constructed.
func classify(id *metadata.Identification, opts Options, sv *config.SupportedVersions) (Printability, string) {
	if !id.Processed() {
		if !sv.Supports(id.Flavour, id.GeneratorVersion) && !opts.AllowUnsupportedSlicers {
			return PrintabilityNotSupported, "version rejected"
		}
		if opts.IDEX {
			return PrintabilityMustProcess, "transform needed"
		}
		return PrintabilityReady, "no transform needed"
	}

	if id.FileFormatVersion != nil {
		switch {
		case *id.FileFormatVersion < sv.FileFormatVersion:
			return PrintabilityNotSupported, "re-upload required"
		case *id.FileFormatVersion > sv.FileFormatVersion:
			return PrintabilityNotSupported, "update host"
		}
	}

	if id.ProcessedForIDEX != opts.IDEX {
		return PrintabilityMustReprocess, "IDEX axis"
	}

	cmp := id.PostProcessorVersion.Compare(sv.PostProcessorVersion)
	switch {
	case cmp == 0:
		return PrintabilityReady, ""
	case cmp > 0:
		return PrintabilityMustReprocess, ""
	case id.PostProcessorVersion.Major() != sv.PostProcessorVersion.Major():
		return PrintabilityMustReprocess, "incompatible change"
	default:
		return PrintabilityCouldReprocess, "enhancements/fixes available"
	}
}
