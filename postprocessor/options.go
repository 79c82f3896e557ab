// Package postprocessor is the file facade (C8): Inspect classifies a
// file's printability from its header alone, Analyse runs a full or quick
// read-only pass to produce an analysis result, and Transform streams a
// rewritten file and retro-patches its bookmarked lines at finalisation.
package postprocessor

import (
	"fmt"

	"github.com/ratos/gcode-postprocessor/config"
	"github.com/ratos/gcode-postprocessor/warnings"
)

// Options carries every flag the facade needs, mirroring the CLI surface of
// §6 one level up from flag parsing.
type Options struct {
	IDEX                     bool
	QuickInspectionOnly      bool
	AllowUnsupportedSlicers  bool
	AllowUnknownGenerator    bool
	Overwrite                bool

	// Versions and Tunables default to the embedded manifest / spec defaults
	// when left nil/zero, so a caller that doesn't care about overrides can
	// omit them entirely.
	Versions *config.SupportedVersions
	Tunables config.Tunables

	// Warnings receives non-fatal conditions as they're raised. Defaults to
	// warnings.Discard when nil. Transform attaches the recorded warnings to
	// its result only when this is a *warnings.Buffer.
	Warnings warnings.Sink

	// OnProgress, when set, is called periodically during Analyse/Transform
	// with the number of lines fed so far, letting a CLI front-end emit
	// progress records without the facade knowing anything about JSON or
	// stdout.
	OnProgress func(linesProcessed int)
}

func resolveOptions(opts Options) (Options, error) {
	if opts.Versions == nil {
		sv, err := config.LoadSupportedVersions()
		if err != nil {
			return opts, fmt.Errorf("postprocessor: loading default version manifest: %w", err)
		}
		opts.Versions = sv
	}
	if opts.Tunables == (config.Tunables{}) {
		opts.Tunables = config.DefaultTunables()
	}
	if opts.Warnings == nil {
		opts.Warnings = warnings.Discard
	}
	return opts, nil
}
