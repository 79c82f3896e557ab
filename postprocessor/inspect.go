package postprocessor

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ratos/gcode-postprocessor/metadata"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/warnings"
)

// headerProbeLines is how many leading lines Inspect reads before giving up
// on finding an identification header, per §4.8 ("read header (first 4
// lines)").
const headerProbeLines = 4

// trailerProbeLines is how many trailing lines Inspect keeps in memory while
// scanning for an analysis trailer. A trailer block is at most a few hundred
// lines for any file this module expects to handle.
const trailerProbeLines = 400

// InspectResult is the handle Inspect returns: identification, printability
// verdict and reason, any analysis recovered from an existing trailer, and
// warnings raised while locating it.
type InspectResult struct {
	Identification *metadata.Identification
	Printability   Printability
	Reason         string
	Analysis       *metadata.Analysis
	CanDeprocess   bool
	Warnings       []warnings.Warning
}

// Inspect reads path's header (and, for already-processed files, its tail)
// to classify printability without running the full transform pipeline.
func Inspect(path string, opts Options) (*InspectResult, error) {
	opts, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	blob, err := readHeaderBlob(path, headerProbeLines)
	if err != nil {
		return nil, fmt.Errorf("postprocessor: reading header of %s: %w", path, err)
	}

	id, err := metadata.ParseHeader(blob)
	if err != nil {
		if opts.AllowUnknownGenerator {
			return &InspectResult{Printability: PrintabilityUnknown, Reason: "no identification"}, nil
		}
		return nil, perr.InvalidInput(fmt.Sprintf("generator identification not found in %s", path))
	}

	result := &InspectResult{Identification: &id}

	if id.Processed() {
		tail, err := readTailLines(path, trailerProbeLines)
		if err != nil {
			return nil, fmt.Errorf("postprocessor: reading tail of %s: %w", path, err)
		}
		analysis, trailerErr := metadata.DecodeTrailer(tail)
		if trailerErr != nil {
			if invalid, ok := trailerErr.(*metadata.InvalidTrailerError); ok {
				buf := &warnings.Buffer{}
				buf.Warn(warnings.KindMetadata, invalid.Error(), 0)
				result.Warnings = buf.Items()
			}
			// A plain "no marker found" error means the file predates the
			// trailer format, or it was truncated before the trailer was
			// written; neither is a warning-worthy condition on its own.
		} else {
			result.Analysis = analysis
			result.CanDeprocess = true
		}
	}

	printability, reason := classify(&id, opts, opts.Versions)
	result.Printability = printability
	result.Reason = reason
	return result, nil
}

// readHeaderBlob joins up to maxLines leading lines of path (blank lines
// included) into one blob, the shape metadata.ParseHeader expects.
func readHeaderBlob(path string, maxLines int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for len(lines) < maxLines && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// readTailLines scans the whole file but retains only the last maxLines
// lines, bounding memory use while still tolerating a trailer of unknown
// size near EOF.
func readTailLines(path string, maxLines int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, maxLines)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring = append(ring, scanner.Text())
		if len(ring) > maxLines {
			ring = ring[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ring, nil
}
