package metadata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Identification is the parsed view of a file's generator (and, once
// processed, post-processor) identity. It is populated once, early in the
// stream, and never mutated afterward.
type Identification struct {
	GeneratorName    string
	GeneratorVersion *semver.Version
	Flavour          Flavour
	GeneratorTime    time.Time

	RatOSDialectVersion *semver.Version

	// Populated only when the file already carries a "processed by" line.
	PostProcessorVersion *semver.Version
	PostProcessorTime    time.Time
	FileFormatVersion    *int
	TrailerOffset        *int64 // decoded from the m:<HEX> field
	ProcessedForIDEX     bool
}

// Processed reports whether this identification came from a "processed by"
// header rather than a bare generator header.
func (id *Identification) Processed() bool {
	return id.PostProcessorVersion != nil
}

var (
	// "; generated by PrusaSlicer 2.8.1 on 2024-05-01 at 10:00:00"
	// "; generated with OrcaSlicer 2.1.1 in RatOS dialect 0.1 on 2024-05-01 at 10:00:00"
	generatedRE = regexp.MustCompile(`(?im)^;\s*generated\s+(?:by|with)\s+(\S+)\s+(\S+)(?:\s+in\s+RatOS\s+dialect\s+(\S+))?\s+on\s+(\d{4}-\d{2}-\d{2})\s+at\s+(\d{2}:\d{2}:\d{2})`)

	// Current form: "; processed by RatOS.PostProcessor 0.2.0 on 2024-05-01 at 10:00:00 UTC v:3 m:1a2b idex"
	processedCurrentRE = regexp.MustCompile(`(?im)^;\s*processed\s+by\s+RatOS\.PostProcessor\s+(\S+)\s+on\s+(\d{4}-\d{2}-\d{2})\s+at\s+(\d{2}:\d{2}:\d{2})\s+UTC(.*)$`)

	// Historical forms, tolerated on read: a bare timestamp line, or a
	// version-only line, neither carrying v:/m:/idex tail fields.
	processedLegacyARE = regexp.MustCompile(`(?im)^;\s*processed\s+by\s+RatOS\.PostProcessor\s+(\S+)\s+on\s+(\d{4}-\d{2}-\d{2})\s+at\s+(\d{2}:\d{2}:\d{2})\s*$`)
	processedLegacyBRE = regexp.MustCompile(`(?im)^;\s*post-?processed\s+by\s+RatOS\s+(\S+)\s*$`)

	tailVRE    = regexp.MustCompile(`\bv:(\d+)\b`)
	tailMRE    = regexp.MustCompile(`\bm:([0-9a-fA-F]+)\b`)
	tailIdexRE = regexp.MustCompile(`\bidex\b`)
)

// ErrNoIdentification is returned by ParseHeader when neither a "generated"
// nor a "processed by" line can be found in the probed text.
var ErrNoIdentification = fmt.Errorf("no generator identification found")

// ParseHeader parses the first lines of a file, given as a single blob (the
// caller joins the first three lines so that the absence of any one of them
// individually is tolerated). It returns the identification; whether the
// file was already processed is reported by its Processed method.
func ParseHeader(blob string) (Identification, error) {
	if m := processedCurrentRE.FindStringSubmatch(blob); m != nil {
		return parseProcessedCurrent(m)
	}
	if m := processedLegacyARE.FindStringSubmatch(blob); m != nil {
		return parseProcessedLegacyA(m)
	}
	if m := processedLegacyBRE.FindStringSubmatch(blob); m != nil {
		return parseProcessedLegacyB(m)
	}
	if m := generatedRE.FindStringSubmatch(blob); m != nil {
		return parseGenerated(m)
	}
	return Identification{}, ErrNoIdentification
}

func parseGenerated(m []string) (Identification, error) {
	name := m[1]
	verText := m[2]
	dialect := m[3]
	dateText, timeText := m[4], m[5]

	ver, err := semver.NewVersion(verText)
	if err != nil {
		return Identification{}, fmt.Errorf("parsing generator version %q: %w", verText, err)
	}

	id := Identification{
		GeneratorName:    name,
		GeneratorVersion: ver,
		Flavour:          FlavourFromGeneratorName(name),
	}

	if dialect != "" {
		dv, err := semver.NewVersion(dialect)
		if err != nil {
			return Identification{}, fmt.Errorf("parsing RatOS dialect version %q: %w", dialect, err)
		}
		id.RatOSDialectVersion = dv
		id.Flavour |= FlavourRatOSDialect
	}

	if t, err := time.Parse("2006-01-02 15:04:05", dateText+" "+timeText); err == nil {
		id.GeneratorTime = t
	}

	return id, nil
}

func parseProcessedCurrent(m []string) (Identification, error) {
	verText, dateText, timeText, tail := m[1], m[2], m[3], m[4]

	ver, err := semver.NewVersion(verText)
	if err != nil {
		return Identification{}, fmt.Errorf("parsing post-processor version %q: %w", verText, err)
	}

	id := Identification{PostProcessorVersion: ver}
	if t, err := time.Parse("2006-01-02 15:04:05", dateText+" "+timeText); err == nil {
		id.PostProcessorTime = t
	}

	if vm := tailVRE.FindStringSubmatch(tail); vm != nil {
		if n, err := strconv.Atoi(vm[1]); err == nil {
			id.FileFormatVersion = &n
		}
	}
	if mm := tailMRE.FindStringSubmatch(tail); mm != nil {
		if off, err := strconv.ParseInt(mm[1], 16, 64); err == nil {
			id.TrailerOffset = &off
		}
	}
	id.ProcessedForIDEX = tailIdexRE.MatchString(tail)

	return id, nil
}

func parseProcessedLegacyA(m []string) (Identification, error) {
	verText, dateText, timeText := m[1], m[2], m[3]
	ver, err := semver.NewVersion(verText)
	if err != nil {
		return Identification{}, fmt.Errorf("parsing post-processor version %q: %w", verText, err)
	}
	id := Identification{PostProcessorVersion: ver}
	if t, err := time.Parse("2006-01-02 15:04:05", dateText+" "+timeText); err == nil {
		id.PostProcessorTime = t
	}
	return id, nil
}

func parseProcessedLegacyB(m []string) (Identification, error) {
	verText := m[1]
	ver, err := semver.NewVersion(verText)
	if err != nil {
		return Identification{}, fmt.Errorf("parsing post-processor version %q: %w", verText, err)
	}
	return Identification{PostProcessorVersion: ver}, nil
}

// FormatProcessedBy renders the exact "processed by" line emitted at
// finalisation, byte-identical to what ParseHeader must be able to parse
// back.
func FormatProcessedBy(version *semver.Version, at time.Time, fileFormat int, trailerOffset int64, idex bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; processed by RatOS.PostProcessor %s on %s UTC v:%d m:%x",
		version.String(), at.UTC().Format("2006-01-02 at 15:04:05"), fileFormat, trailerOffset)
	if idex {
		b.WriteString(" idex")
	}
	return b.String()
}
