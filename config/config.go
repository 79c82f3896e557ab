// Package config carries the two data layers of §4.9: a code-reviewed,
// embedded version allow-list (C9's static half) and a set of tunable scan
// bounds that a deployment may override via a sibling YAML file (C9's
// dynamic half), following the teacher's own config.go shape.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/ratos/gcode-postprocessor/metadata"
)

//go:embed versions.toml
var versionsTOML []byte

type versionsFile struct {
	PostProcessorVersion string            `toml:"post_processor_version"`
	FileFormatVersion    int               `toml:"file_format_version"`
	Flavours             map[string]string `toml:"flavours"`
}

// SupportedVersions is the decoded, ready-to-use allow-list: the current
// post-processor semver, the current file-format integer, and a semver
// constraint per generator flavour.
type SupportedVersions struct {
	PostProcessorVersion *semver.Version
	FileFormatVersion    int
	ByFlavour            map[metadata.Flavour]*semver.Constraints
}

// Supports reports whether ver satisfies the allow-list constraint recorded
// for any flavour bit set in flavour (an OrcaSlicer header in RatOS dialect
// carries both bits). A flavour with no entry (FlavourUnknown, or a flavour
// absent from versions.toml) never supports any version.
func (s *SupportedVersions) Supports(flavour metadata.Flavour, ver *semver.Version) bool {
	if ver == nil {
		return false
	}
	for f, cst := range s.ByFlavour {
		if flavour.Is(f) && cst.Check(ver) {
			return true
		}
	}
	return false
}

// LoadSupportedVersions decodes the embedded versions.toml. It only fails if
// the embedded asset itself is malformed, which would be a build-time
// defect, not a runtime condition.
func LoadSupportedVersions() (*SupportedVersions, error) {
	var raw versionsFile
	if _, err := toml.Decode(string(versionsTOML), &raw); err != nil {
		return nil, fmt.Errorf("config: decoding embedded versions.toml: %w", err)
	}

	ppVer, err := semver.NewVersion(raw.PostProcessorVersion)
	if err != nil {
		return nil, fmt.Errorf("config: post_processor_version %q: %w", raw.PostProcessorVersion, err)
	}

	out := &SupportedVersions{
		PostProcessorVersion: ppVer,
		FileFormatVersion:    raw.FileFormatVersion,
		ByFlavour:            make(map[metadata.Flavour]*semver.Constraints, len(raw.Flavours)),
	}

	names := map[string]metadata.Flavour{
		"PrusaSlicer":  metadata.FlavourPrusaSlicer,
		"OrcaSlicer":   metadata.FlavourOrcaSlicer,
		"SuperSlicer":  metadata.FlavourSuperSlicer,
		"RatOSDialect": metadata.FlavourRatOSDialect,
	}
	for name, constraintText := range raw.Flavours {
		flavour, ok := names[name]
		if !ok {
			return nil, fmt.Errorf("config: versions.toml: unrecognized flavour %q", name)
		}
		cst, err := semver.NewConstraint(constraintText)
		if err != nil {
			return nil, fmt.Errorf("config: versions.toml: flavour %q constraint %q: %w", name, constraintText, err)
		}
		out.ByFlavour[flavour] = cst
	}
	return out, nil
}

// Tunables are the scan bounds and window sizes a caller may override.
// Defaults match spec.md exactly. LoadTunables reports which fields an
// override YAML file touched so the caller can log them; the root main.go
// loads no such file and always runs with DefaultTunables.
type Tunables struct {
	LinesBehind            int `yaml:"lines_behind"`
	LinesAhead             int `yaml:"lines_ahead"`
	ToolchangeScanBack     int `yaml:"toolchange_scan_back"`
	ToolchangeWalkBack     int `yaml:"toolchange_walk_back"`
	ToolchangeWalkForward  int `yaml:"toolchange_walk_forward"`
	LayerChangeScanForward int `yaml:"layer_change_scan_forward"`
	HeaderPadding          int `yaml:"header_padding"`
	StartPrintPadding      int `yaml:"start_print_padding"`
}

// DefaultTunables returns the spec-mandated defaults.
func DefaultTunables() Tunables {
	return Tunables{
		LinesBehind:            20,
		LinesAhead:             100,
		ToolchangeScanBack:     100,
		ToolchangeWalkBack:     19,
		ToolchangeWalkForward:  19,
		LayerChangeScanForward: 9,
		HeaderPadding:          100,
		StartPrintPadding:      250,
	}
}

// LoadTunables starts from DefaultTunables and applies any fields present in
// the YAML file at path, returning the resulting Tunables along with the
// list of field names the file actually overrode (for the caller to log).
// A missing file is not an error: it simply means no overrides apply.
func LoadTunables(path string) (Tunables, []string, error) {
	defaults := DefaultTunables()
	if path == "" {
		return defaults, nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaults, nil, nil
	}
	if err != nil {
		return defaults, nil, fmt.Errorf("config: reading tunables file %q: %w", path, err)
	}

	var overrides map[string]interface{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return defaults, nil, fmt.Errorf("config: parsing tunables file %q: %w", path, err)
	}

	result := defaults
	if err := yaml.Unmarshal(data, &result); err != nil {
		return defaults, nil, fmt.Errorf("config: parsing tunables file %q: %w", path, err)
	}

	changed := make([]string, 0, len(overrides))
	for k := range overrides {
		changed = append(changed, k)
	}
	return result, changed, nil
}
