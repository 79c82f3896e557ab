// Package gcode decodes the small subset of G-code instructions the
// post-processor needs to recognize: G0/G1 moves, G2/G3 arcs (recognized
// only so callers can reject them), and Tn tool changes.
package gcode

import "strings"

// Command is the parsed view of a single instruction line. Parameters are
// kept as their original textual representation — never converted to
// float64 here — so re-emitting a line never introduces float round-trip
// drift.
type Command struct {
	Letter byte   // 'G' or 'T', normalised to uppercase
	Value  string // "1" (G0/G1 collapsed), "2", "3", or the tool index for T

	X, Y, Z, E, F string
	I, J          string
}

// HasX reports whether the command carries an X parameter.
func (c *Command) HasX() bool { return c.X != "" }

// HasY reports whether the command carries a Y parameter.
func (c *Command) HasY() bool { return c.Y != "" }

// HasXY reports whether both X and Y parameters are present.
func (c *Command) HasXY() bool { return c.HasX() && c.HasY() }

// IsMove reports whether the command is a G0/G1/G2/G3 move (as opposed to a
// tool change).
func (c *Command) IsMove() bool { return c.Letter == 'G' }

// IsLinearMove reports whether the command is the collapsed G0/G1 form.
func (c *Command) IsLinearMove() bool { return c.Letter == 'G' && c.Value == "1" }

// IsArc reports whether the command is a G2/G3 arc move.
func (c *Command) IsArc() bool { return c.Letter == 'G' && (c.Value == "2" || c.Value == "3") }

// IsToolChange reports whether the command is a Tn tool selection.
func (c *Command) IsToolChange() bool { return c.Letter == 'T' }

// Parse decodes a single line of G-code text (no trailing newline) into a
// Command. It returns ok=false for anything outside the recognized subset —
// including comments, which the caller is expected to have already
// filtered, and blank lines, which are the overwhelming majority of calls
// on the fast path and must return quickly.
func Parse(line string) (cmd Command, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] == ';' {
		return Command{}, false
	}

	// Strip a trailing inline comment; never let it leak into parameters.
	if idx := strings.IndexByte(trimmed, ';'); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
		if trimmed == "" {
			return Command{}, false
		}
	}

	switch trimmed[0] {
	case 'G', 'g':
		return parseG(trimmed)
	case 'T', 't':
		return parseT(trimmed)
	default:
		return Command{}, false
	}
}

func parseG(trimmed string) (Command, bool) {
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return Command{}, false
	}
	head := strings.ToUpper(fields[0])

	var value string
	switch head {
	case "G0", "G1":
		value = "1"
	case "G2":
		value = "2"
	case "G3":
		value = "3"
	default:
		return Command{}, false
	}

	cmd := Command{Letter: 'G', Value: value}
	for _, f := range fields[1:] {
		if len(f) < 2 {
			continue
		}
		param := f[1:]
		switch f[0] {
		case 'X', 'x':
			cmd.X = param
		case 'Y', 'y':
			cmd.Y = param
		case 'Z', 'z':
			cmd.Z = param
		case 'E', 'e':
			cmd.E = param
		case 'F', 'f':
			cmd.F = param
		case 'I', 'i':
			cmd.I = param
		case 'J', 'j':
			cmd.J = param
		}
	}
	return cmd, true
}

func parseT(trimmed string) (Command, bool) {
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return Command{}, false
	}
	head := fields[0]
	if len(head) < 2 || (head[0] != 'T' && head[0] != 't') {
		return Command{}, false
	}
	idx := head[1:]
	for i := 0; i < len(idx); i++ {
		if idx[i] < '0' || idx[i] > '9' {
			return Command{}, false
		}
	}
	if idx == "" {
		return Command{}, false
	}
	return Command{Letter: 'T', Value: idx}, true
}
