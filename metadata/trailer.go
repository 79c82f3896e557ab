package metadata

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const trailerLineWidth = 78

// InvalidTrailerError marks a non-fatal metadata warning: the trailer
// exists but fails its length or base64 checks. Callers proceed without an
// analysis result rather than aborting the stream.
type InvalidTrailerError struct {
	Reason string
}

func (e *InvalidTrailerError) Error() string {
	return fmt.Sprintf("invalid analysis trailer: %s", e.Reason)
}

// EncodeTrailer renders the analysis trailer block:
//
//	; ratos_meta begin <N_BASE64_CHARS>
//	; <base64 payload, 78 chars per line, each prefixed with "; ">
//	; ratos_meta end <N_LINES>
func EncodeTrailer(a *Analysis) ([]string, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshalling analysis: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	var body []string
	for i := 0; i < len(encoded); i += trailerLineWidth {
		end := i + trailerLineWidth
		if end > len(encoded) {
			end = len(encoded)
		}
		body = append(body, "; "+encoded[i:end])
	}

	lines := make([]string, 0, len(body)+2)
	lines = append(lines, fmt.Sprintf("; ratos_meta begin %d", len(encoded)))
	lines = append(lines, body...)
	lines = append(lines, fmt.Sprintf("; ratos_meta end %d", len(body)+2))
	return lines, nil
}

// DecodeTrailer parses a trailer block out of the tail lines of a file. It
// works only on the lines it is given: it neither reads the file nor widens
// the tail using the "end" marker's line-count hint, so a block whose begin
// marker lies outside tailLines is reported as missing. It returns a
// non-nil *InvalidTrailerError (never a fatal error) when the declared
// character count disagrees with what was actually read; the caller
// proceeds without the analysis result in that case.
func DecodeTrailer(tailLines []string) (*Analysis, error) {
	beginIdx, expectedChars, ok := findBegin(tailLines)
	if !ok {
		return nil, fmt.Errorf("no ratos_meta begin marker found")
	}

	endIdx := -1
	expectedLines := -1
	for i := beginIdx + 1; i < len(tailLines); i++ {
		if n, ok := parseEndMarker(tailLines[i]); ok {
			endIdx = i
			expectedLines = n
			break
		}
	}
	if endIdx < 0 {
		return nil, fmt.Errorf("no ratos_meta end marker found")
	}

	var b strings.Builder
	for i := beginIdx + 1; i < endIdx; i++ {
		line := strings.TrimPrefix(tailLines[i], "; ")
		b.WriteString(line)
	}
	encoded := b.String()

	declaredLines := endIdx - beginIdx + 1
	if expectedLines >= 0 && declaredLines != expectedLines {
		return nil, &InvalidTrailerError{Reason: fmt.Sprintf(
			"end marker declares %d lines, found %d", expectedLines, declaredLines)}
	}
	if len(encoded) != expectedChars {
		return nil, &InvalidTrailerError{Reason: fmt.Sprintf(
			"begin marker declares %d chars, found %d", expectedChars, len(encoded))}
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &InvalidTrailerError{Reason: fmt.Sprintf("base64 decode: %v", err)}
	}

	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, &InvalidTrailerError{Reason: fmt.Sprintf("json decode: %v", err)}
	}
	return &a, nil
}

func findBegin(lines []string) (idx int, chars int, ok bool) {
	const prefix = "; ratos_meta begin "
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(l, prefix)))
			if err != nil {
				continue
			}
			return i, n, true
		}
	}
	return 0, 0, false
}

func parseEndMarker(line string) (lineCount int, ok bool) {
	const prefix = "; ratos_meta end "
	if !strings.HasPrefix(line, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, prefix)))
	if err != nil {
		return 0, false
	}
	return n, true
}
