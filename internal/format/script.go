package format

import (
	"bytes"
	"strings"
)

// Headers that open a new script; compiled game data stores scripts
// back-to-back, so the next header is a reliable end marker.
var scriptHeaders = [][]byte{
	[]byte("scn "), []byte("Scn "), []byte("SCN "),
	[]byte("ScriptName "), []byte("scriptname "), []byte("SCRIPTNAME "),
}

// scriptName extracts and validates the name from a script's first line.
// Names are single identifiers; anything else is a false positive.
func scriptName(firstLine string) string {
	lower := strings.ToLower(firstLine)
	var name string
	switch {
	case strings.HasPrefix(lower, "scn "):
		name = strings.TrimSpace(firstLine[4:])
	case strings.HasPrefix(lower, "scriptname "):
		name = strings.TrimSpace(firstLine[11:])
	default:
		return ""
	}

	for _, cut := range []string{";", "\r", "\t", " "} {
		if i := strings.Index(name, cut); i >= 0 {
			name = name[:i]
		}
	}
	if name == "" {
		return ""
	}
	for _, c := range name {
		isAlnum := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
		if !isAlnum && c != '_' {
			return ""
		}
	}
	return name
}

// scriptEnd finds where the script text ends: the next script header, the
// first garbage byte, whichever comes first, with trailing whitespace
// trimmed.
func scriptEnd(data []byte, firstLineEnd int) int {
	end := len(data)
	searchStart := firstLineEnd + 1

	for _, hdr := range scriptHeaders {
		if next := bytes.Index(data[searchStart:], hdr); next >= 0 {
			abs := searchStart + next
			if nl := bytes.LastIndexByte(data[:abs], '\n'); nl >= 0 {
				abs = nl
			}
			if abs < end {
				end = abs
			}
		}
	}

	for i, b := range data[:end] {
		if b == 0 || (b < 32 && b != '\t' && b != '\n' && b != '\r') || b > 126 {
			end = i
			break
		}
	}

	for end > 0 {
		switch data[end-1] {
		case '\t', '\n', '\r', ' ':
			end--
			continue
		}
		break
	}
	return end
}

// parseScript validates an ObScript source fragment. Scripts in a memory
// image are frequently truncated; the completeness flag records whether a
// closing "end" was seen.
func parseScript(in *Input) (*ParseResult, bool) {
	if len(in.Window) < 10 {
		return nil, false
	}

	firstLineEnd := bytes.IndexByte(in.Window, '\n')
	if firstLineEnd < 0 {
		return nil, false
	}

	name := scriptName(strings.TrimSpace(string(in.Window[:firstLineEnd])))
	if name == "" {
		return nil, false
	}

	remaining := in.Window[firstLineEnd+1:]
	if len(remaining) < 5 || bytes.IndexByte(remaining, '\n') < 0 {
		return nil, false
	}

	end := scriptEnd(in.Window, firstLineEnd)
	if end < 10 {
		return nil, false
	}

	text := strings.ToLower(string(in.Window[:end]))
	complete := strings.Contains(text, "\nend") || strings.HasSuffix(strings.TrimRight(text, " \t\r\n"), "end")

	return &ParseResult{
		Format:        "script",
		EstimatedSize: int64(end),
		Metadata: map[string]string{
			"name":     name,
			"complete": map[bool]string{true: "true", false: "false"}[complete],
		},
	}, true
}
