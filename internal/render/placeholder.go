package render

import (
	"fmt"
	"regexp"
	"strconv"
)

// Placeholder formats the compact stand-in for a collapsed node:
// [@<short_id> kind=<kind> bytes=<length>]. The format is fixed so any
// consumer can parse it back with ParsePlaceholder.
func Placeholder(shortID, kind string, byteLen int) string {
	return fmt.Sprintf("[@%s kind=%s bytes=%d]", shortID, kind, byteLen)
}

var placeholderRe = regexp.MustCompile(`^\[@([0-9a-z]+) kind=([a-z_]+) bytes=([0-9]+)\]$`)

// ParsePlaceholder splits a placeholder back into its three components.
func ParsePlaceholder(s string) (shortID, kind string, byteLen int, err error) {
	m := placeholderRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", 0, fmt.Errorf("render: not a placeholder: %q", s)
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("render: placeholder byte count: %w", err)
	}
	return m[1], m[2], n, nil
}
