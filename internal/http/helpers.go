package http

import (
	"strings"
	"unicode"
)

const (
	staticPrefix = "/static/"
	amountPath   = "/ui/amount"
)

// sanitizeInput trims s and drops control characters other than tab and
// line breaks.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// iconURL maps an image resource name to its path under the static mount.
func iconURL(name string) string {
	return staticPrefix + "img/" + name
}
