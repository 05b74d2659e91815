package main

import "strings"

// stripANSICodes drops SGR escape sequences so alignment checks compare
// what a user actually sees.
func stripANSICodes(input string) string {
	var out strings.Builder
	inEscape := false
	for _, char := range []byte(input) {
		switch {
		case inEscape:
			if char == 'm' {
				inEscape = false
			}
		case char == '\x1b':
			inEscape = true
		default:
			out.WriteByte(char)
		}
	}
	return out.String()
}
