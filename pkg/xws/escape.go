package xws

import "strings"

const upperHex = "0123456789ABCDEF"

// Escape percent-encodes s for use in query strings, form bodies and OAuth1
// signature base strings. Only ASCII letters, digits and "-_.*" are left
// untouched. Spaces become "%20", never "+".
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isSafe(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func isSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '*':
		return true
	}
	return false
}
