package legacy

import "strings"

const escapeChar = '\\'

// Escape prefixes every backslash and every byte in special with a backslash.
func Escape(s string, special ...byte) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == escapeChar || strings.IndexByte(string(special), c) >= 0 {
			b.WriteByte(escapeChar)
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Unescape drops every unescaped backslash and keeps the byte after it.
func Unescape(s string) string {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == escapeChar && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteByte(c)
	}
	return b.String()
}

// Split cuts s at every delim that is not escaped and unescapes each piece.
// It scans s once; a trailing delim yields a final empty field.
func Split(s string, delim byte) []string {
	var (
		out     []string
		cur     strings.Builder
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == escapeChar:
			escaped = true
		case c == delim:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, cur.String())
}

// Join escapes each field and terminates it with delim.
func Join(fields []string, delim byte, special ...byte) string {
	special = append(special, delim)
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(Escape(f, special...))
		b.WriteByte(delim)
	}
	return b.String()
}
