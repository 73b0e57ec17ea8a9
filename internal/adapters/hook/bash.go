package hook

import (
	"fmt"
	"strings"
)

// Quote returns s as a single bash word. Strings made only of letters,
// digits and `,./_-` are returned unchanged; anything else uses ANSI-C
// quoting ($'...'), which survives every byte including newlines and NUL.
func Quote(s string) string {
	if s != "" && isLiteral(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 3)
	b.WriteString("$'")
	for i := range len(s) {
		writeEscaped(&b, s[i])
	}
	b.WriteByte('\'')
	return b.String()
}

func isLiteral(s string) bool {
	for i := range len(s) {
		if !literal(s[i]) {
			return false
		}
	}
	return true
}

func literal(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == ',', c == '.', c == '/', c == '_', c == '-':
		return true
	}
	return false
}

func writeEscaped(b *strings.Builder, c byte) {
	switch c {
	case '\a':
		b.WriteString(`\a`)
	case '\b':
		b.WriteString(`\b`)
	case 0x1b:
		b.WriteString(`\e`)
	case '\f':
		b.WriteString(`\f`)
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\t':
		b.WriteString(`\t`)
	case '\v':
		b.WriteString(`\v`)
	case '\\':
		b.WriteString(`\\`)
	case '\'':
		b.WriteString(`\'`)
	default:
		if c < 0x20 || c >= 0x7f {
			fmt.Fprintf(b, `\x%02X`, c)
			return
		}
		b.WriteByte(c)
	}
}

// ValidName reports whether name can be used as a bash variable name.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := range len(name) {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
