package token

// Character classes of the W3C Turtle and SPARQL grammars.

// IsPNCharsBase matches PN_CHARS_BASE.
func IsPNCharsBase(r rune) bool {
	switch {
	case 'A' <= r && r <= 'Z', 'a' <= r && r <= 'z':
		return true
	case 0x00C0 <= r && r <= 0x00D6, 0x00D8 <= r && r <= 0x00F6, 0x00F8 <= r && r <= 0x02FF,
		0x0370 <= r && r <= 0x037D, 0x037F <= r && r <= 0x1FFF, 0x200C <= r && r <= 0x200D,
		0x2070 <= r && r <= 0x218F, 0x2C00 <= r && r <= 0x2FEF, 0x3001 <= r && r <= 0xD7FF,
		0xF900 <= r && r <= 0xFDCF, 0xFDF0 <= r && r <= 0xFFFD, 0x10000 <= r && r <= 0xEFFFF:
		return true
	}
	return false
}

// IsPNCharsU matches PN_CHARS_U.
func IsPNCharsU(r rune) bool {
	return IsPNCharsBase(r) || r == '_'
}

// IsPNChars matches PN_CHARS.
func IsPNChars(r rune) bool {
	switch {
	case IsPNCharsU(r), r == '-', '0' <= r && r <= '9', r == 0x00B7:
		return true
	case 0x0300 <= r && r <= 0x036F, 0x203F <= r && r <= 0x2040:
		return true
	}
	return false
}

// IsDigit matches [0-9].
func IsDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// IsHex matches HEX.
func IsHex(r rune) bool {
	return IsDigit(r) || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
}

// IsSpace matches WS.
func IsSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// IsDelimiter reports runes that end an invalid run so the lexer can
// resynchronize.
func IsDelimiter(r rune) bool {
	switch r {
	case '.', ',', ';', '[', ']', '(', ')', '{', '}', '<', '"', '\'', '#':
		return true
	}
	return IsSpace(r)
}

// IsLocalEscape matches the characters allowed after a backslash in PN_LOCAL_ESC.
func IsLocalEscape(r rune) bool {
	switch r {
	case '_', '~', '.', '-', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', '/', '?', '#', '@', '%':
		return true
	}
	return false
}
