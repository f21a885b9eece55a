// Package strlit maps offsets inside decoded string values back to offsets
// inside the raw source literal they came from.
//
// A template parser sees the decoded value of a string literal, so any offset
// it reports is relative to that decoded text. To point a diagnostic at the
// right source character the offset has to be re-expanded across the escape
// sequences (regular literals) or doubled quotes (verbatim literals) present
// in the raw text. Offsets are byte offsets into the respective UTF-8 text.
package strlit

import (
	"strings"
	"unicode/utf8"
)

// escape widths for a regular literal, keyed by the character after '\'.
// \x, \u and \U are variable-width and handled separately.
var simpleEscapes = map[byte]byte{
	't':  '\t',
	'n':  '\n',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
	'0':  0,
}

// MapOffset translates an offset inside the decoded string value into an
// offset inside the raw literal text (including the opening delimiter).
//
// For a verbatim literal (`@"..."`) decoding only collapses doubled quotes,
// so every `""` pair in the raw text advances the decoded position by one.
// For a regular literal each escape sequence is re-measured: `\t`-style
// escapes span 2 raw bytes, `\xH{1,4}` is greedy up to 4 hex digits, `\uHHHH`
// and `\UHHHHHHHH` are fixed-width. The function is total: offsets beyond the
// decoded content clamp to the raw closing delimiter.
func MapOffset(raw string, verbatim bool, decodedOffset int) int {
	if verbatim {
		return mapVerbatim(raw, decodedOffset)
	}
	return mapRegular(raw, decodedOffset)
}

// MapSpan maps a (start, length) range of the decoded value onto the raw
// literal, returning the raw start offset and raw length.
func MapSpan(raw string, verbatim bool, start, length int) (rawStart, rawLen int) {
	rawStart = MapOffset(raw, verbatim, start)
	rawEnd := MapOffset(raw, verbatim, start+length)
	return rawStart, rawEnd - rawStart
}

func mapVerbatim(raw string, decodedOffset int) int {
	// Content starts after the @" prefix.
	rawIndex := len(`@"`)
	decodedIndex := 0
	for decodedIndex < decodedOffset && rawIndex < len(raw) {
		if raw[rawIndex] == '"' {
			if rawIndex+1 < len(raw) && raw[rawIndex+1] == '"' {
				rawIndex += 2
				decodedIndex++
				continue
			}
			break // closing quote
		}
		rawIndex++
		decodedIndex++
	}
	return rawIndex
}

func mapRegular(raw string, decodedOffset int) int {
	// Content starts after the opening quote.
	rawIndex := 1
	decodedIndex := 0
	for decodedIndex < decodedOffset && rawIndex < len(raw) {
		if raw[rawIndex] == '"' {
			break // closing quote
		}
		rawWidth, decodedWidth := measureEscape(raw, rawIndex)
		rawIndex += rawWidth
		decodedIndex += decodedWidth
	}
	return rawIndex
}

// measureEscape returns the raw width and decoded width of the unit starting
// at rawIndex. A plain character decodes to itself; a recognized escape
// decodes to the UTF-8 encoding of its value.
func measureEscape(raw string, rawIndex int) (rawWidth, decodedWidth int) {
	if raw[rawIndex] != '\\' || rawIndex+1 >= len(raw) {
		return 1, 1
	}

	next := raw[rawIndex+1]
	if _, ok := simpleEscapes[next]; ok {
		return 2, 1
	}

	switch next {
	case 'x':
		// 1 to 4 hex digits, consumed greedily.
		digits := countHex(raw, rawIndex+2, 4)
		if digits == 0 {
			return 1, 1 // malformed, '\' maps as a plain character
		}
		return 2 + digits, runeWidth(raw[rawIndex+2 : rawIndex+2+digits])
	case 'u':
		if countHex(raw, rawIndex+2, 4) < 4 {
			return 1, 1
		}
		return 6, runeWidth(raw[rawIndex+2 : rawIndex+6])
	case 'U':
		if countHex(raw, rawIndex+2, 8) < 8 {
			return 1, 1
		}
		return 10, runeWidth(raw[rawIndex+2 : rawIndex+10])
	}
	return 1, 1
}

func countHex(s string, from, max int) int {
	n := 0
	for n < max && from+n < len(s) && isHex(s[from+n]) {
		n++
	}
	return n
}

func isHex(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

// runeWidth is the decoded byte width of a hex escape value.
func runeWidth(hexDigits string) int {
	return utf8.RuneLen(hexValue(hexDigits))
}

func hexValue(hexDigits string) rune {
	var v uint32
	for i := 0; i < len(hexDigits); i++ {
		v = v*16 + uint32(hexDigit(hexDigits[i]))
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return utf8.RuneError
	}
	return r
}

func hexDigit(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}

// Decode produces the runtime value of a string literal. The second result is
// false when the literal is not terminated properly.
func Decode(raw string, verbatim bool) (string, bool) {
	if verbatim {
		return decodeVerbatim(raw)
	}
	return decodeRegular(raw)
}

func decodeVerbatim(raw string) (string, bool) {
	if len(raw) < 3 || !strings.HasPrefix(raw, `@"`) || raw[len(raw)-1] != '"' {
		return "", false
	}
	body := raw[2 : len(raw)-1]
	return strings.ReplaceAll(body, `""`, `"`), true
}

func decodeRegular(raw string) (string, bool) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", false
	}

	var b strings.Builder
	i := 1
	end := len(raw) - 1
	for i < end {
		rawWidth, _ := measureEscape(raw, i)
		if rawWidth == 1 {
			b.WriteByte(raw[i])
			i++
			continue
		}
		if rawWidth == 2 {
			b.WriteByte(simpleEscapes[raw[i+1]])
			i += 2
			continue
		}
		// hex-valued escape: skip the marker ('\' plus 'x', 'u' or 'U')
		b.WriteRune(hexValue(raw[i+2 : i+rawWidth]))
		i += rawWidth
	}
	return b.String(), true
}
