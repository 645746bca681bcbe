package decode

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Detwingle repairs byte streams that mix UTF-8 text with stray
// Windows-1252 punctuation (the classic symptom of documents assembled
// from multiple sources). Each byte that is not part of a valid UTF-8
// sequence but has a Windows-1252 assignment is re-encoded as UTF-8;
// valid multi-byte sequences pass through untouched, so a snowman stays
// a snowman. The result is valid UTF-8, and Detwingle of valid UTF-8
// input returns it unchanged.
func Detwingle(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}

	var buf bytes.Buffer
	buf.Grow(len(raw) + 16)
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(windows1252Rune(raw[i]))
			i++
			continue
		}
		buf.Write(raw[i : i+size])
		i += size
	}
	return buf.Bytes()
}

// windows1252Rune maps a single byte to its Windows-1252 code point.
// Unassigned bytes map to U+FFFD, matching charmap decoder behavior.
func windows1252Rune(b byte) rune {
	return charmap.Windows1252.DecodeByte(b)
}
