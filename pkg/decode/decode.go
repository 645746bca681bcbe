// Package decode converts raw bytes to Unicode text under a named
// encoding. Decoding is strict: bytes invalid under the chosen encoding
// surface as a DecodeError instead of being replaced, so a caller is
// never handed silently corrupted text.
package decode

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// DecodeError reports bytes invalid under the encoding used to decode them.
type DecodeError struct {
	Encoding string
	Offset   int // byte offset of the first invalid sequence, -1 if unknown
	Err      error
}

// Error formats the decode error with the stored encoding and offset.
func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("decode: invalid %s byte sequence at offset %d", e.Encoding, e.Offset)
	}
	if e.Err != nil {
		return fmt.Sprintf("decode: invalid byte sequence for %s: %v", e.Encoding, e.Err)
	}
	return fmt.Sprintf("decode: invalid byte sequence for %s", e.Encoding)
}

// Unwrap returns the underlying error so DecodeError participates in
// errors.Unwrap.
func (e *DecodeError) Unwrap() error { return e.Err }

// ErrUnknownEncoding is returned when an encoding label is not recognized.
var ErrUnknownEncoding = fmt.Errorf("decode: unknown encoding")

// lookup resolves an encoding label to an x/text encoding.
// UTF-16/32 variants are handled explicitly because htmlindex maps some
// of their labels (and "ascii") to other encodings per the WHATWG table.
func lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8", "ascii":
		return unicode.UTF8, nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), nil
	case "utf-32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM), nil
	case "utf-32be":
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode converts raw to a UTF-8 string under the named encoding.
// Invalid input yields a *DecodeError; no replacement characters are
// substituted.
func Decode(raw []byte, encName string) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	enc, err := lookup(encName)
	if err != nil {
		return "", err
	}

	// The UTF-8 fast path also gives an exact error offset.
	if enc == unicode.UTF8 {
		if i := firstInvalidUTF8(raw); i >= 0 {
			return "", &DecodeError{Encoding: "utf-8", Offset: i}
		}
		return string(raw), nil
	}

	out, _, err := transform.Bytes(decoder(enc), raw)
	if err != nil {
		return "", &DecodeError{Encoding: encName, Offset: -1, Err: err}
	}
	// Single-byte charmap decoders emit U+FFFD for unassigned bytes
	// instead of erroring; treat that as invalid input too. Multi-byte
	// encodings are left alone so a legitimate replacement character in
	// the source does not read as a decode failure.
	if cm, ok := enc.(*charmap.Charmap); ok {
		for i, b := range raw {
			if cm.DecodeByte(b) == utf8.RuneError {
				return "", &DecodeError{Encoding: encName, Offset: i}
			}
		}
	}
	return string(out), nil
}

// DecodeLenient converts raw under the named encoding, replacing invalid
// sequences with U+FFFD instead of failing. Unknown encodings fall back
// to interpreting the bytes as UTF-8.
func DecodeLenient(raw []byte, encName string) string {
	if len(raw) == 0 {
		return ""
	}
	enc, err := lookup(encName)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	if enc == unicode.UTF8 {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	return string(out)
}

// Reader wraps r so reads yield UTF-8 regardless of the source encoding.
// The label is resolved the same way Decode resolves it; decoding through
// the reader is lenient, matching x/net/html/charset behavior.
func Reader(r io.Reader, encName string) (io.Reader, error) {
	if strings.EqualFold(encName, "utf-8") || strings.EqualFold(encName, "ascii") {
		return r, nil
	}
	cr, err := charset.NewReaderLabel(encName, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encName)
	}
	return cr, nil
}

// decoder returns a strict decoder for enc: one that reports invalid
// input rather than substituting replacement runes where the encoding
// supports it.
func decoder(enc encoding.Encoding) *encoding.Decoder {
	return enc.NewDecoder()
}

// firstInvalidUTF8 returns the offset of the first invalid UTF-8
// sequence in raw, or -1 if raw is valid.
func firstInvalidUTF8(raw []byte) int {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
