// Package uread opens files of unknown or mixed encoding as clean
// Unicode text. Open runs a synchronous pipeline per call: sample the
// file, detect its encoding, decode strictly, optionally normalize smart
// quotes, and hand back a line-oriented read-only handle that generic
// text consumers (csv.Reader and friends) can use without knowing any
// detection happened.
//
// Writing back is not supported; uread reconstructs text, it does not
// round-trip it.
package uread

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/unisafe/uread/pkg/decode"
	"github.com/unisafe/uread/pkg/detect"
	"github.com/unisafe/uread/pkg/normalize"
	"github.com/unisafe/uread/pkg/util"
)

// ErrClosed is returned by every operation on a closed Handle.
var ErrClosed = errors.New("uread: handle is closed")

// Handle is a read-only view of a fully decoded file. It is not safe
// for concurrent use; independent handles are.
type Handle struct {
	name   string
	text   string
	pos    int
	guess  detect.Guess
	closed bool
}

// Open reads the file at path, detects its encoding, and returns a
// Handle over the decoded (and, by default, quote-normalized) text.
// The underlying file is closed before Open returns, on every path.
//
// Errors: *os.PathError when the file cannot be opened, *decode.DecodeError
// when the bytes are invalid under the detected encoding and the one-step
// fallback candidate also fails.
func Open(path string, opts ...Option) (*Handle, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// Gzip-compressed text files are read transparently.
	raw, err := util.ReadRaw(path)
	if err != nil {
		return nil, err
	}

	detector := detect.NewDetector(o.Detector)
	guess := detector.Detect(raw)

	// Mixed-source repair runs before trusting the statistical guess:
	// a mostly-ASCII file with stray Windows-1252 punctuation scores
	// well as pure Windows-1252, which would turn its multi-byte UTF-8
	// sequences into mojibake.
	if o.Detwingle && detect.MixedUTF8Windows1252(raw) {
		raw = decode.Detwingle(raw)
		guess = detect.Guess{
			Name:         "utf-8",
			Confidence:   detect.ConfidenceMedium,
			BytesSampled: guess.BytesSampled,
		}
	}

	text, guess, err := decodeWithFallback(raw, guess, o)
	if err != nil {
		return nil, err
	}

	if o.NormalizeQuotes {
		n := normalize.New(normalize.Config{
			Target:       o.QuoteTarget,
			EscapeQuotes: o.escapeFor(path),
			EscapeChar:   o.EscapeChar,
			DropNonASCII: o.DropNonASCII,
		})
		text = n.Normalize(text)
	}

	return &Handle{
		name:  path,
		text:  universalNewlines(text),
		guess: guess,
	}, nil
}

// decodeWithFallback decodes raw under the guessed encoding, retrying
// exactly once with the next-best candidate on a strict decode failure.
// The returned guess names the encoding the text was actually decoded
// with; a fallback success carries lowered confidence since detection
// was wrong about the sample. The original error is surfaced if the
// fallback fails too, so genuine corruption is not masked as encoding
// ambiguity.
func decodeWithFallback(raw []byte, guess detect.Guess, o Options) (string, detect.Guess, error) {
	if n := detect.BOMLength(raw, guess.Name); n > 0 && strings.EqualFold(guess.Name, "utf-8") {
		// x/text strips UTF-16/32 BOMs itself; the UTF-8 BOM it keeps.
		raw = raw[n:]
	}

	if o.Lenient {
		return decode.DecodeLenient(raw, guess.Name), guess, nil
	}

	text, err := decode.Decode(raw, guess.Name)
	if err == nil {
		return text, guess, nil
	}
	var decErr *decode.DecodeError
	if !errors.As(err, &decErr) {
		return "", guess, err
	}

	if next := nextCandidate(guess.Name, o.Detector.Candidates); next != "" {
		if text, retryErr := decode.Decode(raw, next); retryErr == nil {
			guess.Name = next
			guess.Confidence = detect.ConfidenceLow
			return text, guess, nil
		}
	}
	return "", guess, err
}

// nextCandidate returns the first configured candidate that is not the
// failed encoding, or "" when there is no alternative. ASCII and UTF-8
// share a decoder, so one failing rules out the other.
func nextCandidate(failed string, candidates []string) string {
	if len(candidates) == 0 {
		candidates = detect.DefaultConfig().Candidates
	}
	for _, c := range candidates {
		if encodingAlias(c) != encodingAlias(failed) {
			return c
		}
	}
	return ""
}

func encodingAlias(name string) string {
	switch strings.ToLower(name) {
	case "ascii", "utf8", "utf-8":
		return "utf-8"
	default:
		return strings.ToLower(name)
	}
}

// universalNewlines rewrites Windows and old-Mac line endings to \n.
func universalNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

// Name returns the path the handle was opened from.
func (h *Handle) Name() string { return h.name }

// Encoding reports what detection concluded about the source bytes.
func (h *Handle) Encoding() detect.Guess { return h.guess }

// ReadAll returns the remaining text, from the current position to the
// end. On a fresh handle that is the whole decoded content; an empty
// file yields "".
func (h *Handle) ReadAll() (string, error) {
	if h.closed {
		return "", ErrClosed
	}
	s := h.text[h.pos:]
	h.pos = len(h.text)
	return s, nil
}

// Read implements io.Reader over the decoded UTF-8 bytes, so a Handle
// drops into csv.NewReader, bufio.Scanner, and any other byte-oriented
// text consumer.
func (h *Handle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, ErrClosed
	}
	if h.pos >= len(h.text) {
		return 0, io.EOF
	}
	n := copy(p, h.text[h.pos:])
	h.pos += n
	return n, nil
}

// ReadLine returns the next line including its trailing newline, or
// io.EOF when the text is exhausted. The final line of a file without a
// trailing newline is returned without one.
func (h *Handle) ReadLine() (string, error) {
	if h.closed {
		return "", ErrClosed
	}
	if h.pos >= len(h.text) {
		return "", io.EOF
	}
	rest := h.text[h.pos:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		h.pos += i + 1
		return rest[:i+1], nil
	}
	h.pos = len(h.text)
	return rest, nil
}

// ReadLines returns all remaining lines. Line terminators are stripped.
func (h *Handle) ReadLines() ([]string, error) {
	if h.closed {
		return nil, ErrClosed
	}
	rest := h.text[h.pos:]
	h.pos = len(h.text)
	if rest == "" {
		return nil, nil
	}
	rest = strings.TrimSuffix(rest, "\n")
	return strings.Split(rest, "\n"), nil
}

// Lines yields the remaining lines one at a time, terminators included.
// Iteration consumes the handle: ranging again after exhaustion yields
// nothing, matching what a consumer expects from a text-file handle.
// Iterating a closed handle yields nothing.
func (h *Handle) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, err := h.ReadLine()
			if err != nil {
				return
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Close releases the handle. Further reads fail with ErrClosed.
// Closing twice is a no-op.
func (h *Handle) Close() error {
	h.closed = true
	h.text = ""
	return nil
}

// DetectFile reports the encoding guess for the file at path without
// constructing a handle. Detection reads at most the configured sample
// size, so it stays cheap on large files.
func DetectFile(path string, cfg detect.Config) (detect.Guess, error) {
	def := detect.DefaultConfig()
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}

	r, cleanup, err := util.OpenFile(path)
	if err != nil {
		return detect.Guess{}, err
	}
	defer cleanup()

	sample := make([]byte, cfg.SampleSize)
	n, err := io.ReadFull(r, sample)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return detect.Guess{}, fmt.Errorf("uread: sampling %s: %w", path, err)
	}
	return detect.NewDetector(cfg).Detect(sample[:n]), nil
}
