// Package detect identifies the character encoding of raw bytes.
// It combines BOM sniffing, strict UTF-8 validation, and byte-frequency
// scoring over a small candidate set, with a chardet-backed fallback for
// the broader legacy tail.
package detect

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
)

// SampleSize is the default number of bytes inspected for detection.
const SampleSize = 64 * 1024 // 64KB

// Confidence is a relative ranking signal, not a calibrated probability.
type Confidence uint8

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
	ConfidenceCertain
)

// String returns the confidence level name.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	case ConfidenceCertain:
		return "certain"
	default:
		return "none"
	}
}

// Guess is the detector's best answer for a byte sample.
type Guess struct {
	// Name is a canonical encoding label (e.g. "utf-8", "windows-1252").
	Name string

	// Confidence reflects only the sampled prefix.
	Confidence Confidence

	// BytesSampled is how many bytes the guess is based on.
	BytesSampled int
}

// Config configures a Detector. It is copied on construction and never
// mutated afterwards, so a single Detector is safe for concurrent use.
type Config struct {
	// SampleSize limits the bytes analyzed for detection.
	SampleSize int

	// Candidates is the ordered encoding set scored during detection.
	// The order is the preference order used when scores tie.
	Candidates []string

	// Epsilon is the score margin within which two candidates are
	// considered tied. Ties go to the earlier candidate, so UTF-8
	// (whose validity scan is the stricter test) wins by default.
	Epsilon float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SampleSize: SampleSize,
		Candidates: []string{"utf-8", "windows-1252", "iso-8859-1"},
		Epsilon:    0.02,
	}
}

// Detector guesses the encoding of byte samples.
type Detector struct {
	cfg      Config
	fallback *chardet.Detector
}

// NewDetector creates a detector from cfg. Zero fields fall back to
// DefaultConfig values.
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if len(cfg.Candidates) == 0 {
		cfg.Candidates = def.Candidates
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = def.Epsilon
	}
	return &Detector{
		cfg:      cfg,
		fallback: chardet.NewTextDetector(),
	}
}

// boms maps leading byte-order-mark sequences to encoding labels.
// Longest prefixes first so UTF-32LE is not mistaken for UTF-16LE.
var boms = []struct {
	prefix []byte
	name   string
}{
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, "utf-32be"},
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, "utf-32le"},
	{[]byte{0xEF, 0xBB, 0xBF}, "utf-8"},
	{[]byte{0xFE, 0xFF}, "utf-16be"},
	{[]byte{0xFF, 0xFE}, "utf-16le"},
}

// Detect returns the best encoding guess for raw. It never fails: empty
// or undecidable input yields a default guess with minimum confidence.
// Detect is a pure function of its input.
func (d *Detector) Detect(raw []byte) Guess {
	if len(raw) == 0 {
		return Guess{Name: "utf-8", Confidence: ConfidenceNone}
	}

	sample := raw
	if len(sample) > d.cfg.SampleSize {
		sample = sample[:d.cfg.SampleSize]
	}

	// A byte-order-mark is an explicit declaration; no statistics needed.
	if name := sniffBOM(sample); name != "" {
		return Guess{Name: name, Confidence: ConfidenceCertain, BytesSampled: len(sample)}
	}

	best := Guess{Name: d.cfg.Candidates[0], Confidence: ConfidenceNone, BytesSampled: len(sample)}
	bestScore := 0.0
	for _, cand := range d.cfg.Candidates {
		score := d.score(cand, sample)
		if score > bestScore+d.cfg.Epsilon {
			bestScore = score
			best.Name = cand
		}
	}

	if bestScore < legacyFloor {
		// Nothing in the candidate set fits; ask the broader legacy
		// detector before settling for a weak guess.
		if g, ok := d.legacyFallback(sample); ok {
			return g
		}
	}

	best.Confidence = confidenceFor(bestScore)
	if best.Name == "utf-8" && isASCII(sample) {
		best.Name = "ascii"
	}
	return best
}

// legacyFloor is the candidate score below which the chardet fallback
// is consulted.
const legacyFloor = 0.5

// score rates how well sample fits the named encoding, in [0, 1].
func (d *Detector) score(name string, sample []byte) float64 {
	switch strings.ToLower(name) {
	case "utf-8", "ascii":
		return d.scoreUTF8(sample)
	case "windows-1252", "cp1252":
		return scoreWindows1252(sample)
	case "iso-8859-1", "latin-1", "latin1":
		return scoreLatin1(sample)
	default:
		// Unknown candidate label; only the chardet fallback can
		// vouch for it.
		return 0
	}
}

// legacyFallback consults chardet for encodings outside the candidate set
// (UTF-16 without BOM, Shift-JIS, and friends).
func (d *Detector) legacyFallback(sample []byte) (Guess, bool) {
	res, err := d.fallback.DetectBest(sample)
	if err != nil || res == nil || res.Confidence < 50 {
		return Guess{}, false
	}
	g := Guess{
		Name:         strings.ToLower(res.Charset),
		Confidence:   ConfidenceLow,
		BytesSampled: len(sample),
	}
	if res.Confidence >= 80 {
		g.Confidence = ConfidenceMedium
	}
	return g, true
}

// sniffBOM returns the encoding named by a leading byte-order-mark,
// or "" if none is present.
func sniffBOM(sample []byte) string {
	for _, b := range boms {
		if len(sample) >= len(b.prefix) && equalPrefix(sample, b.prefix) {
			return b.name
		}
	}
	return ""
}

func equalPrefix(sample, prefix []byte) bool {
	for i, p := range prefix {
		if sample[i] != p {
			return false
		}
	}
	return true
}

// BOMLength returns the byte length of the leading byte-order-mark for
// the named encoding, or 0 when raw does not start with one.
func BOMLength(raw []byte, name string) int {
	for _, b := range boms {
		if b.name == strings.ToLower(name) && len(raw) >= len(b.prefix) && equalPrefix(raw, b.prefix) {
			return len(b.prefix)
		}
	}
	return 0
}

// scoreUTF8 rates sample as UTF-8. A full strict pass is a strong signal
// because random legacy bytes rarely form valid multi-byte sequences; a
// failed pass is disqualifying the other way, so the valid-byte fraction
// is capped low enough that any clean single-byte candidate outscores it
// beyond Epsilon. The bytes provably are not UTF-8, no matter how close
// the fraction gets to 1.
func (d *Detector) scoreUTF8(sample []byte) float64 {
	if utf8.Valid(sample) {
		return 1.0
	}
	valid := 0
	for i := 0; i < len(sample); {
		r, size := utf8.DecodeRune(sample[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		valid += size
		i += size
	}
	frac := float64(valid) / float64(len(sample))
	if limit := 1.0 - 2*d.cfg.Epsilon; frac > limit {
		frac = limit
	}
	return frac
}

// windows1252Undefined marks the five byte values with no assignment
// in Windows-1252.
var windows1252Undefined = map[byte]bool{
	0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true,
}

// scoreWindows1252 rates sample as Windows-1252: every byte must be
// assigned, and text is expected to be mostly printable.
func scoreWindows1252(sample []byte) float64 {
	printable := 0
	for _, b := range sample {
		switch {
		case windows1252Undefined[b]:
			return 0
		case b == '\t' || b == '\n' || b == '\r':
			printable++
		case b < 0x20 || b == 0x7F:
			// Control bytes are legal but not plausible text.
		default:
			printable++
		}
	}
	return float64(printable) / float64(len(sample))
}

// scoreLatin1 rates sample as ISO-8859-1. The 0x80-0x9F range is
// control characters there, so their presence argues against it.
func scoreLatin1(sample []byte) float64 {
	printable := 0
	for _, b := range sample {
		switch {
		case b >= 0x80 && b <= 0x9F:
			// C1 controls; almost never intentional in text.
		case b == '\t' || b == '\n' || b == '\r':
			printable++
		case b < 0x20 || b == 0x7F:
		default:
			printable++
		}
	}
	return float64(printable) / float64(len(sample))
}

func isASCII(sample []byte) bool {
	for _, b := range sample {
		if b > 0x7F {
			return false
		}
	}
	return true
}

// confidenceFor maps a candidate score onto the ordered confidence scale.
// ConfidenceCertain is reserved for byte-order-marks.
func confidenceFor(score float64) Confidence {
	switch {
	case score >= 0.99:
		return ConfidenceHigh
	case score >= 0.80:
		return ConfidenceMedium
	case score > 0:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// MixedUTF8Windows1252 reports whether raw looks like UTF-8 text with
// isolated Windows-1252 punctuation bytes spliced in: every invalid
// UTF-8 position holds a single byte from the 0x80-0x9F range that
// Windows-1252 assigns. Files written by concatenating output from
// different tools commonly end up in this state.
func MixedUTF8Windows1252(raw []byte) bool {
	if utf8.Valid(raw) {
		return false
	}
	sawStray := false
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			b := raw[i]
			if b < 0x80 || b > 0x9F || windows1252Undefined[b] {
				return false
			}
			sawStray = true
			i++
			continue
		}
		i += size
	}
	return sawStray
}
