package uread

import (
	"path/filepath"
	"strings"

	"github.com/unisafe/uread/pkg/detect"
	"github.com/unisafe/uread/pkg/normalize"
	"github.com/unisafe/uread/pkg/util"
)

// Options control how a file is detected, decoded, and normalized.
type Options struct {
	// Detector configures encoding detection.
	Detector detect.Config

	// NormalizeQuotes enables the smart-quote normalizer.
	NormalizeQuotes bool

	// QuoteTarget selects the normalizer's replacement alphabet.
	QuoteTarget normalize.Target

	// DropNonASCII removes remaining non-ASCII code points after quote
	// conversion (ASCII target only).
	DropNonASCII bool

	// EscapeFiles lists file extensions whose converted double quotes
	// are escaped for quote-delimited consumers. Empty disables escaping.
	EscapeFiles []string

	// EscapeChar is the escape prepended to converted double quotes in
	// EscapeFiles matches.
	EscapeChar byte

	// Detwingle repairs mixed UTF-8/Windows-1252 input before decoding.
	Detwingle bool

	// Lenient replaces undecodable bytes with U+FFFD instead of failing.
	Lenient bool
}

// DefaultOptions returns the defaults: detect with the standard candidate
// set, normalize quotes to ASCII, escape converted quotes in .csv files,
// repair mixed input, decode strictly.
func DefaultOptions() Options {
	return Options{
		Detector:        detect.DefaultConfig(),
		NormalizeQuotes: true,
		QuoteTarget:     normalize.TargetASCII,
		EscapeFiles:     []string{".csv"},
		EscapeChar:      '"',
		Detwingle:       true,
	}
}

// Option mutates Options during Open.
type Option func(*Options)

// WithSampleSize bounds the bytes read for encoding detection.
func WithSampleSize(n int) Option {
	return func(o *Options) { o.Detector.SampleSize = n }
}

// WithDetectorConfig replaces the whole detection configuration.
func WithDetectorConfig(cfg detect.Config) Option {
	return func(o *Options) { o.Detector = cfg }
}

// WithNormalizeQuotes toggles smart-quote normalization.
func WithNormalizeQuotes(on bool) Option {
	return func(o *Options) { o.NormalizeQuotes = on }
}

// WithQuoteTarget selects what smart quotes become.
func WithQuoteTarget(t normalize.Target) Option {
	return func(o *Options) { o.QuoteTarget = t }
}

// WithEscapeFiles sets the extensions whose converted double quotes are
// escaped. Call with no arguments to disable escaping entirely.
func WithEscapeFiles(exts ...string) Option {
	return func(o *Options) { o.EscapeFiles = exts }
}

// WithEscapeChar sets the escape character used in EscapeFiles matches.
func WithEscapeChar(c byte) Option {
	return func(o *Options) { o.EscapeChar = c }
}

// WithDropNonASCII drops all non-ASCII code points after normalization.
func WithDropNonASCII(on bool) Option {
	return func(o *Options) { o.DropNonASCII = on }
}

// WithDetwingle toggles mixed UTF-8/Windows-1252 repair.
func WithDetwingle(on bool) Option {
	return func(o *Options) { o.Detwingle = on }
}

// WithLenient replaces undecodable bytes instead of failing.
func WithLenient(on bool) Option {
	return func(o *Options) { o.Lenient = on }
}

// escapeFor reports whether converted quotes should be escaped for path.
func (o Options) escapeFor(path string) bool {
	if len(o.EscapeFiles) == 0 || o.EscapeChar == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(util.StripCompression(path)))
	for _, e := range o.EscapeFiles {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
