// Package normalize rewrites typographic "smart" punctuation to plain
// equivalents. The rule set covers curly single and double quotes (and,
// for the ASCII target, the horizontal ellipsis); everything else passes
// through unchanged.
package normalize

import "strings"

// Target selects what smart quotes are rewritten to.
type Target uint8

const (
	// TargetUTF8 rewrites curly quotes to their straight Unicode
	// counterparts, leaving all other code points alone.
	TargetUTF8 Target = iota

	// TargetASCII rewrites curly quotes to ASCII quote characters and
	// the horizontal ellipsis to three dots.
	TargetASCII
)

// String returns the target name.
func (t Target) String() string {
	if t == TargetASCII {
		return "ascii"
	}
	return "utf8"
}

// ParseTarget resolves a target name. Unknown names fall back to utf8.
func ParseTarget(s string) Target {
	if strings.EqualFold(s, "ascii") {
		return TargetASCII
	}
	return TargetUTF8
}

// Config configures a Normalizer.
type Config struct {
	// Target selects the replacement alphabet.
	Target Target

	// EscapeQuotes doubles converted double quotes with EscapeChar so
	// quote-delimited consumers (CSV readers) keep field boundaries
	// intact. This is the one substitution that changes text length.
	EscapeQuotes bool

	// EscapeChar is the escape prepended to converted double quotes.
	EscapeChar byte

	// DropNonASCII removes every remaining non-ASCII code point after
	// quote conversion. Only meaningful with TargetASCII.
	DropNonASCII bool
}

// DefaultConfig returns sensible defaults: ASCII quotes, no escaping,
// keep non-ASCII text.
func DefaultConfig() Config {
	return Config{
		Target:     TargetASCII,
		EscapeChar: '"',
	}
}

// Normalizer applies the smart-quote rule table to text.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	cfg      Config
	replacer *strings.Replacer
}

// Replacement pairs per target. One code point in, one code point out,
// except the ellipsis rule inherited from the ASCII target.
var (
	utf8Pairs = []string{
		"“", `"`, // left double quotation mark
		"”", `"`, // right double quotation mark
		"‘", `'`, // left single quotation mark
		"’", `'`, // right single quotation mark
	}
	asciiExtra = []string{
		"…", "...", // horizontal ellipsis
	}
)

// New creates a Normalizer from cfg.
func New(cfg Config) *Normalizer {
	if cfg.EscapeChar == 0 {
		cfg.EscapeChar = '"'
	}

	pairs := make([]string, 0, len(utf8Pairs)+len(asciiExtra))
	pairs = append(pairs, utf8Pairs...)
	if cfg.Target == TargetASCII {
		pairs = append(pairs, asciiExtra...)
	}
	if cfg.EscapeQuotes {
		esc := string(cfg.EscapeChar) + `"`
		for i := 0; i < len(pairs); i += 2 {
			if pairs[i+1] == `"` {
				pairs[i+1] = esc
			}
		}
	}

	return &Normalizer{cfg: cfg, replacer: strings.NewReplacer(pairs...)}
}

// Normalize rewrites smart quotes in text per the configured target.
// It is idempotent: the replacement alphabet contains no characters the
// rule table matches.
func (n *Normalizer) Normalize(text string) string {
	out := n.replacer.Replace(text)
	if n.cfg.DropNonASCII {
		out = dropNonASCII(out)
	}
	return out
}

// dropNonASCII removes every code point above 0x7F.
func dropNonASCII(s string) string {
	// Fast path: already pure ASCII.
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= 0x7F {
			b.WriteRune(r)
		}
	}
	return b.String()
}
