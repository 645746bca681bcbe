package detect

import (
	"bytes"
	"testing"
)

func TestConfidence_String(t *testing.T) {
	tests := []struct {
		c        Confidence
		expected string
	}{
		{ConfidenceNone, "none"},
		{ConfidenceLow, "low"},
		{ConfidenceMedium, "medium"},
		{ConfidenceHigh, "high"},
		{ConfidenceCertain, "certain"},
		{Confidence(99), "none"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.expected {
			t.Errorf("Confidence(%d).String() = %q, want %q", tt.c, got, tt.expected)
		}
	}
}

func TestDetect_Empty(t *testing.T) {
	g := NewDetector(DefaultConfig()).Detect(nil)
	if g.Name != "utf-8" {
		t.Errorf("empty input: got %q, want utf-8", g.Name)
	}
	if g.Confidence != ConfidenceNone {
		t.Errorf("empty input: confidence = %v, want none", g.Confidence)
	}
}

func TestDetect_BOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"utf-8", []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}, "utf-8"},
		{"utf-16le", []byte{0xFF, 0xFE, 'h', 0x00}, "utf-16le"},
		{"utf-16be", []byte{0xFE, 0xFF, 0x00, 'h'}, "utf-16be"},
		{"utf-32le", []byte{0xFF, 0xFE, 0x00, 0x00, 'h', 0x00, 0x00, 0x00}, "utf-32le"},
		{"utf-32be", []byte{0x00, 0x00, 0xFE, 0xFF, 0x00, 0x00, 0x00, 'h'}, "utf-32be"},
	}

	d := NewDetector(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := d.Detect(tt.input)
			if g.Name != tt.expected {
				t.Errorf("Detect() = %q, want %q", g.Name, tt.expected)
			}
			if g.Confidence != ConfidenceCertain {
				t.Errorf("BOM confidence = %v, want certain", g.Confidence)
			}
		})
	}
}

func TestDetect_ASCII(t *testing.T) {
	g := NewDetector(DefaultConfig()).Detect([]byte("plain old text\n"))
	if g.Name != "ascii" {
		t.Errorf("Detect() = %q, want ascii", g.Name)
	}
	if g.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %v, want high", g.Confidence)
	}
}

func TestDetect_UTF8Multibyte(t *testing.T) {
	g := NewDetector(DefaultConfig()).Detect([]byte("snowman ☃ and œuvre\n"))
	if g.Name != "utf-8" {
		t.Errorf("Detect() = %q, want utf-8", g.Name)
	}
	if g.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %v, want high", g.Confidence)
	}
}

func TestDetect_Windows1252(t *testing.T) {
	// "café" and curly quotes as single Windows-1252 bytes; not valid UTF-8.
	input := []byte("caf\xe9 says \x93hello\x94 to everyone in the room\n")
	g := NewDetector(DefaultConfig()).Detect(input)
	if g.Name != "windows-1252" {
		t.Errorf("Detect() = %q, want windows-1252", g.Name)
	}
	if g.Confidence < ConfidenceMedium {
		t.Errorf("confidence = %v, want at least medium", g.Confidence)
	}
}

func TestDetect_InvalidUTF8NeverWins(t *testing.T) {
	// Decodable under Windows-1252 but not valid UTF-8: the legacy
	// candidate must win no matter how small the invalid fraction is.
	tests := []struct {
		name  string
		input []byte
	}{
		{"long ascii run with one legacy byte", append(bytes.Repeat([]byte{'a'}, 100), 0xE9)},
		{"legacy byte mid-stream", append(append(bytes.Repeat([]byte{'x'}, 500), 0x93), bytes.Repeat([]byte{'y'}, 500)...)},
		{"short", []byte("caf\xe9")},
	}

	d := NewDetector(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := d.Detect(tt.input)
			if g.Name != "windows-1252" {
				t.Errorf("Detect() = %q, want windows-1252", g.Name)
			}
		})
	}
}

func TestDetect_TieBreakPrefersUTF8(t *testing.T) {
	// Valid UTF-8 with multibyte runes also scores perfectly as
	// Windows-1252 byte-wise; the earlier candidate must win the tie.
	input := []byte("touché, été\n")
	g := NewDetector(DefaultConfig()).Detect(input)
	if g.Name != "utf-8" {
		t.Errorf("Detect() = %q, want utf-8 on tie", g.Name)
	}
}

func TestDetect_SampleBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleSize = 8
	input := append([]byte("12345678"), bytes.Repeat([]byte{0xE9}, 100)...)
	g := NewDetector(cfg).Detect(input)
	if g.BytesSampled != 8 {
		t.Errorf("BytesSampled = %d, want 8", g.BytesSampled)
	}
}

func TestDetect_PureFunction(t *testing.T) {
	input := []byte("caf\xe9 con leche, plenty of it\n")
	d := NewDetector(DefaultConfig())
	first := d.Detect(input)
	for i := 0; i < 3; i++ {
		if got := d.Detect(input); got != first {
			t.Fatalf("Detect() not stable: %+v vs %+v", got, first)
		}
	}
}

func TestBOMLength(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		encoding string
		expected int
	}{
		{"utf-8 bom", []byte{0xEF, 0xBB, 0xBF, 'x'}, "utf-8", 3},
		{"no bom", []byte("xyz"), "utf-8", 0},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'x', 0x00}, "utf-16le", 2},
		{"wrong encoding", []byte{0xEF, 0xBB, 0xBF}, "windows-1252", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BOMLength(tt.raw, tt.encoding); got != tt.expected {
				t.Errorf("BOMLength() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMixedUTF8Windows1252(t *testing.T) {
	// UTF-8 snowmen + Windows-1252 curly quotes + multi-byte UTF-8 that
	// must not be mistaken for stray legacy bytes.
	cursed := []byte("☃☃☃ \x93Some really cursed file\x94 œ ₓ ၁ \U00016844")

	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{"cursed mix", cursed, true},
		{"pure utf-8", []byte("☃ clean “quoted”"), false},
		{"pure ascii", []byte("nothing fancy"), false},
		{"legacy high bytes", []byte("caf\xe9"), false}, // 0xE9 outside 0x80-0x9F
		{"undefined byte", []byte("ok \x81 bad"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MixedUTF8Windows1252(tt.input); got != tt.expected {
				t.Errorf("MixedUTF8Windows1252() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewDetector_ZeroConfig(t *testing.T) {
	d := NewDetector(Config{})
	if d.cfg.SampleSize != SampleSize {
		t.Errorf("SampleSize = %d, want %d", d.cfg.SampleSize, SampleSize)
	}
	if len(d.cfg.Candidates) == 0 {
		t.Error("Candidates not defaulted")
	}
	if d.cfg.Epsilon <= 0 {
		t.Error("Epsilon not defaulted")
	}
}
