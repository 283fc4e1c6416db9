package sosi

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDetectDeclared(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		want     Encoding
		wantDecl bool
	}{
		{
			name:     "iso8859-1 declaration",
			doc:      ".HODE\n..TEGNSETT ISO8859-1\n.PUNKT 1:\n..OBJTYPE Kum\n",
			want:     EncodingISO88591,
			wantDecl: true,
		},
		{
			name:     "ansi declaration",
			doc:      ".HODE\n..TEGNSETT ANSI\n.SLUTT\n",
			want:     EncodingWindows1252,
			wantDecl: true,
		},
		{
			name:     "utf-8 declaration",
			doc:      ".HODE\n..TEGNSETT UTF-8\n.SLUTT\n",
			want:     EncodingUTF8,
			wantDecl: true,
		},
		{
			name:     "lowercase declaration",
			doc:      ".HODE\n..tegnsett iso8859-1\n.SLUTT\n",
			want:     EncodingISO88591,
			wantDecl: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detect([]byte(tt.doc))
			if d.Encoding != tt.want {
				t.Errorf("encoding = %v, want %v", d.Encoding, tt.want)
			}
			if d.Declared != tt.wantDecl {
				t.Errorf("declared = %v, want %v", d.Declared, tt.wantDecl)
			}
			if d.FallbackUsed {
				t.Error("fallbackUsed should be false for declared charsets")
			}
		})
	}
}

func TestDetectDeclarationStopsAtFirstFeature(t *testing.T) {
	// A declaration after the header block must not count.
	doc := ".HODE\n..EIER Oslo\n.PUNKT 1:\n..TEGNSETT ISO8859-1\n"
	d := Detect([]byte(doc))
	if d.Declared {
		t.Fatalf("declaration outside the header was honored: %+v", d)
	}
	if d.Encoding != EncodingUTF8 {
		t.Errorf("ascii content should detect as UTF-8, got %v", d.Encoding)
	}
}

func TestDetectUndeclared(t *testing.T) {
	t.Run("valid utf-8 accepted", func(t *testing.T) {
		doc := ".HODE\n.PUNKT 1:\n..OBJTYPE Kum\n..GATE Blåbærstien\n"
		d := Detect([]byte(doc))
		if d.Encoding != EncodingUTF8 || d.FallbackUsed {
			t.Errorf("got %+v, want UTF-8 without fallback", d)
		}
	})

	t.Run("invalid utf-8 falls back", func(t *testing.T) {
		// 0xF8 is ø in ISO-8859-1 and never valid alone in UTF-8.
		doc := append([]byte(".HODE\n.PUNKT 1:\n..GATE Bl"), 0xF8, 'v', 'n', '\n')
		d := Detect(doc)
		if d.Encoding != EncodingWindows1252 {
			t.Errorf("encoding = %v, want %v", d.Encoding, EncodingWindows1252)
		}
		if !d.FallbackUsed {
			t.Error("fallbackUsed = false, want true")
		}
	})

	t.Run("unrecognized label treated as undeclared", func(t *testing.T) {
		doc := append([]byte(".HODE\n..TEGNSETT DOSN8\n.PUNKT 1:\n..GATE Bl"), 0xF8, '\n')
		d := Detect(doc)
		if d.Declared {
			t.Error("declared = true for unmappable label")
		}
		if d.DeclaredLabel != "DOSN8" {
			t.Errorf("declaredLabel = %q, want DOSN8", d.DeclaredLabel)
		}
		if d.Encoding != EncodingWindows1252 || !d.FallbackUsed {
			t.Errorf("got %+v, want Windows-1252 fallback", d)
		}
	})
}

func TestDetectBOM(t *testing.T) {
	doc := append([]byte{0xEF, 0xBB, 0xBF}, []byte(".HODE\n.SLUTT\n")...)
	d := Detect(doc)
	if d.Encoding != EncodingUTF8 || !d.Declared {
		t.Errorf("got %+v, want declared UTF-8", d)
	}

	text, err := Decode(doc, d.Encoding)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if strings.HasPrefix(text, "\uFEFF") {
		t.Error("decoded text still carries the BOM")
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
		enc  Encoding
	}{
		{"iso8859-1 norwegian", ".PUNKT 1:\n..GATE Blåbærstien 7\n..EIER Tromsø VAV ÆØÅ\n", EncodingISO88591},
		{"windows-1252 euro", "..KOSTNAD 400 €\n", EncodingWindows1252},
		{"utf-8 anything", "..MERKNAD målt – høst\n", EncodingUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.text, tt.enc)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			back, err := Decode(raw, tt.enc)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if back != tt.text {
				t.Errorf("round trip changed text:\n got %q\nwant %q", back, tt.text)
			}
		})
	}
}

func TestRoundTripAllLatin1Bytes(t *testing.T) {
	raw := make([]byte, 0, 255)
	for b := 1; b < 256; b++ {
		if b == '\n' || b == '\r' {
			continue
		}
		raw = append(raw, byte(b))
	}
	text, err := Decode(raw, EncodingISO88591)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	back, err := Encode(text, EncodingISO88591)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Error("ISO-8859-1 round trip is not byte identical")
	}
}

func TestEncodePlaceholder(t *testing.T) {
	// The em dash has no ISO-8859-1 mapping and must become the
	// substitution byte instead of failing.
	out, err := Encode("–", EncodingISO88591)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(out) != 1 || out[0] != 0x1A {
		t.Errorf("Encode(em dash) = %v, want [0x1A]", out)
	}
}

func TestUnsupportedEncoding(t *testing.T) {
	if _, err := Encode("x", Encoding(99)); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("Encode error = %v, want ErrUnsupportedEncoding", err)
	}
	if _, err := Decode([]byte("x"), Encoding(99)); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("Decode error = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestDecodeInvalidUTF8Repairs(t *testing.T) {
	raw := []byte{'a', 0xFF, 'b'}
	text, err := Decode(raw, EncodingUTF8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !strings.Contains(text, "�") {
		t.Errorf("invalid byte not replaced: %q", text)
	}
	if !strings.HasPrefix(text, "a") || !strings.HasSuffix(text, "b") {
		t.Errorf("valid bytes lost: %q", text)
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		label  string
		want   Encoding
		wantOK bool
	}{
		{"ISO8859-1", EncodingISO88591, true},
		{"iso 8859-1", EncodingISO88591, true},
		{"LATIN1", EncodingISO88591, true},
		{"ANSI", EncodingWindows1252, true},
		{"windows-1252", EncodingWindows1252, true},
		{"CP1252", EncodingWindows1252, true},
		{"UTF-8", EncodingUTF8, true},
		{"utf8", EncodingUTF8, true},
		{"ISO8859-10", 0, false},
		{"DOSN8", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseEncoding(tt.label)
		if ok != tt.wantOK {
			t.Errorf("ParseEncoding(%q) ok = %v, want %v", tt.label, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseEncoding(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}
