package sosi

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encoding identifies one of the three charsets the codec handles.
// Municipal exports ship as ISO-8859-1 or its Windows superset far more
// often than as UTF-8, and frequently misdeclare which.
type Encoding uint8

const (
	EncodingISO88591 Encoding = iota
	EncodingWindows1252
	EncodingUTF8
)

// ErrUnsupportedEncoding is returned by Decode and Encode for an
// Encoding value outside the known set. It is the codec's only error:
// detection itself always lands on a usable decision.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// String returns the canonical charset label.
func (e Encoding) String() string {
	switch e {
	case EncodingISO88591:
		return "ISO8859-1"
	case EncodingWindows1252:
		return "WINDOWS-1252"
	case EncodingUTF8:
		return "UTF-8"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Encoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Encoding) UnmarshalText(text []byte) error {
	parsed, ok := ParseEncoding(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedEncoding, string(text))
	}
	*e = parsed
	return nil
}

// ParseEncoding resolves a charset label to an Encoding. It accepts
// the labels seen in header declarations (TEGNSETT values) as well as
// common aliases; "ANSI" is the dialect's historical name for
// Windows-1252. Matching ignores case, spaces, hyphens and
// underscores.
func ParseEncoding(label string) (Encoding, bool) {
	norm := strings.ToUpper(label)
	norm = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, norm)
	switch norm {
	case "ISO88591", "88591", "LATIN1":
		return EncodingISO88591, true
	case "ANSI", "WINDOWS1252", "CP1252":
		return EncodingWindows1252, true
	case "UTF8":
		return EncodingUTF8, true
	}
	return EncodingISO88591, false
}

// Decision records how the codec settled on a charset for one
// document. The same decision drives both the decode after ingestion
// and the re-encode of cleaned output, so output bytes follow the
// input convention.
type Decision struct {
	Encoding      Encoding `json:"encoding"`
	Declared      bool     `json:"declared"`
	DeclaredLabel string   `json:"declaredLabel,omitempty"`
	FallbackUsed  bool     `json:"fallbackUsed"`
}

const (
	// detectSampleSize bounds how much of the input the detector
	// inspects. Header declarations sit in the first few hundred
	// bytes of well-formed files.
	detectSampleSize = 64 << 10

	// detectMaxLines bounds the header scan for inputs that never
	// open a feature block.
	detectMaxLines = 200

	// declarationKey is the header attribute naming the charset.
	declarationKey = "TEGNSETT"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Detect decides which charset a raw document is in. The order of
// preference: a UTF-8 byte order mark, a recognized header
// declaration, content that validates as UTF-8, and finally
// Windows-1252 with the fallback flag set. Detect never fails; an
// unrecognizable declaration is treated as absent, with the label
// retained so callers can surface a warning.
func Detect(data []byte) Decision {
	if bytes.HasPrefix(data, utf8BOM) {
		return Decision{Encoding: EncodingUTF8, Declared: true, DeclaredLabel: "UTF-8 BOM"}
	}

	// The declaration scan reads the sample as ISO-8859-1: every byte
	// decodes to something, and the declaration line itself is plain
	// ASCII in all three candidate charsets.
	sample := data
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}
	head, _ := Decode(sample, EncodingISO88591)
	label, declared := scanDeclaration(head)
	if declared {
		if enc, known := ParseEncoding(label); known {
			return Decision{Encoding: enc, Declared: true, DeclaredLabel: label}
		}
	}

	if validSampleUTF8(data) {
		return Decision{Encoding: EncodingUTF8, DeclaredLabel: label}
	}
	return Decision{Encoding: EncodingWindows1252, DeclaredLabel: label, FallbackUsed: true}
}

// scanDeclaration looks for the charset declaration inside the header
// block. The scan stops at the first feature start after the opening
// line, or after detectMaxLines lines.
func scanDeclaration(head string) (string, bool) {
	sc := lineScanner{text: head}
	for n := 0; n < detectMaxLines; n++ {
		line, ok := sc.Next()
		if !ok {
			break
		}
		if n > 0 && IsFeatureStart(line) {
			break
		}
		if key, ok := AttributeKey(line); !ok || key != declarationKey {
			continue
		}
		if v := AttributeValue(line); v != "" {
			return v, true
		}
		return "", false
	}
	return "", false
}

// validSampleUTF8 checks the sample for UTF-8 validity, discarding any
// rune split at the sample boundary so truncation alone cannot fail
// the check.
func validSampleUTF8(data []byte) bool {
	sample := data
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
		for i := 0; i < utf8.UTFMax && len(sample) > 0; i++ {
			r, size := utf8.DecodeLastRune(sample)
			if r != utf8.RuneError || size > 1 {
				break
			}
			sample = sample[:len(sample)-1]
		}
	}
	return utf8.Valid(sample)
}

// Decode converts raw bytes to text under the given charset. Single
// byte charsets decode totally; UTF-8 input with invalid sequences is
// repaired with replacement runes rather than rejected, and a leading
// byte order mark is dropped.
func Decode(data []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingISO88591:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", enc, err)
		}
		return string(out), nil
	case EncodingWindows1252:
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", enc, err)
		}
		return string(out), nil
	case EncodingUTF8:
		data = bytes.TrimPrefix(data, utf8BOM)
		if utf8.Valid(data) {
			return string(data), nil
		}
		return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
	default:
		return "", fmt.Errorf("decode: %w (%d)", ErrUnsupportedEncoding, uint8(enc))
	}
}

// Encode converts text back to bytes under the given charset.
// Characters outside a single-byte charset's range become the
// charset's substitution byte instead of failing, which keeps the
// decode/clean/encode cycle total for any representable document.
func Encode(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingISO88591:
		out, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).Bytes([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", enc, err)
		}
		return out, nil
	case EncodingWindows1252:
		out, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).Bytes([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", enc, err)
		}
		return out, nil
	case EncodingUTF8:
		return []byte(text), nil
	default:
		return nil, fmt.Errorf("encode: %w (%d)", ErrUnsupportedEncoding, uint8(enc))
	}
}
