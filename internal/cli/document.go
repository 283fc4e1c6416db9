package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mkleiva/sosivask/internal/sosi"
)

// loadDocument reads a SOSI file, or stdin for "-", and decodes it
// with the forced or detected character set.
func loadDocument(path string) (string, sosi.Decision, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", sosi.Decision{}, err
	}
	if len(data) == 0 {
		return "", sosi.Decision{}, errors.New("empty file")
	}

	var decision sosi.Decision
	if forceEncoding != "" {
		enc, ok := sosi.ParseEncoding(forceEncoding)
		if !ok {
			return "", sosi.Decision{}, fmt.Errorf("%w: %q", sosi.ErrUnsupportedEncoding, forceEncoding)
		}
		decision = sosi.Decision{Encoding: enc}
	} else {
		decision = sosi.Detect(data)
	}

	text, err := sosi.Decode(data, decision.Encoding)
	if err != nil {
		return "", sosi.Decision{}, fmt.Errorf("decode %s: %w", decision.Encoding, err)
	}
	return text, decision, nil
}

// describeEncoding renders a one-line summary of a charset decision.
func describeEncoding(d sosi.Decision) string {
	switch {
	case forceEncoding != "":
		return fmt.Sprintf("%s (forced)", d.Encoding)
	case d.Declared:
		return fmt.Sprintf("%s (declared %s)", d.Encoding, d.DeclaredLabel)
	case d.FallbackUsed:
		return fmt.Sprintf("%s (fallback)", d.Encoding)
	default:
		return fmt.Sprintf("%s (detected)", d.Encoding)
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sortedKeys returns the keys of a count map in ascending order.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
