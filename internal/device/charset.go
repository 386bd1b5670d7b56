package device

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText maps every byte to the code point of the same value (ISO-8859-1).
// Arbitrary firmware output decodes without loss or replacement characters.
func DecodeText(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// every byte value is defined in ISO-8859-1
		panic(fmt.Sprintf("iso-8859-1 decode: %v", err))
	}
	return string(s)
}

// EncodeText is the inverse of DecodeText. Runes above U+00FF cannot be encoded.
func EncodeText(s string) ([]byte, error) {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %q as ISO-8859-1: %w", s, err)
	}
	return b, nil
}
