package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SerialPortServiceID is the Serial Port Profile service class UUID.
var SerialPortServiceID = uuid.MustParse("00001101-0000-1000-8000-00805F9B34FB")

// ParseServiceID parses a 128-bit service UUID. Only the canonical dashed form
// (any case) is accepted; short 16-bit SIG aliases are rejected.
func ParseServiceID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return uuid.Nil, fmt.Errorf("invalid service UUID %q: expected canonical 36-character form", s)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid service UUID %q: %w", s, err)
	}
	return id, nil
}

// FormatServiceID renders id the way BlueZ expects it on D-Bus (lowercase, dashed).
func FormatServiceID(id uuid.UUID) string {
	return id.String()
}
