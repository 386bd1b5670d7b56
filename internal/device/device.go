package device

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// PeripheralDescriptor is an immutable snapshot of a bonded peripheral.
type PeripheralDescriptor struct {
	Address     string `json:"address"`
	DisplayName string `json:"name"`
}

// Adapter is the platform's connectivity stack as seen by a session.
type Adapter interface {
	// IsAvailable reports whether a usable (present and powered) adapter exists.
	IsAvailable(ctx context.Context) bool

	// BondedDevices returns the currently paired peripherals in a stable order.
	BondedDevices(ctx context.Context) ([]PeripheralDescriptor, error)

	// Dial opens a connection-oriented channel to target for the given service.
	// The returned Link is exclusively owned by the caller.
	Dial(ctx context.Context, target PeripheralDescriptor, serviceID uuid.UUID) (Link, error)
}

// InputStream is the receiving half of a Link.
type InputStream interface {
	io.ReadCloser

	// Available returns the number of bytes that can be read without blocking.
	Available() (int, error)
}

// OutputStream is the sending half of a Link.
type OutputStream interface {
	io.WriteCloser
	Flush() error
}

// Link is one open socket with its two streams. Input, Output and the socket
// itself are released independently.
type Link interface {
	Input() InputStream
	Output() OutputStream
	Close() error
}
