//go:build !linux

package bluez

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/internal/device"
)

// Adapter is unavailable outside Linux.
type Adapter struct {
	logger *logrus.Logger
}

// NewAdapter creates an adapter that never finds a controller.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) IsAvailable(_ context.Context) bool {
	a.logger.Debug("BlueZ is only available on Linux")
	return false
}

func (a *Adapter) BondedDevices(_ context.Context) ([]device.PeripheralDescriptor, error) {
	return nil, device.ErrAdapterUnavailable
}

func (a *Adapter) Dial(_ context.Context, _ device.PeripheralDescriptor, _ uuid.UUID) (device.Link, error) {
	return nil, device.ErrAdapterUnavailable
}

func (a *Adapter) Close() error { return nil }
