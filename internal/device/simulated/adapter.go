package simulated

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/internal/device"
)

// Adapter is an in-memory device.Adapter.
type Adapter struct {
	cfg    AdapterConfig
	logger *logrus.Logger

	mu    sync.Mutex
	links []*Link
}

// NewAdapter creates an adapter serving cfg.
func NewAdapter(cfg AdapterConfig, logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{cfg: cfg, logger: logger}
}

// IsAvailable reports whether the simulated adapter is present.
func (a *Adapter) IsAvailable(_ context.Context) bool {
	return !a.cfg.Unavailable
}

// BondedDevices returns the configured peripherals in configuration order.
func (a *Adapter) BondedDevices(_ context.Context) ([]device.PeripheralDescriptor, error) {
	if a.cfg.Unavailable {
		return nil, device.ErrAdapterUnavailable
	}
	if a.cfg.BondedError != "" {
		return nil, errors.New(a.cfg.BondedError)
	}

	out := make([]device.PeripheralDescriptor, 0, len(a.cfg.Peripherals))
	for _, p := range a.cfg.Peripherals {
		out = append(out, p.Descriptor())
	}
	return out, nil
}

// Dial opens a link to the peripheral at target.Address.
func (a *Adapter) Dial(ctx context.Context, target device.PeripheralDescriptor, serviceID uuid.UUID) (device.Link, error) {
	if a.cfg.Unavailable {
		return nil, device.ErrAdapterUnavailable
	}

	if a.cfg.DialDelay > 0 {
		timer := time.NewTimer(a.cfg.DialDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to %s: %w", target.Address, ctx.Err())
		case <-timer.C:
		}
	}

	p, ok := a.lookup(target.Address)
	if !ok {
		return nil, fmt.Errorf("connect to %s: host is down", target.Address)
	}
	if serviceID != device.SerialPortServiceID {
		return nil, fmt.Errorf("connect to %s: service %s not found", target.Address, serviceID)
	}
	if p.ConnectError != "" {
		return nil, errors.New(p.ConnectError)
	}

	link := newLink(p, a.logger)

	a.mu.Lock()
	a.links = append(a.links, link)
	a.mu.Unlock()

	a.logger.WithField("address", p.Address).Debug("Simulated link opened")
	return link, nil
}

// Links returns every link opened so far, oldest first.
func (a *Adapter) Links() []*Link {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Link, len(a.links))
	copy(out, a.links)
	return out
}

// LastLink returns the most recently opened link, or nil.
func (a *Adapter) LastLink() *Link {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.links) == 0 {
		return nil
	}
	return a.links[len(a.links)-1]
}

func (a *Adapter) lookup(address string) (PeripheralConfig, bool) {
	for _, p := range a.cfg.Peripherals {
		if p.Address == address {
			return p, true
		}
	}
	return PeripheralConfig{}, false
}

// Close does nothing; links outlive the adapter as they do on real hardware.
func (a *Adapter) Close() error {
	return nil
}
