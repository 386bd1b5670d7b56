//go:build linux

package bluez

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cornelk/hashmap"
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/internal/device"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("bluez: adapter closed")

// Adapter talks to bluetoothd over the system bus. The bus connection and the
// client profiles are set up lazily on first use.
type Adapter struct {
	logger *logrus.Logger

	mu       sync.Mutex
	bus      *dbus.Conn
	profiles map[uuid.UUID]dbus.ObjectPath
	closed   bool

	// pending holds one channel per device path with a Dial in flight.
	pending *hashmap.Map[string, chan dbus.UnixFD]
}

// NewAdapter creates an adapter. It does not touch the bus.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{
		logger:   logger,
		profiles: make(map[uuid.UUID]dbus.ObjectPath),
		pending:  hashmap.New[string, chan dbus.UnixFD](),
	}
}

func (a *Adapter) connection() (*dbus.Conn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if a.bus != nil {
		return a.bus, nil
	}

	bus, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: system bus: %w", device.ErrAdapterUnavailable, err)
	}
	a.bus = bus
	return bus, nil
}

func (a *Adapter) managedObjects(ctx context.Context) (managedObjects, error) {
	bus, err := a.connection()
	if err != nil {
		return nil, err
	}

	var objs managedObjects
	call := bus.Object(bluezService, "/").CallWithContext(ctx, objectManagerIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return nil, normalizeError(call.Err)
	}
	if err := call.Store(&objs); err != nil {
		return nil, fmt.Errorf("decode managed objects: %w", err)
	}
	return objs, nil
}

// IsAvailable reports whether bluetoothd is reachable and at least one adapter is powered.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	objs, err := a.managedObjects(ctx)
	if err != nil {
		a.logger.WithError(err).Debug("BlueZ is not reachable")
		return false
	}
	return len(poweredAdapters(objs)) > 0
}

// BondedDevices returns the paired devices of all powered adapters.
func (a *Adapter) BondedDevices(ctx context.Context) ([]device.PeripheralDescriptor, error) {
	objs, err := a.managedObjects(ctx)
	if err != nil {
		return nil, err
	}
	if len(poweredAdapters(objs)) == 0 {
		return nil, device.ErrAdapterUnavailable
	}
	return bondedDevices(objs), nil
}

// Dial asks bluetoothd to connect serviceID on target and waits for the
// resulting socket to be handed to the client profile.
func (a *Adapter) Dial(ctx context.Context, target device.PeripheralDescriptor, serviceID uuid.UUID) (device.Link, error) {
	objs, err := a.managedObjects(ctx)
	if err != nil {
		return nil, err
	}
	path, ok := devicePath(objs, target.Address)
	if !ok {
		return nil, fmt.Errorf("connect to %s: device not known to BlueZ", target.Address)
	}
	if err := a.registerProfile(ctx, serviceID); err != nil {
		return nil, err
	}

	fds := make(chan dbus.UnixFD, 1)
	if !a.pending.Insert(string(path), fds) {
		return nil, fmt.Errorf("connect to %s: connection already in progress", target.Address)
	}
	defer func() {
		a.pending.Del(string(path))
		select {
		case fd := <-fds:
			_ = os.NewFile(uintptr(fd), "rfcomm").Close()
		default:
		}
	}()

	log := a.logger.WithFields(logrus.Fields{"address": target.Address, "path": path})
	log.Debug("Connecting profile")

	bus, err := a.connection()
	if err != nil {
		return nil, err
	}
	call := bus.Object(bluezService, path).CallWithContext(ctx, deviceIface+".ConnectProfile", 0, device.FormatServiceID(serviceID))
	if call.Err != nil {
		return nil, normalizeError(call.Err)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("connect to %s: %w", target.Address, ctx.Err())
	case fd := <-fds:
		log.WithField("fd", int(fd)).Debug("Received RFCOMM socket")
		return newLink(int(fd)), nil
	}
}

func (a *Adapter) registerProfile(ctx context.Context, serviceID uuid.UUID) error {
	bus, err := a.connection()
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.profiles[serviceID]; ok {
		return nil
	}

	id := device.FormatServiceID(serviceID)
	path := profilePath(id)
	if err := bus.Export(&profile{adapter: a}, path, profileIface); err != nil {
		return fmt.Errorf("export profile: %w", err)
	}

	opts := map[string]dbus.Variant{
		"Role":                  dbus.MakeVariant("client"),
		"AutoConnect":           dbus.MakeVariant(false),
		"RequireAuthentication": dbus.MakeVariant(false),
	}
	call := bus.Object(bluezService, bluezRoot).CallWithContext(ctx, profileManagerIface+".RegisterProfile", 0, path, id, opts)
	if call.Err != nil {
		_ = bus.Export(nil, path, profileIface)
		return fmt.Errorf("register profile %s: %w", id, normalizeError(call.Err))
	}

	a.profiles[serviceID] = path
	a.logger.WithField("uuid", id).Debug("Registered client profile")
	return nil
}

// Close unregisters the client profiles and closes the bus. Links already
// handed out stay open.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.bus == nil {
		return nil
	}

	manager := a.bus.Object(bluezService, bluezRoot)
	for _, path := range a.profiles {
		if err := manager.Call(profileManagerIface+".UnregisterProfile", 0, path).Err; err != nil {
			a.logger.WithError(err).WithField("path", path).Warn("Failed to unregister profile")
		}
		_ = a.bus.Export(nil, path, profileIface)
	}
	a.profiles = nil
	return a.bus.Close()
}

// profile implements org.bluez.Profile1 for the client role.
type profile struct {
	adapter *Adapter
}

func (p *profile) Release() *dbus.Error { return nil }

func (p *profile) Cancel() *dbus.Error { return nil }

func (p *profile) RequestDisconnection(_ dbus.ObjectPath) *dbus.Error { return nil }

// NewConnection hands the socket to the Dial waiting for dev. Sockets nobody
// waits for are closed and rejected.
func (p *profile) NewConnection(dev dbus.ObjectPath, fd dbus.UnixFD, _ map[string]dbus.Variant) *dbus.Error {
	if ch, ok := p.adapter.pending.Get(string(dev)); ok {
		select {
		case ch <- fd:
			return nil
		default:
		}
	}

	p.adapter.logger.WithField("path", dev).Debug("Rejecting unexpected connection")
	_ = os.NewFile(uintptr(fd), "rfcomm").Close()
	return dbus.NewError(errRejected, []interface{}{"no pending connection"})
}
