// Package bluez reaches RFCOMM serial peripherals through the BlueZ D-Bus API.
package bluez

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/srg/sppcli/internal/device"
)

const (
	bluezService        = "org.bluez"
	bluezRoot           = dbus.ObjectPath("/org/bluez")
	adapterIface        = "org.bluez.Adapter1"
	deviceIface         = "org.bluez.Device1"
	profileIface        = "org.bluez.Profile1"
	profileManagerIface = "org.bluez.ProfileManager1"
	objectManagerIface  = "org.freedesktop.DBus.ObjectManager"
	errRejected         = "org.bluez.Error.Rejected"
	profilePathTemplate = "/org/srg/sppcli/profile/%s"
	devicePathComponent = "/dev_"
)

// managedObjects is the reply of ObjectManager.GetManagedObjects.
type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// addressFromPath extracts "AA:BB:CC:DD:EE:FF" from .../dev_AA_BB_CC_DD_EE_FF.
func addressFromPath(p dbus.ObjectPath) string {
	s := string(p)
	idx := strings.LastIndex(s, devicePathComponent)
	if idx < 0 {
		return ""
	}
	return strings.ReplaceAll(s[idx+len(devicePathComponent):], "_", ":")
}

func stringProp(props map[string]dbus.Variant, name string) string {
	if v, ok := props[name]; ok {
		s, _ := v.Value().(string)
		return s
	}
	return ""
}

func boolProp(props map[string]dbus.Variant, name string) bool {
	if v, ok := props[name]; ok {
		b, _ := v.Value().(bool)
		return b
	}
	return false
}

// poweredAdapters returns the paths of adapters that are powered on, sorted.
func poweredAdapters(objs managedObjects) []dbus.ObjectPath {
	var out []dbus.ObjectPath
	for path, ifaces := range objs {
		if props, ok := ifaces[adapterIface]; ok && boolProp(props, "Powered") {
			out = append(out, path)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// bondedDevices returns the paired devices of powered adapters ordered by
// object path, which keeps the enumeration stable between runs.
func bondedDevices(objs managedObjects) []device.PeripheralDescriptor {
	powered := make(map[dbus.ObjectPath]bool)
	for _, p := range poweredAdapters(objs) {
		powered[p] = true
	}

	paths := make([]dbus.ObjectPath, 0, len(objs))
	for path, ifaces := range objs {
		props, ok := ifaces[deviceIface]
		if !ok || !(boolProp(props, "Paired") || boolProp(props, "Bonded")) {
			continue
		}
		if v, ok := props["Adapter"]; ok {
			if ap, _ := v.Value().(dbus.ObjectPath); ap != "" && !powered[ap] {
				continue
			}
		}
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	out := make([]device.PeripheralDescriptor, 0, len(paths))
	for _, path := range paths {
		props := objs[path][deviceIface]
		addr := stringProp(props, "Address")
		if addr == "" {
			addr = addressFromPath(path)
		}
		name := stringProp(props, "Name")
		if name == "" {
			name = stringProp(props, "Alias")
		}
		out = append(out, device.PeripheralDescriptor{Address: addr, DisplayName: name})
	}
	return out
}

// devicePath finds the Device1 object for address, case-insensitively.
func devicePath(objs managedObjects, address string) (dbus.ObjectPath, bool) {
	var found []dbus.ObjectPath
	for path, ifaces := range objs {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		addr := stringProp(props, "Address")
		if addr == "" {
			addr = addressFromPath(path)
		}
		if strings.EqualFold(addr, address) {
			found = append(found, path)
		}
	}
	if len(found) == 0 {
		return "", false
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found[0], true
}

// profilePath is the object path the client profile for serviceID is exported at.
func profilePath(serviceID string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf(profilePathTemplate, strings.ReplaceAll(serviceID, "-", "_")))
}

var unavailableErrors = []string{
	"org.bluez.Error.NotReady",
	"org.freedesktop.DBus.Error.ServiceUnknown",
	"org.freedesktop.DBus.Error.NameHasNoOwner",
}

// normalizeError maps BlueZ D-Bus errors onto the device error taxonomy.
// Errors from BlueZ carry their human readable reason in the first body field,
// which becomes the message.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}

	var dbusErr dbus.Error
	var dbusErrPtr *dbus.Error
	switch {
	case errors.As(err, &dbusErrPtr):
		dbusErr = *dbusErrPtr
	case errors.As(err, &dbusErr):
	default:
		return device.NormalizeError(err)
	}

	for _, name := range unavailableErrors {
		if dbusErr.Name == name {
			return fmt.Errorf("%w: %w", device.ErrAdapterUnavailable, err)
		}
	}
	return err
}
