package bluez

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/srg/sppcli/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adapterObj(powered bool) map[string]map[string]dbus.Variant {
	return map[string]map[string]dbus.Variant{
		adapterIface: {"Powered": dbus.MakeVariant(powered)},
	}
}

func deviceObj(adapter dbus.ObjectPath, address, name, alias string, paired bool) map[string]map[string]dbus.Variant {
	props := map[string]dbus.Variant{
		"Paired":  dbus.MakeVariant(paired),
		"Adapter": dbus.MakeVariant(adapter),
	}
	if address != "" {
		props["Address"] = dbus.MakeVariant(address)
	}
	if name != "" {
		props["Name"] = dbus.MakeVariant(name)
	}
	if alias != "" {
		props["Alias"] = dbus.MakeVariant(alias)
	}
	return map[string]map[string]dbus.Variant{deviceIface: props}
}

func TestAddressFromPath(t *testing.T) {
	tests := []struct {
		path dbus.ObjectPath
		want string
	}{
		{"/org/bluez/hci0/dev_00_11_22_33_44_55", "00:11:22:33:44:55"},
		{"/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF", "AA:BB:CC:DD:EE:FF"},
		{"/org/bluez/hci0", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.path), func(t *testing.T) {
			assert.Equal(t, tt.want, addressFromPath(tt.path))
		})
	}
}

func TestBondedDevices(t *testing.T) {
	objs := managedObjects{
		"/org/bluez/hci0": adapterObj(true),
		"/org/bluez/hci1": adapterObj(false),
		"/org/bluez/hci0/dev_00_00_00_00_00_02": deviceObj("/org/bluez/hci0", "00:00:00:00:00:02", "HC-05", "", true),
		"/org/bluez/hci0/dev_00_00_00_00_00_01": deviceObj("/org/bluez/hci0", "00:00:00:00:00:01", "", "Speaker", true),
		"/org/bluez/hci0/dev_00_00_00_00_00_03": deviceObj("/org/bluez/hci0", "00:00:00:00:00:03", "Phone", "", false),
		"/org/bluez/hci1/dev_00_00_00_00_00_04": deviceObj("/org/bluez/hci1", "00:00:00:00:00:04", "HC-06", "", true),
		"/org/bluez/hci0/dev_00_00_00_00_00_05": deviceObj("/org/bluez/hci0", "", "linvor", "", true),
	}

	got := bondedDevices(objs)

	assert.Equal(t, []device.PeripheralDescriptor{
		{Address: "00:00:00:00:00:01", DisplayName: "Speaker"},
		{Address: "00:00:00:00:00:02", DisplayName: "HC-05"},
		{Address: "00:00:00:00:00:05", DisplayName: "linvor"},
	}, got, "paired devices of powered adapters, ordered by path, alias as fallback name")
}

func TestPoweredAdapters(t *testing.T) {
	objs := managedObjects{
		"/org/bluez/hci1": adapterObj(true),
		"/org/bluez/hci0": adapterObj(true),
		"/org/bluez/hci2": adapterObj(false),
	}
	assert.Equal(t, []dbus.ObjectPath{"/org/bluez/hci0", "/org/bluez/hci1"}, poweredAdapters(objs))
	assert.Empty(t, poweredAdapters(managedObjects{}))
}

func TestDevicePath(t *testing.T) {
	objs := managedObjects{
		"/org/bluez/hci0": adapterObj(true),
		"/org/bluez/hci0/dev_00_11_22_33_AA_BB": deviceObj("/org/bluez/hci0", "00:11:22:33:AA:BB", "HC-05", "", true),
	}

	path, ok := devicePath(objs, "00:11:22:33:aa:bb")
	require.True(t, ok)
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0/dev_00_11_22_33_AA_BB"), path)

	_, ok = devicePath(objs, "00:00:00:00:00:00")
	assert.False(t, ok)
}

func TestProfilePath(t *testing.T) {
	got := profilePath(device.FormatServiceID(device.SerialPortServiceID))
	assert.Equal(t, dbus.ObjectPath("/org/srg/sppcli/profile/00001101_0000_1000_8000_00805f9b34fb"), got)
	assert.True(t, got.IsValid())
}

func TestNormalizeError(t *testing.T) {
	notReady := dbus.NewError("org.bluez.Error.NotReady", []interface{}{"Resource Not Ready"})
	hostDown := dbus.NewError("org.bluez.Error.Failed", []interface{}{"Host is down"})

	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
		wantMsg         string
	}{
		{"not ready pointer", notReady, true, ""},
		{"not ready value", *notReady, true, ""},
		{"service unknown", dbus.NewError("org.freedesktop.DBus.Error.ServiceUnknown", nil), true, ""},
		{"failed keeps reason", hostDown, false, "Host is down"},
		{"plain error", errors.New("boom"), false, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeError(tt.err)
			require.Error(t, got)
			assert.Equal(t, tt.wantUnavailable, errors.Is(got, device.ErrAdapterUnavailable))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Error())
			}
		})
	}

	assert.NoError(t, normalizeError(nil))
}
