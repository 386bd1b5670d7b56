package device_test

import (
	"testing"

	"github.com/srg/sppcli/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialPortServiceID(t *testing.T) {
	want := [16]byte{
		0x00, 0x00, 0x11, 0x01, 0x00, 0x00, 0x10, 0x00,
		0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
	}
	assert.Equal(t, want, [16]byte(device.SerialPortServiceID))
	assert.Equal(t, "00001101-0000-1000-8000-00805f9b34fb", device.FormatServiceID(device.SerialPortServiceID))
}

func TestParseServiceID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "uppercase canonical", input: "00001101-0000-1000-8000-00805F9B34FB"},
		{name: "lowercase canonical", input: "00001101-0000-1000-8000-00805f9b34fb"},
		{name: "surrounding whitespace", input: "  00001101-0000-1000-8000-00805F9B34FB\n"},
		{name: "short alias rejected", input: "1101", wantErr: true},
		{name: "urn form rejected", input: "urn:uuid:00001101-0000-1000-8000-00805f9b34fb", wantErr: true},
		{name: "braced form rejected", input: "{00001101-0000-1000-8000-00805f9b34fb}", wantErr: true},
		{name: "garbage", input: "zzzzzzzz-0000-1000-8000-00805f9b34fb", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := device.ParseServiceID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, device.SerialPortServiceID, id)
		})
	}
}
