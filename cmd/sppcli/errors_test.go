package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/runner"
	"github.com/stretchr/testify/assert"
)

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"adapter", fmt.Errorf("list: %w", device.ErrAdapterUnavailable), "Bluetooth adapter is not available (is bluetoothd running and the adapter powered on?)"},
		{"no device", device.ErrNoMatchingDevice, "no paired device matches the allow-list; pair one in the system settings and retry"},
		{"busy", runner.ErrBusy, "a session is already running"},
		{"connect", device.NewTransportError(device.ConnectFailed, errors.New("host is down")), "failed to connect: host is down"},
		{"write", device.NewTransportError(device.WriteFailed, errors.New("broken pipe")), "failed to send the request: broken pipe"},
		{"read", device.NewTransportError(device.ReadFailed, errors.New("reset")), "failed to read the response: reset"},
		{"deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), "timed out: dial: context deadline exceeded"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUserError(tt.err))
		})
	}
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
}
