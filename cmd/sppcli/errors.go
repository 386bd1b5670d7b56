package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/runner"
)

// FormatUserError turns an error into a one-line message for the terminal.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var te *device.TransportError
	switch {
	case errors.Is(err, device.ErrAdapterUnavailable):
		return "Bluetooth adapter is not available (is bluetoothd running and the adapter powered on?)"
	case errors.Is(err, device.ErrNoMatchingDevice):
		return "no paired device matches the allow-list; pair one in the system settings and retry"
	case errors.Is(err, runner.ErrBusy):
		return "a session is already running"
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timed out: %v", err)
	case errors.As(err, &te):
		switch te.Kind {
		case device.ConnectFailed:
			return fmt.Sprintf("failed to connect: %v", te)
		case device.WriteFailed:
			return fmt.Sprintf("failed to send the request: %v", te)
		case device.ReadFailed:
			return fmt.Sprintf("failed to read the response: %v", te)
		}
	}
	return err.Error()
}
