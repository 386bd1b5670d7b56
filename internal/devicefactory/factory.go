// Package devicefactory selects the adapter implementation used by the CLI.
package devicefactory

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/internal/device/bluez"
	"github.com/srg/sppcli/internal/device/simulated"
)

// Kind names an adapter implementation.
type Kind string

const (
	KindBlueZ     Kind = "bluez"
	KindSimulated Kind = "simulated"
)

// Kinds lists the accepted adapter kinds.
var Kinds = []Kind{KindBlueZ, KindSimulated}

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown adapter %q (expected one of %v)", s, Kinds)
}

// Adapter is a device.Adapter owned by the caller, who must Close it.
type Adapter interface {
	device.Adapter
	Close() error
}

// AdapterFactory creates the adapter of the given kind. sim describes the
// peripherals of a simulated adapter and is ignored otherwise.
// This is a variable so that it can be overridden in tests.
var AdapterFactory = func(kind Kind, sim simulated.AdapterConfig, logger *logrus.Logger) (Adapter, error) {
	switch kind {
	case KindBlueZ, "":
		return bluez.NewAdapter(logger), nil
	case KindSimulated:
		return simulated.NewAdapter(sim, logger), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", kind)
	}
}
