// Package catalog selects the session target among bonded peripherals.
package catalog

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/pkg/event"
)

// ListingHeader replaces the status text before the bonded devices are enumerated.
const ListingHeader = "The following devices are paired"

// Catalog resolves targets against an allow-list.
type Catalog struct {
	logger *logrus.Logger
}

// NewCatalog creates a Catalog.
func NewCatalog(logger *logrus.Logger) *Catalog {
	if logger == nil {
		logger = logrus.New()
	}
	return &Catalog{logger: logger}
}

// ResolveTarget enumerates candidates to sink and returns the last candidate
// whose display name is allowed.
//
// The header is emitted once, then one "<address> = <name>" line per
// candidate in iteration order. Later matches replace earlier ones; no other
// priority exists. ok is false when nothing matches, which is not an error.
func (c *Catalog) ResolveTarget(candidates []device.PeripheralDescriptor, allowed *device.AllowList, sink event.Sink) (target device.PeripheralDescriptor, ok bool) {
	if sink == nil {
		sink = event.Discard
	}

	sink.Emit(event.Replace(ListingHeader))

	for _, cand := range candidates {
		sink.Emit(event.Appendf("%s = %s", cand.Address, cand.DisplayName))
		if allowed.Contains(cand.DisplayName) {
			target, ok = cand, true
		}
	}

	if ok {
		c.logger.WithFields(logrus.Fields{
			"address": target.Address,
			"name":    target.DisplayName,
		}).Debug("Resolved target device")
	} else {
		c.logger.WithFields(logrus.Fields{
			"candidates": len(candidates),
			"allowed":    allowed.String(),
		}).Debug("No bonded device matches the allow-list")
	}

	return target, ok
}

// Entry is one bonded device annotated with how ResolveTarget treats it.
type Entry struct {
	device.PeripheralDescriptor
	Allowed  bool `json:"allowed"`
	Selected bool `json:"selected"`
}

// Annotate reports, for each candidate, whether it is allowed and whether it
// is the one ResolveTarget would select. It emits nothing.
func Annotate(candidates []device.PeripheralDescriptor, allowed *device.AllowList) []Entry {
	entries := make([]Entry, len(candidates))
	selected := -1
	for i, cand := range candidates {
		entries[i] = Entry{PeripheralDescriptor: cand, Allowed: allowed.Contains(cand.DisplayName)}
		if entries[i].Allowed {
			selected = i
		}
	}
	if selected >= 0 {
		entries[selected].Selected = true
	}
	return entries
}
