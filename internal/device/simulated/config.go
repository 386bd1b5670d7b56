// Package simulated implements device.Adapter entirely in memory.
//
// A simulated adapter serves scripted peripherals: each one can echo or answer
// with a canned response after a delay, and can be told to fail at any stage
// of the link lifecycle, including the release of individual resources. It is
// used by tests and by `sppcli run --adapter simulated` for dry runs.
package simulated

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/srg/sppcli/internal/device"
)

// PeripheralConfig scripts one bonded peripheral.
type PeripheralConfig struct {
	Address string `json:"address" mapstructure:"address" yaml:"address"`
	Name    string `json:"name" mapstructure:"name" yaml:"name"`

	// Response is made available after each flushed request. Ignored when Echo is set.
	Response string `json:"response,omitempty" mapstructure:"response" yaml:"response,omitempty"`
	// Echo answers every request with the request bytes.
	Echo bool `json:"echo,omitempty" mapstructure:"echo" yaml:"echo,omitempty"`
	// ResponseDelay postpones the response; a delay beyond the wait window yields an empty read.
	ResponseDelay time.Duration `json:"response_delay,omitempty" mapstructure:"response_delay" yaml:"response_delay,omitempty"`

	// Injected failures; empty means the stage succeeds.
	ConnectError string                     `json:"connect_error,omitempty" mapstructure:"connect_error" yaml:"connect_error,omitempty"`
	WriteError   string                     `json:"write_error,omitempty" mapstructure:"write_error" yaml:"write_error,omitempty"`
	ReadError    string                     `json:"read_error,omitempty" mapstructure:"read_error" yaml:"read_error,omitempty"`
	CloseErrors  map[device.Resource]string `json:"close_errors,omitempty" mapstructure:"close_errors" yaml:"close_errors,omitempty"`
}

// Descriptor returns the peripheral's identity.
func (p PeripheralConfig) Descriptor() device.PeripheralDescriptor {
	return device.PeripheralDescriptor{Address: p.Address, DisplayName: p.Name}
}

// AdapterConfig scripts the adapter itself.
type AdapterConfig struct {
	Unavailable bool               `json:"unavailable,omitempty" mapstructure:"unavailable" yaml:"unavailable,omitempty"`
	BondedError string             `json:"bonded_error,omitempty" mapstructure:"bonded_error" yaml:"bonded_error,omitempty"`
	DialDelay   time.Duration      `json:"dial_delay,omitempty" mapstructure:"dial_delay" yaml:"dial_delay,omitempty"`
	Peripherals []PeripheralConfig `json:"peripherals" mapstructure:"peripherals" yaml:"peripherals"`
}

// AdapterBuilder builds simulated adapters fluently. Per-peripheral options
// apply to the most recently added peripheral.
type AdapterBuilder struct {
	cfg AdapterConfig
}

// NewAdapterBuilder creates an empty, available adapter builder.
func NewAdapterBuilder() *AdapterBuilder {
	return &AdapterBuilder{cfg: AdapterConfig{Peripherals: []PeripheralConfig{}}}
}

// FromJSON replaces the configuration with the given JSON document.
func (b *AdapterBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *AdapterBuilder {
	jsonStr := fmt.Sprintf(jsonStrFmt, args...)

	var cfg AdapterConfig
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		panic(fmt.Sprintf("AdapterBuilder.FromJSON: failed to unmarshal: %v", err))
	}

	b.cfg = cfg
	return b
}

// Unavailable makes IsAvailable report false.
func (b *AdapterBuilder) Unavailable() *AdapterBuilder {
	b.cfg.Unavailable = true
	return b
}

// WithBondedError makes BondedDevices fail.
func (b *AdapterBuilder) WithBondedError(msg string) *AdapterBuilder {
	b.cfg.BondedError = msg
	return b
}

// WithDialDelay delays every Dial.
func (b *AdapterBuilder) WithDialDelay(d time.Duration) *AdapterBuilder {
	b.cfg.DialDelay = d
	return b
}

// WithPeripheral adds a bonded peripheral.
func (b *AdapterBuilder) WithPeripheral(address, name string) *AdapterBuilder {
	b.cfg.Peripherals = append(b.cfg.Peripherals, PeripheralConfig{Address: address, Name: name})
	return b
}

func (b *AdapterBuilder) last(method string) *PeripheralConfig {
	if len(b.cfg.Peripherals) == 0 {
		panic(method + ": no peripheral added yet, call WithPeripheral first")
	}
	return &b.cfg.Peripherals[len(b.cfg.Peripherals)-1]
}

// WithResponse sets a canned response on the last peripheral.
func (b *AdapterBuilder) WithResponse(response string) *AdapterBuilder {
	b.last("WithResponse").Response = response
	return b
}

// WithEcho makes the last peripheral echo requests.
func (b *AdapterBuilder) WithEcho() *AdapterBuilder {
	b.last("WithEcho").Echo = true
	return b
}

// WithResponseDelay delays the last peripheral's response.
func (b *AdapterBuilder) WithResponseDelay(d time.Duration) *AdapterBuilder {
	b.last("WithResponseDelay").ResponseDelay = d
	return b
}

// WithConnectError makes dialing the last peripheral fail.
func (b *AdapterBuilder) WithConnectError(msg string) *AdapterBuilder {
	b.last("WithConnectError").ConnectError = msg
	return b
}

// WithWriteError makes writes to the last peripheral fail.
func (b *AdapterBuilder) WithWriteError(msg string) *AdapterBuilder {
	b.last("WithWriteError").WriteError = msg
	return b
}

// WithReadError makes reads from the last peripheral fail.
func (b *AdapterBuilder) WithReadError(msg string) *AdapterBuilder {
	b.last("WithReadError").ReadError = msg
	return b
}

// WithCloseError makes releasing resource of the last peripheral's link fail.
func (b *AdapterBuilder) WithCloseError(resource device.Resource, msg string) *AdapterBuilder {
	p := b.last("WithCloseError")
	if p.CloseErrors == nil {
		p.CloseErrors = make(map[device.Resource]string)
	}
	p.CloseErrors[resource] = msg
	return b
}

// Config returns a copy of the accumulated configuration.
func (b *AdapterBuilder) Config() AdapterConfig {
	return b.cfg
}

// Build creates the adapter.
func (b *AdapterBuilder) Build() *Adapter {
	return NewAdapter(b.cfg, nil)
}
