// Package device provides the transport-neutral model for classic Bluetooth
// serial (SPP/RFCOMM) peripherals.
//
// It defines:
//   - PeripheralDescriptor snapshots taken from the platform's bonded-device registry
//   - AllowList, the ordered set of display names a session may target
//   - Adapter, Link and stream interfaces implemented by concrete backends
//     (see the bluez and simulated sub-packages)
//   - the transport error taxonomy shared by every backend
//   - the single-byte text codec used for everything sent to and read from a peripheral
package device
