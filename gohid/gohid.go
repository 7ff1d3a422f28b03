// Package gohid describes the small slice of a HID bus that the flasher
// needs: enumerating interfaces, opening one and writing raw reports to it.
package gohid

import "fmt"

// DeviceInfo is one enumerated HID interface. A physical device exposing
// several report interfaces shows up once per interface.
type DeviceInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Release      uint16
	Serial       string
	Manufacturer string
	Product      string
	Interface    int
	UsagePage    uint16
	Usage        uint16
}

func (i DeviceInfo) String() string {
	return fmt.Sprintf("%04x:%04x %s (interface %d)", i.VendorID, i.ProductID, i.Path, i.Interface)
}

// Device is an open HID interface. Write sends one output report whose
// first byte is the report ID.
type Device interface {
	Write(b []byte) (int, error)
	Close() error
}

// Bus enumerates and opens HID interfaces.
type Bus interface {
	// Enumerate lists every HID interface with the given vendor ID.
	// A zero vendor ID lists all interfaces.
	Enumerate(vendorID uint16) ([]DeviceInfo, error)
	Open(info DeviceInfo) (Device, error)
}
