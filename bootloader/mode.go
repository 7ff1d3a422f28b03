package bootloader

import (
	"fmt"

	"github.com/johnneerdael/hidflash/protocol"
)

// Mode is the firmware a device is running.
type Mode int

const (
	ModeApp Mode = iota
	ModeBootloader
)

func (m Mode) String() string {
	switch m {
	case ModeApp:
		return "app"
	case ModeBootloader:
		return "bootloader"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == ModeApp {
		return ModeBootloader
	}
	return ModeApp
}

// UnmarshalText parses "app" or "bootloader".
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "app":
		*m = ModeApp
	case "bootloader":
		*m = ModeBootloader
	default:
		return fmt.Errorf("unknown mode %q (want app or bootloader)", text)
	}
	return nil
}

// Identity is the USB identity of the device in each mode.
type Identity struct {
	VendorID            uint16
	AppProductID        uint16
	BootloaderProductID uint16
}

// DefaultIdentity is the identity both firmwares are built with.
var DefaultIdentity = Identity{
	VendorID:            protocol.VendorID,
	AppProductID:        protocol.ProductIDApp,
	BootloaderProductID: protocol.ProductIDBootloader,
}

// ModeOf returns the mode advertised by productID.
func (id Identity) ModeOf(productID uint16) (Mode, bool) {
	switch productID {
	case id.AppProductID:
		return ModeApp, true
	case id.BootloaderProductID:
		return ModeBootloader, true
	}
	return 0, false
}

// ProductID returns the product ID advertised in mode m.
func (id Identity) ProductID(m Mode) uint16 {
	if m == ModeBootloader {
		return id.BootloaderProductID
	}
	return id.AppProductID
}
