// Package protocol implements the byte-level HID protocol of the mouse
// firmware and its bootloader.
//
// The bootloader accepts one output report per flash page:
//
//	[report ID 0x00][page address, u16 LE][page data]
//
// Page address 0xFFFF instead asks the bootloader to start the application.
// The application accepts a two-byte report asking it to reboot into the
// bootloader. No report is acknowledged.
package protocol

// USB identity shared by both firmwares (common/app_bootloader_interface.h).
const (
	VendorID            uint16 = 0x03EB
	ProductIDApp        uint16 = 0x2041
	ProductIDBootloader uint16 = 0x2067
)

// Flash geometry of the ATmega8U2.
const (
	FlashSize = 8192
	PageSize  = 128
)

// ReportIDFlashPage is the report ID of flash page writes.
const ReportIDFlashPage byte = 0x00

// CommandStartApplication is the page address that makes the bootloader
// jump to the application.
const CommandStartApplication uint16 = 0xFFFF

// Report sent to the application to reboot it into the bootloader.
const (
	ReportIDEnterBootloader byte = 0x08
	enterBootloaderMagic    byte = 0x42
)
