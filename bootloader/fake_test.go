package bootloader

import (
	"errors"
	"slices"

	"github.com/johnneerdael/hidflash/gohid"
)

var (
	appInfo = gohid.DeviceInfo{
		Path:      "1-2:1.0",
		VendorID:  0x03EB,
		ProductID: 0x2041,
		Serial:    "MV2",
	}
	appInfoMouse = gohid.DeviceInfo{
		Path:      "1-2:1.0",
		VendorID:  0x03EB,
		ProductID: 0x2041,
		Serial:    "MV2",
		Interface: 1,
	}
	bootInfo = gohid.DeviceInfo{
		Path:      "1-2:1.0+",
		VendorID:  0x03EB,
		ProductID: 0x2067,
	}
)

// fakeBus returns scripted enumerations: each Enumerate call consumes one
// entry of script and the last entry repeats.
type fakeBus struct {
	script       [][]gohid.DeviceInfo
	enumErr      error
	openErr      error
	writeErr     error
	enumerations int
	opened       []*fakeDevice
}

func newFakeBus(script ...[]gohid.DeviceInfo) *fakeBus {
	return &fakeBus{script: script}
}

func (b *fakeBus) Enumerate(vendorID uint16) ([]gohid.DeviceInfo, error) {
	b.enumerations++
	if b.enumErr != nil {
		return nil, b.enumErr
	}
	if len(b.script) == 0 {
		return nil, nil
	}
	infos := b.script[0]
	if len(b.script) > 1 {
		b.script = b.script[1:]
	}
	return slices.Clone(infos), nil
}

func (b *fakeBus) Open(info gohid.DeviceInfo) (gohid.Device, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	d := &fakeDevice{info: info, writeErr: b.writeErr}
	b.opened = append(b.opened, d)
	return d, nil
}

// then replaces the remaining script, typically what the bus shows after a
// reboot command.
func (b *fakeBus) then(script ...[]gohid.DeviceInfo) {
	b.script = script
}

type fakeDevice struct {
	info     gohid.DeviceInfo
	writes   [][]byte
	writeErr error
	closed   bool
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	if d.closed {
		return 0, errors.New("device closed")
	}
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	d.writes = append(d.writes, slices.Clone(p))
	return len(p), nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func devices(infos ...gohid.DeviceInfo) []gohid.DeviceInfo { return infos }
