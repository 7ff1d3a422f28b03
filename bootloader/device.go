package bootloader

import (
	"github.com/juju/errors"

	"github.com/johnneerdael/hidflash/flashimage"
)

// Device owns the single live handle to the attached device. Asking it for
// a handle in another mode retires the handle it gave out before.
type Device struct {
	comm   *Communicator
	handle *Handle
}

// Open finds the device and opens it in whatever mode it is running.
// It returns ErrDeviceNotFound if nothing is attached.
func Open(c *Communicator) (*Device, error) {
	h, err := c.Find()
	if err != nil {
		return nil, errors.Annotate(err, "discover device")
	}
	if h == nil {
		return nil, ErrDeviceNotFound
	}
	return &Device{comm: c, handle: h}, nil
}

// Mode returns the current mode of the device.
func (d *Device) Mode() (Mode, error) {
	if d.handle == nil {
		return 0, ErrHandleRetired
	}
	return d.handle.Mode(), nil
}

// Handle returns a handle in mode, switching the device if needed. After a
// failed switch the device is lost and every further call fails.
func (d *Device) Handle(mode Mode) (*Handle, error) {
	if d.handle == nil {
		return nil, ErrHandleRetired
	}
	h, err := d.comm.SwitchMode(d.handle, mode)
	if err != nil {
		d.handle = nil
		return nil, errors.Annotatef(err, "switch to %s mode", mode)
	}
	d.handle = h
	return h, nil
}

// Flash switches the device to the bootloader if needed and writes img.
func (d *Device) Flash(img *flashimage.Image) error {
	h, err := d.Handle(ModeBootloader)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(d.comm.Flash(h, img), "transfer image")
}

// Close closes the live handle.
func (d *Device) Close() error {
	if d.handle == nil {
		return nil
	}
	err := d.handle.Close()
	d.handle = nil
	return err
}
