// Package bootloader drives a device that runs one of two firmwares, the
// application (the mouse) or the HID bootloader, each enumerating with its
// own USB product ID.
//
// # Discovery
//
// Discover lists the HID interfaces on the bus, keeps those matching the
// vendor ID and one of the two product IDs, and merges the interfaces that
// share a path. More than one physical device is an error.
//
// # Mode switching
//
// A Handle is an open channel tagged with the mode it was opened in.
// Communicator.SwitchMode sends the reboot command to the current handle,
// retires it, and polls the bus until the device comes back in the other
// mode:
//
//	c := bootloader.New(bus)
//	h, err := c.Find()
//	if err != nil || h == nil {
//	    return err
//	}
//	h, err = c.SwitchMode(h, bootloader.ModeBootloader)
//	if err != nil {
//	    return err
//	}
//	err = c.Flash(h, img)
//
// A retired handle refuses further writes with ErrHandleRetired. Device
// wraps the same discipline for callers that only want "a handle in mode X".
//
// # Flashing
//
// Flash writes one report per page in ascending page order. The bootloader
// does not acknowledge pages; a failed write leaves the flash partially
// programmed.
package bootloader
