package bootloader

import (
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/johnneerdael/hidflash/gohid"
)

var (
	// ErrDeviceNotFound is returned by Open when no device is attached.
	ErrDeviceNotFound = errors.New("could not find the device")

	// ErrHandleRetired is returned when using a handle after a mode switch
	// was requested through it.
	ErrHandleRetired = errors.New("device handle has been retired")
)

// MultipleDevicesError indicates more than one physical device on the bus.
type MultipleDevicesError struct {
	Devices []gohid.DeviceInfo
}

func (e *MultipleDevicesError) Error() string {
	paths := make([]string, len(e.Devices))
	for i, d := range e.Devices {
		paths[i] = d.String()
	}
	return fmt.Sprintf("too many devices found (%d): %s", len(e.Devices), strings.Join(paths, ", "))
}

// ModeSwitchTimeoutError indicates that the device did not reappear in the
// requested mode in time.
type ModeSwitchTimeoutError struct {
	Mode    Mode
	Timeout time.Duration
}

func (e *ModeSwitchTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s while searching for device in %s mode; reconnect it and retry",
		e.Timeout, e.Mode)
}

// StillInWrongModeError indicates that the device rebooted but came back
// advertising the mode it was asked to leave.
type StillInWrongModeError struct {
	Want Mode
	Got  Mode
}

func (e *StillInWrongModeError) Error() string {
	return fmt.Sprintf("device is still in %s mode (requested %s)", e.Got, e.Want)
}

// WrongModeError is returned when an operation needs a handle in another mode.
type WrongModeError struct {
	Want Mode
	Got  Mode
}

func (e *WrongModeError) Error() string {
	return fmt.Sprintf("operation requires %s mode, handle is in %s mode", e.Want, e.Got)
}

// TransportError wraps a failure of the HID bus.
type TransportError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
