package main

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/karalabe/usb"

	"github.com/johnneerdael/hidflash/gohid"
)

// hidDeviceWrapper wraps usb.Device to implement gohid.Device
type hidDeviceWrapper struct {
	dev usb.Device
}

func (d *hidDeviceWrapper) Write(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, errors.New("report must start with a report ID")
	}
	return d.dev.Write(b)
}

func (d *hidDeviceWrapper) Close() error {
	return d.dev.Close()
}

// usbBus is the hidapi-backed gohid.Bus.
type usbBus struct {
	retries int
	backoff time.Duration
}

func newUSBBus() (*usbBus, error) {
	if !usb.Supported() {
		return nil, errors.New("USB support not enabled on this platform")
	}
	return &usbBus{retries: 3, backoff: 100 * time.Millisecond}, nil
}

func (b *usbBus) Enumerate(vendorID uint16) ([]gohid.DeviceInfo, error) {
	devices, err := b.tryEnumerate(vendorID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	infos := make([]gohid.DeviceInfo, len(devices))
	for i, d := range devices {
		infos[i] = gohid.DeviceInfo{
			Path:         d.Path,
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Release:      d.Release,
			Serial:       d.Serial,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
			Interface:    d.Interface,
			UsagePage:    d.UsagePage,
			Usage:        d.Usage,
		}
	}
	return infos, nil
}

// tryEnumerate retries failed enumerations. An empty result is not retried,
// the device may be rebooting and callers poll for it.
func (b *usbBus) tryEnumerate(vendorID uint16) ([]usb.DeviceInfo, error) {
	var lastErr error
	for attempts := 0; attempts < b.retries; attempts++ {
		if attempts > 0 {
			time.Sleep(b.backoff)
		}
		devices, err := usb.EnumerateHid(vendorID, 0)
		if err == nil {
			glog.V(2).Infof("Found %d HID interfaces for vendor %04x", len(devices), vendorID)
			return devices, nil
		}
		lastErr = err
		glog.V(1).Infof("HID enumeration error: %v", err)
	}
	return nil, lastErr
}

func (b *usbBus) Open(info gohid.DeviceInfo) (gohid.Device, error) {
	devices, err := b.tryEnumerate(info.VendorID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, d := range devices {
		if d.Path != info.Path || d.ProductID != info.ProductID {
			continue
		}
		glog.V(1).Infof("Attempting to open device: %s (interface %d)", d.Path, d.Interface)
		// opening right after a re-enumeration can be flaky
		for attempts := 0; attempts < b.retries; attempts++ {
			if attempts > 0 {
				time.Sleep(b.backoff)
			}
			dev, err := d.Open()
			if err == nil {
				return &hidDeviceWrapper{dev: dev}, nil
			}
			glog.V(1).Infof("Failed to open device %s (attempt %d): %v", d.Path, attempts+1, err)
		}
		return nil, errors.Errorf("failed to open device %s after %d attempts", d.Path, b.retries)
	}
	return nil, errors.NotFoundf("HID interface %s", info.Path)
}

type ListHIDCmd struct {
	All bool `help:"List interfaces of every vendor, not just --vid."`
}

func (l *ListHIDCmd) Run(c *Context) error {
	vid := c.Identity.VendorID
	if l.All {
		vid = 0
	}
	bus, err := c.hidBus()
	if err != nil {
		return err
	}
	infos, err := bus.Enumerate(vid)
	if err != nil {
		return errors.Annotate(err, "enumerate HID devices")
	}
	if len(infos) == 0 {
		c.info("No HID interfaces found")
		return nil
	}

	for _, info := range infos {
		mode := "-"
		if m, ok := c.Identity.ModeOf(info.ProductID); ok && info.VendorID == c.Identity.VendorID {
			mode = m.String()
		}
		fmt.Printf("%s: ID %04x:%04x %s %s (Interface %d)\n",
			info.Path, info.VendorID, info.ProductID, info.Manufacturer, info.Product, info.Interface)
		fmt.Println("Device Information:")
		fmt.Printf("\tPath         %s\n", info.Path)
		fmt.Printf("\tVendorID     %04x\n", info.VendorID)
		fmt.Printf("\tProductID    %04x\n", info.ProductID)
		fmt.Printf("\tSerial       %s\n", info.Serial)
		fmt.Printf("\tRelease      %x.%x\n", info.Release>>8, info.Release&0xff)
		fmt.Printf("\tManufacturer %s\n", info.Manufacturer)
		fmt.Printf("\tProduct      %s\n", info.Product)
		fmt.Printf("\tInterface    %d\n", info.Interface)
		fmt.Printf("\tUsage        %04x:%04x\n", info.UsagePage, info.Usage)
		fmt.Printf("\tMode         %s\n", mode)
		fmt.Println()
	}
	return nil
}
