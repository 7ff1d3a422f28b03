package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/golang/glog"

	"github.com/johnneerdael/hidflash/bootloader"
	"github.com/johnneerdael/hidflash/gohid"
	"github.com/johnneerdael/hidflash/protocol"
)

// hexID is a USB vendor or product ID. Flags accept 0x prefixed hex.
type hexID uint16

func (h *hexID) UnmarshalText(text []byte) error {
	n, err := strconv.ParseUint(string(text), 0, 16)
	if err != nil {
		return fmt.Errorf("invalid USB ID %q: %w", text, err)
	}
	*h = hexID(n)
	return nil
}

func (h hexID) String() string { return fmt.Sprintf("%04x", uint16(h)) }

type cliArgs struct {
	VID           hexID         `name:"vid" help:"Vendor ID of the device." default:"0x03eb" env:"HIDFLASH_VID"`
	AppPID        hexID         `name:"app-pid" help:"Product ID in application mode." default:"0x2041" env:"HIDFLASH_APP_PID"`
	BootloaderPID hexID         `name:"bootloader-pid" help:"Product ID in bootloader mode." default:"0x2067" env:"HIDFLASH_BOOTLOADER_PID"`
	Serial        string        `help:"Only use the device with this serial number." env:"HIDFLASH_SERIAL"`
	SwitchTimeout time.Duration `help:"How long to wait for the device after a mode switch." default:"5s" env:"HIDFLASH_SWITCH_TIMEOUT"`
	PollInterval  time.Duration `help:"Bus polling interval while waiting for the device." default:"100ms" env:"HIDFLASH_POLL_INTERVAL"`
	Verbose       int           `short:"v" type:"counter" help:"Increase log verbosity."`

	Status StatusCmd  `cmd:"" default:"1" help:"Show the mode the device is running in."`
	Mode   ModeCmd    `cmd:"" help:"Switch the device to app or bootloader mode."`
	Flash  FlashCmd   `cmd:"" help:"Flash an ELF or Intel HEX image."`
	Info   InfoCmd    `cmd:"" help:"Parse an image and print its page summary."`
	List   ListHIDCmd `cmd:"" help:"List HID interfaces."`
	Watch  WatchCmd   `cmd:"" help:"Continuously show the device mode."`
}

var CLI cliArgs

func (a *cliArgs) identity() bootloader.Identity {
	return bootloader.Identity{
		VendorID:            uint16(a.VID),
		AppProductID:        uint16(a.AppPID),
		BootloaderProductID: uint16(a.BootloaderPID),
	}
}

func (a *cliArgs) options() []bootloader.Option {
	return []bootloader.Option{
		bootloader.WithIdentity(a.identity()),
		bootloader.WithSerial(a.Serial),
		bootloader.WithSwitchTimeout(a.SwitchTimeout),
		bootloader.WithPollInterval(a.PollInterval),
	}
}

// Context is passed to every command.
type Context struct {
	Identity bootloader.Identity
	Interval time.Duration

	bus     gohid.Bus
	busErr  error
	options []bootloader.Option
}

func (c *Context) hidBus() (gohid.Bus, error) {
	if c.bus == nil {
		return nil, c.busErr
	}
	return c.bus, nil
}

func (c *Context) communicator(opts ...bootloader.Option) (*bootloader.Communicator, error) {
	bus, err := c.hidBus()
	if err != nil {
		return nil, err
	}
	return bootloader.New(bus, append(slices.Clone(c.options), opts...)...), nil
}

func (c *Context) info(format string, args ...any) {
	color.Yellow(format, args...)
}

func (c *Context) success(format string, args ...any) {
	color.Green(format, args...)
}

func setupLogging(verbosity int) {
	flag.Set("logtostderr", "true")
	flag.Set("v", strconv.Itoa(verbosity))
}

// exitCode reports err to the operator. A missing device is not a failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, bootloader.ErrDeviceNotFound):
		color.Yellow("No device found. Connect it and try again.")
		return 0
	}
	color.Red("Error: %v", err)
	return 1
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("hidflash"),
		kong.Description(fmt.Sprintf("Flash and control HID bootloader devices (default %04x:%04x/%04x).",
			protocol.VendorID, protocol.ProductIDApp, protocol.ProductIDBootloader)),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.config/hidflash.json", "hidflash.json"),
	)
	setupLogging(CLI.Verbose)

	c := &Context{
		Identity: CLI.identity(),
		Interval: CLI.PollInterval,
		options:  CLI.options(),
	}
	if bus, err := newUSBBus(); err != nil {
		c.busErr = err
	} else {
		c.bus = bus
	}

	err := ctx.Run(c)
	glog.Flush()
	os.Exit(exitCode(err))
}
