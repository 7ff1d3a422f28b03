package bootloader

import (
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/johnneerdael/hidflash/flashimage"
	"github.com/johnneerdael/hidflash/gohid"
	"github.com/johnneerdael/hidflash/protocol"
)

// Handle is an open channel to the device in a known mode.
type Handle struct {
	mode    Mode
	info    gohid.DeviceInfo
	dev     gohid.Device
	retired bool
}

// Mode returns the mode the handle was opened in.
func (h *Handle) Mode() Mode { return h.mode }

// Info returns the bus interface the handle was opened from.
func (h *Handle) Info() gohid.DeviceInfo { return h.info }

// Retired reports whether the handle can no longer be used.
func (h *Handle) Retired() bool { return h.retired }

// Close retires the handle and closes the underlying device.
func (h *Handle) Close() error {
	if h.retired {
		return nil
	}
	h.retired = true
	return h.dev.Close()
}

func (h *Handle) write(b []byte) error {
	if h.retired {
		return ErrHandleRetired
	}
	glog.V(2).Infof(" => % x", b)
	if _, err := h.dev.Write(b); err != nil {
		return &TransportError{Op: "write", Path: h.info.Path, Err: err}
	}
	return nil
}

// retire closes the device, which may already be gone from the bus.
func (h *Handle) retire() {
	if err := h.Close(); err != nil {
		glog.Warningf("Closing %s: %v", h.info.Path, err)
	}
}

// Communicator discovers the device and moves it between modes.
type Communicator struct {
	bus    gohid.Bus
	config Config
}

// New creates a Communicator using bus.
func New(bus gohid.Bus, opts ...Option) *Communicator {
	if bus == nil {
		panic("bus cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Communicator{
		bus:    bus,
		config: cfg,
	}
}

// Config returns the effective configuration.
func (c *Communicator) Config() Config { return c.config }

// Discover runs device discovery with the configured identity and serial.
func (c *Communicator) Discover() (*Candidate, error) {
	return Discover(c.bus, c.config.Identity, c.config.Serial)
}

// Find discovers the device and opens it. It returns a nil handle and a nil
// error if no device is attached.
func (c *Communicator) Find() (*Handle, error) {
	cand, err := c.Discover()
	if err != nil || cand == nil {
		return nil, errors.Trace(err)
	}
	return c.open(cand)
}

func (c *Communicator) open(cand *Candidate) (*Handle, error) {
	dev, err := c.bus.Open(cand.Info)
	if err != nil {
		return nil, &TransportError{Op: "open", Path: cand.Info.Path, Err: err}
	}
	glog.Infof("Opened %04x:%04x (%s) in %s mode", cand.Info.VendorID, cand.Info.ProductID, cand.Info.Path, cand.Mode)
	return &Handle{mode: cand.Mode, info: cand.Info, dev: dev}, nil
}

// SwitchMode returns a handle in mode. If h is already in mode it is
// returned as is. Otherwise the reboot command is sent through h, h is
// retired whatever the outcome, and the bus is polled until the device
// reappears in mode or the switch timeout elapses.
func (c *Communicator) SwitchMode(h *Handle, mode Mode) (*Handle, error) {
	if h == nil {
		return nil, errors.New("nil device handle")
	}
	if h.retired {
		return nil, ErrHandleRetired
	}
	if h.mode == mode {
		return h, nil
	}

	var cmd []byte
	switch h.mode {
	case ModeApp:
		cmd = protocol.BuildEnterBootloaderCmd()
	case ModeBootloader:
		cmd = protocol.BuildStartApplicationCmd()
	}

	glog.Infof("Switching %s from %s to %s mode", h.info.Path, h.mode, mode)
	err := h.write(cmd)
	h.retire()
	if err != nil {
		return nil, errors.Annotatef(err, "request %s mode", mode)
	}

	return c.waitForMode(h.info, h.mode, mode)
}

// waitForMode polls discovery until the device shows up in want. A device
// still listed in the old mode under its old path has not dropped off the
// bus yet and is waited for; one that comes back in the old mode after it
// disappeared, or under a new path, has rebooted into the wrong firmware.
func (c *Communicator) waitForMode(prev gohid.DeviceInfo, old, want Mode) (*Handle, error) {
	start := time.Now()
	gone := false
	for {
		cand, err := c.Discover()
		if err != nil {
			return nil, errors.Annotatef(err, "search for device in %s mode", want)
		}

		switch {
		case cand == nil:
			gone = true
		case cand.Mode == want:
			glog.V(1).Infof("Device reappeared in %s mode after %s", want, time.Since(start))
			return c.open(cand)
		case gone || cand.Info.Path != prev.Path:
			return nil, &StillInWrongModeError{Want: want, Got: cand.Mode}
		default:
			glog.V(2).Infof("Device still listed in %s mode", old)
		}

		if time.Since(start) > c.config.SwitchTimeout {
			return nil, &ModeSwitchTimeoutError{Mode: want, Timeout: c.config.SwitchTimeout}
		}
		time.Sleep(c.config.PollInterval)
	}
}

// Flash writes img through a bootloader handle, one report per page in
// ascending page order. Pages are not acknowledged or read back.
func (c *Communicator) Flash(h *Handle, img *flashimage.Image) error {
	if h == nil || img == nil {
		return errors.New("flash needs a device handle and an image")
	}
	if h.mode != ModeBootloader {
		return &WrongModeError{Want: ModeBootloader, Got: h.mode}
	}

	start := time.Now()
	written := 0
	for i, p := range img.Pages {
		pkt, err := protocol.EncodePage(img.PageSize, p.Index, p.Data)
		if err != nil {
			return errors.Annotatef(err, "encode page %d", p.Index)
		}
		if err := h.write(pkt); err != nil {
			return errors.Annotatef(err, "write page %d (%d of %d)", p.Index, i+1, len(img.Pages))
		}
		written += len(p.Data)

		if c.config.PageDelay > 0 {
			time.Sleep(c.config.PageDelay)
		}
		c.reportProgress(Progress{
			Page:         p.Index,
			Current:      i + 1,
			Total:        len(img.Pages),
			BytesWritten: written,
			ElapsedTime:  time.Since(start),
		})
	}

	glog.Infof("Flashed %s (%d bytes) in %s", img, written, time.Since(start))
	return nil
}

func (c *Communicator) reportProgress(p Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(p)
	}
}
