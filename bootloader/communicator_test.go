package bootloader

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/johnneerdael/hidflash/flashimage"
	"github.com/johnneerdael/hidflash/gohid"
)

func fastSwitch(opts ...Option) []Option {
	return append([]Option{
		WithPollInterval(time.Millisecond),
		WithSwitchTimeout(50 * time.Millisecond),
	}, opts...)
}

func findHandle(t *testing.T, c *Communicator) *Handle {
	t.Helper()
	h, err := c.Find()
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if h == nil {
		t.Fatal("Find() found no device")
	}
	return h
}

func TestNewDefaults(t *testing.T) {
	c := New(newFakeBus())
	cfg := c.Config()
	if cfg.SwitchTimeout != 5*time.Second || cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("timing defaults = %s/%s", cfg.SwitchTimeout, cfg.PollInterval)
	}
	if cfg.Identity != DefaultIdentity {
		t.Errorf("Identity = %+v", cfg.Identity)
	}

	c = New(newFakeBus(), WithSwitchTimeout(0), WithPollInterval(-1))
	if c.Config().SwitchTimeout != 5*time.Second || c.Config().PollInterval != 100*time.Millisecond {
		t.Error("non-positive durations should be ignored")
	}
}

func TestFindNoDevice(t *testing.T) {
	h, err := New(newFakeBus()).Find()
	if err != nil || h != nil {
		t.Errorf("Find() = %v, %v, want nil, nil", h, err)
	}
}

func TestFindOpenError(t *testing.T) {
	bus := newFakeBus(devices(appInfo))
	bus.openErr = errors.New("permission denied")

	_, err := New(bus).Find()
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "open" {
		t.Fatalf("error = %v, want open *TransportError", err)
	}
}

func TestSwitchModeSameMode(t *testing.T) {
	bus := newFakeBus(devices(appInfo))
	c := New(bus)
	h := findHandle(t, c)

	got, err := c.SwitchMode(h, ModeApp)
	if err != nil {
		t.Fatalf("SwitchMode() error = %v", err)
	}
	if got != h {
		t.Error("SwitchMode() to the current mode should return the same handle")
	}
	if len(bus.opened[0].writes) != 0 || bus.enumerations != 1 {
		t.Errorf("unexpected I/O: %d writes, %d enumerations", len(bus.opened[0].writes), bus.enumerations)
	}
}

func TestSwitchMode(t *testing.T) {
	tests := []struct {
		name    string
		from    gohid.DeviceInfo
		to      gohid.DeviceInfo
		mode    Mode
		wantCmd []byte
	}{
		{name: "app to bootloader", from: appInfo, to: bootInfo, mode: ModeBootloader, wantCmd: []byte{0x08, 0x42}},
		{name: "bootloader to app", from: bootInfo, to: appInfo, mode: ModeApp, wantCmd: []byte{0x00, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus(devices(tt.from))
			c := New(bus, fastSwitch()...)
			h := findHandle(t, c)

			// the old identity lingers for a poll, then the bus is empty
			// while the device reboots
			bus.then(devices(tt.from), nil, nil, devices(tt.to))

			got, err := c.SwitchMode(h, tt.mode)
			if err != nil {
				t.Fatalf("SwitchMode() error = %v", err)
			}
			if got.Mode() != tt.mode || got.Info().Path != tt.to.Path {
				t.Errorf("handle = %s %s", got.Mode(), got.Info().Path)
			}

			old := bus.opened[0]
			if len(old.writes) != 1 || !bytes.Equal(old.writes[0], tt.wantCmd) {
				t.Errorf("writes = % X, want % X", old.writes, tt.wantCmd)
			}
			if !old.closed || !h.Retired() {
				t.Error("previous handle should be closed and retired")
			}
			if len(bus.opened) != 2 || bus.opened[1].closed {
				t.Error("expected a fresh open device")
			}
		})
	}
}

func TestSwitchModePollInterval(t *testing.T) {
	bus := newFakeBus(devices(appInfo))
	c := New(bus, WithPollInterval(20*time.Millisecond))
	h := findHandle(t, c)
	bus.then(nil, nil, devices(bootInfo))

	start := time.Now()
	if _, err := c.SwitchMode(h, ModeBootloader); err != nil {
		t.Fatalf("SwitchMode() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("device found after %s, want at least two poll intervals", elapsed)
	}
	if bus.enumerations != 4 {
		t.Errorf("enumerations = %d, want 4", bus.enumerations)
	}
}

func TestSwitchModeTimeout(t *testing.T) {
	tests := []struct {
		name  string
		after [][]gohid.DeviceInfo
	}{
		{name: "device never leaves the old mode", after: [][]gohid.DeviceInfo{devices(appInfo)}},
		{name: "device never comes back", after: [][]gohid.DeviceInfo{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus(devices(appInfo))
			c := New(bus, fastSwitch(WithSwitchTimeout(30*time.Millisecond))...)
			h := findHandle(t, c)
			bus.then(tt.after...)

			start := time.Now()
			_, err := c.SwitchMode(h, ModeBootloader)
			var timeout *ModeSwitchTimeoutError
			if !errors.As(err, &timeout) {
				t.Fatalf("error = %v, want *ModeSwitchTimeoutError", err)
			}
			if timeout.Mode != ModeBootloader {
				t.Errorf("Mode = %s", timeout.Mode)
			}
			if time.Since(start) < 30*time.Millisecond {
				t.Error("gave up before the timeout")
			}
			if !h.Retired() {
				t.Error("handle should be retired after a failed switch")
			}
		})
	}
}

func TestSwitchModeStillInWrongMode(t *testing.T) {
	movedApp := appInfo
	movedApp.Path = "1-3:1.0"

	tests := []struct {
		name  string
		after [][]gohid.DeviceInfo
	}{
		{name: "back under the same path", after: [][]gohid.DeviceInfo{nil, devices(appInfo)}},
		{name: "back under a new path", after: [][]gohid.DeviceInfo{devices(movedApp)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus(devices(appInfo))
			c := New(bus, fastSwitch()...)
			h := findHandle(t, c)
			bus.then(tt.after...)

			_, err := c.SwitchMode(h, ModeBootloader)
			var wrong *StillInWrongModeError
			if !errors.As(err, &wrong) {
				t.Fatalf("error = %v, want *StillInWrongModeError", err)
			}
			if wrong.Want != ModeBootloader || wrong.Got != ModeApp {
				t.Errorf("error = %+v", wrong)
			}
		})
	}
}

func TestSwitchModeWriteError(t *testing.T) {
	bus := newFakeBus(devices(appInfo))
	bus.writeErr = errors.New("broken pipe")
	c := New(bus, fastSwitch()...)
	h := findHandle(t, c)

	_, err := c.SwitchMode(h, ModeBootloader)
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "write" {
		t.Fatalf("error = %v, want write *TransportError", err)
	}
	if !h.Retired() {
		t.Error("handle should be retired even when the command failed")
	}
	if bus.enumerations != 1 {
		t.Errorf("enumerations = %d, no polling expected", bus.enumerations)
	}
}

func TestRetiredHandle(t *testing.T) {
	bus := newFakeBus(devices(appInfo))
	c := New(bus, fastSwitch()...)
	h := findHandle(t, c)
	bus.then(nil, devices(bootInfo))

	boot, err := c.SwitchMode(h, ModeBootloader)
	if err != nil {
		t.Fatalf("SwitchMode() error = %v", err)
	}

	if _, err := c.SwitchMode(h, ModeApp); !errors.Is(err, ErrHandleRetired) {
		t.Errorf("SwitchMode(retired) error = %v, want ErrHandleRetired", err)
	}
	if err := h.write([]byte{0}); !errors.Is(err, ErrHandleRetired) {
		t.Errorf("write(retired) error = %v, want ErrHandleRetired", err)
	}
	if boot.Retired() {
		t.Error("new handle should be live")
	}
}

func testImage() *flashimage.Image {
	page := func(b byte) []byte { return bytes.Repeat([]byte{b}, 128) }
	return &flashimage.Image{
		PageSize: 128,
		Pages: []flashimage.Page{
			{Index: 0, Data: page(0xA0)},
			{Index: 1, Data: page(0xA1)},
			{Index: 5, Data: page(0xA5)},
		},
	}
}

func TestFlash(t *testing.T) {
	bus := newFakeBus(devices(bootInfo))
	var progress []Progress
	c := New(bus, WithProgressCallback(func(p Progress) { progress = append(progress, p) }))
	h := findHandle(t, c)

	if err := c.Flash(h, testImage()); err != nil {
		t.Fatalf("Flash() error = %v", err)
	}

	writes := bus.opened[0].writes
	if len(writes) != 3 {
		t.Fatalf("got %d writes, want 3", len(writes))
	}
	wantHeaders := [][]byte{{0x00, 0x00, 0x00}, {0x00, 0x80, 0x00}, {0x00, 0x80, 0x02}}
	for i, w := range writes {
		if len(w) != 131 {
			t.Errorf("write %d: %d bytes, want 131", i, len(w))
			continue
		}
		if !bytes.Equal(w[:3], wantHeaders[i]) {
			t.Errorf("write %d header = % X, want % X", i, w[:3], wantHeaders[i])
		}
	}

	if len(progress) != 3 {
		t.Fatalf("got %d progress reports, want 3", len(progress))
	}
	last := progress[2]
	if last.Current != 3 || last.Total != 3 || last.Page != 5 || last.BytesWritten != 384 {
		t.Errorf("last progress = %+v", last)
	}
}

func TestFlashWrongMode(t *testing.T) {
	bus := newFakeBus(devices(appInfo))
	c := New(bus)
	h := findHandle(t, c)

	err := c.Flash(h, testImage())
	var wrong *WrongModeError
	if !errors.As(err, &wrong) {
		t.Fatalf("error = %v, want *WrongModeError", err)
	}
	if len(bus.opened[0].writes) != 0 {
		t.Error("nothing should be written to an app handle")
	}
}

func TestFlashWriteError(t *testing.T) {
	bus := newFakeBus(devices(bootInfo))
	bus.writeErr = errors.New("device disconnected")
	c := New(bus)
	h := findHandle(t, c)

	err := c.Flash(h, testImage())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}
