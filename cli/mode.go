package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/inancgumus/screen"
	"github.com/juju/errors"

	"github.com/johnneerdael/hidflash/bootloader"
)

type StatusCmd struct{}

func (s *StatusCmd) Run(c *Context) error {
	comm, err := c.communicator()
	if err != nil {
		return err
	}
	cand, err := comm.Discover()
	if err != nil {
		return errors.Annotate(err, "discover device")
	}
	if cand == nil {
		return bootloader.ErrDeviceNotFound
	}
	c.success("Device %s is in %s mode", cand.Info, cand.Mode)
	return nil
}

type ModeCmd struct {
	Mode bootloader.Mode `arg:"" help:"Target mode: app or bootloader."`
}

func (m *ModeCmd) Run(c *Context) error {
	comm, err := c.communicator()
	if err != nil {
		return err
	}
	d, err := bootloader.Open(comm)
	if err != nil {
		return err
	}
	defer d.Close()

	if cur, _ := d.Mode(); cur == m.Mode {
		c.info("Device is already in %s mode", cur)
		return nil
	}
	h, err := d.Handle(m.Mode)
	if err != nil {
		return err
	}
	c.success("Device %s is now in %s mode", h.Info(), h.Mode())
	return nil
}

type WatchCmd struct {
	Interval time.Duration `help:"Refresh interval (defaults to --poll-interval)."`
}

func (w *WatchCmd) Run(c *Context) error {
	comm, err := c.communicator()
	if err != nil {
		return err
	}
	interval := w.Interval
	if interval <= 0 {
		interval = c.Interval
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		cand, err := comm.Discover()
		screen.Clear()
		screen.MoveTopLeft()
		fmt.Printf("%s  (every %s, Ctrl-C to stop)\n\n", time.Now().Format(time.TimeOnly), interval)
		switch {
		case err != nil:
			color.Red("%v", err)
		case cand == nil:
			color.Yellow("No device")
		case cand.Mode == bootloader.ModeBootloader:
			color.Cyan("%s  bootloader", cand.Info)
		default:
			color.Green("%s  app", cand.Info)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
