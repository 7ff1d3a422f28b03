package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/johnneerdael/hidflash/bootloader"
	"github.com/johnneerdael/hidflash/flashimage"
)

func loadImage(path string) (*flashimage.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	img, err := flashimage.Read(data, flashimage.ATmega8U2)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	return img, nil
}

type FlashCmd struct {
	Image     string        `arg:"" type:"existingfile" help:"ELF or Intel HEX image to flash."`
	StartApp  bool          `default:"true" negatable:"" help:"Start the application after flashing."`
	PageDelay time.Duration `help:"Delay after every page write."`
}

func (f *FlashCmd) Run(c *Context) error {
	img, err := loadImage(f.Image)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s from %s (crc16 %04x)\n", img, f.Image, img.Checksum())
	if img.Len() == 0 {
		c.info("Image is empty, nothing to flash")
		return nil
	}

	comm, err := c.communicator(
		bootloader.WithPageDelay(f.PageDelay),
		bootloader.WithProgressCallback(newProgress(img)),
	)
	if err != nil {
		return err
	}
	d, err := bootloader.Open(comm)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Flash(img); err != nil {
		return err
	}
	c.success("Flashed %s", img)

	if !f.StartApp {
		return nil
	}
	h, err := d.Handle(bootloader.ModeApp)
	if err != nil {
		return errors.Annotate(err, "start application")
	}
	c.success("Application started on %s", h.Info())
	return nil
}

// newProgress draws a bar on a terminal and logs otherwise.
func newProgress(img *flashimage.Image) bootloader.ProgressCallback {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func(p bootloader.Progress) {
			glog.Infof("Wrote page %d (%d of %d)", p.Page, p.Current, p.Total)
		}
	}

	bar := progressbar.NewOptions(img.Len()*img.PageSize,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Flashing"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	return func(p bootloader.Progress) {
		_ = bar.Set(p.BytesWritten)
	}
}

type InfoCmd struct {
	Image string `arg:"" type:"existingfile" help:"ELF or Intel HEX image."`
	Dump  bool   `help:"Print every page as hex."`
}

func (i *InfoCmd) Run(c *Context) error {
	img, err := loadImage(i.Image)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s, %d bytes, crc16 %04x\n", i.Image, img, img.Len()*img.PageSize, img.Checksum())
	for _, r := range pageRuns(img) {
		fmt.Printf("\t%#06x-%#06x  pages %d-%d\n",
			r.first*img.PageSize, (r.last+1)*img.PageSize-1, r.first, r.last)
	}
	if i.Dump {
		return errors.Trace(img.Dump(os.Stdout))
	}
	return nil
}

type pageRun struct {
	first, last int
}

// pageRuns groups consecutive page indices.
func pageRuns(img *flashimage.Image) []pageRun {
	var runs []pageRun
	for _, p := range img.Pages {
		idx := int(p.Index)
		if n := len(runs); n > 0 && runs[n-1].last == idx-1 {
			runs[n-1].last = idx
			continue
		}
		runs = append(runs, pageRun{first: idx, last: idx})
	}
	return runs
}
