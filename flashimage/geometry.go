// Package flashimage rebuilds the flash contents of a small microcontroller
// from the loadable segments of an executable. Segments are folded into a
// sparse set of fixed-size pages; the result is an Image ready to be sent
// page by page to a bootloader.
package flashimage

import "github.com/juju/errors"

// Geometry describes the target flash memory.
type Geometry struct {
	// FlashSize is the total flash capacity in bytes.
	FlashSize int
	// PageSize is the size of one independently programmed page in bytes.
	PageSize int
}

// ATmega8U2 has 8 KiB of flash in 128-byte pages (SPM_PAGESIZE in iom8u2.h).
var ATmega8U2 = Geometry{
	FlashSize: 8192,
	PageSize:  128,
}

// PageCount returns the number of pages in the flash.
func (g Geometry) PageCount() int {
	return g.FlashSize / g.PageSize
}

func (g Geometry) validate() error {
	if g.PageSize <= 0 || g.FlashSize <= 0 {
		return errors.Errorf("invalid flash geometry %d/%d", g.FlashSize, g.PageSize)
	}
	if g.FlashSize%g.PageSize != 0 {
		return errors.Errorf("flash size %d is not a multiple of page size %d", g.FlashSize, g.PageSize)
	}
	// addresses are carried as 16-bit values end to end
	if g.FlashSize > 1<<16 {
		return errors.Errorf("flash size %d exceeds the 16-bit address space", g.FlashSize)
	}
	return nil
}
