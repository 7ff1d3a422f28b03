package flashimage

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/sigurn/crc16"
)

// Page is the content of one flash page.
type Page struct {
	Index uint16
	Data  []byte
}

// Address returns the physical address of the first byte of the page.
func (p Page) Address(pageSize int) int {
	return int(p.Index) * pageSize
}

// Image is the set of pages to program, sorted by ascending index with no
// duplicates. It is not modified after Build returns it.
type Image struct {
	PageSize int
	Pages    []Page
}

// Build folds segments into pages in the order given. Where segments overlap,
// the later segment wins byte by byte. Untouched bytes of a partially
// written page are zero.
func Build(segments []Segment, g Geometry) (*Image, error) {
	if err := g.validate(); err != nil {
		return nil, errors.Trace(err)
	}

	store := NewStore(g.PageSize)
	for _, s := range segments {
		if int(s.Address) >= g.FlashSize || int(s.Address)+len(s.Data) > g.FlashSize {
			return nil, &AddressOutOfRangeError{
				Address:   uint64(s.Address),
				Size:      len(s.Data),
				FlashSize: g.FlashSize,
			}
		}
		if len(s.Data) == 0 {
			continue
		}
		store.Merge(Pages(g.PageSize, s.Address, s.Data))
	}

	img := store.Finalize()
	glog.V(1).Infof("built %s from %d segments, crc 0x%04x", img, len(segments), img.Checksum())
	return img, nil
}

// Len returns the number of pages.
func (img *Image) Len() int { return len(img.Pages) }

func (img *Image) String() string {
	return fmt.Sprintf("%d pages of data", len(img.Pages))
}

// Dump writes one line per page: its index followed by its content in hex.
func (img *Image) Dump(w io.Writer) error {
	for _, p := range img.Pages {
		if _, err := fmt.Fprintf(w, "page_%d: %s\n", p.Index, hex.EncodeToString(p.Data)); err != nil {
			return err
		}
	}
	return nil
}

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Checksum returns the CRC-16/CCITT-FALSE of every page in order, each
// preceded by its little-endian address, i.e. of the payload the bootloader
// receives.
func (img *Image) Checksum() uint16 {
	crc := crc16.Init(crcTable)
	var addr [2]byte
	for _, p := range img.Pages {
		binary.LittleEndian.PutUint16(addr[:], uint16(p.Address(img.PageSize)))
		crc = crc16.Update(crc, addr[:], crcTable)
		crc = crc16.Update(crc, p.Data, crcTable)
	}
	return crc16.Complete(crc, crcTable)
}
