package flashimage

import (
	"bytes"
	"debug/elf"
	"io"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/marcinbor85/gohex"
)

// Segment is a contiguous range of loadable content and the flash address it
// occupies. For ELF input Data aliases the parsed file buffer.
type Segment struct {
	Address uint16
	Data    []byte
}

// Extract detects the format of data and returns its segments. ELF files are
// recognized by their magic number, Intel HEX files by a leading record mark.
func Extract(data []byte, g Geometry) ([]Segment, error) {
	if bytes.HasPrefix(data, []byte(elf.ELFMAG)) {
		return ExtractELF(data, g)
	}
	if trimmed := bytes.TrimLeft(data, "\xef\xbb\xbf \t\r\n"); len(trimmed) > 0 && trimmed[0] == ':' {
		return ExtractIntelHex(bytes.NewReader(trimmed), g)
	}
	return nil, &MalformedImageError{Reason: "neither an ELF nor an Intel HEX file"}
}

// ExtractELF returns the PT_LOAD segments of a little-endian ELF file that
// occupy space in the file, in program header table order. Segments that only
// reserve memory (.bss, RAM) are skipped.
func ExtractELF(data []byte, g Geometry) ([]Segment, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, &MalformedImageError{Reason: "invalid ELF file", Err: err}
	}
	defer f.Close()

	if f.Data != elf.ELFDATA2LSB {
		return nil, &MalformedImageError{Reason: "ELF file is not little-endian"}
	}
	if len(f.Progs) == 0 {
		return nil, &MalformedImageError{Reason: "ELF file does not contain program headers (segments) table"}
	}

	var segments []Segment
	for i, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Filesz == 0 {
			continue
		}
		if p.Paddr >= uint64(g.FlashSize) {
			return nil, &AddressOutOfRangeError{Address: p.Paddr, FlashSize: g.FlashSize}
		}
		end := p.Off + p.Filesz
		if end < p.Off || end > uint64(len(data)) {
			return nil, &MalformedImageError{Reason: "segment data lies outside the file"}
		}
		glog.V(1).Infof("segment %d: paddr 0x%04x, %d bytes at file offset 0x%x", i, p.Paddr, p.Filesz, p.Off)
		segments = append(segments, Segment{
			Address: uint16(p.Paddr),
			Data:    data[p.Off:end:end],
		})
	}
	return segments, nil
}

// ExtractIntelHex returns one segment per contiguous run of data records.
func ExtractIntelHex(r io.Reader, g Geometry) ([]Segment, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, &MalformedImageError{Reason: "invalid Intel HEX file", Err: err}
	}

	ds := mem.GetDataSegments()
	if len(ds) == 0 {
		return nil, &MalformedImageError{Reason: "Intel HEX file contains no data records"}
	}

	segments := make([]Segment, 0, len(ds))
	for _, s := range ds {
		if uint64(s.Address) >= uint64(g.FlashSize) {
			return nil, &AddressOutOfRangeError{Address: uint64(s.Address), FlashSize: g.FlashSize}
		}
		glog.V(1).Infof("hex segment: address 0x%04x, %d bytes", s.Address, len(s.Data))
		segments = append(segments, Segment{Address: uint16(s.Address), Data: s.Data})
	}
	return segments, nil
}

// Read extracts the segments of an ELF or Intel HEX file and builds its image.
func Read(data []byte, g Geometry) (*Image, error) {
	segments, err := Extract(data, g)
	if err != nil {
		return nil, errors.Trace(err)
	}
	img, err := Build(segments, g)
	return img, errors.Trace(err)
}
