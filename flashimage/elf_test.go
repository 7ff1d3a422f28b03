package flashimage

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"
)

type testProg struct {
	typ   elf.ProgType
	paddr uint32
	data  []byte
	memsz uint32
}

// buildELF assembles a minimal little-endian ELF32 executable without
// section headers, the shape avr-gcc output takes after stripping.
func buildELF(t *testing.T, order binary.ByteOrder, progs ...testProg) []byte {
	t.Helper()

	const (
		ehsize    = 52
		phentsize = 32
	)
	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_AVR),
		Version:   uint32(elf.EV_CURRENT),
		Ehsize:    ehsize,
		Phentsize: phentsize,
		Phnum:     uint16(len(progs)),
	}
	if len(progs) > 0 {
		hdr.Phoff = ehsize
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	if order == binary.BigEndian {
		hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	}
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	off := uint32(ehsize + phentsize*len(progs))
	phs := make([]elf.Prog32, len(progs))
	for i, p := range progs {
		phs[i] = elf.Prog32{
			Type:   uint32(p.typ),
			Off:    off,
			Vaddr:  p.paddr,
			Paddr:  p.paddr,
			Filesz: uint32(len(p.data)),
			Memsz:  max(p.memsz, uint32(len(p.data))),
			Flags:  uint32(elf.PF_R | elf.PF_X),
			Align:  1,
		}
		off += uint32(len(p.data))
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, order, hdr); err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(&buf, order, phs); err != nil {
		t.Fatal(err)
	}
	for _, p := range progs {
		buf.Write(p.data)
	}
	return buf.Bytes()
}
