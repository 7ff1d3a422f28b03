package protocol

import (
	"encoding/binary"
	"fmt"
)

// FlashPagePacket is one page write as sent to the bootloader.
type FlashPagePacket struct {
	ReportID byte
	Address  uint16
	Data     []byte
}

// MarshalBinary encodes the packet little-endian with no padding.
func (p FlashPagePacket) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 3+len(p.Data))
	buf[0] = p.ReportID
	binary.LittleEndian.PutUint16(buf[1:3], p.Address)
	copy(buf[3:], p.Data)
	return buf, nil
}

// EncodeFlashPage returns the report writing data to the page at index.
// data must hold exactly PageSize bytes.
func EncodeFlashPage(index uint16, data []byte) ([]byte, error) {
	return EncodePage(PageSize, index, data)
}

// EncodePage is EncodeFlashPage for an arbitrary page size.
func EncodePage(pageSize int, index uint16, data []byte) ([]byte, error) {
	if len(data) != pageSize {
		return nil, fmt.Errorf("page %d holds %d bytes, want %d", index, len(data), pageSize)
	}
	addr := int(index) * pageSize
	// 0xFFFF is reserved for CommandStartApplication
	if addr >= int(CommandStartApplication) {
		return nil, &AddressEncodingOverflowError{Index: index, PageSize: pageSize}
	}
	return FlashPagePacket{
		ReportID: ReportIDFlashPage,
		Address:  uint16(addr),
		Data:     data,
	}.MarshalBinary()
}

// BuildEnterBootloaderCmd returns the report asking the application to
// reboot into the bootloader.
func BuildEnterBootloaderCmd() []byte {
	return []byte{ReportIDEnterBootloader, enterBootloaderMagic}
}

// BuildStartApplicationCmd returns the report asking the bootloader to
// start the application.
func BuildStartApplicationCmd() []byte {
	buf, _ := FlashPagePacket{
		ReportID: ReportIDFlashPage,
		Address:  CommandStartApplication,
	}.MarshalBinary()
	return buf
}
