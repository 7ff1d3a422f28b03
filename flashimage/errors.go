package flashimage

import "fmt"

// MalformedImageError indicates that the input could not be parsed as an
// executable or carries no usable segment table.
type MalformedImageError struct {
	Reason string
	Err    error
}

func (e *MalformedImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed image: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed image: %s", e.Reason)
}

func (e *MalformedImageError) Unwrap() error { return e.Err }

// AddressOutOfRangeError indicates a segment placed outside the flash.
type AddressOutOfRangeError struct {
	Address   uint64
	Size      int
	FlashSize int
}

func (e *AddressOutOfRangeError) Error() string {
	if e.Size == 0 {
		return fmt.Sprintf("physical address 0x%04X exceeds flash capacity (%d bytes)", e.Address, e.FlashSize)
	}
	return fmt.Sprintf("segment 0x%04X+%d exceeds flash capacity (%d bytes)", e.Address, e.Size, e.FlashSize)
}

// FragmentOverflowError is returned when a fragment would not fit in its page.
type FragmentOverflowError struct {
	Total    int
	PageSize int
}

func (e *FragmentOverflowError) Error() string {
	return fmt.Sprintf("page fragment of %d bytes exceeds page size %d", e.Total, e.PageSize)
}
