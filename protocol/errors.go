package protocol

import "fmt"

// AddressEncodingOverflowError indicates a page whose byte address does not
// fit the 16-bit address field.
type AddressEncodingOverflowError struct {
	Index    uint16
	PageSize int
}

func (e *AddressEncodingOverflowError) Error() string {
	return fmt.Sprintf("address of page %d (page size %d) does not fit in 16 bits", e.Index, e.PageSize)
}
