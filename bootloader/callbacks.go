package bootloader

import "time"

// Progress describes the state of a running Flash call.
type Progress struct {
	// Page is the index of the page just written
	Page uint16

	// Current is the number of pages written so far (1-based)
	Current int

	// Total is the number of pages in the image
	Total int

	// BytesWritten counts page data bytes, report headers excluded
	BytesWritten int

	// ElapsedTime is the time since the first page write
	ElapsedTime time.Duration
}

// ProgressCallback is called synchronously after each page write.
type ProgressCallback func(Progress)
