package flashimage

import "iter"

// Fragment is a piece of one page's content. A full fragment covers the
// whole page; otherwise Data is written at Offset and the rest of the page is
// left as it is.
type Fragment struct {
	Full   bool
	Offset uint16
	Data   []byte
}

// NewFragment returns the fragment holding data at offset within a page of
// pageSize bytes. It fails with *FragmentOverflowError when offset plus the
// data length exceeds the page.
func NewFragment(pageSize int, offset uint16, data []byte) (Fragment, error) {
	total := int(offset) + len(data)
	if total > pageSize {
		return Fragment{}, &FragmentOverflowError{Total: total, PageSize: pageSize}
	}
	return Fragment{
		Full:   offset == 0 && len(data) == pageSize,
		Offset: offset,
		Data:   data,
	}, nil
}

// Pages splits data starting at physical address addr at page boundaries.
// It yields the page index (addr / pageSize) of each fragment in ascending
// order. The sequence may be iterated any number of times.
func Pages(pageSize int, addr uint16, data []byte) iter.Seq2[uint16, Fragment] {
	return func(yield func(uint16, Fragment) bool) {
		index := uint16(int(addr) / pageSize)
		offset := uint16(int(addr) % pageSize)

		head, tail := data, []byte(nil)
		if room := pageSize - int(offset); len(data) > room {
			head, tail = data[:room], data[room:]
		}
		if !yield(index, mustFragment(pageSize, offset, head)) {
			return
		}

		for len(tail) > 0 {
			n := min(pageSize, len(tail))
			index++
			if !yield(index, mustFragment(pageSize, 0, tail[:n])) {
				return
			}
			tail = tail[n:]
		}
	}
}

// mustFragment panics on overflow; Pages never slices past a page boundary.
func mustFragment(pageSize int, offset uint16, data []byte) Fragment {
	f, err := NewFragment(pageSize, offset, data)
	if err != nil {
		panic(err)
	}
	return f
}
