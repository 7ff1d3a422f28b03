package flashimage

import (
	"bytes"
	"iter"
	"maps"
	"slices"
)

// Store accumulates page contents keyed by page index.
//
// A page defined by a single full fragment aliases the fragment's bytes; it
// is copied into a buffer of its own the first time a partial fragment
// touches it, so source buffers are never written to.
type Store struct {
	pageSize int
	pages    map[uint16]*storedPage
}

type storedPage struct {
	data  []byte
	owned bool
}

// NewStore returns an empty store for pages of pageSize bytes.
func NewStore(pageSize int) *Store {
	return &Store{
		pageSize: pageSize,
		pages:    make(map[uint16]*storedPage),
	}
}

// Merge folds fragments into the store. A full fragment replaces the page
// outright. A partial fragment overwrites exactly its byte range, creating a
// zero-filled page first if the index has no entry yet.
func (s *Store) Merge(fragments iter.Seq2[uint16, Fragment]) {
	for index, f := range fragments {
		if f.Full {
			s.pages[index] = &storedPage{data: f.Data[:s.pageSize:s.pageSize]}
			continue
		}

		p, ok := s.pages[index]
		switch {
		case !ok:
			p = &storedPage{data: make([]byte, s.pageSize), owned: true}
			s.pages[index] = p
		case !p.owned:
			p.data = bytes.Clone(p.data)
			p.owned = true
		}
		copy(p.data[f.Offset:], f.Data)
	}
}

// Page returns the content of the page at index.
func (s *Store) Page(index uint16) ([]byte, bool) {
	p, ok := s.pages[index]
	if !ok {
		return nil, false
	}
	return p.data, true
}

// Len returns the number of pages in the store.
func (s *Store) Len() int { return len(s.pages) }

// Finalize returns the stored pages sorted by index.
func (s *Store) Finalize() *Image {
	img := &Image{
		PageSize: s.pageSize,
		Pages:    make([]Page, 0, len(s.pages)),
	}
	for _, index := range slices.Sorted(maps.Keys(s.pages)) {
		img.Pages = append(img.Pages, Page{Index: index, Data: s.pages[index].data})
	}
	return img
}
