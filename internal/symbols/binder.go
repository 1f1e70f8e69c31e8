package symbols

import (
	"errors"
	"fmt"
)

// ErrBinderLeak is returned by Shutdown when indices are still set.
var ErrBinderLeak = errors.New("binder not torn down")

// Binder maps canon symbols to signed integer indices for the duration of
// one bulk binding operation. The index lives on the canon symbol itself,
// so at most one binder may be active per table, and every index added
// must be removed before Shutdown.
type Binder struct {
	table *Table
	count int
}

// NewBinder starts a binding session on t.
func (t *Table) NewBinder() *Binder {
	if t.binders != 0 {
		panic("symbols: binder already active on this table")
	}
	t.binders++
	return &Binder{table: t}
}

// Add sets the index for s's canon. It reports false, leaving the old
// index, when one is already present.
func (b *Binder) Add(s *Symbol, index int) bool {
	if index == 0 {
		panic("symbols: binder index 0 is reserved")
	}
	canon := s.Canon()
	if canon.index != 0 {
		return false
	}
	canon.index = index
	b.count++
	return true
}

// Update sets the index for s's canon whether or not one is present.
func (b *Binder) Update(s *Symbol, index int) {
	if index == 0 {
		panic("symbols: binder index 0 is reserved")
	}
	canon := s.Canon()
	if canon.index == 0 {
		b.count++
	}
	canon.index = index
}

// Get returns the index for s's canon, 0 when absent.
func (b *Binder) Get(s *Symbol) int {
	return s.Canon().index
}

// Remove clears and returns the index for s's canon, 0 when absent.
func (b *Binder) Remove(s *Symbol) int {
	canon := s.Canon()
	index := canon.index
	if index != 0 {
		canon.index = 0
		b.count--
	}
	return index
}

// Count is the number of live entries.
func (b *Binder) Count() int { return b.count }

// Shutdown ends the session. Leftover entries are a bug in the caller;
// the error reports how many.
func (b *Binder) Shutdown() error {
	if b.table == nil {
		return nil
	}
	b.table.binders--
	b.table = nil
	if b.count != 0 {
		return fmt.Errorf("%d entries left: %w", b.count, ErrBinderLeak)
	}
	return nil
}
