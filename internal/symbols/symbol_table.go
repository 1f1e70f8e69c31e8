// Package symbols interns word spellings into canonical, pointer-stable
// symbols and provides the transient Binder used by bulk binding.
//
// The hash table uses open addressing with linear probing over a prime
// number of slots. Only canon symbols live in the table; the other
// spellings of a group hang off the canon's synonym ring.
package symbols

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
)

// ErrTableExhausted is returned when the table would have to grow past
// the largest size it is allowed to use.
var ErrTableExhausted = errors.New("symbol table exhausted")

var primes = []int{
	7, 13, 31, 61, 127, 251, 509, 1021, 2039, 4093, 8191, 16381, 32749,
	65521, 131071, 262139, 524287, 1048573, 2097143, 4194301, 8388593,
	16777213, 33554393, 67108859, 134217689,
}

// tombstone marks a deleted slot so probe chains running through it stay
// intact. Tombstones are dropped when the table grows.
var tombstone = &Symbol{spelling: "<deleted>"}

// Options configure a Table.
type Options struct {
	// InitialSize is rounded up to the next listed prime.
	InitialSize int
	// MaxSize caps growth; 0 means the largest listed prime.
	MaxSize int
	Logger  *slog.Logger
}

// Table is the interning service. It is not safe for concurrent use.
type Table struct {
	slots   []*Symbol
	count   int // canon symbols
	deleted int // tombstones
	maxSize int
	core    [numCoreIDs]*Symbol
	binders int
	logger  *slog.Logger
}

// NewTable creates a table holding the core symbols.
func NewTable(opts Options) *Table {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = primes[len(primes)-1]
	}
	size := primes[0]
	for _, p := range primes {
		size = p
		if p >= opts.InitialSize {
			break
		}
	}
	t := &Table{
		slots:   make([]*Symbol, size),
		maxSize: maxSize,
		logger:  logger,
	}
	t.initCore()
	return t
}

// Len returns the number of synonym groups in the table.
func (t *Table) Len() int { return t.count }

// Size returns the number of hash slots.
func (t *Table) Size() int { return len(t.slots) }

// Tombstones returns the number of deleted slots awaiting a purge.
func (t *Table) Tombstones() int { return t.deleted }

func hashFolded(folded string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(folded))
	return h.Sum32()
}

// Intern returns the unique symbol for the given UTF-8 spelling.
func (t *Table) Intern(b []byte) (*Symbol, error) {
	return t.InternString(string(b))
}

// MustIntern is Intern for spellings known at startup.
func (t *Table) MustIntern(s string) *Symbol {
	sym, err := t.InternString(s)
	if err != nil {
		panic(fmt.Sprintf("symbols: interning %q: %v", s, err))
	}
	return sym
}

// InternString is Intern for a string spelling.
func (t *Table) InternString(s string) (*Symbol, error) {
	folded := fold(s)

	if canon, _ := t.find(folded); canon != nil {
		if canon.spelling == s {
			return canon, nil
		}
		for p := canon.next; p != canon; p = p.next {
			if p.spelling == s {
				return p, nil
			}
		}
		syn := &Symbol{spelling: s, folded: folded}
		canon.link(syn)
		return syn, nil
	}

	if (t.count+t.deleted+1)*2 > len(t.slots) {
		if err := t.grow(); err != nil {
			return nil, err
		}
	}

	canon := &Symbol{spelling: folded, folded: folded, canon: true}
	canon.next = canon
	t.insert(canon)

	if s == folded {
		return canon, nil
	}
	syn := &Symbol{spelling: s, folded: folded}
	canon.link(syn)
	return syn, nil
}

// Lookup finds an already interned spelling without creating it.
func (t *Table) Lookup(s string) *Symbol {
	canon, _ := t.find(fold(s))
	if canon == nil {
		return nil
	}
	if canon.spelling == s {
		return canon
	}
	for p := canon.next; p != canon; p = p.next {
		if p.spelling == s {
			return p
		}
	}
	return nil
}

// find probes for the canon of a folded spelling and returns it with its
// slot index, or nil and -1.
func (t *Table) find(folded string) (*Symbol, int) {
	n := len(t.slots)
	i := int(hashFolded(folded) % uint32(n))
	for {
		slot := t.slots[i]
		if slot == nil {
			return nil, -1
		}
		if slot != tombstone && slot.folded == folded {
			return slot, i
		}
		i = (i + 1) % n
	}
}

// insert places a canon in the first free or tombstoned slot of its chain.
func (t *Table) insert(canon *Symbol) {
	n := len(t.slots)
	i := int(hashFolded(canon.folded) % uint32(n))
	for {
		slot := t.slots[i]
		if slot == nil {
			break
		}
		if slot == tombstone {
			t.deleted--
			break
		}
		i = (i + 1) % n
	}
	t.slots[i] = canon
	t.count++
}

func (t *Table) grow() error {
	want := len(t.slots) * 2
	size := 0
	for _, p := range primes {
		if p >= want {
			size = p
			break
		}
	}
	if size == 0 || size > t.maxSize {
		return fmt.Errorf("growing past %d slots: %w", len(t.slots), ErrTableExhausted)
	}

	old := t.slots
	t.slots = make([]*Symbol, size)
	t.count = 0
	t.deleted = 0
	for _, sym := range old {
		if sym != nil && sym != tombstone {
			t.insert(sym)
		}
	}
	t.logger.Debug("symbol table grown",
		slog.Int("from", len(old)),
		slog.Int("to", size),
		slog.Int("groups", t.count))
	return nil
}

// Release removes a symbol from its synonym group. Releasing a canon
// promotes the next member of the ring and re-homes the hash slot;
// releasing the last member tombstones the slot.
func (t *Table) Release(s *Symbol) {
	if s.next == nil {
		return
	}
	if s.id != SymNone {
		panic("symbols: releasing core symbol " + s.spelling)
	}

	canon := s.Canon()
	_, slot := t.find(s.folded)
	if slot < 0 || t.slots[slot] != canon {
		panic("symbols: released symbol not homed in table: " + s.spelling)
	}

	if s.next == s {
		t.slots[slot] = tombstone
		t.count--
		t.deleted++
		s.next = nil
		s.canon = false
		return
	}

	p := s.prev()
	p.next = s.next
	if s.canon {
		heir := s.next
		heir.canon = true
		heir.index = s.index
		t.slots[slot] = heir
	}
	s.next = nil
	s.canon = false
}
