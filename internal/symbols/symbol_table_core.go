package symbols

import "strings"

// MaxInlineSynonyms is how many case variants of one spelling can be told
// apart by their ordinal alone. Variants past this need a wide cell.
const MaxInlineSynonyms = 3

// Symbol is an interned, immutable spelling.
//
// Symbols that differ only by case form a synonym group: a circular list
// with exactly one canon member. Identity comparison is pointer equality;
// case-insensitive comparison goes through Canon.
type Symbol struct {
	spelling string
	folded   string // lowercase form shared by the whole group
	canon    bool
	next     *Symbol // synonym ring, nil once released
	ordinal  uint8
	id       ID

	// index is the binder slot for canon symbols, 0 when unused.
	index int
}

// String returns the symbol's exact spelling.
func (s *Symbol) String() string { return s.spelling }

// Bytes returns a copy of the UTF-8 spelling.
func (s *Symbol) Bytes() []byte { return []byte(s.spelling) }

// IsCanon reports whether s is the representative of its synonym group.
func (s *Symbol) IsCanon() bool { return s.canon }

// Ordinal is the position of s among its synonyms.
func (s *Symbol) Ordinal() int { return int(s.ordinal) }

// IsWide reports whether the ordinal does not fit the inline encoding.
func (s *Symbol) IsWide() bool { return s.ordinal > MaxInlineSynonyms }

// Released reports whether s has been removed from its table.
func (s *Symbol) Released() bool { return s.next == nil }

// Canon returns the canon symbol of the synonym group containing s.
func (s *Symbol) Canon() *Symbol {
	if s.canon || s.next == nil {
		return s
	}
	for p := s.next; p != s; p = p.next {
		if p.canon {
			return p
		}
	}
	panic("symbols: synonym ring without canon: " + s.spelling)
}

// ID returns the core identity of the symbol's group, or SymNone.
func (s *Symbol) ID() ID { return s.Canon().id }

// SameCanon reports whether a and b are spellings of the same word,
// ignoring case.
func SameCanon(a, b *Symbol) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Canon() == b.Canon()
}

// Synonyms lists the members of the synonym group, canon first.
func (s *Symbol) Synonyms() []*Symbol {
	canon := s.Canon()
	out := []*Symbol{canon}
	if canon.next == nil {
		return out
	}
	for p := canon.next; p != canon; p = p.next {
		out = append(out, p)
	}
	return out
}

func fold(spelling string) string {
	return strings.ToLower(spelling)
}

// prev walks the ring to find the member pointing at s.
func (s *Symbol) prev() *Symbol {
	p := s
	for p.next != s {
		p = p.next
	}
	return p
}

// link inserts syn into the ring after s, giving it the smallest ordinal
// not already used in the group.
func (s *Symbol) link(syn *Symbol) {
	used := make(map[uint8]bool)
	used[s.ordinal] = true
	for p := s.next; p != s; p = p.next {
		used[p.ordinal] = true
	}
	var ord uint8
	for used[ord] && ord < 255 {
		ord++
	}
	syn.ordinal = ord
	syn.next = s.next
	s.next = syn
}
