package evaluator

import (
	"log/slog"
)

// minSizeClass is the smallest var storage handed out; frames of tiny
// actions share one class.
const minSizeClass = 4

// varPool recycles frame var storage by power-of-two size class. Storage
// is only returned to the pool when nothing outside the frame referenced it.
type varPool struct {
	buckets map[int][][]Value
	limit   int
	hits    int
	misses  int
	logger  *slog.Logger
}

func newVarPool(limit int, logger *slog.Logger) *varPool {
	return &varPool{buckets: make(map[int][][]Value), limit: limit, logger: logger}
}

func sizeClass(n int) int {
	c := minSizeClass
	for c < n {
		c <<= 1
	}
	return c
}

// get returns n void cells.
func (p *varPool) get(n int) []Value {
	class := sizeClass(n)
	if list := p.buckets[class]; len(list) > 0 {
		vars := list[len(list)-1]
		list[len(list)-1] = nil
		p.buckets[class] = list[:len(list)-1]
		p.hits++
		vars = vars[:n]
		for i := range vars {
			vars[i] = voidValue
		}
		return vars
	}
	p.misses++
	vars := make([]Value, n, class)
	for i := range vars {
		vars[i] = voidValue
	}
	return vars
}

// put takes back storage that came from get.
func (p *varPool) put(vars []Value) {
	class := cap(vars)
	if class < minSizeClass || sizeClass(class) != class {
		return
	}
	list := p.buckets[class]
	if len(list) >= p.limit {
		return
	}
	clear(vars[:class])
	p.buckets[class] = append(list, vars[:0])
}

// Stats reports how often storage was reused.
func (p *varPool) Stats() (hits, misses int) { return p.hits, p.misses }
