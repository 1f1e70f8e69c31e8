package evaluator

// Feed is the position in the value stream a frame reads from. Argument
// frames share their caller's feed, so consuming a unit is visible to all
// of them.
type Feed struct {
	array     *Array
	index     int
	specifier *Context
}

func newFeed(a *Array, index int, specifier *Context) *Feed {
	return &Feed{array: a, index: index, specifier: specifier}
}

// feedFor reads the contents of an array value with the value's own
// specifier.
func feedFor(v *Value) *Feed {
	return newFeed(v.Array, v.Index, v.Binding.Context)
}

func (fd *Feed) AtEnd() bool {
	return fd.array == nil || fd.index >= len(fd.array.Cells)
}

// Current is the unit under examination, nil at end. The cell may be
// relative; use the feed's specifier to resolve it.
func (fd *Feed) Current() *Value { return fd.Peek(0) }

// Peek looks n units past the current one.
func (fd *Feed) Peek(n int) *Value {
	i := fd.index + n
	if fd.array == nil || i >= len(fd.array.Cells) {
		return nil
	}
	return &fd.array.Cells[i]
}

func (fd *Feed) Next() {
	if !fd.AtEnd() {
		fd.index++
	}
}

func (fd *Feed) Index() int { return fd.index }

func (fd *Feed) Specifier() *Context { return fd.specifier }

// File is the source file of the array, if known.
func (fd *Feed) File() string {
	if fd.array == nil {
		return ""
	}
	return fd.array.File
}

// Line is the line of the most recently consumed unit.
func (fd *Feed) Line() int {
	if fd.array == nil || len(fd.array.Cells) == 0 {
		return 0
	}
	i := fd.index - 1
	if i < 0 {
		i = 0
	}
	if i >= len(fd.array.Cells) {
		i = len(fd.array.Cells) - 1
	}
	return fd.array.Cells[i].Line
}
