package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// Owner says who holds a context's variable storage.
type Owner uint8

const (
	// OwnerHeap storage lives as long as something references the context.
	OwnerHeap Owner = iota
	// OwnerLiveFrame storage belongs to a frame on the trampoline stack.
	OwnerLiveFrame
	// OwnerExpired storage is gone: the frame ended or the storage was
	// moved to another context. The identity remains so stale references
	// report an error instead of dangling.
	OwnerExpired
)

func (o Owner) String() string {
	switch o {
	case OwnerHeap:
		return "heap"
	case OwnerLiveFrame:
		return "live-frame"
	case OwnerExpired:
		return "expired"
	}
	return "owner?"
}

// Key is one entry of a context's keylist.
type Key struct {
	Symbol *symbols.Symbol
	// Hidden keys are not bound by Bind; loop contexts use them for
	// variables that alias an existing binding.
	Hidden bool
}

// Context is a keylist with a parallel var list. Slot 0 of both is
// reserved: vars[0] is the archetype value for the context itself.
type Context struct {
	kind    Kind
	keys    []Key
	vars    []Value
	owner   Owner
	frozen  bool
	managed bool

	// Frame contexts only.
	phase *Action
	frame *Frame
}

// NewContext makes an empty heap context of an object-like kind.
func NewContext(kind Kind, capacity int) *Context {
	c := &Context{
		kind: kind,
		keys: make([]Key, 1, capacity+1),
		vars: make([]Value, 1, capacity+1),
	}
	c.vars[0] = ContextValue(c)
	c.managed = true
	return c
}

// newFrameContext wraps storage for an invocation of act. The storage
// belongs to the frame until it is managed or stolen.
func newFrameContext(act *Action, vars []Value) *Context {
	c := &Context{
		kind:  KindFrame,
		keys:  act.paramlist.keys(),
		vars:  vars,
		owner: OwnerLiveFrame,
		phase: act,
	}
	c.vars[0] = ContextValue(c)
	return c
}

func (c *Context) Kind() Kind     { return c.kind }
func (c *Context) Owner() Owner   { return c.owner }
func (c *Context) Managed() bool  { return c.managed }
func (c *Context) Frozen() bool   { return c.frozen }
func (c *Context) Phase() *Action { return c.phase }

// Len is the number of keys, not counting the archetype slot.
func (c *Context) Len() int { return len(c.keys) - 1 }

func (c *Context) Key(i int) Key { return c.keys[i] }

// Accessible reports whether the variables can still be read.
func (c *Context) Accessible() bool { return c.owner != OwnerExpired }

// Manage marks the storage as referenced from outside its frame, so it
// will not be recycled when the frame drops.
func (c *Context) Manage() { c.managed = true }

// Find returns the index of a key with the same canon, or 0. Later keys
// shadow earlier ones of the same name.
func (c *Context) Find(sym *symbols.Symbol) int {
	canon := sym.Canon()
	for i := len(c.keys) - 1; i >= 1; i-- {
		if c.keys[i].Symbol.Canon() == canon {
			return i
		}
	}
	return 0
}

// Append adds a key holding void and returns its index.
func (c *Context) Append(sym *symbols.Symbol) int {
	c.keys = append(c.keys, Key{Symbol: sym})
	c.vars = append(c.vars, voidValue)
	return len(c.keys) - 1
}

// Var returns the storage for slot i, failing on expired contexts.
func (c *Context) Var(i int) (*Value, *Error) {
	if c.owner == OwnerExpired {
		return nil, newError(ErrExpiredContext, "context is no longer accessible")
	}
	if i <= 0 || i >= len(c.vars) {
		return nil, newError(ErrNotBound, "binding index %d out of range", i)
	}
	return &c.vars[i], nil
}

// Get is Var for callers that know the context is live.
func (c *Context) Get(sym *symbols.Symbol) (Value, bool) {
	i := c.Find(sym)
	if i == 0 || c.owner == OwnerExpired {
		return nullValue, false
	}
	return c.vars[i].Plain(), true
}

// Set writes slot i, honoring the frozen and protected states.
func (c *Context) Set(i int, v Value) *Error {
	slot, err := c.Var(i)
	if err != nil {
		return err
	}
	if c.frozen {
		return newError(ErrProtected, "context is frozen")
	}
	if slot.Flags&FlagProtected != 0 {
		return newError(ErrProtected, "variable %s is protected", c.keys[i].Symbol)
	}
	keep := slot.Flags & FlagProtected
	*slot = v.Plain()
	slot.Flags |= keep
	return nil
}

// SetEnfix writes an action and marks it for infix dispatch.
func (c *Context) SetEnfix(i int, act Value) *Error {
	if err := c.Set(i, act); err != nil {
		return err
	}
	c.vars[i].Flags |= FlagEnfixed
	return nil
}

// Protect locks a single slot against writes.
func (c *Context) Protect(i int) { c.vars[i].Flags |= FlagProtected }

// Freeze locks the whole context.
func (c *Context) Freeze() { c.frozen = true }

// steal moves the var storage to a new heap frame context and expires c.
func (c *Context) steal() *Context {
	moved := &Context{
		kind:    c.kind,
		keys:    c.keys,
		vars:    c.vars,
		owner:   OwnerHeap,
		managed: true,
		phase:   c.phase,
	}
	moved.vars[0] = ContextValue(moved)
	c.vars = nil
	c.owner = OwnerExpired
	c.frame = nil
	return moved
}

// expire ends access to managed frame storage after its frame drops.
func (c *Context) expire() {
	c.vars = nil
	c.owner = OwnerExpired
	c.frame = nil
}

// copyContext makes an independent heap copy of a context's variables.
func copyContext(c *Context) (*Context, *Error) {
	if !c.Accessible() {
		return nil, newError(ErrExpiredContext, "cannot copy an expired %s", c.kind)
	}
	cp := &Context{
		kind:    c.kind,
		keys:    append([]Key(nil), c.keys...),
		vars:    make([]Value, len(c.vars)),
		managed: true,
		phase:   c.phase,
	}
	for i := 1; i < len(c.vars); i++ {
		cp.vars[i] = c.vars[i]
	}
	cp.vars[0] = ContextValue(cp)
	return cp, nil
}
