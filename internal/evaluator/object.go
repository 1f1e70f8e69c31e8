package evaluator

import (
	"hash/fnv"

	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// Kind is the datatype tag of a value cell.
type Kind uint8

const (
	KindEnd Kind = iota // internal: end of feed, never stored in a variable
	KindVoid
	KindNull
	KindBlank
	KindLogic
	KindInteger
	KindText
	KindTag
	KindIssue
	KindWord
	KindSetWord
	KindGetWord
	KindSymWord
	KindRefinement
	KindPath
	KindSetPath
	KindGetPath
	KindBlock
	KindGroup
	KindSetBlock
	KindSetGroup
	KindAction
	KindObject
	KindModule
	KindFrame
	KindError
	KindTypeset
	KindDatatype
	KindQuoted // pseudo-kind used by typesets for values with quote levels

	numKinds
)

var kindNames = [numKinds]string{
	KindEnd:        "end",
	KindVoid:       "void",
	KindNull:       "null",
	KindBlank:      "blank",
	KindLogic:      "logic",
	KindInteger:    "integer",
	KindText:       "text",
	KindTag:        "tag",
	KindIssue:      "issue",
	KindWord:       "word",
	KindSetWord:    "set-word",
	KindGetWord:    "get-word",
	KindSymWord:    "sym-word",
	KindRefinement: "refinement",
	KindPath:       "path",
	KindSetPath:    "set-path",
	KindGetPath:    "get-path",
	KindBlock:      "block",
	KindGroup:      "group",
	KindSetBlock:   "set-block",
	KindSetGroup:   "set-group",
	KindAction:     "action",
	KindObject:     "object",
	KindModule:     "module",
	KindFrame:      "frame",
	KindError:      "error",
	KindTypeset:    "typeset",
	KindDatatype:   "datatype",
	KindQuoted:     "quoted",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return "kind?"
}

// KindSet is a bitset of kinds.
type KindSet uint64

func KindsOf(kinds ...Kind) KindSet {
	var ks KindSet
	for _, k := range kinds {
		ks |= 1 << k
	}
	return ks
}

func (ks KindSet) Has(k Kind) bool { return ks&(1<<k) != 0 }

var (
	AnyWord    = KindsOf(KindWord, KindSetWord, KindGetWord, KindSymWord)
	AnyPath    = KindsOf(KindPath, KindSetPath, KindGetPath)
	AnyArray   = KindsOf(KindBlock, KindGroup, KindSetBlock, KindSetGroup) | AnyPath
	AnyContext = KindsOf(KindObject, KindModule, KindFrame)

	// inertKinds evaluate to themselves.
	inertKinds = KindsOf(KindBlank, KindLogic, KindInteger, KindText, KindTag,
		KindIssue, KindSymWord, KindRefinement, KindBlock, KindAction, KindObject,
		KindModule, KindFrame, KindError, KindTypeset, KindDatatype)
)

// Flags are per-cell bits.
type Flags uint8

const (
	FlagProtected   Flags = 1 << iota // variable may not be assigned
	FlagStale                         // output cell still holds the previous expression's value
	FlagEnfixed                       // variable holding an action dispatches it infix
	FlagUnevaluated                   // argument was taken literally from the feed
	FlagNewline                       // scanned with a newline before it
	FlagLetDecl                       // SET-WORD introduced by LET in a function body
)

// transientFlags never survive a copy out of a variable or output cell.
const transientFlags = FlagProtected | FlagStale | FlagEnfixed | FlagUnevaluated

// Binding locates the storage a word refers to, or the specifier an array
// or action carries.
//
// A specific binding names a Context. A relative binding names the
// paramlist of the action whose body contains the value; it only becomes
// usable when combined with a frame of that action (see Derelativize).
type Binding struct {
	Context  *Context
	Relative *Paramlist
	Index    int
}

func (b Binding) IsRelative() bool { return b.Relative != nil }

// Value is the fixed-shape cell every language value lives in.
type Value struct {
	Kind   Kind
	Quotes int
	Flags  Flags
	Line   int

	Int   int64 // integer, logic (0/1), datatype (Kind)
	Text  string
	Types Typeset

	Symbol  *symbols.Symbol
	Array   *Array
	Index   int
	Context *Context
	Action  *Action
	Error   *Error

	Binding Binding
}

var (
	endValue   = Value{Kind: KindEnd}
	voidValue  = Value{Kind: KindVoid}
	nullValue  = Value{Kind: KindNull}
	blankValue = Value{Kind: KindBlank}
)

func Void() Value  { return voidValue }
func Null() Value  { return nullValue }
func Blank() Value { return blankValue }

func Integer(n int64) Value { return Value{Kind: KindInteger, Int: n} }

func Logic(b bool) Value {
	if b {
		return Value{Kind: KindLogic, Int: 1}
	}
	return Value{Kind: KindLogic}
}

func Text(s string) Value { return Value{Kind: KindText, Text: s} }

func Tag(s string) Value { return Value{Kind: KindTag, Text: s} }

func Issue(s string) Value { return Value{Kind: KindIssue, Text: s} }

func Datatype(k Kind) Value { return Value{Kind: KindDatatype, Int: int64(k)} }

func TypesetValue(ts Typeset) Value { return Value{Kind: KindTypeset, Types: ts} }

// Word makes an unbound word of the given kind.
func Word(kind Kind, sym *symbols.Symbol) Value {
	return Value{Kind: kind, Symbol: sym}
}

// BlockOf wraps an array at its head.
func BlockOf(kind Kind, a *Array) Value {
	return Value{Kind: kind, Array: a}
}

func ActionValue(a *Action, binding *Context) Value {
	return Value{Kind: KindAction, Action: a, Binding: Binding{Context: binding}}
}

func ContextValue(c *Context) Value {
	return Value{Kind: c.kind, Context: c}
}

func ErrorValue(e *Error) Value { return Value{Kind: KindError, Error: e} }

// Type is the kind typesets check, which is KindQuoted for quoted values.
func (v *Value) Type() Kind {
	if v.Quotes > 0 {
		return KindQuoted
	}
	return v.Kind
}

func (v *Value) Is(k Kind) bool { return v.Quotes == 0 && v.Kind == k }

func (v *Value) IsEnd() bool  { return v.Kind == KindEnd }
func (v *Value) IsVoid() bool { return v.Quotes == 0 && v.Kind == KindVoid }
func (v *Value) IsNull() bool { return v.Quotes == 0 && v.Kind == KindNull }

func (v *Value) IsStale() bool { return v.Flags&FlagStale != 0 }

func (v *Value) MarkStale()  { v.Flags |= FlagStale }
func (v *Value) ClearStale() { v.Flags &^= FlagStale }

func (v *Value) IsWord() bool { return v.Quotes == 0 && AnyWord.Has(v.Kind) }

func (v *Value) IsArray() bool { return v.Quotes == 0 && AnyArray.Has(v.Kind) }

func (v *Value) Logic() bool { return v.Int != 0 }

// Plain returns a copy with the per-slot and per-output flags removed.
func (v Value) Plain() Value {
	v.Flags &^= transientFlags
	return v
}

// Unquoted returns the value with one quote level removed.
func (v Value) Unquoted() Value {
	if v.Quotes > 0 {
		v.Quotes--
	}
	return v
}

// Quoted returns the value with n more quote levels.
func (v Value) Quoted(n int) Value {
	v.Quotes += n
	return v
}

// Cells returns the cells of an array value from its index on.
func (v *Value) Cells() []Value {
	if v.Array == nil || v.Index >= len(v.Array.Cells) {
		return nil
	}
	return v.Array.Cells[v.Index:]
}

// IsTruthy reports conditional truth. Void has no truth value, so callers
// check it first.
func (v *Value) IsTruthy() bool {
	if v.Quotes > 0 {
		return true
	}
	switch v.Kind {
	case KindNull, KindBlank:
		return false
	case KindLogic:
		return v.Int != 0
	}
	return true
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Hash is consistent with ValuesEqual for the scalar kinds.
func (v *Value) Hash() uint32 {
	switch v.Kind {
	case KindInteger, KindLogic, KindDatatype:
		return uint32(v.Int) ^ uint32(v.Int>>32) ^ uint32(v.Kind)<<24
	case KindText, KindTag, KindIssue:
		return hashString(foldText(v.Text))
	}
	if v.IsWord() || v.Kind == KindRefinement {
		return hashString(v.Symbol.Canon().String())
	}
	return uint32(v.Kind)
}
