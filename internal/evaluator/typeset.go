package evaluator

import "strings"

// Typeset is a set of kinds plus the two parameter conventions that are
// not kinds: accepting null (<opt>) and accepting end of input (<end>).
type Typeset uint64

const (
	TypesetOpt Typeset = 1 << 62
	TypesetEnd Typeset = 1 << 63
)

const kindMask = Typeset(1<<numKinds - 1)

var (
	// anyValue is every kind a variable can hold, nulls excluded.
	anyValue = Typeset(KindsOf(KindBlank, KindLogic, KindInteger, KindText, KindTag,
		KindIssue, KindWord, KindSetWord, KindGetWord, KindSymWord, KindRefinement,
		KindPath, KindSetPath, KindGetPath, KindBlock, KindGroup, KindSetBlock,
		KindSetGroup, KindAction, KindObject, KindModule, KindFrame, KindError,
		KindTypeset, KindDatatype, KindQuoted))

	// defaultParamTypes is what an untyped parameter accepts.
	defaultParamTypes = anyValue
)

func TypesetOf(kinds ...Kind) Typeset { return Typeset(KindsOf(kinds...)) }

func (ts Typeset) Has(k Kind) bool { return ts&(1<<k) != 0 }

func (ts Typeset) AllowsNull() bool { return ts&TypesetOpt != 0 }
func (ts Typeset) AllowsEnd() bool  { return ts&TypesetEnd != 0 }

// Empty reports whether no kind is accepted, as for argless refinements.
func (ts Typeset) Empty() bool { return ts&kindMask == 0 }

// Check reports whether v is acceptable. Void is never acceptable.
func (ts Typeset) Check(v *Value) bool {
	switch {
	case v.IsEnd():
		return ts.AllowsEnd()
	case v.IsNull():
		return ts.AllowsNull()
	case v.IsVoid():
		return false
	}
	return ts.Has(v.Type())
}

func (ts Typeset) String() string {
	var parts []string
	for k := Kind(0); k < numKinds; k++ {
		if ts.Has(k) {
			parts = append(parts, k.String()+"!")
		}
	}
	if ts.AllowsNull() {
		parts = append(parts, "<opt>")
	}
	if ts.AllowsEnd() {
		parts = append(parts, "<end>")
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// typeNames maps datatype words and the few pseudo-types usable in
// parameter specs to their typesets.
var typeNames = func() map[string]Typeset {
	m := map[string]Typeset{
		"any-value!":   anyValue,
		"any-word!":    Typeset(AnyWord),
		"any-path!":    Typeset(AnyPath),
		"any-array!":   Typeset(AnyArray),
		"any-context!": Typeset(AnyContext),
		"any-series!":  Typeset(AnyArray) | TypesetOf(KindText, KindTag, KindIssue),
	}
	for k := KindVoid; k < numKinds; k++ {
		if k == KindNull {
			continue
		}
		m[k.String()+"!"] = TypesetOf(k)
	}
	return m
}()

// kindByName returns the kind a datatype word names.
func kindByName(name string) (Kind, bool) {
	if !strings.HasSuffix(name, "!") {
		return 0, false
	}
	base := strings.TrimSuffix(name, "!")
	for k := KindVoid; k < numKinds; k++ {
		if kindNames[k] == base && k != KindNull {
			return k, true
		}
	}
	return 0, false
}
