package symbols

// ID is a small integer identity for the bounded set of symbols the
// evaluator switches on directly.
type ID uint16

const (
	SymNone ID = iota
	SymReturn
	SymLocal
	SymLet
	SymSelf
	SymWith
	SymOpt
	SymEnd
	SymSkip
	SymOutput
	SymVoid
	SymHalt
	SymUnwind
	SymBreak
	SymContinue
	SymThrow
	SymFrame
	SymObject
	SymValue
	SymModal

	numCoreIDs
)

var coreSpellings = [numCoreIDs]string{
	SymNone:     "",
	SymReturn:   "return",
	SymLocal:    "local",
	SymLet:      "let",
	SymSelf:     "self",
	SymWith:     "with",
	SymOpt:      "opt",
	SymEnd:      "end",
	SymSkip:     "skip",
	SymOutput:   "output",
	SymVoid:     "void",
	SymHalt:     "halt",
	SymUnwind:   "unwind",
	SymBreak:    "break",
	SymContinue: "continue",
	SymThrow:    "throw",
	SymFrame:    "frame",
	SymObject:   "object",
	SymValue:    "value",
	SymModal:    "modal",
}

// initCore interns the core spellings and stamps their IDs. It runs on an
// empty table, so growth cannot fail for any listed initial size.
func (t *Table) initCore() {
	for id := SymReturn; id < numCoreIDs; id++ {
		sym, err := t.InternString(coreSpellings[id])
		if err != nil {
			panic("symbols: interning core spelling: " + err.Error())
		}
		sym.id = id
		t.core[id] = sym
	}
}

// Core returns the canon symbol for a core ID.
func (t *Table) Core(id ID) *Symbol {
	return t.core[id]
}
