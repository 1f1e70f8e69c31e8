package evaluator

import (
	"strings"

	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// foldText is the case folding used by comparisons and hashing.
func foldText(s string) string { return strings.ToLower(s) }

// ValuesEqual is the loose equality of =: words compare by canon, text
// ignores case, series compare item by item, and contexts and actions
// compare by identity.
func ValuesEqual(a, b *Value) bool {
	if a.Quotes != b.Quotes {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindEnd, KindVoid, KindNull, KindBlank:
		return true
	case KindLogic, KindInteger, KindDatatype:
		return a.Int == b.Int
	case KindText, KindTag, KindIssue:
		return foldText(a.Text) == foldText(b.Text)
	case KindTypeset:
		return a.Types == b.Types
	case KindAction:
		return a.Action == b.Action
	case KindObject, KindModule, KindFrame:
		return a.Context == b.Context
	case KindError:
		return a.Error == b.Error
	}
	if AnyWord.Has(a.Kind) || a.Kind == KindRefinement {
		return symbols.SameCanon(a.Symbol, b.Symbol)
	}
	if AnyArray.Has(a.Kind) {
		if a.Array == b.Array && a.Index == b.Index {
			return true
		}
		ac, bc := a.Cells(), b.Cells()
		if len(ac) != len(bc) {
			return false
		}
		for i := range ac {
			if !ValuesEqual(&ac[i], &bc[i]) {
				return false
			}
		}
		return true
	}
	return false
}
