package evaluator

// Array is the backing store of blocks, groups and paths.
type Array struct {
	Cells []Value
	File  string
}

func NewArray(cells []Value) *Array { return &Array{Cells: cells} }

// copyArrayDeep copies an array and every nested array. Relative values
// are derelativized against specifier so none escape their body.
func copyArrayDeep(a *Array, index int, specifier *Context) *Array {
	out := &Array{Cells: make([]Value, 0, len(a.Cells)-index), File: a.File}
	for i := index; i < len(a.Cells); i++ {
		out.Cells = append(out.Cells, copyCellDeep(&a.Cells[i], specifier))
	}
	return out
}

func copyCellDeep(v *Value, specifier *Context) Value {
	cell := *v
	if cell.Binding.IsRelative() {
		cell = derelativize(v, specifier)
	}
	if v.Array != nil && AnyArray.Has(v.Kind) {
		inner := specifier
		if v.Binding.Context != nil {
			inner = v.Binding.Context
		}
		cell.Array = copyArrayDeep(v.Array, v.Index, inner)
		cell.Index = 0
	}
	return cell
}

// copyArrayShallow copies the cells from index on, derelativizing them.
func copyArrayShallow(a *Array, index int, specifier *Context) *Array {
	out := &Array{Cells: make([]Value, 0, len(a.Cells)-index), File: a.File}
	for i := index; i < len(a.Cells); i++ {
		out.Cells = append(out.Cells, derelativize(&a.Cells[i], specifier))
	}
	return out
}
