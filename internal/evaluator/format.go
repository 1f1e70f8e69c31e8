package evaluator

import (
	"strconv"
	"strings"
)

// Mold renders a value in loadable source form where one exists.
func Mold(v *Value) string {
	var sb strings.Builder
	m := molder{sb: &sb}
	m.mold(v)
	return sb.String()
}

// Form renders a value for display: text without quotes or escapes, and
// blocks as their formed items separated by spaces.
func Form(v *Value) string {
	if v.Quotes > 0 {
		return Mold(v)
	}
	switch v.Kind {
	case KindText, KindTag, KindIssue:
		return v.Text
	case KindBlock, KindGroup:
		cells := v.Cells()
		parts := make([]string, 0, len(cells))
		for i := range cells {
			parts = append(parts, Form(&cells[i]))
		}
		return strings.Join(parts, " ")
	case KindVoid:
		return ""
	}
	if AnyWord.Has(v.Kind) || v.Kind == KindRefinement {
		return v.Symbol.String()
	}
	return Mold(v)
}

type molder struct {
	sb    *strings.Builder
	stack []*Array
}

func (m *molder) mold(v *Value) {
	for i := 0; i < v.Quotes; i++ {
		m.sb.WriteByte('\'')
	}
	switch v.Kind {
	case KindEnd:
		m.sb.WriteString("#[end]")
	case KindVoid:
		m.sb.WriteString("~")
	case KindNull:
		m.sb.WriteString("null")
	case KindBlank:
		m.sb.WriteString("_")
	case KindLogic:
		if v.Logic() {
			m.sb.WriteString("true")
		} else {
			m.sb.WriteString("false")
		}
	case KindInteger:
		m.sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindText:
		m.text(v.Text)
	case KindTag:
		m.sb.WriteString("<" + v.Text + ">")
	case KindIssue:
		m.sb.WriteString("#" + v.Text)
	case KindWord:
		m.sb.WriteString(v.Symbol.String())
	case KindSetWord:
		m.sb.WriteString(v.Symbol.String() + ":")
	case KindGetWord:
		m.sb.WriteString(":" + v.Symbol.String())
	case KindSymWord:
		m.sb.WriteString("@" + v.Symbol.String())
	case KindRefinement:
		m.sb.WriteString("/" + v.Symbol.String())
	case KindPath, KindSetPath, KindGetPath:
		if v.Kind == KindGetPath {
			m.sb.WriteByte(':')
		}
		m.series(v, "", "", "/")
		if v.Kind == KindSetPath {
			m.sb.WriteByte(':')
		}
	case KindBlock:
		m.series(v, "[", "]", " ")
	case KindGroup:
		m.series(v, "(", ")", " ")
	case KindSetBlock:
		m.series(v, "[", "]:", " ")
	case KindSetGroup:
		m.series(v, "(", "):", " ")
	case KindAction:
		m.sb.WriteString("#[action! " + v.Action.Name() + "]")
	case KindObject, KindModule:
		m.context(v.Context)
	case KindFrame:
		name := "anonymous"
		if v.Context.phase != nil {
			name = v.Context.phase.Name()
		}
		m.sb.WriteString("#[frame! " + name + "]")
	case KindError:
		m.sb.WriteString("#[error! " + v.Error.ID.String() + " " + strconv.Quote(v.Error.Message) + "]")
	case KindTypeset:
		m.sb.WriteString("#[typeset! " + v.Types.String() + "]")
	case KindDatatype:
		m.sb.WriteString(Kind(v.Int).String() + "!")
	default:
		m.sb.WriteString("#[" + v.Kind.String() + "]")
	}
}

func (m *molder) text(s string) {
	m.sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			m.sb.WriteString(`^"`)
		case '^':
			m.sb.WriteString("^^")
		case '\n':
			m.sb.WriteString("^/")
		case '\t':
			m.sb.WriteString("^-")
		default:
			m.sb.WriteRune(r)
		}
	}
	m.sb.WriteByte('"')
}

func (m *molder) series(v *Value, open, close, sep string) {
	for _, a := range m.stack {
		if a == v.Array {
			m.sb.WriteString(open + "..." + close)
			return
		}
	}
	m.stack = append(m.stack, v.Array)
	m.sb.WriteString(open)
	cells := v.Cells()
	for i := range cells {
		if i > 0 {
			m.sb.WriteString(sep)
		}
		m.mold(&cells[i])
	}
	m.sb.WriteString(close)
	m.stack = m.stack[:len(m.stack)-1]
}

func (m *molder) context(c *Context) {
	if !c.Accessible() {
		m.sb.WriteString("#[" + c.kind.String() + "! expired]")
		return
	}
	m.sb.WriteString("make " + c.kind.String() + "! [")
	first := true
	for i := 1; i < len(c.keys); i++ {
		if c.keys[i].Hidden {
			continue
		}
		if !first {
			m.sb.WriteByte(' ')
		}
		first = false
		m.sb.WriteString(c.keys[i].Symbol.String() + ": ")
		v := c.vars[i]
		if v.Is(KindObject) && v.Context == c {
			m.sb.WriteString("...")
			continue
		}
		if v.IsWord() || AnyPath.Has(v.Kind) && v.Quotes == 0 {
			v = v.Quoted(1)
		}
		m.mold(&v)
	}
	m.sb.WriteByte(']')
}
