package evaluator

// pushBranch runs a branch of a conditional or loop into out. A block runs
// to its end, a quoted value is the result minus one quote, an action is
// called with cond when it takes an argument, and a group is evaluated to
// produce the branch to run.
func (t *Trampoline) pushBranch(out *Value, branch Value, cond *Value) *Frame {
	f := &Frame{out: out, feed: &Feed{}, executor: brancherExecutor}
	f.current = branch
	if cond != nil {
		f.left = cond.Plain()
	} else {
		f.left = endValue
	}
	t.push(f)
	return f
}

func brancherExecutor(f *Frame) Bounce {
	t := f.tramp
	if t.throwing {
		return BounceThrown
	}
	switch f.state {
	case 0:
		return f.runBranch()
	case 1:
		if f.out.IsStale() {
			*f.out = voidValue
		}
		return BounceOut
	default:
		if f.spare.IsStale() || f.spare.Is(KindGroup) {
			return f.Fail(newValueError(ErrBadBranch, &f.current, "branch group must produce a branch"))
		}
		f.current = f.spare.Plain()
		return f.runBranch()
	}
}

func (f *Frame) runBranch() Bounce {
	t := f.tramp
	b := &f.current
	if b.Quotes > 0 {
		*f.out = b.Unquoted()
		return BounceOut
	}
	switch b.Kind {
	case KindBlock:
		f.state = 1
		t.pushEvaluator(f.out, feedFor(b), FlagToEnd)
		return BounceContinue
	case KindAction:
		var args []Value
		if !f.left.IsEnd() && b.Action.firstParam() != 0 {
			args = []Value{f.left}
		}
		f.state = 1
		f.out.MarkStale()
		t.pushActionArgs(f.out, b.Action, b.Binding.Context, args, nil)
		return BounceContinue
	case KindGroup:
		f.state = 2
		f.spare = voidValue
		f.spare.MarkStale()
		t.pushGroup(&f.spare, feedFor(b))
		return BounceContinue
	}
	return f.Fail(newValueError(ErrBadBranch, b, "%s is not a valid branch", b.Kind))
}
