package evaluator

// InitThrownWithLabel starts a throw. Frames see it on resumption and
// either catch it or pass it on by returning BounceThrown.
func (t *Trampoline) InitThrownWithLabel(value, label Value) Bounce {
	if t.throwing {
		panic("evaluator: throw started while another is in flight")
	}
	t.thrown = value.Plain()
	t.label = label.Plain()
	t.throwing = true
	return BounceThrown
}

// IsThrowing reports whether a throw is in flight.
func (t *Trampoline) IsThrowing() bool { return t.throwing }

// ThrownLabel is the label of the throw in flight.
func (t *Trampoline) ThrownLabel() *Value { return &t.label }

// CatchThrown ends the throw in flight and returns its value.
func (t *Trampoline) CatchThrown() Value {
	v := t.thrown
	t.thrown = Value{}
	t.label = Value{}
	t.throwing = false
	return v
}

// labelIs reports whether the throw in flight is labeled by the action act.
func (t *Trampoline) labelIs(act *Action) bool {
	return t.label.Is(KindAction) && t.label.Action == act
}

// isDefinitionalFor reports whether the throw in flight is a RETURN or
// UNWIND aimed at the frame whose varlist is ctx.
func (t *Trampoline) isDefinitionalFor(ctx *Context) bool {
	in := t.interp
	if !t.label.Is(KindAction) || t.label.Binding.Context != ctx {
		return false
	}
	return t.label.Action == in.returnAction || t.label.Action == in.unwindAction
}

// haltThrow starts the throw that only the top level catches.
func (t *Trampoline) haltThrow() Bounce {
	return t.InitThrownWithLabel(nullValue, ActionValue(t.interp.haltAction, nil))
}

// checkInterrupt counts evaluation steps and, every interval steps, looks
// for a halt request or a cancelled context. It reports false with a
// pending throw when evaluation should stop.
func (t *Trampoline) checkInterrupt() (Bounce, bool) {
	t.ticks++
	if t.interval <= 0 || t.ticks%uint64(t.interval) != 0 {
		return 0, true
	}
	in := t.interp
	halt := in.takeHaltRequest()
	if !halt && t.ctx != nil && t.ctx.Err() != nil {
		halt = true
	}
	if !halt {
		return 0, true
	}
	t.logger.Debug("halting evaluation", "ticks", t.ticks)
	return t.haltThrow(), false
}

// findUnwindTarget resolves the level an UNWIND names: a FRAME! of a
// running action, an action identity running above from, or a count of
// action frames above from.
func (t *Trampoline) findUnwindTarget(from *Frame, level *Value) (*Context, *Error) {
	switch {
	case level.Is(KindFrame):
		ctx := level.Context
		if ctx.owner == OwnerLiveFrame && ctx.frame != nil {
			for g := from.prior; g != nil; g = g.prior {
				if g == ctx.frame {
					return ctx, nil
				}
			}
		}
	case level.Is(KindAction):
		for g := from.prior; g != nil; g = g.prior {
			if !g.isAction() || g.varlist.owner != OwnerLiveFrame {
				continue
			}
			if g.original == level.Action || g.phase == level.Action {
				return g.varlist, nil
			}
		}
	case level.Is(KindInteger):
		n := level.Int
		for g := from.prior; g != nil && n > 0; g = g.prior {
			if !g.isAction() || g.varlist.owner != OwnerLiveFrame {
				continue
			}
			n--
			if n == 0 {
				return g.varlist, nil
			}
		}
	}
	return nil, newValueError(ErrInvalidExit, level, "no running action matches %s", Mold(level))
}
