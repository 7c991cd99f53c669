package ir

// Operand is the tagged-sum operand payload of an Instruction (§3): each
// concrete type below is one arm, carrying exactly the typed operands
// that opcode requires. Every operand is referenced by the opaque
// ValueID Data hands out (§3 "referenced by opaque identifiers"), never
// by an embedded Value, so Data can maintain the use-list invariant
// (§4.1) by resolving each id through its value arena.
type Operand interface {
	// ValueOperands returns a pointer to every ValueID-typed slot this
	// operand carries, so callers can read or (for ReplaceInstArg)
	// overwrite them in place.
	ValueOperands() []*ValueID
	opcode() Opcode
}

// AllocaOperand is OpcodeAlloca's payload: the type of slot reserved.
type AllocaOperand struct {
	Ty TypeID
}

func (a *AllocaOperand) ValueOperands() []*ValueID { return nil }
func (a *AllocaOperand) opcode() Opcode            { return OpcodeAlloca }

// LoadOperand is OpcodeLoad's payload: the address loaded from.
type LoadOperand struct {
	Addr ValueID
}

func (l *LoadOperand) ValueOperands() []*ValueID { return []*ValueID{&l.Addr} }
func (l *LoadOperand) opcode() Opcode            { return OpcodeLoad }

// StoreOperand is OpcodeStore's payload: the value stored and the
// destination address.
type StoreOperand struct {
	Src ValueID
	Dst ValueID
}

func (s *StoreOperand) ValueOperands() []*ValueID { return []*ValueID{&s.Src, &s.Dst} }
func (s *StoreOperand) opcode() Opcode            { return OpcodeStore }

// PhiOperand is OpcodePhi's payload: one incoming value per predecessor
// edge, in the same order as the block's predecessor list (§4.5.4
// "operand i of the phi corresponds to predecessor i").
type PhiOperand struct {
	Ty     TypeID
	Args   []ValueID
	Blocks []BasicBlockID
}

func (p *PhiOperand) ValueOperands() []*ValueID {
	out := make([]*ValueID, len(p.Args))
	for i := range p.Args {
		out[i] = &p.Args[i]
	}
	return out
}
func (p *PhiOperand) opcode() Opcode { return OpcodePhi }

// AppendIncoming appends one (value, predecessor) pair, used by mem2reg
// renaming (§4.5.4).
func (p *PhiOperand) AppendIncoming(v ValueID, pred BasicBlockID) {
	p.Args = append(p.Args, v)
	p.Blocks = append(p.Blocks, pred)
}

// IntBinaryOperand is OpcodeIntBinary's payload.
type IntBinaryOperand struct {
	Op       BinaryOp
	Ty       TypeID
	Lhs, Rhs ValueID
}

func (b *IntBinaryOperand) ValueOperands() []*ValueID { return []*ValueID{&b.Lhs, &b.Rhs} }
func (b *IntBinaryOperand) opcode() Opcode            { return OpcodeIntBinary }

// ICmpOperand is OpcodeICmp's payload.
type ICmpOperand struct {
	Predicate ICmpPredicate
	Ty        TypeID
	Lhs, Rhs  ValueID
}

func (c *ICmpOperand) ValueOperands() []*ValueID { return []*ValueID{&c.Lhs, &c.Rhs} }
func (c *ICmpOperand) opcode() Opcode            { return OpcodeICmp }

// CastOperand is OpcodeCast's payload.
type CastOperand struct {
	Op     CastOp
	FromTy TypeID
	ToTy   TypeID
	Arg    ValueID
}

func (c *CastOperand) ValueOperands() []*ValueID { return []*ValueID{&c.Arg} }
func (c *CastOperand) opcode() Opcode            { return OpcodeCast }

// BrOperand is OpcodeBr's payload: the unconditional jump target and the
// arguments passed to its parameters.
type BrOperand struct {
	Target BasicBlockID
	Args   []ValueID
}

func (b *BrOperand) ValueOperands() []*ValueID {
	out := make([]*ValueID, len(b.Args))
	for i := range b.Args {
		out[i] = &b.Args[i]
	}
	return out
}
func (b *BrOperand) opcode() Opcode { return OpcodeBr }

// CondBrOperand is OpcodeCondBr's payload.
type CondBrOperand struct {
	Cond      ValueID
	ThenBlock BasicBlockID
	ThenArgs  []ValueID
	ElseBlock BasicBlockID
	ElseArgs  []ValueID
}

func (c *CondBrOperand) ValueOperands() []*ValueID {
	out := make([]*ValueID, 0, 1+len(c.ThenArgs)+len(c.ElseArgs))
	out = append(out, &c.Cond)
	for i := range c.ThenArgs {
		out = append(out, &c.ThenArgs[i])
	}
	for i := range c.ElseArgs {
		out = append(out, &c.ElseArgs[i])
	}
	return out
}
func (c *CondBrOperand) opcode() Opcode { return OpcodeCondBr }

// CallOperand is OpcodeCall's payload.
type CallOperand struct {
	Callee string
	Sig    *Signature
	Args   []ValueID
}

func (c *CallOperand) ValueOperands() []*ValueID {
	out := make([]*ValueID, len(c.Args))
	for i := range c.Args {
		out[i] = &c.Args[i]
	}
	return out
}
func (c *CallOperand) opcode() Opcode { return OpcodeCall }

// RetOperand is OpcodeRet's payload: zero or one returned value (§6
// scenario S6 uses a single i32 return; multi-value return is not
// exercised but the slice shape leaves room for it).
type RetOperand struct {
	Vals []ValueID
}

func (r *RetOperand) ValueOperands() []*ValueID {
	out := make([]*ValueID, len(r.Vals))
	for i := range r.Vals {
		out[i] = &r.Vals[i]
	}
	return out
}
func (r *RetOperand) opcode() Opcode { return OpcodeRet }

// Signature describes a function's parameter and result types, referenced
// by OpcodeCall (§4.6 calling-convention resolution uses this to resolve
// argument registers).
type Signature struct {
	Params  []TypeID
	Results []TypeID
}
