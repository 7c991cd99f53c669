package ir

// Builder is the constructive API a frontend uses to populate a Function
// (§6 "IR ingestion": the core consumes a fully constructed Function; a
// textual parser is an external collaborator not modeled here). It is
// the only supported way to get a Function into a state that satisfies
// the producer contract of §6 — every block's preds/succs reflect its
// terminator, every instruction's parent matches its layout residence,
// and the use-list invariant holds throughout.
type Builder struct {
	fn  *Function
	cur BasicBlockID
}

// NewBuilder returns a Builder appending to fn, with no current block
// selected; call CreateBlock or SetBlock before emitting instructions.
func NewBuilder(fn *Function) *Builder {
	return &Builder{fn: fn}
}

// Func returns the function under construction.
func (b *Builder) Func() *Function { return b.fn }

// CreateBlock appends a new block and returns its id without selecting
// it as current.
func (b *Builder) CreateBlock() BasicBlockID {
	return b.fn.Layout.AppendBlock()
}

// SetBlock selects blockID as the block subsequent Create* calls append
// to.
func (b *Builder) SetBlock(blockID BasicBlockID) {
	b.cur = blockID
}

// CurrentBlock returns the currently selected block.
func (b *Builder) CurrentBlock() BasicBlockID { return b.cur }

// Param returns the ValueID naming the idx-th function parameter,
// materializing it into the value arena on first request. Per §3 every
// Value kind is interned-by-construction, so Argument values are backed
// by an arena slot exactly like instruction results.
func (b *Builder) Param(idx int) ValueID {
	p := b.fn.Params[idx]
	return b.fn.Data.CreateValue(ArgumentValue(idx, p.Type))
}

// ConstInt materializes a width-tagged integer constant into the value
// arena and returns its id.
func (b *Builder) ConstInt(width IntWidth, value int64, typ TypeID) ValueID {
	c := ConstIntData(ConstantInt{Width: width, Value: value})
	return b.fn.Data.CreateValue(ConstantValue(c, typ))
}

// ConstGlobalRef materializes a reference to a named global.
func (b *Builder) ConstGlobalRef(name string, typ TypeID) ValueID {
	return b.fn.Data.CreateValue(ConstantValue(ConstGlobalRefData(name), typ))
}

// Undef materializes the Undef value of typ.
func (b *Builder) Undef(typ TypeID) ValueID {
	return b.fn.Data.CreateValue(UndefValue(typ))
}

func (b *Builder) emit(opcode Opcode, operand Operand) InstID {
	id := b.fn.Data.CreateInstruction(opcode, operand)
	b.fn.Layout.AppendInst(id, b.cur)
	return id
}

// result returns the ValueID of inst's produced result, for chaining
// into the next instruction's operand.
func (b *Builder) result(inst InstID) ValueID {
	return b.fn.Data.InstRef(inst).Result()
}

// Alloca emits an OpcodeAlloca reserving a slot of type ty and returns
// (instruction id, the pointer value it yields).
func (b *Builder) Alloca(ty TypeID) (InstID, ValueID) {
	id := b.emit(OpcodeAlloca, &AllocaOperand{Ty: ty})
	return id, b.result(id)
}

// Load emits an OpcodeLoad from addr and returns (instruction id, loaded
// value).
func (b *Builder) Load(addr ValueID) (InstID, ValueID) {
	id := b.emit(OpcodeLoad, &LoadOperand{Addr: addr})
	return id, b.result(id)
}

// Store emits an OpcodeStore of src into dst.
func (b *Builder) Store(src, dst ValueID) InstID {
	return b.emit(OpcodeStore, &StoreOperand{Src: src, Dst: dst})
}

// Phi emits an empty OpcodePhi of type ty at the current position (its
// incoming pairs are filled in later via AppendIncoming — used directly
// by mem2reg renaming rather than by ordinary frontend construction,
// since a frontend producing already-SSA IR has no need for φ/alloca at
// all).
func (b *Builder) Phi(ty TypeID) (InstID, ValueID) {
	id := b.emit(OpcodePhi, &PhiOperand{Ty: ty})
	return id, b.result(id)
}

// IntBinary emits an OpcodeIntBinary computing op(lhs, rhs).
func (b *Builder) IntBinary(op BinaryOp, ty TypeID, lhs, rhs ValueID) (InstID, ValueID) {
	id := b.emit(OpcodeIntBinary, &IntBinaryOperand{Op: op, Ty: ty, Lhs: lhs, Rhs: rhs})
	return id, b.result(id)
}

// ICmp emits an OpcodeICmp comparing lhs and rhs under predicate pred.
func (b *Builder) ICmp(pred ICmpPredicate, ty TypeID, lhs, rhs ValueID) (InstID, ValueID) {
	id := b.emit(OpcodeICmp, &ICmpOperand{Predicate: pred, Ty: ty, Lhs: lhs, Rhs: rhs})
	return id, b.result(id)
}

// Cast emits an OpcodeCast converting arg from fromTy to toTy.
func (b *Builder) Cast(op CastOp, fromTy, toTy TypeID, arg ValueID) (InstID, ValueID) {
	id := b.emit(OpcodeCast, &CastOperand{Op: op, FromTy: fromTy, ToTy: toTy, Arg: arg})
	return id, b.result(id)
}

// Br emits an unconditional branch to target, passing args, and records
// the CFG edge.
func (b *Builder) Br(target BasicBlockID, args ...ValueID) InstID {
	return b.emit(OpcodeBr, &BrOperand{Target: target, Args: args})
}

// CondBr emits a conditional branch and records both CFG edges.
func (b *Builder) CondBr(cond ValueID, thenBlock BasicBlockID, thenArgs []ValueID, elseBlock BasicBlockID, elseArgs []ValueID) InstID {
	return b.emit(OpcodeCondBr, &CondBrOperand{
		Cond: cond, ThenBlock: thenBlock, ThenArgs: thenArgs, ElseBlock: elseBlock, ElseArgs: elseArgs,
	})
}

// Call emits an OpcodeCall of callee with the given signature and
// arguments. sig.Results determines whether the call has a result.
func (b *Builder) Call(callee string, sig *Signature, args ...ValueID) (InstID, ValueID) {
	id := b.emit(OpcodeCall, &CallOperand{Callee: callee, Sig: sig, Args: args})
	var result ValueID
	if sig != nil && len(sig.Results) > 0 {
		result = b.result(id)
	}
	return id, result
}

// Ret emits a return of vals (zero or one value — see RetOperand).
func (b *Builder) Ret(vals ...ValueID) InstID {
	return b.emit(OpcodeRet, &RetOperand{Vals: vals})
}
