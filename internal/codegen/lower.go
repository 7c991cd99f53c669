package codegen

import "github.com/clown-team/vicis/internal/ir"

// StackSlotID names a frame-relative slot allocated by StackSlots.
type StackSlotID int

// StackSlots allocates storage for allocas that mem2reg could not
// promote (an address-taken slot, or one a future caller of this
// framework deliberately excluded from mem2reg). Ported from the
// original's `slots: StackSlots` field threaded through
// LoweringContext.
type StackSlots struct {
	sizes []uint32
}

// Add reserves a slot of size bytes and returns its id.
func (s *StackSlots) Add(size uint32) StackSlotID {
	s.sizes = append(s.sizes, size)
	return StackSlotID(len(s.sizes) - 1)
}

// Size returns the size in bytes of a previously added slot.
func (s *StackSlots) Size(id StackSlotID) uint32 { return s.sizes[id] }

// NumSlots returns the number of slots allocated so far.
func (s *StackSlots) NumSlots() int { return len(s.sizes) }

// LoweringContext carries the per-function mutable state a target's
// Lower implementation threads through one instruction at a time,
// ported from codegen::lower::LoweringContext<Isa>. O is the target's
// own machine Opcode type.
type LoweringContext[O any] struct {
	IR       *ir.Function
	CurBlock ir.BasicBlockID

	// InstSeq accumulates the lowered machine instructions of the whole
	// function in emission order (ported from `ctx.inst_seq`); it is not
	// split or reset per block.
	InstSeq []Instruction[O]

	// InstIDToVReg records, for every IR instruction already lowered,
	// the virtual register its result was materialized into (ported
	// from `ctx.inst_id_to_vreg`). MaterializeValue consults this for
	// ValueKindInstruction operands.
	InstIDToVReg map[ir.InstID]VReg

	// ArgIdxToVReg records the vreg CopyArgsToVRegs bound each
	// parameter index to (ported from `ctx.arg_idx_to_vreg`).
	ArgIdxToVReg map[int]VReg

	Slots StackSlots

	nextVRegIndex map[RegClass]uint32

	// lowered records every IR instruction id Lower has already been
	// invoked for, whether reached by Run's own straight-line walk or
	// lowered early by GetOrCreateOutputVReg recursing ahead of that
	// walk — so Run never lowers the same instruction a second time
	// once it gets there in layout order.
	lowered map[ir.InstID]struct{}
}

// NewLoweringContext returns a LoweringContext ready to lower fn.
func NewLoweringContext[O any](fn *ir.Function) *LoweringContext[O] {
	return &LoweringContext[O]{
		IR:            fn,
		InstIDToVReg:  make(map[ir.InstID]VReg),
		ArgIdxToVReg:  make(map[int]VReg),
		nextVRegIndex: make(map[RegClass]uint32),
		lowered:       make(map[ir.InstID]struct{}),
	}
}

// alreadyLowered reports whether Lower has already run for id.
func (ctx *LoweringContext[O]) alreadyLowered(id ir.InstID) bool {
	_, ok := ctx.lowered[id]
	return ok
}

// markLowered records that Lower has now run for id.
func (ctx *LoweringContext[O]) markLowered(id ir.InstID) {
	ctx.lowered[id] = struct{}{}
}

// NewVReg allocates a fresh virtual register of class.
func (ctx *LoweringContext[O]) NewVReg(class RegClass) VReg {
	idx := ctx.nextVRegIndex[class] + 1
	ctx.nextVRegIndex[class] = idx
	return NewVReg(class, idx)
}

// OutputVReg returns the virtual register instID's result should be
// written into. Ported from the commented `new_empty_inst_output`: if
// GetOrCreateOutputVReg already reserved a vreg for instID ahead of
// instID's own lowering (a forward reference from a cross-block or
// side-effecting use), that reservation is returned so the use and the
// eventual def agree on the same register; otherwise a fresh vreg is
// allocated and memoized now, for any later reference to find.
func (ctx *LoweringContext[O]) OutputVReg(instID ir.InstID, class RegClass) VReg {
	if vreg, ok := ctx.InstIDToVReg[instID]; ok {
		return vreg
	}
	vreg := ctx.NewVReg(class)
	ctx.InstIDToVReg[instID] = vreg
	return vreg
}

// Emit appends one machine instruction to InstSeq (ported from the repeated `ctx.inst_seq.push(MachInstruction::new(...,
// ctx.block_map[&ctx.cur_block]))` pattern in isa::mips32::lower).
func (ctx *LoweringContext[O]) Emit(op O, operands ...Operand) {
	ctx.InstSeq = append(ctx.InstSeq, NewInstruction(op, operands...))
}

// Lower is the per-target lowering entry point (ported from
// codegen::lower::Lower<Isa>). CopyArgsToVRegs runs once before any
// block is lowered, to materialize incoming parameters (§4.6); Lower
// runs once per live IR instruction in layout order.
type Lower[O any] interface {
	Lower(ctx *LoweringContext[O], inst *ir.Instruction) error
	CopyArgsToVRegs(ctx *LoweringContext[O], params []ir.Parameter) error
}

// Run lowers every live instruction of fn in layout order using l, after
// first materializing incoming parameters. This is the target-agnostic
// driver loop the original's per-target modules are called from; a
// target only supplies a Lower implementation.
func Run[O any](fn *ir.Function, l Lower[O]) (*LoweringContext[O], error) {
	ctx := NewLoweringContext[O](fn)
	if err := l.CopyArgsToVRegs(ctx, fn.Params); err != nil {
		return nil, err
	}
	for _, blockID := range fn.Layout.BlockIter() {
		ctx.CurBlock = blockID
		for _, instID := range fn.Layout.InstIter(blockID) {
			if ctx.alreadyLowered(instID) {
				// GetOrCreateOutputVReg already lowered this one on
				// demand, ahead of the straight-line walk reaching it.
				continue
			}
			inst := fn.Data.InstRef(instID)
			ctx.markLowered(instID)
			if err := l.Lower(ctx, inst); err != nil {
				return nil, err
			}
		}
	}
	return ctx, nil
}

// MaterializeValue resolves an IR value operand to machine OperandData,
// per the value-materialization table (§4.6): a constant integer becomes
// an immediate, an instruction's result becomes its bound VReg (lowered
// on demand via GetOrCreateOutputVReg if the driver hasn't reached it
// yet), and a function argument becomes the VReg CopyArgsToVRegs bound
// it to. Ported from isa::mips32::lower's commented
// `val_to_operand_data`, generalized across targets since the dispatch
// only touches IR-side tags, never a target's own Opcode. l is the
// target's own Lower implementation, needed for the same-block
// lower-it-now fallback inside GetOrCreateOutputVReg.
func MaterializeValue[O any](ctx *LoweringContext[O], l Lower[O], class RegClass, valueID ir.ValueID) (OperandData, error) {
	v := ctx.IR.Data.ValueRef(valueID)
	switch v.Kind() {
	case ir.ValueKindConstant:
		c := v.AsConstant()
		if c.Kind() != ir.ConstantKindInt {
			return OperandData{}, ir.Todof("materialize non-integer constant operand")
		}
		return ImmData(c.AsInt().Value), nil
	case ir.ValueKindInstruction:
		vreg, err := GetOrCreateOutputVReg(ctx, l, class, v.AsInstruction())
		if err != nil {
			return OperandData{}, err
		}
		return VRegData(vreg), nil
	case ir.ValueKindArgument:
		vreg, ok := ctx.ArgIdxToVReg[v.AsArgument()]
		if !ok {
			return OperandData{}, ir.InvalidIRf("argument value %d has no bound vreg", valueID)
		}
		return VRegData(vreg), nil
	default:
		return OperandData{}, ir.Todof("materialize value kind %d", v.Kind())
	}
}

// GetOrCreateOutputVReg resolves producer's output virtual register,
// creating and memoizing one on demand per §4.6's value-materialization
// contract. Ported from the commented `get_or_generate_inst_output`: a
// producer already lowered (by the driver's straight-line pass, or by
// an earlier on-demand call here) returns its vreg directly. A producer
// that sits in a different block than the one currently being lowered,
// or whose opcode has side effects, gets an empty vreg reserved for it
// right now (ported from `new_empty_inst_output`) — running it early
// would either be impossible (its block may not even be lowered yet) or
// unsound (a side effect must not fire twice); that reservation is what
// the driver's own later call to OutputVReg picks up when it finally
// reaches producer. A same-block, side-effect-free producer the driver
// hasn't reached yet is lowered immediately instead, out of the
// driver's normal layout order, so it has a real vreg before this call
// returns.
func GetOrCreateOutputVReg[O any](ctx *LoweringContext[O], l Lower[O], class RegClass, producer ir.InstID) (VReg, error) {
	if vreg, ok := ctx.InstIDToVReg[producer]; ok {
		return vreg, nil
	}
	inst := ctx.IR.Data.InstRef(producer)
	if inst.Parent() != ctx.CurBlock || inst.Opcode().HasSideEffects() {
		return ctx.OutputVReg(producer, class), nil
	}
	ctx.markLowered(producer)
	if err := l.Lower(ctx, inst); err != nil {
		return VRegInvalid, err
	}
	vreg, ok := ctx.InstIDToVReg[producer]
	if !ok {
		return VRegInvalid, ir.InvalidIRf("lowering %d did not materialize an output vreg for itself", producer)
	}
	return vreg, nil
}
