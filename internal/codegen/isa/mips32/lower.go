package mips32

import (
	"github.com/clown-team/vicis/internal/codegen"
	"github.com/clown-team/vicis/internal/ir"
)

// Lowering is MIPS32's codegen.Lower[Opcode] implementation (ported from
// isa::mips32::lower::Lower, the `impl LowerTrait<MIPS32> for Lower`
// block).
type Lowering struct{}

// New returns a ready-to-use MIPS32 Lowering.
func New() *Lowering { return &Lowering{} }

// CopyArgsToVRegs binds each incoming integer parameter to a fresh
// virtual register, copied out of its O32 argument register (ported
// from isa::mips32::lower::Lower::copy_args_to_vregs — left entirely
// commented out upstream pending a MIPS RegInfo::arg_reg_list; this
// concretizes it against ArgRegs, the minimal choice that comment
// gestures at).
func (Lowering) CopyArgsToVRegs(ctx *codegen.LoweringContext[Opcode], params []ir.Parameter) error {
	for i := range params {
		if i >= len(ArgRegs) {
			return ir.Todof("mips32: more than %d integer arguments", len(ArgRegs))
		}
		vreg := ctx.NewVReg(RegClassGR)
		ctx.Emit(OpcodeMOVE,
			codegen.DefOperand(codegen.VRegData(vreg)),
			codegen.UseOperand(codegen.RegData(ArgRegs[i].Reg())),
		)
		ctx.ArgIdxToVReg[i] = vreg
	}
	return nil
}

// Lower dispatches on the IR instruction's operand tag (ported from
// isa::mips32::lower::lower's match on `inst.operand`).
func (l Lowering) Lower(ctx *codegen.LoweringContext[Opcode], inst *ir.Instruction) error {
	switch op := inst.Operand().(type) {
	case *ir.RetOperand:
		return l.lowerReturn(ctx, op)
	case *ir.IntBinaryOperand:
		return l.lowerIntBinary(ctx, inst, op)
	case *ir.BrOperand:
		return l.lowerBr(ctx, op)
	default:
		return ir.Todof("mips32 lowering not implemented for %s", inst.Opcode())
	}
}

// lowerReturn is the concrete `Operand::Ret { val: Some(val), ty } =>
// lower_return(ctx, ty, val)` arm — the only fully-implemented case in
// the original's mips32 lowering.
func (l Lowering) lowerReturn(ctx *codegen.LoweringContext[Opcode], op *ir.RetOperand) error {
	if len(op.Vals) == 0 {
		return ir.Todof("mips32: void return")
	}
	if len(op.Vals) > 1 {
		return ir.Todof("mips32: multi-value return")
	}
	if err := l.setRegVal(ctx, V0.Reg(), op.Vals[0]); err != nil {
		return err
	}
	ctx.Emit(OpcodeJR, codegen.UseOperand(codegen.RegData(RA.Reg())))
	return nil
}

// setRegVal materializes val into reg, ported from
// isa::mips32::lower::set_reg_val: a constant int is emitted as
// `ADDI reg, $zero, imm` (the only case the original implements), and a
// value already held in a virtual register is copied with `MOVE reg, vreg`.
func (l Lowering) setRegVal(ctx *codegen.LoweringContext[Opcode], reg codegen.Reg, val ir.ValueID) error {
	data, err := codegen.MaterializeValue(ctx, l, RegClassGR, val)
	if err != nil {
		return err
	}
	switch {
	case data.IsImm():
		ctx.Emit(OpcodeADDI,
			codegen.DefOperand(codegen.RegData(reg)),
			codegen.UseOperand(codegen.RegData(ZERO.Reg())),
			codegen.UseOperand(data),
		)
	case data.IsVReg():
		ctx.Emit(OpcodeMOVE, codegen.DefOperand(codegen.RegData(reg)), codegen.UseOperand(data))
	default:
		return ir.Todof("mips32 setRegVal: unsupported operand shape")
	}
	return nil
}

// lowerIntBinary covers add/sub, which the original's lower_bin (written
// against x86-64's two-address ADDrr32/SUBrr32/ADDri32/SUBri32 forms)
// generalizes cleanly to MIPS32's three-address ADDU/SUBU/ADDI. A sub
// with an immediate rhs is not lowered and returns a Todo error.
func (l Lowering) lowerIntBinary(ctx *codegen.LoweringContext[Opcode], inst *ir.Instruction, op *ir.IntBinaryOperand) error {
	lhs, err := codegen.MaterializeValue(ctx, l, RegClassGR, op.Lhs)
	if err != nil {
		return err
	}
	if !lhs.IsVReg() && !lhs.IsReg() {
		return ir.Todof("mips32 intbinary: lhs %d must already be in a register", op.Lhs)
	}
	rhs, err := codegen.MaterializeValue(ctx, l, RegClassGR, op.Rhs)
	if err != nil {
		return err
	}

	out := ctx.OutputVReg(inst.ID(), RegClassGR)
	switch {
	case op.Op == ir.BinaryOpAdd && rhs.IsImm():
		ctx.Emit(OpcodeADDI, codegen.DefOperand(codegen.VRegData(out)), codegen.UseOperand(lhs), codegen.UseOperand(rhs))
	case op.Op == ir.BinaryOpAdd && (rhs.IsVReg() || rhs.IsReg()):
		ctx.Emit(OpcodeADDU, codegen.DefOperand(codegen.VRegData(out)), codegen.UseOperand(lhs), codegen.UseOperand(rhs))
	case op.Op == ir.BinaryOpSub && (rhs.IsVReg() || rhs.IsReg()):
		ctx.Emit(OpcodeSUBU, codegen.DefOperand(codegen.VRegData(out)), codegen.UseOperand(lhs), codegen.UseOperand(rhs))
	default:
		return ir.Todof("mips32 lowering not implemented for intbinary op %s with that operand shape", op.Op)
	}
	return nil
}

// lowerBr is the concrete `Operand::Br { block } => lower_br(ctx,
// block)` arm, emitting an unconditional jump.
func (l Lowering) lowerBr(ctx *codegen.LoweringContext[Opcode], op *ir.BrOperand) error {
	ctx.Emit(OpcodeJ, codegen.UseOperand(codegen.BlockData(op.Target)))
	return nil
}
