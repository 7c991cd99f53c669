package amd64

import (
	"github.com/clown-team/vicis/internal/codegen"
	"github.com/clown-team/vicis/internal/ir"
)

// Lowering is x86-64's codegen.Lower[Opcode] implementation. Unlike
// MIPS32, the original leaves every x86-64 lowering function commented
// out in isa::mips32::lower::mod.rs (they were written against an
// X86_64 LoweringContext that never made it into the retrieved source);
// this reconstructs the same shapes — return, add/sub, unconditional
// branch — against x86-64's own two-address instruction forms.
type Lowering struct{}

// New returns a ready-to-use x86-64 Lowering.
func New() *Lowering { return &Lowering{} }

// CopyArgsToVRegs binds each incoming integer parameter to a fresh
// virtual register copied out of its System V argument register (ported
// from the commented `copy_args_to_vregs` body: `let args =
// RegInfo::arg_reg_list(&ctx.call_conv); ... MOVrr32 output, reg`).
func (Lowering) CopyArgsToVRegs(ctx *codegen.LoweringContext[Opcode], params []ir.Parameter) error {
	for i := range params {
		if i >= len(ArgRegs) {
			return ir.Todof("amd64: more than %d integer arguments", len(ArgRegs))
		}
		vreg := ctx.NewVReg(RegClassGR32)
		ctx.Emit(OpcodeMOVrr32,
			codegen.DefOperand(codegen.VRegData(vreg)),
			codegen.UseOperand(codegen.RegData(ArgRegs[i].Reg())),
		)
		ctx.ArgIdxToVReg[i] = vreg
	}
	return nil
}

// Lower dispatches on the IR instruction's operand tag.
func (l Lowering) Lower(ctx *codegen.LoweringContext[Opcode], inst *ir.Instruction) error {
	switch op := inst.Operand().(type) {
	case *ir.RetOperand:
		return l.lowerReturn(ctx, op)
	case *ir.IntBinaryOperand:
		return l.lowerIntBinary(ctx, inst, op)
	case *ir.BrOperand:
		return l.lowerBr(ctx, op)
	default:
		return ir.Todof("amd64 lowering not implemented for %s", inst.Opcode())
	}
}

// lowerReturn moves the returned value into EAX and emits RET, ported
// from the MIPS32 arm's `lower_return`/`set_reg_val` shape adapted to
// x86-64's accumulator-register return convention.
func (l Lowering) lowerReturn(ctx *codegen.LoweringContext[Opcode], op *ir.RetOperand) error {
	if len(op.Vals) == 0 {
		return ir.Todof("amd64: void return")
	}
	if len(op.Vals) > 1 {
		return ir.Todof("amd64: multi-value return")
	}
	data, err := codegen.MaterializeValue(ctx, l, RegClassGR32, op.Vals[0])
	if err != nil {
		return err
	}
	switch {
	case data.IsImm():
		ctx.Emit(OpcodeMOVri32, codegen.DefOperand(codegen.RegData(EAX.Reg())), codegen.UseOperand(data))
	case data.IsVReg():
		ctx.Emit(OpcodeMOVrr32, codegen.DefOperand(codegen.RegData(EAX.Reg())), codegen.UseOperand(data))
	default:
		return ir.Todof("amd64: unsupported return operand shape")
	}
	ctx.Emit(OpcodeRET)
	return nil
}

// lowerIntBinary emits the two-address sequence `mov dst, lhs; add/sub
// dst, rhs`, ported from the commented `lower_bin`'s `insert_move` +
// ADDri32/ADDrr32/SUBri32/SUBrr32 dispatch on whether rhs is an
// immediate or a register.
func (l Lowering) lowerIntBinary(ctx *codegen.LoweringContext[Opcode], inst *ir.Instruction, op *ir.IntBinaryOperand) error {
	lhs, err := codegen.MaterializeValue(ctx, l, RegClassGR32, op.Lhs)
	if err != nil {
		return err
	}
	rhs, err := codegen.MaterializeValue(ctx, l, RegClassGR32, op.Rhs)
	if err != nil {
		return err
	}

	out := ctx.OutputVReg(inst.ID(), RegClassGR32)
	switch {
	case lhs.IsImm():
		ctx.Emit(OpcodeMOVri32, codegen.DefOperand(codegen.VRegData(out)), codegen.UseOperand(lhs))
	case lhs.IsVReg() || lhs.IsReg():
		ctx.Emit(OpcodeMOVrr32, codegen.DefOperand(codegen.VRegData(out)), codegen.UseOperand(lhs))
	default:
		return ir.Todof("amd64 intbinary: unsupported lhs operand shape")
	}

	var addOp, subOp Opcode
	if rhs.IsImm() {
		addOp, subOp = OpcodeADDri32, OpcodeSUBri32
	} else if rhs.IsVReg() || rhs.IsReg() {
		addOp, subOp = OpcodeADDrr32, OpcodeSUBrr32
	} else {
		return ir.Todof("amd64 intbinary: unsupported rhs operand shape")
	}

	switch op.Op {
	case ir.BinaryOpAdd:
		ctx.Emit(addOp, codegen.UseDefOperand(codegen.VRegData(out)), codegen.UseOperand(rhs))
	case ir.BinaryOpSub:
		ctx.Emit(subOp, codegen.UseDefOperand(codegen.VRegData(out)), codegen.UseOperand(rhs))
	default:
		return ir.Todof("amd64 lowering not implemented for intbinary op %s", op.Op)
	}
	return nil
}

// lowerBr emits an unconditional jump.
func (l Lowering) lowerBr(ctx *codegen.LoweringContext[Opcode], op *ir.BrOperand) error {
	ctx.Emit(OpcodeJMP, codegen.UseOperand(codegen.BlockData(op.Target)))
	return nil
}
