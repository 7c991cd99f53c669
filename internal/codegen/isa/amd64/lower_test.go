package amd64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clown-team/vicis/internal/codegen"
	"github.com/clown-team/vicis/internal/ir"
)

func TestLower_RetConstant(t *testing.T) {
	fn := ir.NewFunction("f", nil, nil)
	i32 := fn.Types.Int(32)
	fn.Sig.Results = []ir.TypeID{i32}
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	c42 := b.ConstInt(ir.Width32, 42, i32)
	b.Ret(c42)

	ctx, err := codegen.Run[Opcode](fn, New())
	require.NoError(t, err)
	require.Len(t, ctx.InstSeq, 2)

	mov := ctx.InstSeq[0]
	assert.Equal(t, OpcodeMOVri32, mov.Op)
	assert.Equal(t, EAX.Reg(), mov.Operands[0].Data.Reg())
	assert.Equal(t, int64(42), mov.Operands[1].Data.Imm())

	ret := ctx.InstSeq[1]
	assert.Equal(t, OpcodeRET, ret.Op)
	assert.Empty(t, ret.Operands)
}

func TestLower_IntBinaryAddRegisterThenRet(t *testing.T) {
	fn := ir.NewFunction("f", []ir.Parameter{{Name: "x"}, {Name: "y"}}, nil)
	i32 := fn.Types.Int(32)
	fn.Params[0].Type, fn.Params[1].Type = i32, i32
	fn.Sig.Params = []ir.TypeID{i32, i32}
	fn.Sig.Results = []ir.TypeID{i32}
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	x := b.Param(0)
	y := b.Param(1)
	_, sum := b.IntBinary(ir.BinaryOpAdd, i32, x, y)
	b.Ret(sum)

	ctx, err := codegen.Run[Opcode](fn, New())
	require.NoError(t, err)
	// MOVrr32 x2 (arg copies), MOVrr32 (mov dst,lhs), ADDrr32, MOVrr32 (ret copy), RET
	require.Len(t, ctx.InstSeq, 6)

	add := ctx.InstSeq[3]
	assert.Equal(t, OpcodeADDrr32, add.Op)
	assert.Equal(t, codegen.RoleUseDef, add.Operands[0].Role)

	ret := ctx.InstSeq[5]
	assert.Equal(t, OpcodeRET, ret.Op)
}

// A Ret laid out before the IntBinary instruction it returns forces
// MaterializeValue through the forward-reference path: the producer
// hasn't been visited by Run's straight-line walk yet, so
// GetOrCreateOutputVReg must lower it on demand before Ret can resolve
// its operand, and Run's own walk must then skip it rather than
// lowering it a second time when it reaches it later in layout order.
func TestLower_ForwardReferenceWithinBlockLowersProducerOnDemand(t *testing.T) {
	fn := ir.NewFunction("f", []ir.Parameter{{Name: "x"}, {Name: "y"}}, nil)
	i32 := fn.Types.Int(32)
	fn.Params[0].Type, fn.Params[1].Type = i32, i32
	fn.Sig.Params = []ir.TypeID{i32, i32}
	fn.Sig.Results = []ir.TypeID{i32}
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	x := b.Param(0)
	y := b.Param(1)

	// Create the IntBinary instruction's arena entry (and its result
	// value) without appending it to layout yet, so Ret can be laid out
	// first while still referencing this not-yet-visited producer.
	sumInst := fn.Data.CreateInstruction(ir.OpcodeIntBinary, &ir.IntBinaryOperand{Op: ir.BinaryOpAdd, Ty: i32, Lhs: x, Rhs: y})
	sum := fn.Data.InstRef(sumInst).Result()

	b.Ret(sum)
	fn.Layout.AppendInst(sumInst, entry)

	ctx, err := codegen.Run[Opcode](fn, New())
	require.NoError(t, err)
	// MOVrr32 x2 (arg copies), MOVrr32 (mov dst,lhs for the on-demand
	// sum lowering), ADDrr32, MOVrr32 (ret copy), RET — the same six
	// instructions as TestLower_IntBinaryAddRegisterThenRet, despite
	// the reversed layout order, and no duplicate emission from Run
	// later revisiting sumInst.
	require.Len(t, ctx.InstSeq, 6)

	mov := ctx.InstSeq[2]
	assert.Equal(t, OpcodeMOVrr32, mov.Op)

	add := ctx.InstSeq[3]
	assert.Equal(t, OpcodeADDrr32, add.Op)

	retMov := ctx.InstSeq[4]
	assert.Equal(t, OpcodeMOVrr32, retMov.Op)

	ret := ctx.InstSeq[5]
	assert.Equal(t, OpcodeRET, ret.Op)
}
