package mips32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clown-team/vicis/internal/codegen"
	"github.com/clown-team/vicis/internal/ir"
)

// S6: `ret i32 42` lowers to ADDI $v0, $zero, 42; JR $ra.
func TestLower_RetConstant(t *testing.T) {
	fn := ir.NewFunction("f", nil, []ir.TypeID{0})
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

	addi := ctx.InstSeq[0]
	assert.Equal(t, OpcodeADDI, addi.Op)
	require.Len(t, addi.Operands, 3)
	assert.Equal(t, V0.Reg(), addi.Operands[0].Data.Reg())
	assert.Equal(t, ZERO.Reg(), addi.Operands[1].Data.Reg())
	assert.Equal(t, int64(42), addi.Operands[2].Data.Imm())

	jr := ctx.InstSeq[1]
	assert.Equal(t, OpcodeJR, jr.Op)
	require.Len(t, jr.Operands, 1)
	assert.Equal(t, RA.Reg(), jr.Operands[0].Data.Reg())
}

// An IntBinary add with a register lhs and an immediate rhs lowers to a
// single ADDI, and the result is available to a later Ret via
// InstIDToVReg.
func TestLower_IntBinaryAddImmediateThenRet(t *testing.T) {
	fn := ir.NewFunction("f", []ir.Parameter{{Name: "x", Type: 0}}, []ir.TypeID{0})
	i32 := fn.Types.Int(32)
	fn.Params[0].Type = i32
	fn.Sig.Params = []ir.TypeID{i32}
	fn.Sig.Results = []ir.TypeID{i32}
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	x := b.Param(0)
	c1 := b.ConstInt(ir.Width32, 1, i32)
	_, sum := b.IntBinary(ir.BinaryOpAdd, i32, x, c1)
	b.Ret(sum)

	ctx, err := codegen.Run[Opcode](fn, New())
	require.NoError(t, err)
	require.Len(t, ctx.InstSeq, 4) // MOVE (arg copy), ADDI, MOVE (into $v0), JR

	move := ctx.InstSeq[0]
	assert.Equal(t, OpcodeMOVE, move.Op)

	addi := ctx.InstSeq[1]
	assert.Equal(t, OpcodeADDI, addi.Op)
	assert.True(t, addi.Operands[1].Data.IsVReg())
	assert.Equal(t, int64(1), addi.Operands[2].Data.Imm())

	jr := ctx.InstSeq[3]
	assert.Equal(t, OpcodeJR, jr.Op)
}

func TestLower_VoidReturnIsTodo(t *testing.T) {
	fn := ir.NewFunction("f", nil, nil)
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)
	b.Ret()

	_, err := codegen.Run[Opcode](fn, New())
	require.Error(t, err)
	var lerr *ir.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ir.KindTodo, lerr.Kind)
}
