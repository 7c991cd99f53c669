package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFunc() *Function {
	return NewFunction("f", nil, nil)
}

// §8 "Use-list consistency": after Create-instruction, the producer's
// users set contains the consumer.
func TestData_CreateInstructionRecordsUse(t *testing.T) {
	fn := newTestFunc()
	i32 := fn.Types.Int(32)
	b := NewBuilder(fn)
	blk := b.CreateBlock()
	b.SetBlock(blk)

	allocaID, addr := b.Alloca(i32)
	loadID, _ := b.Load(addr)

	alloca := fn.Data.InstRef(allocaID)
	_, isUser := alloca.Users()[loadID]
	assert.True(t, isUser, "load must be recorded as a user of alloca")
	fn.Data.ValidateAllUses()
}

// §4.1 "Replace-instruction-argument" must update both the old and new
// producer's users sets.
func TestData_ReplaceInstArg(t *testing.T) {
	fn := newTestFunc()
	i32 := fn.Types.Int(32)
	b := NewBuilder(fn)
	blk := b.CreateBlock()
	b.SetBlock(blk)

	c1 := b.ConstInt(Width32, 1, i32)
	_, add1Val := b.IntBinary(BinaryOpAdd, i32, c1, c1)
	_, add2Val := b.IntBinary(BinaryOpAdd, i32, add1Val, c1)
	c2 := b.ConstInt(Width32, 2, i32)

	addProducer := fn.Data.ValueRef(add1Val).AsInstruction()
	userInstID := fn.Data.ValueRef(add2Val).AsInstruction()

	fn.Data.ReplaceInstArg(userInstID, addProducer, c2)

	op := fn.Data.InstRef(userInstID).Operand().(*IntBinaryOperand)
	assert.Equal(t, c2, op.Lhs)

	producerInst := fn.Data.InstRef(addProducer)
	_, stillUser := producerInst.Users()[userInstID]
	assert.False(t, stillUser, "old producer must no longer list the user")

	fn.Data.ValidateAllUses()
}

// §8 "CFG consistency": every edge a terminator records is reflected on
// both endpoints.
func TestLayout_EdgesMaintainCFGInvariant(t *testing.T) {
	fn := newTestFunc()
	b := NewBuilder(fn)
	entry := b.CreateBlock()
	target := b.CreateBlock()
	b.SetBlock(entry)
	b.Br(target)

	fn.ValidateCFG()

	entryBlk := fn.Data.BlockRef(entry)
	targetBlk := fn.Data.BlockRef(target)
	assert.Equal(t, []BasicBlockID{target}, entryBlk.Succs())
	assert.Equal(t, []BasicBlockID{entry}, targetBlk.Preds())
}

// §4.4: dominance over a diamond CFG.
func TestDominatorTree_Diamond(t *testing.T) {
	fn := newTestFunc()
	i1 := fn.Types.Int(1)
	b := NewBuilder(fn)

	entry := b.CreateBlock()
	left := b.CreateBlock()
	right := b.CreateBlock()
	merge := b.CreateBlock()

	b.SetBlock(entry)
	cond := b.Undef(i1)
	b.CondBr(cond, left, nil, right, nil)
	b.SetBlock(left)
	b.Br(merge)
	b.SetBlock(right)
	b.Br(merge)
	b.SetBlock(merge)
	b.Ret()

	dom := BuildDominatorTree(fn)
	assert.True(t, dom.Dominates(entry, merge))
	assert.False(t, dom.Dominates(left, merge))
	assert.False(t, dom.Dominates(right, merge))
	assert.Equal(t, 0, dom.LevelOf(entry))
	assert.Equal(t, 1, dom.LevelOf(left))
	assert.Equal(t, 1, dom.LevelOf(merge))

	idom, ok := dom.ImmediateDominator(merge)
	require.True(t, ok)
	assert.Equal(t, entry, idom)
}

// §3 invariant 4 and §4.2: inst.Parent() tracks layout residence across
// insertion styles.
func TestLayout_ParentConsistency(t *testing.T) {
	fn := newTestFunc()
	i32 := fn.Types.Int(32)
	b := NewBuilder(fn)
	blk := b.CreateBlock()
	b.SetBlock(blk)

	_, addr := b.Alloca(i32)
	loadID, _ := b.Load(addr)

	fn.ValidateLayoutParents()
	assert.Equal(t, blk, fn.Data.InstRef(loadID).Parent())
}

// §4.2: the arena and layout are orthogonal — removing from layout
// leaves the arena slot resolvable.
func TestRemoveInst_KeepsArenaSlotResolvable(t *testing.T) {
	fn := newTestFunc()
	i32 := fn.Types.Int(32)
	b := NewBuilder(fn)
	blk := b.CreateBlock()
	b.SetBlock(blk)

	_, addr := b.Alloca(i32)
	loadID, loadVal := b.Load(addr)
	b.Ret(loadVal)

	fn.RemoveInst(loadID)

	assert.True(t, fn.Data.InstRef(loadID).Removed())
	assert.NotPanics(t, func() { fn.Data.InstRef(loadID) })
}

func TestTypeTable_IsAtomic(t *testing.T) {
	types := NewTypeTable()
	i32 := types.Int(32)
	ptr := types.Pointer(i32)
	agg := types.Struct(i32, i32)

	assert.True(t, types.IsAtomic(i32))
	assert.True(t, types.IsAtomic(ptr))
	assert.False(t, types.IsAtomic(agg))
}
