package mem2reg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clown-team/vicis/internal/ir"
)

func newTestFn(name string) *ir.Function {
	return ir.NewFunction(name, nil, nil)
}

// S1. Single-store promotion: entry contains
// %a = alloca i32; store i32 42, %a; %x = load i32, %a; ret i32 %x.
// Expected: all three alloca-related instructions removed, terminator
// becomes ret i32 42.
func TestRun_SingleStore(t *testing.T) {
	fn := newTestFn("s1")
	i32 := fn.Types.Int(32)
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	_, addr := b.Alloca(i32)
	c42 := b.ConstInt(ir.Width32, 42, i32)
	b.Store(c42, addr)
	_, x := b.Load(addr)
	b.Ret(x)

	Run(fn)

	fn.Data.ValidateAllUses()
	insts := fn.Layout.InstIter(entry)
	require.Len(t, insts, 1, "only the ret should remain")

	ret := fn.Data.InstRef(insts[0])
	assert.Equal(t, ir.OpcodeRet, ret.Opcode())
	retOp := ret.Operand().(*ir.RetOperand)
	require.Len(t, retOp.Vals, 1)
	v := fn.Data.ValueRef(retOp.Vals[0])
	require.Equal(t, ir.ValueKindConstant, v.Kind())
	assert.Equal(t, int64(42), v.AsConstant().AsInt().Value)
}

// S2. Diamond with φ-insertion.
func TestRun_DiamondPhi(t *testing.T) {
	fn := newTestFn("s2")
	i32 := fn.Types.Int(32)
	i1 := fn.Types.Int(1)
	b := ir.NewBuilder(fn)

	entry := b.CreateBlock()
	left := b.CreateBlock()
	right := b.CreateBlock()
	merge := b.CreateBlock()

	b.SetBlock(entry)
	_, addr := b.Alloca(i32)
	cond := b.Undef(i1)
	b.CondBr(cond, left, nil, right, nil)

	b.SetBlock(left)
	c1 := b.ConstInt(ir.Width32, 1, i32)
	b.Store(c1, addr)
	b.Br(merge)

	b.SetBlock(right)
	c2 := b.ConstInt(ir.Width32, 2, i32)
	b.Store(c2, addr)
	b.Br(merge)

	b.SetBlock(merge)
	_, v := b.Load(addr)
	b.Ret(v)

	Run(fn)
	fn.Data.ValidateAllUses()

	mergeInsts := fn.Layout.InstIter(merge)
	require.Len(t, mergeInsts, 2, "phi then ret")

	phi := fn.Data.InstRef(mergeInsts[0])
	assert.True(t, phi.Opcode().IsPhi())
	phiOp := phi.Operand().(*ir.PhiOperand)
	require.Len(t, phiOp.Args, 2)
	assert.ElementsMatch(t, []ir.BasicBlockID{left, right}, phiOp.Blocks)

	ret := fn.Data.InstRef(mergeInsts[1])
	retOp := ret.Operand().(*ir.RetOperand)
	require.Len(t, retOp.Vals, 1)
	retVal := fn.Data.ValueRef(retOp.Vals[0])
	require.Equal(t, ir.ValueKindInstruction, retVal.Kind())
	assert.Equal(t, phi.ID(), retVal.AsInstruction())
}

// S3. Single-block nearest-store: two loads each bind to the nearest
// preceding store.
func TestRun_SingleBlockNearestStore(t *testing.T) {
	fn := newTestFn("s3")
	i32 := fn.Types.Int(32)
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	_, addr := b.Alloca(i32)
	c1 := b.ConstInt(ir.Width32, 1, i32)
	b.Store(c1, addr)
	c2 := b.ConstInt(ir.Width32, 2, i32)
	b.Store(c2, addr)
	_, x := b.Load(addr)
	c3 := b.ConstInt(ir.Width32, 3, i32)
	b.Store(c3, addr)
	_, y := b.Load(addr)
	_, sum := b.IntBinary(ir.BinaryOpAdd, i32, x, y)
	b.Ret(sum)

	Run(fn)
	fn.Data.ValidateAllUses()

	insts := fn.Layout.InstIter(entry)
	require.Len(t, insts, 2, "add then ret")

	add := fn.Data.InstRef(insts[0])
	addOp := add.Operand().(*ir.IntBinaryOperand)
	lhs := fn.Data.ValueRef(addOp.Lhs)
	rhs := fn.Data.ValueRef(addOp.Rhs)
	assert.Equal(t, int64(2), lhs.AsConstant().AsInt().Value)
	assert.Equal(t, int64(3), rhs.AsConstant().AsInt().Value)
}

// S4. Loop with loop-carried value.
func TestRun_LoopCarried(t *testing.T) {
	fn := newTestFn("s4")
	i32 := fn.Types.Int(32)
	i1 := fn.Types.Int(1)
	b := ir.NewBuilder(fn)

	entry := b.CreateBlock()
	header := b.CreateBlock()
	latch := b.CreateBlock()
	exit := b.CreateBlock()

	b.SetBlock(entry)
	_, addr := b.Alloca(i32)
	c0 := b.ConstInt(ir.Width32, 0, i32)
	b.Store(c0, addr)
	b.Br(header)

	b.SetBlock(header)
	_, i := b.Load(addr)
	cond := b.Undef(i1)
	b.CondBr(cond, latch, nil, exit, nil)

	b.SetBlock(latch)
	one := b.ConstInt(ir.Width32, 1, i32)
	_, iNext := b.IntBinary(ir.BinaryOpAdd, i32, i, one)
	b.Store(iNext, addr)
	b.Br(header)

	b.SetBlock(exit)
	b.Ret()

	Run(fn)
	fn.Data.ValidateAllUses()

	headerInsts := fn.Layout.InstIter(header)
	require.GreaterOrEqual(t, len(headerInsts), 1)
	phi := fn.Data.InstRef(headerInsts[0])
	require.True(t, phi.Opcode().IsPhi())
	phiOp := phi.Operand().(*ir.PhiOperand)
	require.Len(t, phiOp.Args, 2)
	assert.ElementsMatch(t, []ir.BasicBlockID{entry, latch}, phiOp.Blocks)

	latchInsts := fn.Layout.InstIter(latch)
	var add *ir.Instruction
	for _, id := range latchInsts {
		if fn.Data.InstRef(id).Opcode() == ir.OpcodeIntBinary {
			add = fn.Data.InstRef(id)
		}
	}
	require.NotNil(t, add)
	addOp := add.Operand().(*ir.IntBinaryOperand)
	lhsVal := fn.Data.ValueRef(addOp.Lhs)
	require.Equal(t, ir.ValueKindInstruction, lhsVal.Kind())
	assert.Equal(t, phi.ID(), lhsVal.AsInstruction())
}

// S5. Non-atomic alloca is not promoted.
func TestRun_NonAtomicNotPromoted(t *testing.T) {
	fn := newTestFn("s5")
	i32 := fn.Types.Int(32)
	structTy := fn.Types.Struct(i32, i32)
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	allocaID, addr := b.Alloca(structTy)
	_, loaded := b.Load(addr)
	b.Ret(loaded)

	Run(fn)
	fn.Data.ValidateAllUses()

	insts := fn.Layout.InstIter(entry)
	require.Len(t, insts, 3, "alloca, load, and ret all survive untouched")
	assert.Equal(t, allocaID, insts[0])
}

// §8 boundary case: alloca with zero loads is removed along with its
// store(s).
func TestRun_ZeroLoadsRemovesAllocaAndStore(t *testing.T) {
	fn := newTestFn("zero-loads")
	i32 := fn.Types.Int(32)
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	_, addr := b.Alloca(i32)
	c42 := b.ConstInt(ir.Width32, 42, i32)
	b.Store(c42, addr)
	b.Ret()

	Run(fn)
	fn.Data.ValidateAllUses()

	insts := fn.Layout.InstIter(entry)
	require.Len(t, insts, 1, "only the ret should remain")
	assert.Equal(t, ir.OpcodeRet, fn.Data.InstRef(insts[0]).Opcode())
}

// §8 boundary case: alloca with loads but no stores has its loads
// replaced by undef, single-block variant.
func TestRun_NoStoresSingleBlockLoadsBecomeUndef(t *testing.T) {
	fn := newTestFn("no-stores-single-block")
	i32 := fn.Types.Int(32)
	b := ir.NewBuilder(fn)
	entry := b.CreateBlock()
	b.SetBlock(entry)

	_, addr := b.Alloca(i32)
	_, x := b.Load(addr)
	b.Ret(x)

	Run(fn)
	fn.Data.ValidateAllUses()

	insts := fn.Layout.InstIter(entry)
	require.Len(t, insts, 1, "only the ret should remain")
	ret := fn.Data.InstRef(insts[0])
	retOp := ret.Operand().(*ir.RetOperand)
	require.Len(t, retOp.Vals, 1)
	v := fn.Data.ValueRef(retOp.Vals[0])
	assert.Equal(t, ir.ValueKindUndef, v.Kind())
}

// §8 boundary case: alloca with loads but no stores has its loads
// replaced by undef, multi-block variant (the load's block is not the
// alloca's block; classification looks only at the loads and stores, so
// the slot still takes the single-block path).
func TestRun_NoStoresMultiBlockLoadsBecomeUndef(t *testing.T) {
	fn := newTestFn("no-stores-multi-block")
	i32 := fn.Types.Int(32)
	b := ir.NewBuilder(fn)

	entry := b.CreateBlock()
	next := b.CreateBlock()

	b.SetBlock(entry)
	_, addr := b.Alloca(i32)
	b.Br(next)

	b.SetBlock(next)
	_, x := b.Load(addr)
	b.Ret(x)

	Run(fn)
	fn.Data.ValidateAllUses()

	nextInsts := fn.Layout.InstIter(next)
	require.Len(t, nextInsts, 1, "only the ret should remain")
	ret := fn.Data.InstRef(nextInsts[0])
	retOp := ret.Operand().(*ir.RetOperand)
	require.Len(t, retOp.Vals, 1)
	v := fn.Data.ValueRef(retOp.Vals[0])
	assert.Equal(t, ir.ValueKindUndef, v.Kind())
}

// §8 boundary case: a self-loop block with both a store and a load of
// the same slot. The entry block also stores to the slot, so it is not
// confined to one block: it takes the multi-block path and the φ is
// placed at the loop header.
func TestRun_SelfLoopSingleBlock(t *testing.T) {
	fn := newTestFn("self-loop")
	i32 := fn.Types.Int(32)
	i1 := fn.Types.Int(1)
	b := ir.NewBuilder(fn)

	entry := b.CreateBlock()
	loop := b.CreateBlock()
	exit := b.CreateBlock()

	b.SetBlock(entry)
	_, addr := b.Alloca(i32)
	c0 := b.ConstInt(ir.Width32, 0, i32)
	b.Store(c0, addr)
	b.Br(loop)

	b.SetBlock(loop)
	_, x := b.Load(addr)
	one := b.ConstInt(ir.Width32, 1, i32)
	_, xNext := b.IntBinary(ir.BinaryOpAdd, i32, x, one)
	b.Store(xNext, addr)
	cond := b.Undef(i1)
	b.CondBr(cond, loop, nil, exit, nil)

	b.SetBlock(exit)
	b.Ret()

	Run(fn)
	fn.Data.ValidateAllUses()

	loopInsts := fn.Layout.InstIter(loop)
	require.GreaterOrEqual(t, len(loopInsts), 2, "phi, add, condbr at least")
	phi := fn.Data.InstRef(loopInsts[0])
	require.True(t, phi.Opcode().IsPhi(), "self-loop back-edge needs a phi at the loop header")
	phiOp := phi.Operand().(*ir.PhiOperand)
	assert.ElementsMatch(t, []ir.BasicBlockID{entry, loop}, phiOp.Blocks)
}

// §8 round-trip/idempotence: running mem2reg twice yields the same IR
// as running it once (the second pass finds nothing left to promote).
func TestRun_Idempotent(t *testing.T) {
	fn := newTestFn("idempotent")
	i32 := fn.Types.Int(32)
	i1 := fn.Types.Int(1)
	b := ir.NewBuilder(fn)

	entry := b.CreateBlock()
	left := b.CreateBlock()
	right := b.CreateBlock()
	merge := b.CreateBlock()

	b.SetBlock(entry)
	_, addr := b.Alloca(i32)
	cond := b.Undef(i1)
	b.CondBr(cond, left, nil, right, nil)

	b.SetBlock(left)
	c1 := b.ConstInt(ir.Width32, 1, i32)
	b.Store(c1, addr)
	b.Br(merge)

	b.SetBlock(right)
	c2 := b.ConstInt(ir.Width32, 2, i32)
	b.Store(c2, addr)
	b.Br(merge)

	b.SetBlock(merge)
	_, v := b.Load(addr)
	b.Ret(v)

	Run(fn)
	fn.Data.ValidateAllUses()

	before := map[ir.BasicBlockID][]ir.InstID{}
	for _, blk := range fn.Layout.BlockIter() {
		before[blk] = append([]ir.InstID(nil), fn.Layout.InstIter(blk)...)
	}

	Run(fn)
	fn.Data.ValidateAllUses()

	for _, blk := range fn.Layout.BlockIter() {
		assert.Equal(t, before[blk], fn.Layout.InstIter(blk), "block %d instructions changed on second pass", blk)
	}
}

// §8 boundary case: unreachable blocks are ignored by mem2reg (the
// dominator tree only covers blocks reachable from entry: BuildDominatorTree
// never visits deadLeft/deadRight/deadMerge, so LevelOf/Dominates answer
// "unreachable" for them throughout). The pass must not panic when a
// promotable-looking alloca spans blocks the dominator tree never
// assigned a level to, and the reachable half of the function must come
// out untouched by whatever happens to the dead half.
func TestRun_UnreachableBlockIgnored(t *testing.T) {
	fn := newTestFn("unreachable")
	i32 := fn.Types.Int(32)
	i1 := fn.Types.Int(1)
	b := ir.NewBuilder(fn)

	entry := b.CreateBlock()
	deadLeft := b.CreateBlock()
	deadRight := b.CreateBlock()
	deadMerge := b.CreateBlock()

	b.SetBlock(entry)
	c0 := b.ConstInt(ir.Width32, 0, i32)
	b.Ret(c0)

	// deadLeft/deadRight/deadMerge form a diamond with no predecessor
	// reaching them from entry, so they never appear in reversePostorder.
	b.SetBlock(deadLeft)
	_, addr := b.Alloca(i32)
	c1 := b.ConstInt(ir.Width32, 1, i32)
	b.Store(c1, addr)
	b.Br(deadMerge)

	b.SetBlock(deadRight)
	cond := b.Undef(i1)
	b.CondBr(cond, deadLeft, nil, deadMerge, nil)

	b.SetBlock(deadMerge)
	_, x := b.Load(addr)
	b.Ret(x)

	require.NotPanics(t, func() { Run(fn) })

	entryInsts := fn.Layout.InstIter(entry)
	require.Len(t, entryInsts, 1, "the reachable entry block is unaffected by the unreachable diamond")
	assert.Equal(t, ir.OpcodeRet, fn.Data.InstRef(entryInsts[0]).Opcode())
}
