package ir

// Layout is the pair of intrusive doubly-linked orderings described in
// §3/§4.2: the sequence of basic blocks within a function, and the
// sequence of instructions within each block. Layout and Data are
// orthogonal (§4.2): removing an instruction from layout does not
// deallocate it, since Data's arena retains it in case a pass needs to
// rewrite incoming references.
type Layout struct {
	data *Data

	first, last *BasicBlock
	entry       BasicBlockID
}

// NewLayout returns an empty Layout backed by data.
func NewLayout(data *Data) *Layout {
	return &Layout{data: data}
}

// AppendBlock appends a new, empty basic block to the function and
// returns its id. The first block ever appended becomes the entry block
// (§4.2 "The entry block is the first block inserted").
func (l *Layout) AppendBlock() BasicBlockID {
	id := l.data.CreateBasicBlock()
	blk := l.data.BlockRef(id)
	if l.first == nil {
		l.first = blk
		l.entry = id
	} else {
		l.last.blockNext = blk
		blk.blockPrev = l.last
	}
	l.last = blk
	return id
}

// EntryBlock returns the id of the function's entry block.
func (l *Layout) EntryBlock() BasicBlockID { return l.entry }

// RemoveBlock removes blk from the block-order list. The block's
// instructions, if any, must already have been removed by the caller;
// this only unlinks the block itself and marks it invalid (§3
// "Lifecycle": logical deletion only).
func (l *Layout) RemoveBlock(id BasicBlockID) {
	blk := l.data.BlockRef(id)
	if blk.blockPrev != nil {
		blk.blockPrev.blockNext = blk.blockNext
	} else {
		l.first = blk.blockNext
	}
	if blk.blockNext != nil {
		blk.blockNext.blockPrev = blk.blockPrev
	} else {
		l.last = blk.blockPrev
	}
	blk.invalid = true
}

// BlockIter returns the blocks in layout order, first to last.
func (l *Layout) BlockIter() []BasicBlockID {
	var out []BasicBlockID
	for b := l.first; b != nil; b = b.blockNext {
		out = append(out, b.id)
	}
	return out
}

// InsertInstAtStart inserts inst at the head of block's instruction list.
// Used by mem2reg to place φ-instructions (§4.5.4: "create a φ-instruction
// at the block head").
func (l *Layout) InsertInstAtStart(instID InstID, blockID BasicBlockID) {
	blk := l.data.BlockRef(blockID)
	inst := l.data.InstRef(instID)
	inst.parent = blockID
	inst.next = blk.instRoot
	inst.prev = nil
	if blk.instRoot != nil {
		blk.instRoot.prev = inst
	} else {
		blk.instTail = inst
	}
	blk.instRoot = inst
}

// AppendInst appends inst to the tail of block's instruction list, and —
// for branching opcodes — records the predecessor/successor edge this
// terminator creates (§3 invariant 3).
func (l *Layout) AppendInst(instID InstID, blockID BasicBlockID) {
	blk := l.data.BlockRef(blockID)
	inst := l.data.InstRef(instID)
	inst.parent = blockID
	inst.prev = blk.instTail
	inst.next = nil
	if blk.instTail != nil {
		blk.instTail.next = inst
	} else {
		blk.instRoot = inst
	}
	blk.instTail = inst

	l.recordEdges(blockID, inst)
}

// InsertInstBefore inserts inst immediately before mark in mark's block.
func (l *Layout) InsertInstBefore(instID, mark InstID) {
	markInst := l.data.InstRef(mark)
	blk := l.data.BlockRef(markInst.parent)
	inst := l.data.InstRef(instID)
	inst.parent = markInst.parent
	inst.prev = markInst.prev
	inst.next = markInst
	if markInst.prev != nil {
		markInst.prev.next = inst
	} else {
		blk.instRoot = inst
	}
	markInst.prev = inst
}

// InsertInstAfter inserts inst immediately after mark in mark's block.
func (l *Layout) InsertInstAfter(instID, mark InstID) {
	markInst := l.data.InstRef(mark)
	blk := l.data.BlockRef(markInst.parent)
	inst := l.data.InstRef(instID)
	inst.parent = markInst.parent
	inst.next = markInst.next
	inst.prev = markInst
	if markInst.next != nil {
		markInst.next.prev = inst
	} else {
		blk.instTail = inst
	}
	markInst.next = inst
}

// RemoveInstFromLayout unlinks inst from its block's instruction list.
// The arena slot is untouched (§4.2 "removing an instruction from layout
// does not deallocate it").
func (l *Layout) RemoveInstFromLayout(instID InstID) {
	inst := l.data.InstRef(instID)
	blk := l.data.BlockRef(inst.parent)
	if inst.prev != nil {
		inst.prev.next = inst.next
	} else {
		blk.instRoot = inst.next
	}
	if inst.next != nil {
		inst.next.prev = inst.prev
	} else {
		blk.instTail = inst.prev
	}

	if inst.opcode.IsTerminator() {
		l.removeEdges(inst.parent, inst)
	}

	inst.prev, inst.next = nil, nil
	inst.removed = true
}

// InstIter returns blockID's instructions in layout order, first to last.
func (l *Layout) InstIter(blockID BasicBlockID) []InstID {
	blk := l.data.BlockRef(blockID)
	var out []InstID
	for i := blk.instRoot; i != nil; i = i.next {
		out = append(out, i.id)
	}
	return out
}

// recordEdges adds the predecessor/successor edge(s) a freshly-appended
// terminator creates (§3 invariant 3: "preds(B) == {A : A's terminator
// branches to B}").
func (l *Layout) recordEdges(from BasicBlockID, inst *Instruction) {
	fromBlk := l.data.BlockRef(from)
	switch op := inst.Operand().(type) {
	case *BrOperand:
		l.addEdge(fromBlk, op.Target)
	case *CondBrOperand:
		l.addEdge(fromBlk, op.ThenBlock)
		l.addEdge(fromBlk, op.ElseBlock)
	}
}

func (l *Layout) addEdge(from *BasicBlock, to BasicBlockID) {
	toBlk := l.data.BlockRef(to)
	from.addSucc(to)
	toBlk.addPred(from.id)
}

func (l *Layout) removeEdges(from BasicBlockID, inst *Instruction) {
	fromBlk := l.data.BlockRef(from)
	switch op := inst.Operand().(type) {
	case *BrOperand:
		l.removeEdge(fromBlk, op.Target)
	case *CondBrOperand:
		l.removeEdge(fromBlk, op.ThenBlock)
		l.removeEdge(fromBlk, op.ElseBlock)
	}
}

func (l *Layout) removeEdge(from *BasicBlock, to BasicBlockID) {
	toBlk := l.data.BlockRef(to)
	from.removeSucc(to)
	toBlk.removePred(from.id)
}
