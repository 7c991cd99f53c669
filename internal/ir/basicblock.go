package ir

// BasicBlock is one basic block of a Function (§3). Predecessor and
// successor sets are maintained invariants (§3 invariant 3): they are
// never recomputed on demand, only kept in sync as terminators are
// inserted and removed.
type BasicBlock struct {
	id BasicBlockID

	preds []BasicBlockID
	succs []BasicBlockID

	// instRoot/instTail are the head and tail of this block's
	// instruction-order list (§4.2). Individual instructions thread the
	// list via their own prev/next fields.
	instRoot, instTail *Instruction

	// blockPrev/blockNext thread this block into the function's
	// block-order list (§4.2). Owned by Layout.
	blockPrev, blockNext *BasicBlock

	// invalid marks a block removed from layout; the arena slot is kept
	// (§3 "Lifecycle": logical deletion, never a physical free).
	invalid bool
}

// ID returns this block's stable identifier.
func (b *BasicBlock) ID() BasicBlockID { return b.id }

// Preds returns the ids of this block's predecessors, in the order their
// incoming edges were added. A φ's operand i must correspond to Preds()[i]
// (§4.5.4).
func (b *BasicBlock) Preds() []BasicBlockID { return b.preds }

// Succs returns the ids of this block's successors.
func (b *BasicBlock) Succs() []BasicBlockID { return b.succs }

// NumPreds is len(Preds()).
func (b *BasicBlock) NumPreds() int { return len(b.preds) }

// Root returns the first instruction in this block's layout, or nil if
// empty.
func (b *BasicBlock) Root() *Instruction { return b.instRoot }

// Tail returns the last instruction in this block's layout, or nil if
// empty.
func (b *BasicBlock) Tail() *Instruction { return b.instTail }

// Valid reports whether this block is still present in layout.
func (b *BasicBlock) Valid() bool { return !b.invalid }

func (b *BasicBlock) reset() {
	*b = BasicBlock{}
}

func (b *BasicBlock) hasPred(id BasicBlockID) bool {
	for _, p := range b.preds {
		if p == id {
			return true
		}
	}
	return false
}

func (b *BasicBlock) addPred(id BasicBlockID) {
	if !b.hasPred(id) {
		b.preds = append(b.preds, id)
	}
}

func (b *BasicBlock) removePred(id BasicBlockID) {
	for i, p := range b.preds {
		if p == id {
			b.preds = append(b.preds[:i], b.preds[i+1:]...)
			return
		}
	}
}

func (b *BasicBlock) hasSucc(id BasicBlockID) bool {
	for _, s := range b.succs {
		if s == id {
			return true
		}
	}
	return false
}

func (b *BasicBlock) addSucc(id BasicBlockID) {
	if !b.hasSucc(id) {
		b.succs = append(b.succs, id)
	}
}

func (b *BasicBlock) removeSucc(id BasicBlockID) {
	for i, s := range b.succs {
		if s == id {
			b.succs = append(b.succs[:i], b.succs[i+1:]...)
			return
		}
	}
}
