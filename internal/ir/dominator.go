package ir

// DominatorTree answers dominance queries over one function's CFG as it
// stood when Build was called (§4.4). It is a query surface with no
// persistence: callers rebuild it after any pass that changes the CFG.
//
// The algorithm is Cooper, Harvey & Kennedy's "A Simple, Fast Dominance
// Algorithm" (https://www.cs.rice.edu/~keith/EMBED/dom.pdf), the same
// one the teacher's wazevo/ssa/pass_cfg.go implements; §4.4 explicitly
// leaves the choice of algorithm open ("semi-NCA or Lengauer-Tarjan both
// acceptable; only the interface and correctness matter").
type DominatorTree struct {
	// idom maps a reachable block to its immediate dominator; the entry
	// block maps to itself.
	idom map[BasicBlockID]BasicBlockID
	// rpoIndex maps a reachable block to its position in reverse
	// postorder, used by intersect.
	rpoIndex map[BasicBlockID]int
	level    map[BasicBlockID]int
	children map[BasicBlockID][]BasicBlockID
	entry    BasicBlockID
}

// BuildDominatorTree computes the dominator tree of f's current CFG
// (§4.4 "Built once per function from the current CFG"). Blocks
// unreachable from the entry are simply absent from the tree (§8
// "Unreachable blocks: ignored").
func BuildDominatorTree(f *Function) *DominatorTree {
	rpo := reversePostorder(f)

	t := &DominatorTree{
		idom:     make(map[BasicBlockID]BasicBlockID, len(rpo)),
		rpoIndex: make(map[BasicBlockID]int, len(rpo)),
		level:    make(map[BasicBlockID]int, len(rpo)),
		children: make(map[BasicBlockID][]BasicBlockID, len(rpo)),
		entry:    f.Layout.EntryBlock(),
	}
	for i, b := range rpo {
		t.rpoIndex[b] = i
	}

	if len(rpo) == 0 {
		return t
	}
	entry := rpo[0]
	t.idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			blk := f.Data.BlockRef(b)
			var newIdom BasicBlockID
			haveNewIdom := false
			for _, pred := range blk.Preds() {
				if _, ok := t.idom[pred]; !ok {
					continue // not yet processed (forward edge / unreachable)
				}
				if !haveNewIdom {
					newIdom, haveNewIdom = pred, true
					continue
				}
				newIdom = t.intersect(newIdom, pred)
			}
			if !haveNewIdom {
				continue
			}
			if cur, ok := t.idom[b]; !ok || cur != newIdom {
				t.idom[b] = newIdom
				changed = true
			}
		}
	}

	// Derive level and children from idom now that it's a fixed point. A
	// block's immediate dominator always precedes it in reverse
	// postorder, so a single forward pass over rpo suffices to compute
	// levels bottom-up from the already-computed parent level.
	t.level[entry] = 0
	for _, b := range rpo[1:] {
		parent, ok := t.idom[b]
		if !ok {
			continue
		}
		t.children[parent] = append(t.children[parent], b)
		t.level[b] = t.level[parent] + 1
	}

	return t
}

func (t *DominatorTree) intersect(a, b BasicBlockID) BasicBlockID {
	for a != b {
		for t.rpoIndex[a] > t.rpoIndex[b] {
			a = t.idom[a]
		}
		for t.rpoIndex[b] > t.rpoIndex[a] {
			b = t.idom[b]
		}
	}
	return a
}

// Dominates reports whether a dominates b: every path from entry to b
// passes through a (§4.4). A block trivially dominates itself.
func (t *DominatorTree) Dominates(a, b BasicBlockID) bool {
	if _, ok := t.idom[b]; !ok {
		return false // b unreachable
	}
	for {
		if a == b {
			return true
		}
		parent, ok := t.idom[b]
		if !ok || parent == b {
			return a == b
		}
		b = parent
	}
}

// LevelOf returns b's depth in the dominator tree (root = 0). Returns -1
// for an unreachable block.
func (t *DominatorTree) LevelOf(b BasicBlockID) int {
	lvl, ok := t.level[b]
	if !ok {
		return -1
	}
	return lvl
}

// ChildrenOf returns b's immediate-dominator children.
func (t *DominatorTree) ChildrenOf(b BasicBlockID) []BasicBlockID {
	return t.children[b]
}

// ImmediateDominator returns b's immediate dominator, or (0, false) if b
// is the entry or unreachable.
func (t *DominatorTree) ImmediateDominator(b BasicBlockID) (BasicBlockID, bool) {
	idom, ok := t.idom[b]
	if !ok || idom == b {
		return BasicBlockIDInvalid, false
	}
	return idom, true
}

// reversePostorder walks f's CFG from the entry block and returns blocks
// in reverse postorder, skipping anything unreachable. Successors are
// pushed onto the walk's stack in the order BasicBlock.Succs() lists them
// (the order the terminator's branches were laid out in), so the last
// listed successor is explored first — the same heuristic the
// teacher's pass_cfg.go documents for recovering a deterministic
// reverse-postorder without needing it threaded through the frontend.
func reversePostorder(f *Function) []BasicBlockID {
	entry := f.Layout.EntryBlock()
	if entry == BasicBlockIDInvalid {
		return nil
	}

	const unseen, seen, done = 0, 1, 2
	state := make(map[BasicBlockID]int)

	var postorder []BasicBlockID
	stack := []BasicBlockID{entry}
	state[entry] = seen
	for len(stack) > 0 {
		top := len(stack) - 1
		b := stack[top]
		stack = stack[:top]
		switch state[b] {
		case seen:
			stack = append(stack, b)
			state[b] = done
			blk := f.Data.BlockRef(b)
			for _, succ := range blk.Succs() {
				if state[succ] == unseen {
					state[succ] = seen
					stack = append(stack, succ)
				}
			}
		case done:
			postorder = append(postorder, b)
		}
	}

	for i, j := 0, len(postorder)-1; i < j; i, j = i+1, j-1 {
		postorder[i], postorder[j] = postorder[j], postorder[i]
	}
	return postorder
}
