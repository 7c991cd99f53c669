// Package mem2reg promotes promotable alloca/load/store slots to SSA
// values (§4.5), inserting φ-instructions at join points where the
// dominance structure of the function requires them.
package mem2reg

import (
	"container/heap"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/clown-team/vicis/internal/ir"
)

// Run promotes every promotable alloca in fn. It rebuilds fn's dominator
// tree once up front; callers that need the tree afterward (e.g. to
// validate the post-condition) should rebuild it, since mem2reg mutates
// the CFG by removing dead loads/stores (never edges, but instruction
// content changes enough that a stale tree should not be trusted).
func Run(fn *ir.Function) {
	p := &promoter{
		fn:   fn,
		dom:  ir.BuildDominatorTree(fn),
		idx:  newInstructionIndexes(),
	}
	p.run()
}

type promoter struct {
	fn  *ir.Function
	dom *ir.DominatorTree
	idx *instructionIndexes
}

func (p *promoter) run() {
	var singleStore, singleBlock, multiBlock []ir.InstID

	for _, blockID := range p.fn.Layout.BlockIter() {
		for _, instID := range p.fn.Layout.InstIter(blockID) {
			inst := p.fn.Data.InstRef(instID)
			if !inst.Opcode().IsAlloca() {
				continue
			}
			if !p.isPromotable(instID) {
				continue
			}
			switch {
			case p.isStoredOnlyOnce(instID):
				singleStore = append(singleStore, instID)
			case p.isOnlyUsedInSingleBlock(instID):
				singleBlock = append(singleBlock, instID)
			default:
				multiBlock = append(multiBlock, instID)
			}
		}
	}

	for _, alloca := range singleStore {
		p.promoteSingleStore(alloca)
	}
	for _, alloca := range singleBlock {
		p.promoteSingleBlock(alloca)
	}

	phiBlockToAllocas := make(map[ir.BasicBlockID][]ir.InstID)
	for _, alloca := range multiBlock {
		p.promoteMultiBlock(alloca, phiBlockToAllocas)
	}
	p.rename(multiBlock, phiBlockToAllocas)

	if ir.Mem2RegValidationEnabled {
		p.fn.Data.ValidateAllUses()
	}
}

// isPromotable implements §4.5 "Promotability": the alloca's type is
// atomic and every user is a Load from it or a Store to it.
func (p *promoter) isPromotable(allocaID ir.InstID) bool {
	alloca := p.fn.Data.InstRef(allocaID)
	ty := alloca.Operand().(*ir.AllocaOperand).Ty
	if !p.fn.Types.IsAtomic(ty) {
		return false
	}
	for userID := range alloca.Users() {
		user := p.fn.Data.InstRef(userID)
		switch op := user.Operand().(type) {
		case *ir.LoadOperand:
			if !sameProducer(p.fn, op.Addr, allocaID) {
				return false
			}
		case *ir.StoreOperand:
			if !sameProducer(p.fn, op.Dst, allocaID) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sameProducer(fn *ir.Function, id ir.ValueID, want ir.InstID) bool {
	v := fn.Data.ValueRef(id)
	return v.Kind() == ir.ValueKindInstruction && v.AsInstruction() == want
}

func (p *promoter) isStoredOnlyOnce(allocaID ir.InstID) bool {
	alloca := p.fn.Data.InstRef(allocaID)
	n := 0
	for userID := range alloca.Users() {
		if p.fn.Data.InstRef(userID).Opcode().IsStore() {
			n++
		}
	}
	return n == 1
}

func (p *promoter) isOnlyUsedInSingleBlock(allocaID ir.InstID) bool {
	alloca := p.fn.Data.InstRef(allocaID)
	seen := false
	var parent ir.BasicBlockID
	for userID := range alloca.Users() {
		user := p.fn.Data.InstRef(userID)
		if !seen {
			parent, seen = user.Parent(), true
			continue
		}
		if user.Parent() != parent {
			return false
		}
	}
	return true
}

// promoteSingleStore implements §4.5.1.
func (p *promoter) promoteSingleStore(allocaID ir.InstID) {
	alloca := p.fn.Data.InstRef(allocaID)

	var src ir.ValueID
	var storeID ir.InstID
	var loads []ir.InstID
	for userID := range alloca.Users() {
		user := p.fn.Data.InstRef(userID)
		switch op := user.Operand().(type) {
		case *ir.LoadOperand:
			loads = append(loads, userID)
		case *ir.StoreOperand:
			src, storeID = op.Src, userID
		}
	}

	storeIdx := p.idx.get(p.fn, storeID)
	store := p.fn.Data.InstRef(storeID)

	removeAllLoads := true
	var loadsToRemove []ir.InstID
	for _, loadID := range loads {
		load := p.fn.Data.InstRef(loadID)
		var valid bool
		if load.Parent() == store.Parent() {
			valid = storeIdx < p.idx.get(p.fn, loadID)
		} else {
			valid = p.dom.Dominates(store.Parent(), load.Parent())
		}
		if valid {
			loadsToRemove = append(loadsToRemove, loadID)
		} else {
			removeAllLoads = false
		}
	}

	if removeAllLoads {
		p.fn.RemoveInst(storeID)
		p.fn.RemoveInst(allocaID)
	}

	for _, loadID := range loadsToRemove {
		p.fn.Data.ReplaceAllUses(loadID, src)
		p.fn.RemoveInst(loadID)
	}
}

type storeAt struct {
	id  ir.InstID
	idx int
}

// promoteSingleBlock implements §4.5.2.
func (p *promoter) promoteSingleBlock(allocaID ir.InstID) {
	alloca := p.fn.Data.InstRef(allocaID)

	var stores []storeAt
	var loads []ir.InstID
	for userID := range alloca.Users() {
		user := p.fn.Data.InstRef(userID)
		if user.Opcode().IsStore() {
			stores = append(stores, storeAt{userID, p.idx.get(p.fn, userID)})
		} else {
			loads = append(loads, userID)
		}
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].idx < stores[j].idx })

	allocaTy := alloca.Operand().(*ir.AllocaOperand).Ty

	for _, loadID := range loads {
		loadIdx := p.idx.get(p.fn, loadID)
		var src ir.ValueID
		if nearest, ok := findNearestStore(stores, loadIdx); ok {
			src = p.fn.Data.InstRef(nearest).Operand().(*ir.StoreOperand).Src
		} else {
			// No store precedes this load (§8 "alloca with loads but
			// no stores" — or a load reading before the block's first
			// store): the value is undefined.
			src = p.fn.Data.CreateValue(ir.UndefValue(allocaTy))
		}
		p.fn.Data.ReplaceAllUses(loadID, src)
		p.fn.RemoveInst(loadID)
	}

	// Every store to this alloca is dead once the slot itself is gone,
	// whether or not any load ever read it back (§8 "alloca with zero
	// loads: removed along with its store(s)").
	p.fn.RemoveInst(allocaID)
	for _, s := range stores {
		p.fn.RemoveInst(s.id)
	}
}

// findNearestStore binary-searches stores (sorted by idx ascending) for
// the closest store strictly before loadIdx.
func findNearestStore(stores []storeAt, loadIdx int) (ir.InstID, bool) {
	i := sort.Search(len(stores), func(i int) bool { return stores[i].idx >= loadIdx })
	if i == 0 {
		return ir.InstIDInvalid, false
	}
	return stores[i-1].id, true
}

// blockLevelQueue is a max-heap of blocks keyed by dominator-tree level,
// driving the Sreedhar-Gao-style φ-placement of §4.5.3.
type blockLevelQueue []blockLevel

type blockLevel struct {
	level int
	block ir.BasicBlockID
}

func (q blockLevelQueue) Len() int            { return len(q) }
func (q blockLevelQueue) Less(i, j int) bool  { return q[i].level > q[j].level }
func (q blockLevelQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *blockLevelQueue) Push(x interface{}) { *q = append(*q, x.(blockLevel)) }
func (q *blockLevelQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// promoteMultiBlock implements §4.5.3: compute the iterated dominance
// frontier of alloca's defining blocks and record a φ-site for alloca at
// every live-in frontier block.
func (p *promoter) promoteMultiBlock(allocaID ir.InstID, phiBlockToAllocas map[ir.BasicBlockID][]ir.InstID) {
	alloca := p.fn.Data.InstRef(allocaID)

	var defBlocks, useBlocks []ir.BasicBlockID
	defBlockSet := make(map[ir.BasicBlockID]bool)
	for userID := range alloca.Users() {
		user := p.fn.Data.InstRef(userID)
		if user.Opcode().IsStore() {
			defBlocks = append(defBlocks, user.Parent())
			defBlockSet[user.Parent()] = true
		} else {
			useBlocks = append(useBlocks, user.Parent())
		}
	}

	liveinBlocks := make(map[ir.BasicBlockID]bool)
	worklist := append([]ir.BasicBlockID(nil), useBlocks...)
	for len(worklist) > 0 {
		n := len(worklist) - 1
		block := worklist[n]
		worklist = worklist[:n]
		if liveinBlocks[block] {
			continue
		}
		liveinBlocks[block] = true
		for _, pred := range p.fn.Data.BlockRef(block).Preds() {
			if defBlockSet[pred] {
				continue
			}
			worklist = append(worklist, pred)
		}
	}

	queue := &blockLevelQueue{}
	heap.Init(queue)
	for _, def := range defBlocks {
		heap.Push(queue, blockLevel{p.dom.LevelOf(def), def})
	}

	visitedWorklist := bitset.New(0)
	visitedQueue := bitset.New(0)

	for queue.Len() > 0 {
		root := heap.Pop(queue).(blockLevel)

		var dfsStack []ir.BasicBlockID
		dfsStack = append(dfsStack, root.block)
		visitedWorklist.Set(uint(root.block))

		for len(dfsStack) > 0 {
			n := len(dfsStack) - 1
			blockID := dfsStack[n]
			dfsStack = dfsStack[:n]
			block := p.fn.Data.BlockRef(blockID)

			for _, succID := range block.Succs() {
				succLevel := p.dom.LevelOf(succID)
				if succLevel > root.level {
					continue
				}
				if visitedQueue.Test(uint(succID)) {
					continue
				}
				visitedQueue.Set(uint(succID))
				if !liveinBlocks[succID] {
					continue
				}

				phiBlockToAllocas[succID] = append(phiBlockToAllocas[succID], allocaID)

				if !defBlockSet[succID] {
					heap.Push(queue, blockLevel{succLevel, succID})
				}
			}

			for _, child := range p.dom.ChildrenOf(blockID) {
				if !visitedWorklist.Test(uint(child)) {
					visitedWorklist.Set(uint(child))
					dfsStack = append(dfsStack, child)
				}
			}
		}
	}
}

// renameInfo is one frame of the work-queue renaming traversal of
// §4.5.4. incoming is cloned on successor fan-out so each path carries
// its own view of the reaching definitions.
type renameInfo struct {
	cur            ir.BasicBlockID
	pred           ir.BasicBlockID
	hasPred        bool
	incoming       map[ir.InstID]ir.ValueID
	incomingUpdated bool
}

// rename implements §4.5.4. The asymmetric visited-check — φ-operand
// append runs on every predecessor arrival, the instruction walk only on
// the first — is load-bearing: see the open question in the design
// notes this is grounded on.
func (p *promoter) rename(allocaIDs []ir.InstID, phiBlockToAllocas map[ir.BasicBlockID][]ir.InstID) {
	isPromoted := make(map[ir.InstID]bool, len(allocaIDs))
	for _, id := range allocaIDs {
		isPromoted[id] = true
	}

	entry := p.fn.Layout.EntryBlock()
	visited := make(map[ir.BasicBlockID]bool)
	type phiKey struct {
		block  ir.BasicBlockID
		alloca ir.InstID
	}
	addedPhi := make(map[phiKey]ir.InstID)

	worklist := []renameInfo{{cur: entry, incoming: make(map[ir.InstID]ir.ValueID)}}

	for len(worklist) > 0 {
		n := len(worklist) - 1
		info := worklist[n]
		worklist = worklist[:n]

		for {
			for _, allocaID := range phiBlockToAllocas[info.cur] {
				key := phiKey{info.cur, allocaID}
				if phiID, ok := addedPhi[key]; ok {
					if _, ok := info.incoming[allocaID]; !ok {
						allocaTy := p.fn.Data.InstRef(allocaID).Operand().(*ir.AllocaOperand).Ty
						info.incoming[allocaID] = p.fn.Data.CreateValue(ir.UndefValue(allocaTy))
					}

					phiInst := p.fn.Data.InstRef(phiID)
					phi := phiInst.Operand().(*ir.PhiOperand)
					phi.AppendIncoming(info.incoming[allocaID], info.pred)
					p.fn.Data.AddUse(phiID, info.incoming[allocaID])
					if ir.UseListValidationEnabled {
						p.fn.Data.ValidateInstUses(phiID)
					}

					info.incoming[allocaID] = phiInst.Result()
					info.incomingUpdated = true
				} else {
					if _, ok := info.incoming[allocaID]; !ok {
						allocaTy := p.fn.Data.InstRef(allocaID).Operand().(*ir.AllocaOperand).Ty
						info.incoming[allocaID] = p.fn.Data.CreateValue(ir.UndefValue(allocaTy))
					}
					allocaTy := p.fn.Data.InstRef(allocaID).Operand().(*ir.AllocaOperand).Ty

					phiID := p.fn.Data.CreateInstruction(ir.OpcodePhi, &ir.PhiOperand{
						Ty:     allocaTy,
						Args:   []ir.ValueID{info.incoming[allocaID]},
						Blocks: []ir.BasicBlockID{info.pred},
					})
					p.fn.Layout.InsertInstAtStart(phiID, info.cur)
					addedPhi[key] = phiID

					info.incoming[allocaID] = p.fn.Data.InstRef(phiID).Result()
					info.incomingUpdated = true
				}
			}

			if visited[info.cur] {
				break
			}
			visited[info.cur] = true

			var removalList []ir.InstID
			for _, instID := range p.fn.Layout.InstIter(info.cur) {
				inst := p.fn.Data.InstRef(instID)
				var allocaID ir.InstID
				var isStore bool
				switch op := inst.Operand().(type) {
				case *ir.StoreOperand:
					v := p.fn.Data.ValueRef(op.Dst)
					if v.Kind() != ir.ValueKindInstruction || !isPromoted[v.AsInstruction()] {
						continue
					}
					allocaID, isStore = v.AsInstruction(), true
				case *ir.LoadOperand:
					v := p.fn.Data.ValueRef(op.Addr)
					if v.Kind() != ir.ValueKindInstruction || !isPromoted[v.AsInstruction()] {
						continue
					}
					allocaID = v.AsInstruction()
				default:
					continue
				}

				if isStore {
					info.incoming[allocaID] = inst.Operand().(*ir.StoreOperand).Src
					info.incomingUpdated = true
				} else {
					val, ok := info.incoming[allocaID]
					if !ok {
						// No reaching store on this path (§8 "alloca
						// with loads but no stores"): undefined.
						allocaTy := p.fn.Data.InstRef(allocaID).Operand().(*ir.AllocaOperand).Ty
						val = p.fn.Data.CreateValue(ir.UndefValue(allocaTy))
						info.incoming[allocaID] = val
						info.incomingUpdated = true
					}
					p.fn.Data.ReplaceAllUses(instID, val)
				}
				removalList = append(removalList, instID)
			}

			for _, instID := range removalList {
				p.fn.RemoveInst(instID)
			}

			block := p.fn.Data.BlockRef(info.cur)
			succs := block.Succs()
			if len(succs) == 0 {
				break
			}

			info.pred, info.hasPred = info.cur, true
			info.cur = succs[0]
			for _, succ := range succs[1:] {
				worklist = append(worklist, renameInfo{
					cur:      succ,
					pred:     info.pred,
					hasPred:  true,
					incoming: cloneIncoming(info.incoming),
				})
			}
		}
	}

	for _, allocaID := range allocaIDs {
		p.fn.RemoveInst(allocaID)
	}
}

func cloneIncoming(m map[ir.InstID]ir.ValueID) map[ir.InstID]ir.ValueID {
	cp := make(map[ir.InstID]ir.ValueID, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// instructionIndexes lazily memoizes the position of store/load/alloca
// instructions within their block's layout order (§4.5.2, §4.5.1 need
// index comparisons; recomputing a full block scan per query would be
// quadratic in block size).
type instructionIndexes struct {
	idx map[ir.InstID]int
}

func newInstructionIndexes() *instructionIndexes {
	return &instructionIndexes{idx: make(map[ir.InstID]int)}
}

func (ii *instructionIndexes) get(fn *ir.Function, instID ir.InstID) int {
	if idx, ok := ii.idx[instID]; ok {
		return idx
	}
	parent := fn.Data.InstRef(instID).Parent()
	for i, id := range fn.Layout.InstIter(parent) {
		op := fn.Data.InstRef(id).Opcode()
		if op.IsStore() || op.IsLoad() || op.IsAlloca() {
			ii.idx[id] = i
		}
	}
	return ii.idx[instID]
}
