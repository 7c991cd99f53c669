package ir

// Parameter is one formal parameter of a Function (§3).
type Parameter struct {
	Name  string
	Type  TypeID
	Attrs ParamAttrs
}

// ParamAttrs are optional attributes attached to a parameter. None are
// interpreted by the core; they exist so a frontend can round-trip ABI
// hints (e.g. "sret", "byval") through to the lowering framework's
// calling-convention resolution, which is an external collaborator (§6).
type ParamAttrs struct {
	NoAlias bool
	ByVal   bool
}

// Function is a single compiled function: it exclusively owns its Data
// arena and Layout (§3 "Ownership"), and carries its own TypeTable and
// parameter list.
type Function struct {
	Name   string
	Types  *TypeTable
	Data   *Data
	Layout *Layout
	Params []Parameter

	// Sig is this function's Signature, referenced by OpcodeCall sites
	// that call it and consulted by the lowering framework's calling
	// convention resolution (§4.6).
	Sig *Signature
}

// NewFunction creates an empty function ready for a Builder to populate.
func NewFunction(name string, params []Parameter, results []TypeID) *Function {
	types := NewTypeTable()
	data := NewData()
	fn := &Function{
		Name:   name,
		Types:  types,
		Data:   data,
		Layout: NewLayout(data),
		Params: params,
	}
	sig := &Signature{Results: results}
	for _, p := range params {
		sig.Params = append(sig.Params, p.Type)
	}
	fn.Sig = sig
	return fn
}

// RemoveInst logically deletes instID per §3 "Lifecycle": it removes the
// instruction from Layout, then removes its uses so every producer it
// referenced has instID scrubbed from its users set. The arena slot
// itself is left allocated and unreachable. This only makes instID
// forgettable as a *consumer*; it does not check or touch instID's own
// users set. mem2reg's single-store/single-block promotion relies on
// this: an alloca is removed while loads that still reference it are
// mid-removal themselves, so instID can briefly still be in another
// live instruction's operand list at the moment it is removed. Callers
// that need instID's own users migrated first should call
// Data.ReplaceAllUses before RemoveInst.
func (f *Function) RemoveInst(instID InstID) {
	f.Layout.RemoveInstFromLayout(instID)
	f.Data.RemoveUses(instID)
}

// ValidateCFG asserts §8 "CFG consistency": for every edge A -> B
// recorded by a terminator, B.Preds() contains A and A.Succs() contains
// B, and vice versa (no edges exist that the terminators don't account
// for). Panics on violation.
func (f *Function) ValidateCFG() {
	for _, blkID := range f.Layout.BlockIter() {
		blk := f.Data.BlockRef(blkID)
		for _, succID := range blk.Succs() {
			succ := f.Data.BlockRef(succID)
			if !succ.hasPred(blkID) {
				bugf("CFG invariant violated: %d -> %d recorded as succ but not as pred", blkID, succID)
			}
		}
		for _, predID := range blk.Preds() {
			pred := f.Data.BlockRef(predID)
			if !pred.hasSucc(blkID) {
				bugf("CFG invariant violated: %d -> %d recorded as pred but not as succ", predID, blkID)
			}
		}
	}
}

// ValidateLayoutParents asserts §8 "Layout/parent consistency":
// inst.Parent() == block iff inst is present in block's instruction
// list.
func (f *Function) ValidateLayoutParents() {
	for _, blkID := range f.Layout.BlockIter() {
		for _, instID := range f.Layout.InstIter(blkID) {
			inst := f.Data.InstRef(instID)
			if inst.Parent() != blkID {
				bugf("layout/parent invariant violated: inst %d parent=%d but found in block %d", instID, inst.Parent(), blkID)
			}
		}
	}
}
