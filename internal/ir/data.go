package ir

// Data is the arena store described in §4.1: it allocates values,
// instructions, and basic blocks, vends their stable identifiers, and
// maintains the use-list invariant across mutation. Every cross-entity
// reference in the IR is a Data-resolvable id, never a pointer (§3
// "Ownership"): this is what lets use–def and def–use form cycles
// without cyclic ownership.
type Data struct {
	values       Pool[Value]
	instructions Pool[Instruction]
	blocks       Pool[BasicBlock]
}

// NewData returns an empty arena store.
func NewData() *Data {
	return &Data{
		values:       NewPool[Value](),
		instructions: NewPool[Instruction](),
		blocks:       NewPool[BasicBlock](),
	}
}

// CreateValue interns v and returns its id.
func (d *Data) CreateValue(v Value) ValueID {
	id, slot := d.values.AllocateID()
	*slot = v
	return ValueID(id)
}

// ValueRef resolves id to its Value. Panics (a Programmer-class bug, §7)
// if id is stale; arenas never free, so a valid id is always live.
func (d *Data) ValueRef(id ValueID) Value {
	if id == ValueIDInvalid || int(id) >= d.values.Allocated() {
		bugf("stale ValueID %d", id)
	}
	return *d.values.View(int(id))
}

// CreateBasicBlock allocates a new, empty basic block.
func (d *Data) CreateBasicBlock() BasicBlockID {
	id, blk := d.blocks.AllocateID()
	blk.id = BasicBlockID(id)
	return BasicBlockID(id)
}

// BlockRef resolves id to its BasicBlock.
func (d *Data) BlockRef(id BasicBlockID) *BasicBlock {
	if id == BasicBlockIDInvalid || int(id) >= d.blocks.Allocated() {
		bugf("stale BasicBlockID %d", id)
	}
	return d.blocks.View(int(id))
}

// CreateInstruction allocates a new instruction with the given opcode and
// operand, assigns its id, creates its result Value if HasResult, and —
// per §4.1 "Create-instruction" — scans the operand payload for value
// operands that resolve to an Instruction producer, inserting the new
// instruction's id into each such producer's users set.
func (d *Data) CreateInstruction(opcode Opcode, operand Operand) InstID {
	reservedID, inst := d.instructions.AllocateID()
	id := InstID(reservedID)
	inst.id = id
	inst.opcode = opcode
	inst.operand = operand
	inst.result = ValueIDInvalid

	if opcode.HasResult() {
		// The result type is carried by the operand for opcodes that
		// need one explicitly (Alloca's pointee, IntBinary/ICmp/Cast's
		// Ty/ToTy); lowering and mem2reg look the type up from there
		// rather than from the Value, keeping Value itself free of a
		// redundant type field for instruction-kind values.
		inst.result = d.CreateValue(InstructionValue(id))
	}

	d.scanAndAddUses(inst)
	return id
}

// InstRef resolves id to its Instruction.
func (d *Data) InstRef(id InstID) *Instruction {
	if id == InstIDInvalid || int(id) >= d.instructions.Allocated() {
		bugf("stale InstID %d", id)
	}
	return d.instructions.View(int(id))
}

// producerOf reports whether id names a value produced by an
// instruction, returning that instruction's id.
func (d *Data) producerOf(id ValueID) (InstID, bool) {
	if id == ValueIDInvalid {
		return InstIDInvalid, false
	}
	v := d.ValueRef(id)
	if v.Kind() != ValueKindInstruction {
		return InstIDInvalid, false
	}
	return v.AsInstruction(), true
}

// scanAndAddUses records `inst` as a user of every instruction-kind
// producer among its value operands.
func (d *Data) scanAndAddUses(inst *Instruction) {
	if inst.operand == nil {
		return
	}
	for _, slot := range inst.operand.ValueOperands() {
		if producer, ok := d.producerOf(*slot); ok {
			d.InstRef(producer).addUser(inst.id)
		}
	}
}

// AddUse records userID as a user of valueID's producer, if valueID is
// an instruction-kind value. Passes that append an operand slot outside
// of CreateInstruction — mem2reg renaming's φ-operand append (§4.5.4) is
// the only one — must call this themselves, since CreateInstruction's
// own use-scan only ever sees the operand shape as it stood at creation.
func (d *Data) AddUse(userID InstID, valueID ValueID) {
	if producer, ok := d.producerOf(valueID); ok {
		d.InstRef(producer).addUser(userID)
	}
}

// RemoveUses removes instID from the users set of every instruction-kind
// producer it references (§4.1 "Remove-uses"). It does not touch layout
// or the instruction's own users (callers that are removing the
// instruction outright are expected to have already migrated its users
// via ReplaceInstArg/ReplaceAllUses).
func (d *Data) RemoveUses(instID InstID) {
	inst := d.InstRef(instID)
	if inst.operand == nil {
		return
	}
	for _, slot := range inst.operand.ValueOperands() {
		if producer, ok := d.producerOf(*slot); ok {
			d.InstRef(producer).removeUser(instID)
		}
	}
}

// ReplaceInstArg walks userID's operand payload substituting any value
// operand that resolves to producer oldProducer with newValue, and
// updates the users sets of the old and new producers accordingly (§4.1
// "Replace-instruction-argument").
func (d *Data) ReplaceInstArg(userID InstID, oldProducer InstID, newValue ValueID) {
	user := d.InstRef(userID)
	if user.operand == nil {
		return
	}
	replaced := false
	for _, slot := range user.operand.ValueOperands() {
		if producer, ok := d.producerOf(*slot); ok && producer == oldProducer {
			*slot = newValue
			replaced = true
		}
	}
	if !replaced {
		return
	}
	d.InstRef(oldProducer).removeUser(userID)
	if producer, ok := d.producerOf(newValue); ok {
		d.InstRef(producer).addUser(userID)
	}
	if UseListValidationEnabled {
		d.ValidateInstUses(userID)
	}
}

// ReplaceAllUses rewrites every current user of oldID's result to
// reference newValue instead, and removes oldID's users set in the
// process (equivalent to calling ReplaceInstArg(user, oldID, newValue)
// for every user, but done in one pass so the users map isn't mutated
// while being ranged over from the caller's side).
func (d *Data) ReplaceAllUses(oldID InstID, newValue ValueID) {
	old := d.InstRef(oldID)
	users := make([]InstID, 0, len(old.users))
	for u := range old.users {
		users = append(users, u)
	}
	for _, u := range users {
		d.ReplaceInstArg(u, oldID, newValue)
	}
}

// ValidateInstUses recomputes and asserts the users-set consistency for
// instID's operands (§4.1 "Validate-inst-uses"); used after bulk operand
// rewrites such as φ-operand appends in mem2reg renaming. Panics (a
// Programmer-class bug) on mismatch.
func (d *Data) ValidateInstUses(instID InstID) {
	inst := d.InstRef(instID)
	if inst.operand == nil {
		return
	}
	for _, slot := range inst.operand.ValueOperands() {
		producer, ok := d.producerOf(*slot)
		if !ok {
			continue
		}
		if _, ok := d.InstRef(producer).users[instID]; !ok {
			bugf("use-list invariant violated: %d uses %d but is not in its users set", instID, producer)
		}
	}
}

// ValidateAllUses walks every live instruction and asserts the use-list
// invariant (§8 "Use-list consistency"). Intended for tests and for the
// validation gated behind UseListValidationEnabled.
func (d *Data) ValidateAllUses() {
	for i := 1; i < d.instructions.Allocated(); i++ {
		inst := d.instructions.View(i)
		if inst.id == InstIDInvalid || inst.removed {
			continue // reset/never-used slot, or logically deleted
		}
		d.ValidateInstUses(inst.id)
	}
}
