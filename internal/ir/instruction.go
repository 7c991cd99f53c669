package ir

// Instruction is one IR instruction (§3). Its identity (id) is assigned
// once by Data.CreateInstruction and never changes; its parent and
// operand payload can be rewritten in place by passes.
type Instruction struct {
	id      InstID
	parent  BasicBlockID
	opcode  Opcode
	operand Operand

	// result is this instruction's own produced Value (ValueIDInvalid if
	// Opcode().HasResult() is false).
	result ValueID

	// users is the set of instruction ids that reference this
	// instruction's produced value (§3 "users set"; §4.1 invariant 2).
	// A map is used instead of a bitset here because, unlike the
	// basic-block-id sets mem2reg walks by dominator level (where
	// bitset.BitSet is used, see mem2reg.go), users sets are mutated
	// one id at a time from arbitrary instruction-creation order and are
	// iterated far more often than they are bulk-unioned.
	users map[InstID]struct{}

	// prev/next implement the intrusive instruction-order list a block's
	// Layout threads through (§4.2).
	prev, next *Instruction

	// removed marks an instruction logically deleted from layout (§3
	// "Lifecycle"): the arena slot stays allocated and resolvable, but
	// the instruction no longer participates in use-list validation or
	// layout iteration.
	removed bool
}

// ID returns this instruction's stable identifier.
func (i *Instruction) ID() InstID { return i.id }

// Parent returns the basic block this instruction currently resides in
// (§3 invariant 4: kept in sync by Layout on every insert/remove).
func (i *Instruction) Parent() BasicBlockID { return i.parent }

// Opcode returns this instruction's opcode.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Operand returns this instruction's operand payload.
func (i *Instruction) Operand() Operand { return i.operand }

// Result returns the ValueID this instruction produces. Only valid when
// Opcode().HasResult() is true.
func (i *Instruction) Result() ValueID { return i.result }

// Users returns the set of instruction ids referencing this instruction's
// result. Callers must not retain the returned map across a further Data
// mutation (§5 "Lookups that return references are read-only").
func (i *Instruction) Users() map[InstID]struct{} { return i.users }

// NumUsers returns len(Users()) without allocating an iteration.
func (i *Instruction) NumUsers() int { return len(i.users) }

// Next returns the next instruction in layout order, or nil at the
// block's tail.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the previous instruction in layout order, or nil at the
// block's head.
func (i *Instruction) Prev() *Instruction { return i.prev }

// Removed reports whether this instruction has been logically deleted
// from layout.
func (i *Instruction) Removed() bool { return i.removed }

func (i *Instruction) reset() {
	*i = Instruction{}
}

func (i *Instruction) addUser(user InstID) {
	if i.users == nil {
		i.users = make(map[InstID]struct{})
	}
	i.users[user] = struct{}{}
}

func (i *Instruction) removeUser(user InstID) {
	delete(i.users, user)
}
