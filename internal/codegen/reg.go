// Package codegen is the target-parameterized instruction-lowering
// framework (§4.6/§4.7): a core driver that walks a Function's layout
// once and hands each instruction to a target's Lower implementation,
// plus the small set of machine-level building blocks (virtual and
// physical registers, tagged-sum operands) every target shares.
//
// The generic parameter threaded through LoweringContext/Lower/
// Instruction is the target's own Opcode type, mirroring the original's
// Lower<Isa>/LoweringContext<Isa> split: MIPS32 and x86-64 each define
// their own opcode set and register file under codegen/isa/, and never
// share a machine Opcode enum with each other.
package codegen

// RegClass identifies a register file partition (e.g. x86-64's GR32
// vs GR64, or MIPS32's single flat GR class). Each target assigns its
// own small integer constants.
type RegClass byte

// Reg names one physical register: its class and index within that
// class (ported from the original's `Reg(RegClass, u16)` tuple in
// isa::x86_64::register).
type Reg struct {
	Class RegClass
	Index uint8
}

// RegUnit names a register for allocation-conflict purposes. It is
// coarser than Reg when a target's register classes alias the same
// physical storage at different widths — x86-64's GR32 and GR64 both
// resolve to the same RegUnit, ported from `impl From<GR32> for RegUnit`
// in isa::x86_64::register, which maps a 32-bit reg onto its owning
// 64-bit unit.
type RegUnit struct {
	Class RegClass
	Index uint8
}

// VReg is a bit-packed virtual register identifier handed out during
// lowering, before register allocation assigns it a Reg. The class
// occupies the high byte and the index the low 24 bits, the same
// high-bits-carry-the-class layout the teacher's regalloc.VReg uses
// (there: RegType in bits 40-47 of a uint64; here scaled down to a
// uint32 since this framework has no real-register pre-coloring to
// reserve extra bits for).
type VReg uint32

// VRegInvalid never names a live virtual register.
const VRegInvalid VReg = 0

// NewVReg packs class and index into a VReg. Index 0 is reserved so
// VRegInvalid's zero value never aliases a real index; callers allocate
// through LoweringContext.NewVReg, which starts indices at 1.
func NewVReg(class RegClass, index uint32) VReg {
	return VReg(uint32(class)<<24 | (index & 0x00ff_ffff))
}

// Class returns the register class this virtual register was allocated
// for.
func (v VReg) Class() RegClass { return RegClass(v >> 24) }

// Index returns this virtual register's index within its class.
func (v VReg) Index() uint32 { return uint32(v) & 0x00ff_ffff }

// Valid reports whether v names a real virtual register.
func (v VReg) Valid() bool { return v != VRegInvalid }

// RegisterClass is a target's register-class surface (ported from
// isa::x86_64::register's RegisterClass trait): it enumerates the
// general-purpose registers available in the class and can narrow a
// RegUnit down to a Reg of this specific class.
type RegisterClass interface {
	GPRList() []Reg
	ApplyFor(ru RegUnit) Reg
}
