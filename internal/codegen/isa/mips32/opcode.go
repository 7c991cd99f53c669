package mips32

// Opcode is MIPS32's machine-instruction opcode, ported from the names
// referenced by isa::mips32::lower::lower/lower_return/set_reg_val
// (Opcode::ADDI, Opcode::JR), extended with the register-register and
// branch forms needed to cover IntBinary and Br lowering.
type Opcode byte

const (
	OpcodeInvalid Opcode = iota

	// ADDI rd, rs, imm — rd = rs + sign_extend(imm).
	OpcodeADDI
	// ADDU rd, rs, rt — rd = rs + rt.
	OpcodeADDU
	// SUBU rd, rs, rt — rd = rs - rt.
	OpcodeSUBU
	// MOVE is the canonical ADDU rd, rs, $zero pseudo-op, used to copy an
	// incoming argument register into a fresh virtual register.
	OpcodeMOVE
	// J target — unconditional jump.
	OpcodeJ
	// JR rs — jump to the address in rs (used for `ret`, jumping through
	// $ra).
	OpcodeJR
)

var opcodeNames = [...]string{
	"invalid", "addi", "addu", "subu", "move", "j", "jr",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return "unknown"
}
