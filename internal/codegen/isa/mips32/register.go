// Package mips32 is the MIPS32 (O32) target's lowering: a single flat
// general-purpose register class and an opcode set covering the
// instructions the spec's lowering scenarios exercise, ported from
// isa::mips32::lower in the original.
package mips32

import "github.com/clown-team/vicis/internal/codegen"

// GR is MIPS32's only register class: every general-purpose register is
// 32 bits wide, unlike x86-64's GR32/GR64 split (isa::x86_64::register),
// so there is no class-narrowing to do here.
type GR byte

const (
	ZERO GR = iota
	AT
	V0
	V1
	A0
	A1
	A2
	A3
	T0
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	S0
	S1
	S2
	S3
	S4
	S5
	S6
	S7
	T8
	T9
	K0
	K1
	GP
	SP
	FP
	RA
)

var grNames = [...]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

func (r GR) String() string { return grNames[r] }

// RegClassGR is MIPS32's only codegen.RegClass value.
const RegClassGR codegen.RegClass = 0

// Reg narrows r to a codegen.Reg.
func (r GR) Reg() codegen.Reg { return codegen.Reg{Class: RegClassGR, Index: uint8(r)} }

// RegUnit narrows r to a codegen.RegUnit (ported from
// `impl From<GR32> for RegUnit`; MIPS32 needs no width-aliasing since it
// has only one width).
func (r GR) RegUnit() codegen.RegUnit { return codegen.RegUnit{Class: RegClassGR, Index: uint8(r)} }

// ArgRegs is the O32 calling convention's integer argument register
// list (ported from the commented `RegInfo::arg_reg_list` call in
// isa::mips32::lower::Lower::copy_args_to_vregs, concretized to MIPS32's
// four argument registers since the original left the MIPS arm of
// RegisterInfo::arg_reg_list unimplemented — `CallConvKind::MIPS =>
// panic!()` in isa::x86_64::register::RegInfo).
var ArgRegs = [4]GR{A0, A1, A2, A3}

// Class is MIPS32's codegen.RegisterClass (ported from
// isa::x86_64::register::RegClass, collapsed to the single class MIPS32
// has).
type Class struct{}

// GPRList returns the caller-saved temporaries available for allocation
// (ported from `RegClass::GR32 => vec![EAX, ECX, EDX]`, MIPS32's
// equivalent being its T-register bank plus V0/V1).
func (Class) GPRList() []codegen.Reg {
	return []codegen.Reg{T0.Reg(), T1.Reg(), T2.Reg(), T3.Reg(), V0.Reg(), V1.Reg()}
}

// ApplyFor narrows ru to a Reg in this class. Since MIPS32 has one
// class, this is the identity on the index.
func (Class) ApplyFor(ru codegen.RegUnit) codegen.Reg {
	return codegen.Reg{Class: RegClassGR, Index: ru.Index}
}
