// Package amd64 is the x86-64 (System V) target's lowering, ported from
// isa::x86_64::register in the original.
package amd64

import "github.com/clown-team/vicis/internal/codegen"

// GR32 is the 32-bit general-purpose register class.
type GR32 byte

const (
	EAX GR32 = iota
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
	R8D
	R9D
	R10D
	R11D
	R12D
	R13D
	R14D
	R15D
)

var gr32Names = [...]string{
	"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
	"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
}

func (r GR32) String() string { return gr32Names[r] }

// GR64 is the 64-bit general-purpose register class.
type GR64 byte

const (
	RAX GR64 = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

var gr64Names = [...]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

func (r GR64) String() string { return gr64Names[r] }

// RegClassGR32 and RegClassGR64 are x86-64's two codegen.RegClass
// values (ported from `enum RegClass { GR32, GR64 }`).
const (
	RegClassGR32 codegen.RegClass = iota
	RegClassGR64
)

func (r GR32) Reg() codegen.Reg { return codegen.Reg{Class: RegClassGR32, Index: uint8(r)} }
func (r GR64) Reg() codegen.Reg { return codegen.Reg{Class: RegClassGR64, Index: uint8(r)} }

// RegUnit narrows a GR32 onto its owning 64-bit unit, since the two
// classes alias the same physical storage (ported from `impl
// From<GR32> for RegUnit`, which always answers in terms of GR64).
func (r GR32) RegUnit() codegen.RegUnit { return codegen.RegUnit{Class: RegClassGR64, Index: uint8(r)} }
func (r GR64) RegUnit() codegen.RegUnit { return codegen.RegUnit{Class: RegClassGR64, Index: uint8(r)} }

// ArgRegs is the System V integer argument register list (ported from
// `const ARG_REGS: [RegUnit; 6]`).
var ArgRegs = [6]GR64{RDI, RSI, RDX, RCX, R8, R9}

// Class32 and Class64 are x86-64's codegen.RegisterClass
// implementations (ported from `impl RegisterClass for RegClass`).
type Class32 struct{}
type Class64 struct{}

func (Class32) GPRList() []codegen.Reg {
	return []codegen.Reg{EAX.Reg(), ECX.Reg(), EDX.Reg()}
}

func (Class32) ApplyFor(ru codegen.RegUnit) codegen.Reg {
	return codegen.Reg{Class: RegClassGR32, Index: ru.Index}
}

func (Class64) GPRList() []codegen.Reg {
	return []codegen.Reg{RAX.Reg(), RCX.Reg(), RDX.Reg()}
}

func (Class64) ApplyFor(ru codegen.RegUnit) codegen.Reg {
	return codegen.Reg{Class: RegClassGR64, Index: ru.Index}
}

// ClassForWidth picks the register class matching an integer width
// (ported from `RegisterClass::for_type`'s `Type::Int(32) => GR32,
// Type::Int(64)|Type::Pointer(_) => GR64` match).
func ClassForWidth(width byte) codegen.RegisterClass {
	if width > 32 {
		return Class64{}
	}
	return Class32{}
}
