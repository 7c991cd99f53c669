package ir

import "fmt"

// ValueID is the stable identifier of a Value (§3 "Value"). A single
// value identifier names exactly one producer.
type ValueID uint32

// ValueIDInvalid never names a live value.
const ValueIDInvalid ValueID = 0

// Valid reports whether id is a non-zero id; it does not by itself prove
// id was handed out by some Data (stale-id checking happens at
// resolution time in Data.ValueRef).
func (id ValueID) Valid() bool { return id != ValueIDInvalid }

// InstID is the stable identifier of an Instruction.
type InstID uint32

// InstIDInvalid never names a live instruction.
const InstIDInvalid InstID = 0

// BasicBlockID is the stable identifier of a BasicBlock.
type BasicBlockID uint32

// BasicBlockIDInvalid never names a live basic block.
const BasicBlockIDInvalid BasicBlockID = 0

// ValueKind tags the variants of Value per §3: "A tagged sum of:
// Instruction(inst_id), Argument(idx), Constant(const_data), Undef."
type ValueKind byte

const (
	ValueKindInvalid ValueKind = iota
	ValueKindInstruction
	ValueKindArgument
	ValueKindConstant
	ValueKindUndef
)

// Value is a tagged-sum reference to the producer of an SSA value.
// Values are interned-by-construction in Data's value arena (§3) and are
// always passed and stored by ValueID; Value itself is the payload that
// backs a ValueID once resolved.
type Value struct {
	kind ValueKind

	inst InstID // valid when kind == ValueKindInstruction
	arg  int    // valid when kind == ValueKindArgument

	constant ConstantData // valid when kind == ValueKindConstant
	typ      TypeID       // valid when kind is Argument, Constant, or Undef
}

// Kind returns the tag of this Value.
func (v Value) Kind() ValueKind { return v.kind }

// AsInstruction returns the producing instruction id. Panics if Kind() !=
// ValueKindInstruction.
func (v Value) AsInstruction() InstID {
	if v.kind != ValueKindInstruction {
		bugf("AsInstruction on non-instruction value")
	}
	return v.inst
}

// AsArgument returns the parameter index. Panics if Kind() !=
// ValueKindArgument.
func (v Value) AsArgument() int {
	if v.kind != ValueKindArgument {
		bugf("AsArgument on non-argument value")
	}
	return v.arg
}

// AsConstant returns the constant payload. Panics if Kind() !=
// ValueKindConstant.
func (v Value) AsConstant() ConstantData {
	if v.kind != ValueKindConstant {
		bugf("AsConstant on non-constant value")
	}
	return v.constant
}

// InstructionValue constructs a Value naming an instruction's result.
func InstructionValue(id InstID) Value {
	return Value{kind: ValueKindInstruction, inst: id}
}

// ArgumentValue constructs a Value naming the idx-th function parameter.
func ArgumentValue(idx int, typ TypeID) Value {
	return Value{kind: ValueKindArgument, arg: idx, typ: typ}
}

// ConstantValue constructs a Value wrapping constant data of type typ.
func ConstantValue(c ConstantData, typ TypeID) Value {
	return Value{kind: ValueKindConstant, constant: c, typ: typ}
}

// UndefValue constructs the Undef Value of type typ (§4.5.4: "A load with
// no reaching definition yields undef, not an error").
func UndefValue(typ TypeID) Value {
	return Value{kind: ValueKindUndef, typ: typ}
}

// ConstantKind tags the variants of ConstantData (§3).
type ConstantKind byte

const (
	ConstantKindInvalid ConstantKind = iota
	ConstantKindInt
	ConstantKindGlobalRef
	ConstantKindExpr
	ConstantKindNull
	ConstantKindUndef
)

// ConstantData is the payload of a Value in ValueKindConstant state.
type ConstantData struct {
	kind ConstantKind

	intVal   ConstantInt
	global   string
	expr     *ConstantExpr
}

func (c ConstantData) Kind() ConstantKind { return c.kind }

func (c ConstantData) AsInt() ConstantInt {
	if c.kind != ConstantKindInt {
		bugf("AsInt on non-int constant")
	}
	return c.intVal
}

func (c ConstantData) AsGlobalRef() string {
	if c.kind != ConstantKindGlobalRef {
		bugf("AsGlobalRef on non-global constant")
	}
	return c.global
}

func (c ConstantData) AsExpr() *ConstantExpr {
	if c.kind != ConstantKindExpr {
		bugf("AsExpr on non-expr constant")
	}
	return c.expr
}

// ConstIntData builds an Int constant.
func ConstIntData(i ConstantInt) ConstantData { return ConstantData{kind: ConstantKindInt, intVal: i} }

// ConstGlobalRefData builds a GlobalRef constant.
func ConstGlobalRefData(name string) ConstantData {
	return ConstantData{kind: ConstantKindGlobalRef, global: name}
}

// ConstExprData builds an Expr constant (e.g. a GEP-of-global constant
// expression, used by the lowering value-materialization table's
// "global address of all-zero GEP chain" row, §4.6).
func ConstExprData(e *ConstantExpr) ConstantData { return ConstantData{kind: ConstantKindExpr, expr: e} }

// ConstNullData builds the Null constant.
func ConstNullData() ConstantData { return ConstantData{kind: ConstantKindNull} }

// ConstUndefData builds the Undef constant (distinct from Value's own
// Undef variant: this is an `undef` appearing inside constant-expression
// trees, e.g. as a field initializer).
func ConstUndefData() ConstantData { return ConstantData{kind: ConstantKindUndef} }

// ConstantExpr is a constant expression, e.g. a GEP applied to a global
// with all-constant indices. Only the shape needed by the lowering
// framework's value-materialization table (§4.6, GlobalRef + all-zero GEP
// chain) is modeled; general constant folding is out of scope.
type ConstantExpr struct {
	Base    string // the referenced global's name
	Indices []int64
}

// AllZero reports whether every index in the GEP chain is zero, which is
// the shape the lowering framework recognizes as a plain global-address
// operand (§4.6 table, last row).
func (c *ConstantExpr) AllZero() bool {
	for _, idx := range c.Indices {
		if idx != 0 {
			return false
		}
	}
	return true
}

// IntWidth tags the bit width of a ConstantInt per §3 ("width-tagged
// integers (1, 8, 32, 64 bits)").
type IntWidth byte

const (
	Width1 IntWidth = 1
	Width8 IntWidth = 8
	Width32 IntWidth = 32
	Width64 IntWidth = 64
)

// ConstantInt is a width-tagged integer constant.
type ConstantInt struct {
	Width IntWidth
	Value int64
}

func (c ConstantInt) String() string {
	return fmt.Sprintf("i%d %d", c.Width, c.Value)
}
