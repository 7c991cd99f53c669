package ir

import "fmt"

// TypeID is an interned-type handle. For integer, pointer and array
// types, two TypeIDs compare equal iff the types they name are
// structurally identical (§4.3 "identity equality via handles"); struct
// types are not deduplicated, so every Struct call yields a new handle.
type TypeID uint32

// TypeInvalid is the zero value and never names a real type.
const TypeInvalid TypeID = 0

// typeKind tags the variants of a type descriptor.
type typeKind byte

const (
	kindInvalid typeKind = iota
	kindInt
	kindPointer
	kindArray
	kindStruct
)

// typeDesc is the interned representation of a type. Only TypeTable
// constructs these; callers only ever see TypeID handles.
type typeDesc struct {
	kind typeKind

	// kindInt: width in bits (1, 8, 32, or 64 per §3 ConstantData).
	intWidth byte

	// kindPointer: no extra payload needed for `is_atomic`/size purposes;
	// a pointer is a pointer regardless of pointee, matching the spec's
	// ConstantData::GlobalRef/Null treatment and §4.3's "pointer types".
	pointee TypeID

	// kindArray: element type and length.
	elem TypeID
	len  uint32

	// kindStruct: field types in declaration order.
	fields []TypeID
}

// TypeTable interns type descriptors with small-integer handles (§4.3).
// It is owned by a Function and shared read-only by all passes over that
// function.
type TypeTable struct {
	descs []typeDesc
	// intern deduplicates structurally-identical non-struct descriptors
	// so that TypeID equality is a cheap integer compare (§4.3 "identity
	// equality via handles").
	intern map[typeKey]TypeID
}

// typeKey is the comparable part of a typeDesc, used as the intern map
// key. It leaves out a struct's field list (see key).
type typeKey struct {
	kind     typeKind
	intWidth byte
	pointee  TypeID
	elem     TypeID
	len      uint32
}

// NewTypeTable returns an empty table. Index 0 is reserved for
// TypeInvalid so that the zero value of TypeID is never a live type.
func NewTypeTable() *TypeTable {
	t := &TypeTable{
		descs:  make([]typeDesc, 1),
		intern: make(map[typeKey]TypeID),
	}
	return t
}

func (t *TypeTable) key(d typeDesc) typeKey {
	// fields is a slice and can't be part of a map key, so structs are
	// never deduplicated beyond identity (acceptable: aggregates are never
	// promoted by mem2reg and identity equality degrades gracefully to
	// "one handle per struct() call", which is still handle equality).
	return typeKey{kind: d.kind, intWidth: d.intWidth, pointee: d.pointee, elem: d.elem, len: d.len}
}

func (t *TypeTable) intern_(d typeDesc) TypeID {
	k := t.key(d)
	if k.kind != kindStruct {
		if id, ok := t.intern[k]; ok {
			return id
		}
	}
	id := TypeID(len(t.descs))
	t.descs = append(t.descs, d)
	if k.kind != kindStruct {
		t.intern[k] = id
	}
	return id
}

// Int returns the handle for an n-bit integer type.
func (t *TypeTable) Int(width byte) TypeID {
	return t.intern_(typeDesc{kind: kindInt, intWidth: width})
}

// Pointer returns the handle for a pointer to pointee.
func (t *TypeTable) Pointer(pointee TypeID) TypeID {
	return t.intern_(typeDesc{kind: kindPointer, pointee: pointee})
}

// Array returns the handle for an array of len elements of elem.
func (t *TypeTable) Array(elem TypeID, length uint32) TypeID {
	return t.intern_(typeDesc{kind: kindArray, elem: elem, len: length})
}

// Struct returns the handle for an aggregate with the given field types
// in order. Each call to Struct with distinct backing data yields a
// distinct handle (see key's comment on struct identity).
func (t *TypeTable) Struct(fields ...TypeID) TypeID {
	cp := append([]TypeID(nil), fields...)
	return t.intern_(typeDesc{kind: kindStruct, fields: cp})
}

func (t *TypeTable) desc(id TypeID) typeDesc {
	if int(id) >= len(t.descs) {
		bugf("stale TypeID %d", id)
	}
	return t.descs[id]
}

// IsAtomic returns true for integer and pointer types; used by mem2reg to
// gate promotion (§4.3, §4.5 "Promotability" — aggregates are never
// promoted).
func (t *TypeTable) IsAtomic(id TypeID) bool {
	switch t.desc(id).kind {
	case kindInt, kindPointer:
		return true
	default:
		return false
	}
}

// IsInt reports whether id names an integer type.
func (t *TypeTable) IsInt(id TypeID) bool {
	return t.desc(id).kind == kindInt
}

// IsPointer reports whether id names a pointer type.
func (t *TypeTable) IsPointer(id TypeID) bool {
	return t.desc(id).kind == kindPointer
}

// IntWidth returns the bit width of an integer type. Panics if id is not
// an integer type.
func (t *TypeTable) IntWidth(id TypeID) byte {
	d := t.desc(id)
	if d.kind != kindInt {
		bugf("IntWidth on non-integer type %v", id)
	}
	return d.intWidth
}

// Size returns the size in bytes of id, used by lowering for alloca slot
// sizing (§4.3).
func (t *TypeTable) Size(id TypeID) uint32 {
	d := t.desc(id)
	switch d.kind {
	case kindInt:
		return uint32((d.intWidth + 7) / 8)
	case kindPointer:
		return 8
	case kindArray:
		return t.Size(d.elem) * d.len
	case kindStruct:
		var sz uint32
		for _, f := range d.fields {
			sz += t.Size(f)
		}
		return sz
	default:
		bugf("Size on invalid type")
		return 0
	}
}

// String renders id for debug printing.
func (t *TypeTable) String(id TypeID) string {
	d := t.desc(id)
	switch d.kind {
	case kindInt:
		return fmt.Sprintf("i%d", d.intWidth)
	case kindPointer:
		return fmt.Sprintf("ptr<%s>", t.String(d.pointee))
	case kindArray:
		return fmt.Sprintf("[%d x %s]", d.len, t.String(d.elem))
	case kindStruct:
		s := "{"
		for i, f := range d.fields {
			if i > 0 {
				s += ", "
			}
			s += t.String(f)
		}
		return s + "}"
	default:
		return "<invalid>"
	}
}
