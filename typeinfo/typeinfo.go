// Package typeinfo models the portable form of a runtime's self-described
// type information: a registry mapping numeric type ids to type definitions.
// Storage entries in runtime metadata reference types by id; resolving an id
// through the registry yields the definition, of which only the primitive
// shapes matter to this tool.
package typeinfo

import "fmt"

// Primitive identifies a primitive type definition.
type Primitive uint8

const (
	Bool Primitive = iota
	Char
	Str
	U8
	U16
	U32
	U64
	U128
	U256
	I8
	I16
	I32
	I64
	I128
	I256
)

func (p Primitive) String() string {
	switch p {
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Str:
		return "str"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case U256:
		return "u256"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	case I256:
		return "i256"
	default:
		return fmt.Sprintf("primitive(%d)", uint8(p))
	}
}

// Kind discriminates type definitions. Only primitives are interpreted; the
// remaining kinds are carried so a registry faithfully records what shape a
// type has, which is enough to reject non-primitive resolutions.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindComposite
	KindVariant
	KindSequence
	KindArray
	KindTuple
	KindCompact
	KindBitSequence
)

// TypeDef is a type definition. Primitive is meaningful only when Kind is
// KindPrimitive.
type TypeDef struct {
	Kind      Kind
	Primitive Primitive
}

// Type is a registry entry's payload: an optional path (the declared name of
// the type, outermost segment first) and its definition.
type Type struct {
	Path []string
	Def  TypeDef
}

// PortableType pairs a type with its registry id.
type PortableType struct {
	ID   uint32
	Type Type
}

// Registry is the portable type table. Entries are kept as a slice so the
// registry serializes deterministically; lookups scan, which is fine for the
// registry sizes involved here.
type Registry struct {
	Types []PortableType
}

// Put records a type under the given id, replacing any previous entry.
func (r *Registry) Put(id uint32, t Type) {
	for i := range r.Types {
		if r.Types[i].ID == id {
			r.Types[i].Type = t
			return
		}
	}
	r.Types = append(r.Types, PortableType{ID: id, Type: t})
}

// Resolve returns the type registered under id, if any.
func (r *Registry) Resolve(id uint32) (Type, bool) {
	for i := range r.Types {
		if r.Types[i].ID == id {
			return r.Types[i].Type, true
		}
	}
	return Type{}, false
}
