package types

import (
	"strings"
)

// Type is a coarse TypeScript type: the set of primitive categories a value may belong to.
// The zero Type is "never".
type Type uint16

const (
	Number Type = 1 << iota
	String
	Boolean
	BigInt
	Symbol
	Object
	Null
	Undefined
	Void
	// Any and Unknown absorb every other fact.
	Any
	Unknown
)

const (
	Never   Type = 0
	Nullish      = Null | Undefined | Void
)

var names = []struct {
	t    Type
	name string
}{
	{Number, "number"},
	{String, "string"},
	{Boolean, "boolean"},
	{BigInt, "bigint"},
	{Symbol, "symbol"},
	{Object, "object"},
	{Null, "null"},
	{Undefined, "undefined"},
	{Void, "void"},
}

// Union returns the union of t and other.
func (t Type) Union(other Type) Type {
	if t.IsAny() || other.IsAny() {
		return Any
	}
	if t&Unknown != 0 || other&Unknown != 0 {
		return Unknown
	}
	return t | other
}

// Without removes the given categories; any/unknown are kept as they are.
func (t Type) Without(other Type) Type {
	if t.IsAny() || t&Unknown != 0 {
		return t
	}
	return t &^ other
}

// NonNullable strips null, undefined and void.
func (t Type) NonNullable() Type { return t.Without(Nullish) }

// IsAny reports whether t is any.
func (t Type) IsAny() bool { return t&Any != 0 }

// IsUnknown reports whether t is unknown.
func (t Type) IsUnknown() bool { return t&Unknown != 0 && t&Any == 0 }

// Opaque reports whether t carries no usable facts (any or unknown).
func (t Type) Opaque() bool { return t&(Any|Unknown) != 0 }

// IsNullable reports whether null or undefined may inhabit t.
// Opaque types are considered nullable.
func (t Type) IsNullable() bool {
	return t.Opaque() || t&Nullish != 0
}

// Is reports whether t is non-empty and made only of categories in other.
func (t Type) Is(other Type) bool {
	return t != Never && !t.Opaque() && t&^other == 0
}

func (t Type) String() string {
	switch {
	case t.IsAny():
		return "any"
	case t&Unknown != 0:
		return "unknown"
	case t == Never:
		return "never"
	}
	parts := make([]string, 0, 2)
	for _, n := range names {
		if t&n.t != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " | ")
}

// FromKeyword maps a predefined type keyword (number, string, ...) to a Type.
func FromKeyword(kw string) (Type, bool) {
	switch kw {
	case "number":
		return Number, true
	case "string":
		return String, true
	case "boolean":
		return Boolean, true
	case "bigint":
		return BigInt, true
	case "symbol", "unique symbol":
		return Symbol, true
	case "object":
		return Object, true
	case "null":
		return Null, true
	case "undefined":
		return Undefined, true
	case "void":
		return Void, true
	case "any":
		return Any, true
	case "unknown":
		return Unknown, true
	case "never":
		return Never, true
	}
	return Never, false
}
