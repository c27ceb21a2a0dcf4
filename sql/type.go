package sql

import (
	"strings"

	"github.com/spf13/cast"
)

// Type is a column or expression type. The set is fixed: ADQL only knows
// about a small numeric tower, text, timestamps and the geometry types
// backed by the spatial extension.
type Type interface {
	// Name returns the SQL name of the type.
	Name() string
	// Convert coerces a client value into the canonical Go representation
	// of this type.
	Convert(v interface{}) (interface{}, error)
}

type baseType struct {
	name string
	kind typeKind
}

type typeKind int

const (
	kindNull typeKind = iota
	kindBoolean
	kindSmallint
	kindInteger
	kindBigint
	kindReal
	kindDouble
	kindText
	kindTimestamp
	kindPoint
	kindCircle
	kindPolygon
	kindRegion
	kindGeometry
)

var (
	// Null is the polymorphic type of a NULL literal. It unifies with
	// anything it is compared against.
	Null = baseType{"unknown", kindNull}
	// Boolean is the type of predicates. Postgres has a real boolean;
	// ADQL itself only ever compares pseudo-booleans against 0 or 1.
	Boolean = baseType{"boolean", kindBoolean}
	// Smallint is a 16 bit integer.
	Smallint = baseType{"smallint", kindSmallint}
	// Integer is a 32 bit integer.
	Integer = baseType{"integer", kindInteger}
	// Bigint is a 64 bit integer.
	Bigint = baseType{"bigint", kindBigint}
	// Real is a 32 bit float.
	Real = baseType{"real", kindReal}
	// Double is a 64 bit float.
	Double = baseType{"double precision", kindDouble}
	// Text covers char, varchar and unbounded strings alike.
	Text = baseType{"text", kindText}
	// Timestamp is a point in civil time.
	Timestamp = baseType{"timestamp", kindTimestamp}
	// Point is a position on the sphere (spoint on the backend).
	Point = baseType{"spoint", kindPoint}
	// Circle is a spherical cap (scircle on the backend).
	Circle = baseType{"scircle", kindCircle}
	// Polygon is a spherical polygon (spoly on the backend). BOXes are
	// subsumed here since the backend has no native box on the sphere.
	Polygon = baseType{"spoly", kindPolygon}
	// Region is a geometry given as an opaque serialization.
	Region = baseType{"sregion", kindRegion}
	// Geometry accepts any of the geometry types. It only occurs as a
	// function parameter type, never as a column type.
	Geometry = baseType{"geometry", kindGeometry}
)

func (t baseType) Name() string { return t.name }

// Convert implements the Type interface. Geometry values have no client
// representation; they exist only inside queries.
func (t baseType) Convert(v interface{}) (interface{}, error) {
	switch t.kind {
	case kindBoolean:
		return cast.ToBoolE(v)
	case kindSmallint:
		return cast.ToInt16E(v)
	case kindInteger:
		return cast.ToInt32E(v)
	case kindBigint:
		return cast.ToInt64E(v)
	case kindReal:
		return cast.ToFloat32E(v)
	case kindDouble:
		return cast.ToFloat64E(v)
	case kindText:
		return cast.ToStringE(v)
	case kindTimestamp:
		return cast.ToTimeE(v)
	case kindNull:
		return v, nil
	}
	return nil, ErrTypeMismatch.New("no client representation for " + t.name)
}

// numericRank orders the numeric tower for subsumption. Types outside the
// tower have no rank.
var numericRank = map[typeKind]int{
	kindBoolean:  0,
	kindSmallint: 1,
	kindInteger:  2,
	kindBigint:   3,
	kindReal:     4,
	kindDouble:   5,
}

// IsNumeric reports whether t sits on the numeric coercion tower.
func IsNumeric(t Type) bool {
	b, ok := t.(baseType)
	if !ok {
		return false
	}
	_, ok = numericRank[b.kind]
	return ok
}

// IsGeometry reports whether t is one of the spatial types.
func IsGeometry(t Type) bool {
	b, ok := t.(baseType)
	if !ok {
		return false
	}
	switch b.kind {
	case kindPoint, kindCircle, kindPolygon, kindRegion, kindGeometry:
		return true
	}
	return false
}

// IsNull reports whether t is the polymorphic NULL type.
func IsNull(t Type) bool {
	b, ok := t.(baseType)
	return ok && b.kind == kindNull
}

// Subsume returns the least general type able to represent values of both
// a and b. NULL gives way to anything; a mix that cannot be unified on the
// numeric tower degrades to text, which the serialization layer can always
// cope with.
func Subsume(a, b Type) Type {
	if IsNull(a) {
		return b
	}
	if IsNull(b) {
		return a
	}
	ab, aok := a.(baseType)
	bb, bok := b.(baseType)
	if aok && bok && ab.kind == bb.kind {
		return a
	}
	ra, aNum := numericRank[ab.kind]
	rb, bNum := numericRank[bb.kind]
	if aNum && bNum {
		if ra >= rb {
			return a
		}
		return b
	}
	return Text
}

// AcceptsArg reports whether an argument of type arg can be passed to a
// parameter declared as param. NULL is accepted anywhere, numerics convert
// freely among themselves, and the Geometry wildcard takes any spatial
// type.
func AcceptsArg(param, arg Type) bool {
	if IsNull(arg) {
		return true
	}
	p, pok := param.(baseType)
	a, aok := arg.(baseType)
	if pok && aok && p.kind == a.kind {
		return true
	}
	if IsNumeric(param) && IsNumeric(arg) {
		return true
	}
	if pok && p.kind == kindGeometry && IsGeometry(arg) {
		return true
	}
	return false
}

// Comparable reports whether values of a and b may appear on the two sides
// of a comparison operator.
func Comparable(a, b Type) bool {
	if IsNull(a) || IsNull(b) {
		return true
	}
	if IsNumeric(a) && IsNumeric(b) {
		return true
	}
	ab, aok := a.(baseType)
	bb, bok := b.(baseType)
	return aok && bok && ab.kind == bb.kind
}

// TypeFromName maps a catalog or registry type name to a Type. Char and
// varchar variants collapse to text, float aliases to their SQL names.
func TypeFromName(name string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "boolean", "bool":
		return Boolean, true
	case "smallint":
		return Smallint, true
	case "integer", "int":
		return Integer, true
	case "bigint":
		return Bigint, true
	case "real", "float":
		return Real, true
	case "double precision", "double":
		return Double, true
	case "text", "char", "varchar", "character varying", "unicodechar":
		return Text, true
	case "timestamp", "date", "time":
		return Timestamp, true
	case "spoint", "point":
		return Point, true
	case "scircle", "circle":
		return Circle, true
	case "spoly", "polygon":
		return Polygon, true
	case "sregion", "region":
		return Region, true
	case "geometry":
		return Geometry, true
	}
	return nil, false
}
