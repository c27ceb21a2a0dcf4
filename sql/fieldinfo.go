package sql

// FieldInfo is the annotation attached to every expression node once the
// annotator has resolved it: the value type plus the physical metadata
// (unit, UCD, coordinate system) that has to survive into the output
// schema.
type FieldInfo struct {
	// Type of the value the expression produces.
	Type Type
	// Unit is the physical unit, empty for dimensionless values.
	Unit string
	// UCD describes the physical meaning of the value.
	UCD string
	// CoordSys is the coordinate system tag of a geometry value, carried
	// verbatim from the query text for the morpher.
	CoordSys string
	// Tainted is set when unit or UCD were inferred heuristically from a
	// combining expression rather than taken from the catalog.
	Tainted bool
}

// NewFieldInfo returns an annotation with just a type and no physical
// metadata.
func NewFieldInfo(t Type) *FieldInfo {
	return &FieldInfo{Type: t}
}

// CombineMultiplicative merges the annotations of the operands of * and /.
// Units concatenate with the operator unless one side is dimensionless, in
// which case the other side's unit and UCD survive tainted. A product of
// two carrying units has no meaningful UCD anymore.
func CombineMultiplicative(op string, a, b *FieldInfo) *FieldInfo {
	t := Subsume(a.Type, b.Type)
	switch {
	case a.Unit == "" && b.Unit == "":
		return &FieldInfo{Type: t, Tainted: true}
	case a.Unit == "":
		return &FieldInfo{Type: t, Unit: b.Unit, UCD: b.UCD, Tainted: true}
	case b.Unit == "":
		return &FieldInfo{Type: t, Unit: a.Unit, UCD: a.UCD, Tainted: true}
	}
	right := b.Unit
	if op == "/" {
		right = "(" + right + ")"
	}
	return &FieldInfo{Type: t, Unit: a.Unit + op + right, Tainted: true}
}

// CombineAdditive merges the annotations of the operands of + and -. Unit
// and UCD are kept only if both sides agree on them.
func CombineAdditive(a, b *FieldInfo) *FieldInfo {
	fi := &FieldInfo{Type: Subsume(a.Type, b.Type), Tainted: true}
	if a.Unit == b.Unit {
		fi.Unit = a.Unit
	}
	if a.UCD == b.UCD {
		fi.UCD = a.UCD
	}
	return fi
}
