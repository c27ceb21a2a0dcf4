package morph

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// geoPred is a geometry predicate pulled out of a comparison: a
// CONTAINS or INTERSECTS call on one side, something else on the other.
type geoPred struct {
	call  *ast.FunctionCall
	other ast.Expr
	op    string
	pos   ast.Pos
}

func geoPredicate(c *ast.Comparison) *geoPred {
	if fc := geoCall(c.Left); fc != nil {
		return &geoPred{call: fc, other: c.Right, op: c.Op, pos: c.Position()}
	}
	if fc := geoCall(c.Right); fc != nil {
		return &geoPred{call: fc, other: c.Left, op: c.Op, pos: c.Position()}
	}
	return nil
}

func geoCall(e ast.Expr) *ast.FunctionCall {
	fc, ok := e.(*ast.FunctionCall)
	if !ok {
		return nil
	}
	switch strings.ToUpper(fc.Name) {
	case "CONTAINS", "INTERSECTS":
		return fc
	}
	return nil
}

// morphGeoPredicate eliminates the pseudo-boolean comparison. Only
// `= 0`, `= 1`, `!= 0` and `!= 1` are legal; the call becomes a
// pgsphere operator, or q3c_radial_query for the cone-search shape.
func (m *Morpher) morphGeoPredicate(ctx *sql.Context, p *geoPred) (ast.Expr, error) {
	lit, ok := p.other.(*ast.Literal)
	if !ok {
		return nil, sql.ErrUnsupportedFeature.New(
			p.call.Name + " must be compared with the literal 0 or 1")
	}
	v, err := cast.ToInt64E(lit.Value)
	if err != nil || (v != 0 && v != 1) {
		return nil, sql.ErrUnsupportedFeature.New(
			p.call.Name + " must be compared with the literal 0 or 1")
	}

	var positive bool
	switch p.op {
	case "=":
		positive = v == 1
	case "!=":
		positive = v == 0
	default:
		return nil, sql.ErrUnsupportedFeature.New(
			p.call.Name + " only supports = and != comparisons")
	}

	call, err := m.alignCallFrames(ctx, p.call)
	if err != nil {
		return nil, err
	}
	if len(call.Args) != 2 {
		return nil, sql.ErrInternalMorph.New(call.Name + " with wrong arity survived annotation")
	}

	pred, err := m.lowerGeoCall(ctx, call)
	if err != nil {
		return nil, err
	}
	if !positive {
		return ast.NewNot(p.pos, pred), nil
	}
	return pred, nil
}

func (m *Morpher) lowerGeoCall(ctx *sql.Context, call *ast.FunctionCall) (ast.Expr, error) {
	if strings.EqualFold(call.Name, "CONTAINS") {
		if q3c := m.q3cConeSearch(ctx, call); q3c != nil {
			ctx.Logger().Debug("cone search morphed to q3c_radial_query")
			return q3c, nil
		}
	}

	left, err := m.morphValue(ctx, call.Args[0])
	if err != nil {
		return nil, err
	}
	right, err := m.morphValue(ctx, call.Args[1])
	if err != nil {
		return nil, err
	}

	op := "@"
	if strings.EqualFold(call.Name, "INTERSECTS") {
		op = "&&"
	}
	pred := ast.NewComparison(call.Position(), op, left, right)
	pred.Meta = sql.NewFieldInfo(sql.Boolean)
	return pred, nil
}

// q3cConeSearch recognizes CONTAINS(POINT over column expressions,
// CIRCLE with literal center and radius), the shape the q3c index is
// built for. Returns nil when the shape does not match.
func (m *Morpher) q3cConeSearch(ctx *sql.Context, call *ast.FunctionCall) ast.Expr {
	point, ok := call.Args[0].(*ast.Geometry)
	if !ok || point.Kind != ast.GeomPoint {
		return nil
	}
	circle, ok := call.Args[1].(*ast.Geometry)
	if !ok || circle.Kind != ast.GeomCircle || !allLiteral(circle.Args) {
		return nil
	}
	if allLiteral(point.Args) {
		// Two constants; the plain operator form folds better.
		return nil
	}

	lon, err := m.morphValue(ctx, point.Args[0])
	if err != nil {
		return nil
	}
	lat, err := m.morphValue(ctx, point.Args[1])
	if err != nil {
		return nil
	}

	args := []ast.Expr{lon, lat, circle.Args[0], circle.Args[1], circle.Args[2]}
	return ast.NewCall(call.Position(), sql.NewFieldInfo(sql.Boolean), "q3c_radial_query", args...)
}

// lowerGeometry turns an ADQL geometry constructor into its pgsphere
// form. Coordinates arrive in degrees and pgsphere wants radians, so
// every coordinate goes through radians().
func (m *Morpher) lowerGeometry(ctx *sql.Context, g *ast.Geometry) (ast.Expr, error) {
	switch g.Kind {
	case ast.GeomPoint:
		return m.spoint(g.Info(), g.Position(), g.Args[0], g.Args[1]), nil

	case ast.GeomCircle:
		center := m.spoint(pointInfo(g.Info()), g.Position(), g.Args[0], g.Args[1])
		return ast.NewCall(g.Position(), g.Info(), "scircle",
			center, radians(g.Args[2])), nil

	case ast.GeomPolygon:
		points := make([]ast.Expr, 0, len(g.Args)/2)
		for i := 0; i+1 < len(g.Args); i += 2 {
			points = append(points, m.spoint(pointInfo(g.Info()), g.Position(), g.Args[i], g.Args[i+1]))
		}
		return ast.NewCall(g.Position(), g.Info(), "spoly", points...), nil

	case ast.GeomBox:
		poly, err := boxToPolygon(g)
		if err != nil {
			return nil, err
		}
		return m.lowerGeometry(ctx, poly)

	case ast.GeomRegion:
		inner, err := parseRegion(g)
		if err != nil {
			return nil, err
		}
		return m.lowerGeometry(ctx, inner)
	}
	return nil, sql.ErrInternalMorph.New("unknown geometry kind")
}

func (m *Morpher) spoint(fi *sql.FieldInfo, pos ast.Pos, lon, lat ast.Expr) ast.Expr {
	return ast.NewCall(pos, fi, "spoint", radians(lon), radians(lat))
}

func radians(e ast.Expr) ast.Expr {
	return ast.NewCall(e.Position(), sql.NewFieldInfo(sql.Double), "radians", e)
}

func pointInfo(fi *sql.FieldInfo) *sql.FieldInfo {
	return &sql.FieldInfo{Type: sql.Point, Unit: "deg", CoordSys: fi.CoordSys}
}

// boxToPolygon expands BOX(cs, cx, cy, w, h) into the polygon of its
// four corners. Literal centers fold into literal corners.
func boxToPolygon(g *ast.Geometry) (*ast.Geometry, error) {
	cx, cy, w, h := g.Args[0], g.Args[1], g.Args[2], g.Args[3]
	pos := g.Position()

	half := func(e ast.Expr) ast.Expr {
		if f, ok := litFloat(e); ok {
			return ast.NewLiteral(pos, f/2, sql.Double)
		}
		b := ast.NewBinaryExpr(pos, "/", e, ast.NewLiteral(pos, float64(2), sql.Double))
		b.Meta = sql.NewFieldInfo(sql.Double)
		return b
	}
	off := func(op string, c, d ast.Expr) ast.Expr {
		if cf, ok := litFloat(c); ok {
			if df, ok := litFloat(d); ok {
				if op == "-" {
					return ast.NewLiteral(pos, cf-df, sql.Double)
				}
				return ast.NewLiteral(pos, cf+df, sql.Double)
			}
		}
		b := ast.NewBinaryExpr(pos, op, c, d)
		b.Meta = sql.NewFieldInfo(sql.Double)
		return b
	}

	hw, hh := half(w), half(h)
	args := []ast.Expr{
		off("-", cx, hw), off("-", cy, hh),
		off("-", cx, hw), off("+", cy, hh),
		off("+", cx, hw), off("+", cy, hh),
		off("+", cx, hw), off("-", cy, hh),
	}
	poly := ast.NewGeometry(pos, ast.GeomPolygon, g.CoordSys, args...)
	poly.Meta = &sql.FieldInfo{Type: sql.Polygon, Unit: "deg", CoordSys: g.CoordSys}
	return poly, nil
}

// parseRegion understands the simple STC-S forms the original service
// accepts in REGION strings: POSITION, CIRCLE and POLYGON, with an
// optional frame word and coordinates in degrees.
func parseRegion(g *ast.Geometry) (*ast.Geometry, error) {
	lit, ok := g.Args[0].(*ast.Literal)
	if !ok {
		return nil, sql.ErrUnsupportedFeature.New("REGION requires a string literal")
	}
	s, err := cast.ToStringE(lit.Value)
	if err != nil {
		return nil, sql.ErrUnsupportedFeature.New("REGION requires a string literal")
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, sql.ErrUnsupportedFeature.New("empty REGION string")
	}
	shape := strings.ToUpper(fields[0])
	rest := fields[1:]

	frame := ""
	if len(rest) > 0 {
		if _, err := cast.ToFloat64E(rest[0]); err != nil {
			frame = strings.ToUpper(rest[0])
			rest = rest[1:]
		}
	}

	coords := make([]ast.Expr, len(rest))
	for i, f := range rest {
		v, err := cast.ToFloat64E(f)
		if err != nil {
			return nil, sql.ErrUnsupportedFeature.New("REGION string not understood: " + s)
		}
		coords[i] = ast.NewLiteral(g.Position(), v, sql.Double)
	}

	var kind ast.GeometryKind
	var t sql.Type
	switch {
	case shape == "POSITION" && len(coords) == 2:
		kind, t = ast.GeomPoint, sql.Point
	case shape == "CIRCLE" && len(coords) == 3:
		kind, t = ast.GeomCircle, sql.Circle
	case shape == "POLYGON" && len(coords) >= 6 && len(coords)%2 == 0:
		kind, t = ast.GeomPolygon, sql.Polygon
	default:
		return nil, sql.ErrUnsupportedFeature.New("REGION string not understood: " + s)
	}

	out := ast.NewGeometry(g.Position(), kind, frame, coords...)
	out.Meta = &sql.FieldInfo{Type: t, Unit: "deg", CoordSys: frame}
	return out, nil
}

// lowerFunction rewrites the geometry accessor functions into backend
// calls. Scalar functions keep their FunctionCall node; the emitter
// expands their templates.
func (m *Morpher) lowerFunction(ctx *sql.Context, fc *ast.FunctionCall) (ast.Expr, ast.TreeIdentity, error) {
	pos := fc.Position()
	switch strings.ToUpper(fc.Name) {
	case "CONTAINS", "INTERSECTS":
		return nil, ast.SameTree, sql.ErrUnsupportedFeature.New(
			fc.Name + " must be compared with the literal 0 or 1")

	case "DISTANCE":
		d := ast.NewBinaryExpr(pos, "<->", fc.Args[0], fc.Args[1])
		d.Meta = sql.NewFieldInfo(sql.Double)
		return ast.NewCall(pos, fc.Info(), "degrees", d), ast.NewTree, nil

	case "AREA":
		inner := ast.NewCall(pos, sql.NewFieldInfo(sql.Double), "area", fc.Args[0])
		mid := ast.NewCall(pos, sql.NewFieldInfo(sql.Double), "degrees", inner)
		return ast.NewCall(pos, fc.Info(), "degrees", mid), ast.NewTree, nil

	case "CENTROID":
		return ast.NewCall(pos, fc.Info(), "center_of", fc.Args[0]), ast.NewTree, nil

	case "COORD1":
		inner := ast.NewCall(pos, sql.NewFieldInfo(sql.Double), "long", fc.Args[0])
		return ast.NewCall(pos, fc.Info(), "degrees", inner), ast.NewTree, nil

	case "COORD2":
		inner := ast.NewCall(pos, sql.NewFieldInfo(sql.Double), "lat", fc.Args[0])
		return ast.NewCall(pos, fc.Info(), "degrees", inner), ast.NewTree, nil

	case "COORDSYS":
		cs := fc.Args[0].Info().CoordSys
		return ast.NewLiteral(pos, cs, sql.Text), ast.NewTree, nil
	}
	return fc, ast.SameTree, nil
}

func allLiteral(exprs []ast.Expr) bool {
	for _, e := range exprs {
		if _, ok := e.(*ast.Literal); !ok {
			return false
		}
	}
	return true
}

func litFloat(e ast.Expr) (float64, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(lit.Value)
	if err != nil {
		return 0, false
	}
	return f, true
}
