package morph

import (
	"strings"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// CoordConverter maps a longitude/latitude pair in degrees from one
// reference frame into another.
type CoordConverter func(lon, lat float64) (float64, float64)

// CoordRegistry holds the frame conversions the morpher may apply to
// geometry literals. Conversions for column expressions would need the
// backend's help and are not attempted.
type CoordRegistry struct {
	converters map[string]CoordConverter
}

func NewCoordRegistry() *CoordRegistry {
	r := &CoordRegistry{converters: map[string]CoordConverter{}}
	identity := func(lon, lat float64) (float64, float64) { return lon, lat }
	// FK5 at J2000 agrees with ICRS to well below catalog precision.
	r.Register("FK5", "ICRS", identity)
	r.Register("ICRS", "FK5", identity)
	r.Register("J2000", "ICRS", identity)
	r.Register("ICRS", "J2000", identity)
	return r
}

func (r *CoordRegistry) Register(from, to string, c CoordConverter) {
	r.converters[coordKey(from, to)] = c
}

func (r *CoordRegistry) Lookup(from, to string) (CoordConverter, bool) {
	c, ok := r.converters[coordKey(from, to)]
	return c, ok
}

func coordKey(from, to string) string {
	return strings.ToUpper(from) + ">" + strings.ToUpper(to)
}

// alignFrames rewrites geometry function arguments so both sides are
// in the same reference frame. Only literal points and circles can be
// converted; everything else in a cross-frame position is an error.
func (m *Morpher) alignFrames(e ast.Expr) (ast.Expr, error) {
	out, _, err := ast.TransformExpr(e, func(e ast.Expr) (ast.Expr, ast.TreeIdentity, error) {
		fc, ok := e.(*ast.FunctionCall)
		if !ok {
			return e, ast.SameTree, nil
		}
		switch strings.ToUpper(fc.Name) {
		case "CONTAINS", "INTERSECTS", "DISTANCE":
			aligned, err := m.alignCallFrames(nil, fc)
			if err != nil {
				return nil, ast.SameTree, err
			}
			if aligned == fc {
				return e, ast.SameTree, nil
			}
			return aligned, ast.NewTree, nil
		}
		return e, ast.SameTree, nil
	})
	return out, err
}

// alignCallFrames converts one side of a two-geometry call when the
// frames disagree. ctx is unused today but keeps the signature uniform
// with the rest of the morpher.
func (m *Morpher) alignCallFrames(_ *sql.Context, fc *ast.FunctionCall) (*ast.FunctionCall, error) {
	if len(fc.Args) != 2 {
		return fc, nil
	}
	lf := frameOf(fc.Args[0])
	rf := frameOf(fc.Args[1])
	if lf == "" || rf == "" || strings.EqualFold(lf, rf) {
		return fc, nil
	}

	if conv, ok := m.Coords.Lookup(rf, lf); ok {
		if g, ok := convertible(fc.Args[1]); ok {
			ng, err := convertGeometry(g, lf, conv)
			if err != nil {
				return nil, err
			}
			n := *fc
			n.Args = []ast.Expr{fc.Args[0], ng}
			return &n, nil
		}
	}
	if conv, ok := m.Coords.Lookup(lf, rf); ok {
		if g, ok := convertible(fc.Args[0]); ok {
			ng, err := convertGeometry(g, rf, conv)
			if err != nil {
				return nil, err
			}
			n := *fc
			n.Args = []ast.Expr{ng, fc.Args[1]}
			return &n, nil
		}
	}
	return nil, sql.ErrUnsupportedFeature.New(
		"no conversion between reference frames " + lf + " and " + rf)
}

func frameOf(e ast.Expr) string {
	if fi := e.Info(); fi != nil {
		return fi.CoordSys
	}
	return ""
}

func convertible(e ast.Expr) (*ast.Geometry, bool) {
	g, ok := e.(*ast.Geometry)
	if !ok || !allLiteral(g.Args) {
		return nil, false
	}
	if g.Kind != ast.GeomPoint && g.Kind != ast.GeomCircle {
		return nil, false
	}
	return g, true
}

func convertGeometry(g *ast.Geometry, target string, conv CoordConverter) (*ast.Geometry, error) {
	lon, ok1 := litFloat(g.Args[0])
	lat, ok2 := litFloat(g.Args[1])
	if !ok1 || !ok2 {
		return nil, sql.ErrUnsupportedFeature.New("cross-frame geometry with non-numeric coordinates")
	}
	nlon, nlat := conv(lon, lat)

	args := make([]ast.Expr, len(g.Args))
	args[0] = ast.NewLiteral(g.Position(), nlon, sql.Double)
	args[1] = ast.NewLiteral(g.Position(), nlat, sql.Double)
	copy(args[2:], g.Args[2:])

	n := *g
	n.CoordSys = target
	n.Args = args
	if fi := g.Info(); fi != nil {
		nfi := *fi
		nfi.CoordSys = target
		n.Meta = &nfi
	}
	return &n, nil
}
