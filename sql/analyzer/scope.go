package analyzer

import (
	"sort"
	"strings"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// frame is the column set one FROM clause entry contributes to the scope.
type frame struct {
	name    string
	quoted  bool
	columns sql.Schema
}

// scope is the symbol table of one query level. Frames appear in FROM
// clause order, which star expansion depends on. The parent pointer links
// to the enclosing query for correlated subqueries.
type scope struct {
	frames []*frame
	shared map[string]bool
	parent *scope
}

func (s *scope) addFrame(name string, quoted bool, cols sql.Schema) error {
	for _, f := range s.frames {
		if strings.EqualFold(f.name, name) {
			return sql.ErrDuplicateAlias.New(name)
		}
	}
	s.frames = append(s.frames, &frame{name: name, quoted: quoted, columns: cols})
	return nil
}

// markShared records the join columns of a USING or NATURAL join. A
// shared column stays visible in both frames for qualified references but
// resolves unambiguously (to the left occurrence) when unqualified.
func (s *scope) markShared(left, right ast.TableExpr, using []string, natural bool) error {
	if s.shared == nil {
		s.shared = make(map[string]bool)
	}
	if natural {
		lcols := tableColumns(left)
		rcols := tableColumns(right)
		for _, lc := range lcols {
			if rcols.Contains(lc.Name) {
				s.shared[strings.ToLower(lc.Name)] = true
			}
		}
		return nil
	}
	for _, name := range using {
		for _, te := range []ast.TableExpr{left, right} {
			if !tableColumns(te).Contains(name) {
				return sql.ErrUnknownColumn.New(name)
			}
		}
		s.shared[strings.ToLower(name)] = true
	}
	return nil
}

// tableColumns flattens the column set a table expression contributes.
func tableColumns(te ast.TableExpr) sql.Schema {
	switch te := te.(type) {
	case *ast.TableRef:
		if te.Table == nil {
			return nil
		}
		return te.Table.Columns
	case *ast.SubqueryRef:
		var cols sql.Schema
		for _, oc := range te.Query.Schema() {
			cols = append(cols, &sql.Column{
				Name: oc.Name, Source: te.Alias,
				Type: oc.Type, Unit: oc.Unit, UCD: oc.UCD,
			})
		}
		return cols
	case *ast.Join:
		return append(append(sql.Schema{}, tableColumns(te.Left)...), tableColumns(te.Right)...)
	}
	return nil
}

// lookupQualified resolves table.column against the named frame. The
// frame may be referenced by its full name or by its last path segment;
// a segment shared by several frames is an error. It also returns the
// frame, whose name is the canonical qualifier of the reference.
func (s *scope) lookupQualified(table, name string) (*sql.Column, *frame, error) {
	for sc := s; sc != nil; sc = sc.parent {
		matched := matchFrames(sc.frames, table)
		if len(matched) == 0 {
			continue
		}
		if len(matched) > 1 {
			return nil, nil, ambiguousTable(table, matched)
		}
		f := matched[0]
		if i := f.columns.IndexOf(name); i >= 0 {
			return f.columns[i], f, nil
		}
		return nil, nil, sql.ErrTableColumnNotFound.New(table, name)
	}
	return nil, nil, sql.ErrUnknownTable.New(table)
}

// matchFrames returns the frames a qualifier may denote. An exact name
// match beats matches on the last path segment alone.
func matchFrames(frames []*frame, ref string) []*frame {
	var exact, suffix []*frame
	for _, f := range frames {
		switch {
		case strings.EqualFold(f.name, ref):
			exact = append(exact, f)
		case frameSuffixMatch(f.name, ref):
			suffix = append(suffix, f)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return suffix
}

func ambiguousTable(ref string, matched []*frame) error {
	names := make([]string, len(matched))
	for i, f := range matched {
		names[i] = f.name
	}
	sort.Strings(names)
	return sql.ErrAmbiguousTable.New(ref, strings.Join(names, ", "))
}

// lookupUnqualified searches all frames of the nearest scope level that
// knows the name. The name must be unique on that level unless a USING or
// NATURAL join made it shared, in which case the leftmost frame wins.
func (s *scope) lookupUnqualified(name string) (*sql.Column, error) {
	for sc := s; sc != nil; sc = sc.parent {
		var found *sql.Column
		var sources []string
		for _, f := range sc.frames {
			if i := f.columns.IndexOf(name); i >= 0 {
				if found == nil {
					found = f.columns[i]
				}
				sources = append(sources, f.name)
			}
		}
		if found == nil {
			continue
		}
		if len(sources) > 1 && !sc.shared[strings.ToLower(name)] {
			sort.Strings(sources)
			return nil, sql.ErrAmbiguousColumn.New(name, strings.Join(sources, ", "))
		}
		return found, nil
	}
	return nil, sql.ErrUnknownColumn.New(name)
}

// frameColumn pairs a visible column with the frame it belongs to, so
// star expansion can qualify it by the name the FROM clause declared.
type frameColumn struct {
	frame *frame
	col   *sql.Column
}

// visibleColumns returns all frames' columns in FROM clause order with
// USING/NATURAL duplicates collapsed to their leftmost occurrence, which
// is exactly what SELECT * expands to.
func (s *scope) visibleColumns() []frameColumn {
	var out []frameColumn
	seenShared := map[string]bool{}
	for _, f := range s.frames {
		for _, c := range f.columns {
			key := strings.ToLower(c.Name)
			if s.shared[key] {
				if seenShared[key] {
					continue
				}
				seenShared[key] = true
			}
			out = append(out, frameColumn{frame: f, col: c})
		}
	}
	return out
}

// frameColumns returns the columns of the named frame.
func (s *scope) frameColumns(table string) ([]frameColumn, error) {
	matched := matchFrames(s.frames, table)
	if len(matched) == 0 {
		return nil, sql.ErrUnknownTable.New(table)
	}
	if len(matched) > 1 {
		return nil, ambiguousTable(table, matched)
	}
	out := make([]frameColumn, len(matched[0].columns))
	for i, c := range matched[0].columns {
		out[i] = frameColumn{frame: matched[0], col: c}
	}
	return out, nil
}

func frameSuffixMatch(frameName, ref string) bool {
	if i := strings.LastIndex(frameName, "."); i >= 0 && !strings.Contains(ref, ".") {
		return strings.EqualFold(frameName[i+1:], ref)
	}
	return false
}
