package analyzer

import (
	"fmt"

	"github.com/mitchellh/hashstructure"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// expandStars replaces `*` and `t.*` select items with one item per
// visible column, in FROM order. Columns folded together by USING or
// NATURAL appear once.
func (a *Annotator) expandStars(items []*ast.SelectItem, s *scope) ([]*ast.SelectItem, error) {
	out := make([]*ast.SelectItem, 0, len(items))
	for _, item := range items {
		star, ok := item.Expr.(*ast.Star)
		if !ok {
			out = append(out, item)
			continue
		}

		var cols []frameColumn
		if star.Table != "" {
			var err error
			cols, err = s.frameColumns(star.Table)
			if err != nil {
				return nil, err
			}
		} else {
			cols = s.visibleColumns()
		}

		// Expanded references qualify by the frame name, which is
		// what resolves when the table is aliased.
		for _, fc := range cols {
			ref := ast.NewColumnRef(star.Position(), fc.frame.name, fc.col.Name, fc.col.CaseSensitive)
			ref.TableQuoted = fc.frame.quoted
			ref.Col = fc.col
			ref.Meta = fc.col.FieldInfo()
			out = append(out, &ast.SelectItem{Expr: ref})
		}
	}
	return out, nil
}

func hasAggregate(e ast.Expr) bool {
	return ast.InspectExpr(e, func(n ast.Expr) bool {
		if fc, ok := n.(*ast.FunctionCall); ok {
			return fc.Star || (fc.Sig != nil && fc.Sig.Aggregate)
		}
		return false
	})
}

// groupKey is what makes two expressions "the same" for grouping
// purposes: identical rendering and identical type.
type groupKey struct {
	Text string
	Type string
}

func exprHash(e ast.Expr) (uint64, error) {
	return hashstructure.Hash(groupKey{
		Text: e.String(),
		Type: e.Info().Type.Name(),
	}, nil)
}

// validateGrouping checks that every select item is either an aggregate
// or structurally equal to one of the grouping keys.
func validateGrouping(items []*ast.SelectItem, keys []ast.Expr) error {
	grouped := make(map[uint64]struct{}, len(keys))
	for _, k := range keys {
		h, err := exprHash(k)
		if err != nil {
			return sql.ErrInternalMorph.New(err.Error())
		}
		grouped[h] = struct{}{}
	}

	for _, item := range items {
		if hasAggregate(item.Expr) {
			continue
		}
		h, err := exprHash(item.Expr)
		if err != nil {
			return sql.ErrInternalMorph.New(err.Error())
		}
		if _, ok := grouped[h]; !ok {
			return sql.ErrTypeMismatch.New(
				item.Expr.String() + " is neither grouped nor aggregated")
		}
	}
	return nil
}

// buildSchema names the output columns. An explicit alias wins, a bare
// column reference keeps its name, anything else gets a positional
// expr_N name.
func buildSchema(items []*ast.SelectItem) sql.ResultSchema {
	out := make(sql.ResultSchema, len(items))
	for i, item := range items {
		name := item.Alias
		if name == "" {
			if ref, ok := item.Expr.(*ast.ColumnRef); ok {
				name = ref.Name
			} else {
				name = fmt.Sprintf("expr_%d", i+1)
			}
		}
		fi := item.Expr.Info()
		out[i] = sql.OutputColumn{
			Name: name,
			Type: fi.Type,
			Unit: fi.Unit,
			UCD:  fi.UCD,
		}
	}
	return out
}
