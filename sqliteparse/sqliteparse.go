// Package sqliteparse adapts the rqlite SQL parser to the raw parse tree
// consumed by the mapper. It is one possible frontend; any producer of
// rawast nodes works equally well.
package sqliteparse

import (
	"fmt"
	"strconv"
	"strings"

	sql "github.com/rqlite/sql"

	"github.com/zoobzio/requel/rawast"
)

// UnsupportedError reports a SQL construct the adapter cannot express as a
// raw parse tree node.
type UnsupportedError struct {
	Construct string
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported SQL construct: %s", e.Construct)
}

// Parse parses a single SELECT statement into a raw parse tree.
func Parse(query string) (*rawast.Node, error) {
	stmt, err := sql.NewParser(strings.NewReader(query)).ParseStatement()
	if err != nil {
		return nil, fmt.Errorf("parse statement: %w", err)
	}
	sel, ok := stmt.(*sql.SelectStatement)
	if !ok {
		return nil, UnsupportedError{Construct: fmt.Sprintf("%T statement", stmt)}
	}
	return selectToNode(sel)
}

func selectToNode(sel *sql.SelectStatement) (*rawast.Node, error) {
	node := &rawast.Node{Type: rawast.NodeSelect}

	if sel.WithClause != nil {
		for _, cte := range sel.WithClause.CTEs {
			stmt, err := selectToNode(cte.Select)
			if err != nil {
				return nil, err
			}
			node.With = append(node.With, rawast.CTEItem{
				Name: sql.IdentName(cte.TableName),
				Stmt: stmt,
			})
		}
	}

	for _, col := range sel.Columns {
		item, err := resultColumnToNode(col)
		if err != nil {
			return nil, err
		}
		node.Columns = append(node.Columns, item)
	}

	if sel.Source != nil {
		from, err := sourceToItems(sel.Source)
		if err != nil {
			return nil, err
		}
		node.From = from
	}

	var err error
	if sel.WhereExpr != nil {
		if node.Where, err = exprToNode(sel.WhereExpr); err != nil {
			return nil, err
		}
	}
	for _, g := range sel.GroupByExprs {
		gn, err := exprToNode(g)
		if err != nil {
			return nil, err
		}
		node.GroupBy = append(node.GroupBy, gn)
	}
	if sel.HavingExpr != nil {
		if node.Having, err = exprToNode(sel.HavingExpr); err != nil {
			return nil, err
		}
	}

	for _, term := range sel.OrderingTerms {
		column, err := columnName(term.X)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if term.Desc.IsValid() {
			dir = "DESC"
		}
		node.OrderBy = append(node.OrderBy, rawast.OrderTerm{Column: column, Type: dir})
	}

	if sel.LimitExpr != nil {
		if node.Limit, err = intValue(sel.LimitExpr, "LIMIT"); err != nil {
			return nil, err
		}
	}
	if sel.OffsetExpr != nil {
		if node.Offset, err = intValue(sel.OffsetExpr, "OFFSET"); err != nil {
			return nil, err
		}
	}

	if sel.Compound != nil {
		kind := "UNION"
		if sel.UnionAll.IsValid() {
			kind = "UNION ALL"
		} else if !sel.Union.IsValid() {
			return nil, UnsupportedError{Construct: "compound operator other than UNION"}
		}
		stmt, err := selectToNode(sel.Compound)
		if err != nil {
			return nil, err
		}
		node.Unions = append(node.Unions, rawast.UnionItem{Kind: kind, Stmt: stmt})
	}

	return node, nil
}

func resultColumnToNode(col *sql.ResultColumn) (rawast.SelectColumn, error) {
	if col.Star.IsValid() {
		return rawast.SelectColumn{Expr: &rawast.Node{Type: rawast.NodeStar}}, nil
	}
	expr, err := exprToNode(col.Expr)
	if err != nil {
		return rawast.SelectColumn{}, err
	}
	return rawast.SelectColumn{Expr: expr, As: sql.IdentName(col.Alias)}, nil
}

// sourceToItems flattens a join tree into the raw from list: the leftmost
// leaf is the primary source and every join step adds a tagged entry.
func sourceToItems(src sql.Source) ([]rawast.FromItem, error) {
	switch s := src.(type) {
	case *sql.QualifiedTableName:
		return []rawast.FromItem{{
			Table: sql.IdentName(s.Name),
			Alias: sql.IdentName(s.Alias),
		}}, nil
	case *sql.ParenSource:
		inner, err := sourceToItems(s.X)
		if err != nil {
			return nil, err
		}
		if alias := sql.IdentName(s.Alias); alias != "" && len(inner) == 1 {
			inner[0].Alias = alias
		}
		return inner, nil
	case *sql.SelectStatement:
		stmt, err := selectToNode(s)
		if err != nil {
			return nil, err
		}
		return []rawast.FromItem{{Expr: stmt}}, nil
	case *sql.JoinClause:
		return joinToItems(s)
	default:
		return nil, UnsupportedError{Construct: fmt.Sprintf("%T source", src)}
	}
}

func joinToItems(join *sql.JoinClause) ([]rawast.FromItem, error) {
	items, err := sourceToItems(join.X)
	if err != nil {
		return nil, err
	}
	right, err := sourceToItems(join.Y)
	if err != nil {
		return nil, err
	}
	if len(right) != 1 {
		return nil, UnsupportedError{Construct: "nested join on the right side"}
	}

	kind, err := joinKind(join.Operator)
	if err != nil {
		return nil, err
	}
	item := right[0]
	item.Join = kind

	if join.Constraint != nil {
		on, ok := join.Constraint.(*sql.OnConstraint)
		if !ok {
			return nil, UnsupportedError{Construct: fmt.Sprintf("%T join constraint", join.Constraint)}
		}
		if item.On, err = exprToNode(on.X); err != nil {
			return nil, err
		}
	}
	return append(items, item), nil
}

func joinKind(op *sql.JoinOperator) (string, error) {
	switch {
	case op == nil:
		return "JOIN", nil
	case op.Natural.IsValid():
		return "", UnsupportedError{Construct: "NATURAL JOIN"}
	case op.Comma.IsValid(), op.Cross.IsValid():
		return "CROSS JOIN", nil
	case op.Left.IsValid():
		return "LEFT JOIN", nil
	case op.Inner.IsValid():
		return "INNER JOIN", nil
	default:
		return "JOIN", nil
	}
}

func exprToNode(expr sql.Expr) (*rawast.Node, error) {
	switch e := expr.(type) {
	case *sql.BinaryExpr:
		left, err := exprToNode(e.X)
		if err != nil {
			return nil, err
		}
		right, err := exprToNode(e.Y)
		if err != nil {
			return nil, err
		}
		return &rawast.Node{
			Type:     rawast.NodeBinary,
			Operator: operatorText(e.Op.String()),
			Left:     left,
			Right:    right,
		}, nil
	case *sql.ParenExpr:
		if sub, ok := e.X.(sql.SelectExpr); ok {
			return selectToNode(sub.SelectStatement)
		}
		inner, err := exprToNode(e.X)
		if err != nil {
			return nil, err
		}
		if inner.Type == rawast.NodeBinary {
			inner.Parenthesized = true
		}
		return inner, nil
	case sql.SelectExpr:
		return selectToNode(e.SelectStatement)
	case *sql.UnaryExpr:
		return unaryToNode(e)
	case *sql.Ident:
		return &rawast.Node{Type: rawast.NodeColumnRef, Column: e.Name}, nil
	case *sql.QualifiedRef:
		if e.Star.IsValid() {
			return &rawast.Node{Type: rawast.NodeColumnRef, Table: sql.IdentName(e.Table), Column: "*"}, nil
		}
		return &rawast.Node{
			Type:   rawast.NodeColumnRef,
			Table:  sql.IdentName(e.Table),
			Column: sql.IdentName(e.Column),
		}, nil
	case *sql.StringLit:
		return &rawast.Node{Type: rawast.NodeString, Value: e.Value}, nil
	case *sql.NumberLit:
		return &rawast.Node{Type: rawast.NodeNumber, Value: numberValue(e.Value)}, nil
	case *sql.BoolLit:
		return &rawast.Node{Type: rawast.NodeBool, Value: e.Value}, nil
	case *sql.NullLit:
		return &rawast.Node{Type: rawast.NodeNull}, nil
	case *sql.Call:
		return callToNode(e)
	case *sql.ExprList:
		items := make([]*rawast.Node, 0, len(e.Exprs))
		for _, item := range e.Exprs {
			n, err := exprToNode(item)
			if err != nil {
				return nil, err
			}
			items = append(items, n)
		}
		return &rawast.Node{Type: rawast.NodeExprList, Items: items}, nil
	case *sql.CaseExpr:
		return caseToNode(e)
	default:
		return nil, UnsupportedError{Construct: fmt.Sprintf("%T expression", expr)}
	}
}

func unaryToNode(e *sql.UnaryExpr) (*rawast.Node, error) {
	inner, err := exprToNode(e.X)
	if err != nil {
		return nil, err
	}
	if e.Op.String() == "-" && inner.Type == rawast.NodeNumber {
		switch v := inner.Value.(type) {
		case int64:
			inner.Value = -v
		case float64:
			inner.Value = -v
		}
		return inner, nil
	}
	return nil, UnsupportedError{Construct: fmt.Sprintf("unary %s", e.Op.String())}
}

func callToNode(call *sql.Call) (*rawast.Node, error) {
	node := &rawast.Node{Type: rawast.NodeFunction, Name: sql.IdentName(call.Name)}
	if call.Star.IsValid() {
		node.Args = []*rawast.Node{{Type: rawast.NodeStar}}
		return node, nil
	}
	for _, arg := range call.Args {
		n, err := exprToNode(arg)
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, n)
	}
	return node, nil
}

func caseToNode(e *sql.CaseExpr) (*rawast.Node, error) {
	node := &rawast.Node{Type: rawast.NodeCase}
	var err error
	if e.Operand != nil {
		if node.Expr, err = exprToNode(e.Operand); err != nil {
			return nil, err
		}
	}
	for _, block := range e.Blocks {
		cond, err := exprToNode(block.Condition)
		if err != nil {
			return nil, err
		}
		result, err := exprToNode(block.Body)
		if err != nil {
			return nil, err
		}
		node.Whens = append(node.Whens, rawast.WhenClause{Cond: cond, Result: result})
	}
	if e.ElseExpr != nil {
		if node.Else, err = exprToNode(e.ElseExpr); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// operatorText normalizes the parser's token spelling to plain SQL.
func operatorText(op string) string {
	switch strings.ToUpper(op) {
	case "ISNOT", "IS NOT":
		return "IS NOT"
	case "NOTIN", "NOT IN":
		return "NOT IN"
	case "NOTLIKE", "NOT LIKE":
		return "NOT LIKE"
	case "NOTBETWEEN", "NOT BETWEEN":
		return "NOT BETWEEN"
	case "<>":
		return "!="
	default:
		return strings.ToUpper(op)
	}
}

func columnName(expr sql.Expr) (string, error) {
	switch e := expr.(type) {
	case *sql.Ident:
		return e.Name, nil
	case *sql.QualifiedRef:
		return sql.IdentName(e.Table) + "." + sql.IdentName(e.Column), nil
	default:
		return "", UnsupportedError{Construct: fmt.Sprintf("%T ordering term", expr)}
	}
}

func intValue(expr sql.Expr, clause string) (*int, error) {
	lit, ok := expr.(*sql.NumberLit)
	if !ok {
		return nil, UnsupportedError{Construct: fmt.Sprintf("%T %s expression", expr, clause)}
	}
	v, err := strconv.Atoi(lit.Value)
	if err != nil {
		return nil, fmt.Errorf("%s value %q: %w", clause, lit.Value, err)
	}
	return &v, nil
}

func numberValue(text string) any {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}
