package requel_test

import (
	"errors"
	"testing"

	"github.com/zoobzio/requel"
	"github.com/zoobzio/requel/rawast"
)

func colNode(name string) *rawast.Node {
	return &rawast.Node{Type: rawast.NodeColumnRef, Column: name}
}

func numNode(v int64) *rawast.Node {
	return &rawast.Node{Type: rawast.NodeNumber, Value: v}
}

func strNode(v string) *rawast.Node {
	return &rawast.Node{Type: rawast.NodeString, Value: v}
}

func binNode(op string, left, right *rawast.Node) *rawast.Node {
	return &rawast.Node{Type: rawast.NodeBinary, Operator: op, Left: left, Right: right}
}

func parenNode(n *rawast.Node) *rawast.Node {
	n.Parenthesized = true
	return n
}

func selectNode(table string, columns ...string) *rawast.Node {
	n := &rawast.Node{
		Type: rawast.NodeSelect,
		From: []rawast.FromItem{{Table: table}},
	}
	for _, c := range columns {
		n.Columns = append(n.Columns, rawast.SelectColumn{Expr: colNode(c)})
	}
	return n
}

// Explicit parentheses in the source become explicit nesting in the IR,
// and the renderer re-emits them with minimal parenthesization. The input
// here is the tree a parser produces for:
//
//	a > 18 AND b = 'x' OR (c < 18 AND d = 'y' OR (e = 18 AND f = 'z'))
func TestMap_FilterRegrouping_RoundTrip(t *testing.T) {
	root := selectNode("people", "name")
	root.Where = binNode("OR",
		binNode("AND",
			binNode(">", colNode("a"), numNode(18)),
			binNode("=", colNode("b"), strNode("x")),
		),
		parenNode(binNode("OR",
			binNode("AND",
				binNode("<", colNode("c"), numNode(18)),
				binNode("=", colNode("d"), strNode("y")),
			),
			parenNode(binNode("AND",
				binNode("=", colNode("e"), numNode(18)),
				binNode("=", colNode("f"), strNode("z")),
			)),
		)),
	)

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	result, err := requel.Build(q, requel.Simple)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	expected := `SELECT name FROM people WHERE (a > 18 AND b = 'x') OR (c < 18 AND d = 'y') OR (e = 18 AND f = 'z')`
	if result.SQL != expected {
		t.Errorf("Expected SQL:\n%s\nGot:\n%s", expected, result.SQL)
	}
}

// Unparenthesized chains of the same operator collapse into one flat
// conditions sequence.
func TestMap_FilterAssociativityFlattening(t *testing.T) {
	root := selectNode("users", "name")
	root.Where = binNode("AND",
		binNode("AND",
			binNode("=", colNode("a"), numNode(1)),
			binNode("=", colNode("b"), numNode(2)),
		),
		binNode("=", colNode("c"), numNode(3)),
	)

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if q.Where == nil || len(q.Where.Conditions) != 3 {
		t.Fatalf("Expected 3 flat conditions, got %+v", q.Where)
	}

	result, err := requel.Build(q, requel.Simple)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	expected := `SELECT name FROM users WHERE a = 1 AND b = 2 AND c = 3`
	if result.SQL != expected {
		t.Errorf("Expected SQL:\n%s\nGot:\n%s", expected, result.SQL)
	}
}

func TestMap_RootMustBeSelect(t *testing.T) {
	_, err := requel.Map(&rawast.Node{Type: "insert"})
	var merr requel.MappingError
	if !errors.As(err, &merr) {
		t.Fatalf("Expected MappingError, got %v", err)
	}
}

func TestMap_UnsupportedNodeKind(t *testing.T) {
	root := selectNode("users")
	root.Columns = []rawast.SelectColumn{{Expr: &rawast.Node{Type: "window_spec"}}}

	_, err := requel.Map(root)
	var uerr requel.UnsupportedExpressionError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected UnsupportedExpressionError, got %v", err)
	}
	if uerr.Kind != "window_spec" {
		t.Errorf("Expected kind window_spec, got %q", uerr.Kind)
	}
}

func TestMap_Joins(t *testing.T) {
	root := &rawast.Node{
		Type: rawast.NodeSelect,
		Columns: []rawast.SelectColumn{
			{Expr: &rawast.Node{Type: rawast.NodeColumnRef, Table: "u", Column: "name"}},
		},
		From: []rawast.FromItem{
			{Table: "users", Alias: "u"},
			{
				Table: "posts", Alias: "p", Join: "left outer join",
				On: binNode("=",
					&rawast.Node{Type: rawast.NodeColumnRef, Table: "p", Column: "user_id"},
					&rawast.Node{Type: rawast.NodeColumnRef, Table: "u", Column: "id"},
				),
			},
			{Table: "settings", Join: "CROSS JOIN"},
		},
	}

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	result, err := requel.Build(q, requel.Simple)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	expected := `SELECT u.name FROM users u LEFT JOIN posts p ON p.user_id = u.id CROSS JOIN settings`
	if result.SQL != expected {
		t.Errorf("Expected SQL:\n%s\nGot:\n%s", expected, result.SQL)
	}
}

func TestMap_UnknownJoinKind(t *testing.T) {
	root := selectNode("users", "name")
	root.From = append(root.From, rawast.FromItem{
		Table: "posts", Join: "LATERAL JOIN",
		On: binNode("=", colNode("a"), colNode("b")),
	})

	_, err := requel.Map(root)
	var merr requel.MappingError
	if !errors.As(err, &merr) {
		t.Fatalf("Expected MappingError, got %v", err)
	}
}

func TestMap_JoinWithoutOn(t *testing.T) {
	root := selectNode("users", "name")
	root.From = append(root.From, rawast.FromItem{Table: "posts", Join: "INNER JOIN"})

	if _, err := requel.Map(root); err == nil {
		t.Fatal("Expected an error for INNER JOIN without ON")
	}
}

func TestMap_GroupByMustBeColumn(t *testing.T) {
	root := selectNode("users", "age")
	root.GroupBy = []*rawast.Node{numNode(1)}

	var merr requel.MappingError
	if _, err := requel.Map(root); !errors.As(err, &merr) {
		t.Fatalf("Expected MappingError for positional GROUP BY, got %v", err)
	}
}

func TestMap_NegativeLimit(t *testing.T) {
	root := selectNode("users", "name")
	limit := -1
	root.Limit = &limit

	var merr requel.MappingError
	if _, err := requel.Map(root); !errors.As(err, &merr) {
		t.Fatalf("Expected MappingError for negative limit, got %v", err)
	}
}

func TestMap_CTEAndUnion(t *testing.T) {
	cte := selectNode("posts", "id")
	cte.Where = binNode("=", colNode("published"), &rawast.Node{Type: rawast.NodeBool, Value: true})

	root := selectNode("recent", "id")
	root.With = []rawast.CTEItem{{Name: "recent", Stmt: cte}}
	root.Unions = []rawast.UnionItem{{Kind: "union all", Stmt: selectNode("archived", "id")}}

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	result, err := requel.Build(q, requel.Simple)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	expected := `WITH recent AS (SELECT id FROM posts WHERE published = TRUE) SELECT id FROM recent UNION ALL SELECT id FROM archived`
	if result.SQL != expected {
		t.Errorf("Expected SQL:\n%s\nGot:\n%s", expected, result.SQL)
	}
}

// An IN against an empty value list drops out during mapping; a WHERE
// consisting only of such conditions maps to no filter at all.
func TestMap_EmptyInDroppedDuringMapping(t *testing.T) {
	root := selectNode("users", "name")
	root.Where = binNode("IN", colNode("status"), &rawast.Node{Type: rawast.NodeExprList})

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if q.Where != nil {
		t.Errorf("Expected no WHERE filter, got %+v", q.Where)
	}
}

func TestMap_InList(t *testing.T) {
	root := selectNode("users", "name")
	root.Where = binNode("IN", colNode("status"), &rawast.Node{
		Type:  rawast.NodeExprList,
		Items: []*rawast.Node{strNode("active"), strNode("pending")},
	})

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	result, err := requel.Build(q, requel.Positional)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	expected := `SELECT name FROM users WHERE status IN (?, ?)`
	if result.SQL != expected {
		t.Errorf("Expected SQL:\n%s\nGot:\n%s", expected, result.SQL)
	}
}

func TestMap_ScalarSubquery(t *testing.T) {
	sub := selectNode("orders", "user_id")
	sub.Where = binNode(">", colNode("total"), numNode(100))

	root := selectNode("users", "name")
	root.Where = binNode("IN", colNode("id"), sub)

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	result, err := requel.Build(q, requel.Named)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	expected := `SELECT name FROM users WHERE id IN (SELECT user_id FROM orders WHERE total > @param1)`
	if result.SQL != expected {
		t.Errorf("Expected SQL:\n%s\nGot:\n%s", expected, result.SQL)
	}
}

func TestMap_CaseBecomesRawFragment(t *testing.T) {
	root := selectNode("users")
	root.Columns = []rawast.SelectColumn{{
		Expr: &rawast.Node{
			Type: rawast.NodeCase,
			Whens: []rawast.WhenClause{{
				Cond:   binNode(">=", colNode("age"), numNode(18)),
				Result: strNode("adult"),
			}},
			Else: strNode("minor"),
		},
		As: "bracket",
	}}

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	result, err := requel.Build(q, requel.Simple)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	expected := `SELECT CASE WHEN age >= 18 THEN 'adult' ELSE 'minor' END AS bracket FROM users`
	if result.SQL != expected {
		t.Errorf("Expected SQL:\n%s\nGot:\n%s", expected, result.SQL)
	}
}

func TestMap_AggregateStar(t *testing.T) {
	root := selectNode("posts")
	root.Columns = []rawast.SelectColumn{{
		Expr: &rawast.Node{
			Type: rawast.NodeAggrFunc,
			Name: "COUNT",
			Args: []*rawast.Node{{Type: rawast.NodeStar}},
		},
		As: "total",
	}}

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	result, err := requel.Build(q, requel.Simple)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	expected := `SELECT COUNT(*) AS total FROM posts`
	if result.SQL != expected {
		t.Errorf("Expected SQL:\n%s\nGot:\n%s", expected, result.SQL)
	}
}

func TestMap_OrderByDefaultsAscending(t *testing.T) {
	root := selectNode("posts", "id")
	root.OrderBy = []rawast.OrderTerm{{Column: "created_at"}, {Column: "id", Type: "desc"}}

	q, err := requel.Map(root)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if len(q.OrderBy) != 2 {
		t.Fatalf("Expected 2 order terms, got %d", len(q.OrderBy))
	}
	if q.OrderBy[0].Direction != requel.ASC || q.OrderBy[1].Direction != requel.DESC {
		t.Errorf("Unexpected directions: %+v", q.OrderBy)
	}
}

func TestMap_DepthLimit(t *testing.T) {
	root := selectNode("users", "name")
	root.From = []rawast.FromItem{{Expr: selectNode("accounts", "name"), Alias: "a"}}

	_, err := requel.Map(root, requel.WithMapDepth(1))
	var derr requel.DepthExceededError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DepthExceededError, got %v", err)
	}

	if _, err := requel.Map(root); err != nil {
		t.Errorf("Default depth should allow one level, got %v", err)
	}
}
