package requel_test

import (
	"strings"
	"testing"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/requel"
)

func testSchema() requel.Schema {
	return requel.Schema{
		"users": {"id", "name", "age", "active"},
		"posts": {"id", "user_id", "title"},
	}
}

func TestValidate_CleanQueryHasNoViolations(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("name")}},
		From:    requel.T("users"),
		Where:   requel.And(requel.Cond("age", ">", 18)),
	}

	violations := requel.NewBuilder(requel.Named).WithSchema(testSchema()).Validate(q)
	if len(violations) != 0 {
		t.Errorf("Expected no violations, got %v", violations)
	}
}

func TestValidate_Lexical_ReservedKeywordColumn(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("select")}},
		From:    requel.T("users"),
	}

	violations := requel.Validate(q, nil)
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", violations)
	}
	if violations[0].Location != "SELECT" {
		t.Errorf("Expected location SELECT, got %q", violations[0].Location)
	}
	if !strings.Contains(violations[0].Message, "reserved") {
		t.Errorf("Unexpected message: %q", violations[0].Message)
	}
}

func TestValidate_Lexical_OperatorWhitelist(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("name")}},
		From:    requel.T("users"),
		Where:   requel.And(requel.Cond("name", "~~", "x")),
	}

	violations := requel.Validate(q, nil)
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", violations)
	}
	if violations[0].Location != "WHERE" {
		t.Errorf("Expected location WHERE, got %q", violations[0].Location)
	}
	if !strings.Contains(violations[0].Message, `"~~"`) {
		t.Errorf("Unexpected message: %q", violations[0].Message)
	}
}

func TestValidate_Lexical_OperatorInsideFunctionArgs(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: &requel.Expression{
			Left: requel.Func{Name: "COALESCE", Args: []requel.Operand{
				&requel.Expression{Left: requel.Col("a"), Operator: "~~", Right: requel.Lit("x")},
			}},
		}}},
		From: requel.T("users"),
	}

	violations := requel.Validate(q, nil)
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", violations)
	}
	if violations[0].Location != "SELECT" {
		t.Errorf("Expected location SELECT, got %q", violations[0].Location)
	}
	if !strings.Contains(violations[0].Message, "~~") {
		t.Errorf("Unexpected message: %q", violations[0].Message)
	}
}

func TestValidate_Syntax_GroupByMustBeSelected(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("name")}},
		From:    requel.T("users"),
		GroupBy: []string{"age"},
	}

	violations := requel.Validate(q, nil)
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", violations)
	}
	if violations[0].Location != "GROUP BY" {
		t.Errorf("Expected location GROUP BY, got %q", violations[0].Location)
	}

	// Selecting the column, or aliasing an expression to its name,
	// satisfies the rule.
	q.Selects = append(q.Selects, requel.SelectItem{Expr: requel.Col("age")})
	if violations := requel.Validate(q, nil); len(violations) != 0 {
		t.Errorf("Expected no violations after selecting age, got %v", violations)
	}
}

func TestValidate_Syntax_HavingRequiresGroupBy(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("name")}},
		From:    requel.T("users"),
		Having:  requel.And(requel.Cond("name", "=", "x")),
	}

	violations := requel.Validate(q, nil)
	if len(violations) != 1 || violations[0].Location != "HAVING" {
		t.Fatalf("Expected 1 HAVING violation, got %v", violations)
	}
}

func TestValidate_Syntax_LimitWithoutOrderBy(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("name")}},
		From:    requel.T("users"),
		Limit:   intp(10),
	}

	violations := requel.Validate(q, nil)
	if len(violations) != 1 || violations[0].Location != "LIMIT" {
		t.Fatalf("Expected 1 LIMIT violation, got %v", violations)
	}
	if violations[0].Suggestion != "add an ORDER BY clause" {
		t.Errorf("Unexpected suggestion: %q", violations[0].Suggestion)
	}

	q.OrderBy = []requel.OrderBy{requel.Asc("name")}
	if violations := requel.Validate(q, nil); len(violations) != 0 {
		t.Errorf("Expected no violations with ORDER BY, got %v", violations)
	}
}

func TestValidate_Schema_UnknownTable(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("id")}},
		From:    requel.T("accounts"),
	}

	violations := requel.Validate(q, testSchema())
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", violations)
	}
	if violations[0].Location != "FROM" {
		t.Errorf("Expected location FROM, got %q", violations[0].Location)
	}
	if violations[0].Suggestion != "available tables: posts, users" {
		t.Errorf("Unexpected suggestion: %q", violations[0].Suggestion)
	}
}

func TestValidate_Schema_UnknownTableStillChecksNested(t *testing.T) {
	q := &requel.Query{
		With: []requel.CTE{{Name: "recent", Query: &requel.Query{
			Selects: []requel.SelectItem{{Expr: requel.Col("nope")}},
			From:    requel.T("posts"),
		}}},
		Selects: []requel.SelectItem{{Expr: requel.Col("id")}},
		From:    requel.T("accounts"),
	}

	violations := requel.Validate(q, testSchema())
	if len(violations) != 2 {
		t.Fatalf("Expected 2 violations, got %v", violations)
	}
	if violations[0].Location != "FROM" {
		t.Errorf("Expected first violation at FROM, got %q", violations[0].Location)
	}
	if !strings.Contains(violations[1].Message, `"nope"`) {
		t.Errorf("Expected CTE column violation, got %q", violations[1].Message)
	}
}

func TestValidate_Schema_UnknownColumn(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("email")}},
		From:    requel.T("users"),
		Where:   requel.And(requel.Cond("name", "=", "x")),
	}

	violations := requel.Validate(q, testSchema())
	if len(violations) != 1 {
		t.Fatalf("Expected exactly 1 violation, got %v", violations)
	}
	v := violations[0]
	if v.Location != "SELECT" {
		t.Errorf("Expected location SELECT, got %q", v.Location)
	}
	if !strings.Contains(v.Message, `"email"`) {
		t.Errorf("Unexpected message: %q", v.Message)
	}
	if !strings.Contains(v.Suggestion, "available columns") {
		t.Errorf("Unexpected suggestion: %q", v.Suggestion)
	}
}

// A column qualified by a join alias is outside this rule's scope and must
// not be flagged.
func TestValidate_Schema_SkipsUnresolvedQualifiers(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{
			{Expr: requel.Col("u.name")},
			{Expr: requel.Col("p.title")},
		},
		From: requel.T("users", "u"),
		Joins: []requel.Join{
			{Kind: requel.JoinInner, Target: requel.T("posts", "p"), On: requel.CondCols("p.user_id", "=", "u.id")},
		},
	}

	violations := requel.Validate(q, testSchema())
	if len(violations) != 0 {
		t.Errorf("Expected no violations, got %v", violations)
	}
}

func TestValidate_Schema_RecursesIntoSubqueries(t *testing.T) {
	sub := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("user_id")}},
		From:    requel.T("nowhere"),
	}
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("name")}},
		From:    requel.T("users"),
		Where:   requel.And(requel.Cond("id", "IN", sub)),
	}

	violations := requel.Validate(q, testSchema())
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Message, `"nowhere"`) {
		t.Errorf("Unexpected message: %q", violations[0].Message)
	}
}

// All rules run; violations from different rules accumulate instead of
// short-circuiting.
func TestValidate_NoShortCircuit(t *testing.T) {
	q := &requel.Query{
		Selects: []requel.SelectItem{{Expr: requel.Col("order")}},
		From:    requel.T("users"),
		Where:   requel.And(requel.Cond("email", "~~", "x")),
		Limit:   intp(5),
	}

	violations := requel.Validate(q, testSchema())
	// reserved keyword "order", operator "~~", LIMIT without ORDER BY,
	// and two unknown columns.
	if len(violations) != 5 {
		t.Fatalf("Expected 5 violations, got %d: %v", len(violations), violations)
	}
}

func TestValidate_RuleNames(t *testing.T) {
	names := make([]string, 0, 3)
	for _, rule := range requel.Rules() {
		names = append(names, rule.Name())
	}
	want := []string{"lexical", "syntax", "schema"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Rule %d = %q, want %q", i, names[i], name)
		}
	}
}

func TestSchemaFromDBML(t *testing.T) {
	project := dbml.NewProject("test")
	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("name", "varchar"))
	project.AddTable(users)

	schema, err := requel.SchemaFromDBML(project)
	if err != nil {
		t.Fatalf("SchemaFromDBML failed: %v", err)
	}
	cols, ok := schema["users"]
	if !ok || len(cols) != 2 || cols[0] != "id" || cols[1] != "name" {
		t.Errorf("Unexpected schema: %v", schema)
	}

	if _, err := requel.SchemaFromDBML(nil); err == nil {
		t.Error("Expected an error for a nil project")
	}
}
