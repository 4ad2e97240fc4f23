package query

import (
	"strings"
	"testing"
)

const filterDoc = `
filters:
  published:
    where:
      - field: Status
        op: "="
        value: published
      - join: or
        field: Featured
        op: eq
        value: true
    order_by:
      - field: CreateDate
        desc: true
      - field: Title
    limit: 20
  by_ids:
    where:
      - field: Id
        op: in
        value: [1, 2, 3]
  orphaned:
    where:
      - field: AuthorId
        op: is null
  single_in:
    where:
      - field: Tag
        op: not in
        value: go
`

func TestLoadFilters(t *testing.T) {
	filters, err := LoadFilters(strings.NewReader(filterDoc))
	if err != nil {
		t.Fatalf("LoadFilters() error = %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{name: "published", want: "select top 20 * from Posts where Status = 'published' Or Featured = 1 order by CreateDate Desc, Title Asc"},
		{name: "by_ids", want: "select * from Posts where Id in (1, 2, 3)"},
		{name: "orphaned", want: "select * from Posts where AuthorId is null"},
		{name: "single_in", want: "select * from Posts where Tag not in ('go')"},
	}

	if len(filters) != len(tests) {
		t.Fatalf("loaded %d filters, want %d", len(filters), len(tests))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, ok := filters[tt.name]
			if !ok {
				t.Fatalf("filter %q not loaded", tt.name)
			}
			d, err := src.Data()
			if err != nil {
				t.Fatalf("Data() error = %v", err)
			}
			got, err := NewSQLBuilder(SQLServer).Build(d, "Posts")
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadFilters_Empty(t *testing.T) {
	filters, err := LoadFilters(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFilters() error = %v", err)
	}
	if len(filters) != 0 {
		t.Fatalf("expected no filters, got %d", len(filters))
	}
}

func TestLoadFilters_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "bad operator",
			doc:  "filters:\n  x:\n    where:\n      - field: A\n        op: approx\n        value: 1\n",
			want: "unsupported comparison",
		},
		{
			name: "bad join",
			doc:  "filters:\n  x:\n    where:\n      - join: xor\n        field: A\n        op: \"=\"\n        value: 1\n",
			want: "unsupported join",
		},
		{
			name: "bad value",
			doc:  "filters:\n  x:\n    where:\n      - field: A\n        op: \"=\"\n        value: {k: v}\n",
			want: "unsupported literal value",
		},
		{
			name: "negative limit",
			doc:  "filters:\n  x:\n    limit: -2\n",
			want: "must not be negative",
		},
		{
			name: "malformed yaml",
			doc:  "filters: [",
			want: "decode filter file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFilters(strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadFilters() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestParseConditionExpr(t *testing.T) {
	tests := []struct {
		expr   string
		field  string
		op     string
		render string
	}{
		{expr: "Id = 5", field: "Id", op: "=", render: "Id = 5"},
		{expr: "Rating <= 4.5", field: "Rating", op: "<=", render: "Rating <= 4.5"},
		{expr: "Title like 'Go%'", field: "Title", op: "like", render: "Title like 'Go%'"},
		{expr: "Name = 'O''Brien'", field: "Name", op: "=", render: "Name = 'O''Brien'"},
		{expr: "DeletedAt is null", field: "DeletedAt", op: "is null", render: "DeletedAt is null"},
		{expr: "DeletedAt IS NOT NULL", field: "DeletedAt", op: "is not null", render: "DeletedAt is not null"},
		{expr: "Id in [1, 2]", field: "Id", op: "in", render: "Id in (1, 2)"},
		{expr: "Active = true", field: "Active", op: "=", render: "Active = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			spec, err := ParseConditionExpr(tt.expr)
			if err != nil {
				t.Fatalf("ParseConditionExpr() error = %v", err)
			}
			if spec.Field != tt.field || spec.Op != tt.op {
				t.Fatalf("parsed %+v, want field %q op %q", spec, tt.field, tt.op)
			}
			q, err := FilterSpec{Where: []ConditionSpec{spec}}.Query()
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			d, _ := q.Data()
			if got := d.Conditions[0].SQL(); got != tt.render {
				t.Fatalf("rendered %q, want %q", got, tt.render)
			}
		})
	}
}

func TestParseConditionExpr_Errors(t *testing.T) {
	for _, expr := range []string{"", "Id", "Id ~ 4", "Name isnull"} {
		if _, err := ParseConditionExpr(expr); err == nil {
			t.Fatalf("ParseConditionExpr(%q) expected error", expr)
		}
	}
}

func TestParseComparison(t *testing.T) {
	got, err := ParseComparison("  NOT   IN ")
	if err != nil || got != NotInList {
		t.Fatalf("ParseComparison() = %q, %v", got, err)
	}
	if _, err := ParseComparison("between"); err == nil {
		t.Fatal("expected error for unsupported comparison")
	}
}
