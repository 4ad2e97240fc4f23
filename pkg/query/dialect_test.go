package query

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
)

func pagedPosts() *Query[struct{}] {
	return Table("posts").
		Select("title", "name").
		Where("author").Is(String("kim")).
		OrderByDescending("created_at").
		Limit(10).
		Offset(20)
}

func TestDialects_Golden(t *testing.T) {
	g := goldie.New(t)

	for _, d := range []Dialect{SQLServer, Postgres, MySQL, SQLite} {
		t.Run(d.Name(), func(t *testing.T) {
			limited, err := Table("posts").Select("title", "name").Where("author").Is(String("kim")).Limit(5).Build(d)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			paged, err := pagedPosts().Build(d)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			g.Assert(t, "dialect_"+d.Name(), []byte(limited+"\n"+paged+"\n"))
		})
	}
}

func TestDialect_Placeholders(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{dialect: SQLServer, want: "@p2"},
		{dialect: Postgres, want: "$2"},
		{dialect: MySQL, want: "?"},
		{dialect: SQLite, want: "?"},
	}
	for _, tt := range tests {
		if got := tt.dialect.Placeholder(2); got != tt.want {
			t.Fatalf("%s Placeholder(2) = %q, want %q", tt.dialect.Name(), got, tt.want)
		}
	}
}

func TestDialect_QuoteIdentifier(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{dialect: SQLServer, in: "key", want: "[key]"},
		{dialect: SQLServer, in: "odd]name", want: "[odd]]name]"},
		{dialect: Postgres, in: "group", want: `"group"`},
		{dialect: MySQL, in: "year", want: "`year`"},
		{dialect: SQLite, in: `a"b`, want: `"a""b"`},
	}
	for _, tt := range tests {
		if got := tt.dialect.QuoteIdentifier(tt.in); got != tt.want {
			t.Fatalf("%s QuoteIdentifier(%q) = %q, want %q", tt.dialect.Name(), tt.in, got, tt.want)
		}
	}
}

func TestDialect_InsertReturning(t *testing.T) {
	if before, after := SQLServer.InsertReturning("id"); before != "output inserted.id" || after != "" {
		t.Fatalf("sqlserver InsertReturning = %q, %q", before, after)
	}
	if before, after := Postgres.InsertReturning("id"); before != "" || after != "returning id" {
		t.Fatalf("postgres InsertReturning = %q, %q", before, after)
	}
	if before, after := SQLite.InsertReturning("id"); before != "" || after != "" {
		t.Fatalf("sqlite InsertReturning = %q, %q", before, after)
	}
}

func TestDialect_OffsetWithoutLimit(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{dialect: SQLServer, want: "select * from posts order by (select null) offset 5 rows"},
		{dialect: Postgres, want: "select * from posts offset 5"},
		{dialect: SQLite, want: "select * from posts limit -1 offset 5"},
		{dialect: MySQL, want: "select * from posts limit 18446744073709551615 offset 5"},
	}
	for _, tt := range tests {
		got, err := Table("posts").Offset(5).Build(tt.dialect)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got != tt.want {
			t.Fatalf("%s Build() = %q, want %q", tt.dialect.Name(), got, tt.want)
		}
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
	}{
		{in: "", want: SQLServer},
		{in: "MSSQL", want: SQLServer},
		{in: "postgresql", want: Postgres},
		{in: " mysql ", want: MySQL},
		{in: "sqlite3", want: SQLite},
	}
	for _, tt := range tests {
		got, err := DialectFor(tt.in)
		if err != nil {
			t.Fatalf("DialectFor(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("DialectFor(%q) = %s, want %s", tt.in, got.Name(), tt.want.Name())
		}
	}

	if _, err := DialectFor("oracle"); !errors.Is(err, ErrUnknownDialect) {
		t.Fatalf("DialectFor(oracle) error = %v, want ErrUnknownDialect", err)
	}
}
