package postgres

import (
	"testing"

	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/query"
)

func TestNewPostgreSQLAdapter_EmptyURL(t *testing.T) {
	if _, err := NewPostgreSQLAdapter(Config{}, logger.NewNop()); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestPostgreSQLAdapter_Dialect(t *testing.T) {
	var a PostgreSQLAdapter
	if a.Dialect() != query.Postgres {
		t.Fatalf("Dialect() = %v, want Postgres", a.Dialect())
	}
}
