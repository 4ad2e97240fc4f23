package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	_ "modernc.org/sqlite"

	"github.com/nimburion/querykit/pkg/query"
)

const articlesUp = `CREATE TABLE articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	version_ref_id INTEGER NOT NULL DEFAULT -1
)`

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func appliedCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT count(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count applied: %v", err)
	}
	return n
}

func TestNewSQLManagerNilDB(t *testing.T) {
	fs := fstest.MapFS{}
	_, err := NewSQLManager(nil, query.SQLite, fs, "migrations")
	if err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestNewSQLManagerNilFS(t *testing.T) {
	_, err := NewSQLManager(&sql.DB{}, query.SQLite, nil, "migrations")
	if err == nil {
		t.Fatal("expected error for nil fs")
	}
}

func TestNewSQLManagerEmptyDir(t *testing.T) {
	fs := fstest.MapFS{}
	_, err := NewSQLManager(&sql.DB{}, query.SQLite, fs, "")
	if err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestLoadMigrationsMissingUp(t *testing.T) {
	fs := fstest.MapFS{
		"migrations/001_init.down.sql": {Data: []byte("DROP TABLE users")},
	}
	_, err := loadMigrations(fs, "migrations")
	if err == nil {
		t.Fatal("expected error for missing up migration")
	}
}

func TestLoadMigrationsSuccess(t *testing.T) {
	fs := fstest.MapFS{
		"migrations/001_init.up.sql":   {Data: []byte("CREATE TABLE users")},
		"migrations/001_init.down.sql": {Data: []byte("DROP TABLE users")},
		"migrations/002_add.up.sql":    {Data: []byte("ALTER TABLE users ADD COLUMN name TEXT")},
		"migrations/README.md":         {Data: []byte("notes")},
	}
	migrations, err := loadMigrations(fs, "migrations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Fatalf("unexpected versions: %v", migrations)
	}
}

func TestLoadMigrationsInvalidVersion(t *testing.T) {
	fs := fstest.MapFS{
		"migrations/abc_init.up.sql": {Data: []byte("CREATE TABLE users")},
	}
	migrations, err := loadMigrations(fs, "migrations")
	// Invalid filenames are skipped, not errors
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 0 {
		t.Fatalf("expected 0 migrations, got %d", len(migrations))
	}
}

func TestLoadMigrationsReadError(t *testing.T) {
	fs := fstest.MapFS{}
	_, err := loadMigrations(fs, "nonexistent")
	if err == nil {
		t.Fatal("expected error for nonexistent directory")
	}
}

func TestMetadataTableDDL(t *testing.T) {
	tests := []struct {
		dialect query.Dialect
		want    string
	}{
		{dialect: query.SQLServer, want: "IF OBJECT_ID"},
		{dialect: query.Postgres, want: "TIMESTAMPTZ"},
		{dialect: query.MySQL, want: "CREATE TABLE IF NOT EXISTS"},
		{dialect: query.SQLite, want: "DEFAULT CURRENT_TIMESTAMP"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			if got := metadataTableDDL(tt.dialect); !strings.Contains(got, tt.want) {
				t.Fatalf("DDL for %s = %q, want it to contain %q", tt.dialect.Name(), got, tt.want)
			}
		})
	}
}

func TestSQLManagerLifecycleOnSQLite(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	files := fstest.MapFS{
		"migrations/001_articles.up.sql":      {Data: []byte(articlesUp)},
		"migrations/001_articles.down.sql":    {Data: []byte("DROP TABLE articles")},
		"migrations/002_article_score.up.sql": {Data: []byte("ALTER TABLE articles ADD COLUMN score INTEGER NOT NULL DEFAULT 0")},
	}

	m, err := NewSQLManager(db, query.SQLite, files, "migrations")
	if err != nil {
		t.Fatalf("NewSQLManager() error = %v", err)
	}

	applied, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}
	if _, err := db.Exec("INSERT INTO articles (title, score) VALUES ('x', 3)"); err != nil {
		t.Fatalf("migrated schema unusable: %v", err)
	}

	again, err := m.Up(ctx)
	if err != nil || again != 0 {
		t.Fatalf("second Up() = %d, %v; want 0, nil", again, err)
	}

	// 002 has no down script
	reverted, err := m.Down(ctx, 1)
	if err == nil {
		t.Fatal("expected error for missing down migration")
	}
	if reverted != 0 {
		t.Fatalf("reverted = %d, want 0", reverted)
	}

	status, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(status.AppliedVersions) != 2 || len(status.Pending) != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(m.Migrations()) != 2 {
		t.Fatalf("Migrations() = %d, want 2", len(m.Migrations()))
	}
}

func TestSQLManagerDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	files := fstest.MapFS{
		"migrations/001_articles.up.sql":   {Data: []byte(articlesUp)},
		"migrations/001_articles.down.sql": {Data: []byte("DROP TABLE articles")},
	}
	m, err := NewSQLManager(db, query.SQLite, files, "migrations")
	if err != nil {
		t.Fatalf("NewSQLManager() error = %v", err)
	}
	if _, err := m.Up(ctx); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	reverted, err := m.Down(ctx, 5)
	if err != nil {
		t.Fatalf("Down() error = %v", err)
	}
	if reverted != 1 {
		t.Fatalf("reverted = %d, want 1", reverted)
	}
	if got := appliedCount(t, db); got != 0 {
		t.Fatalf("applied = %d, want 0", got)
	}

	status, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(status.Pending) != 1 || status.Pending[0].Name != "articles" {
		t.Fatalf("unexpected pending: %+v", status.Pending)
	}
}

func TestSQLManagerUsesDialectPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	files := fstest.MapFS{
		"migrations/001_init.up.sql": {Data: []byte("CREATE TABLE t (id INT)")},
	}
	m, err := NewSQLManager(db, query.SQLServer, files, "migrations")
	if err != nil {
		t.Fatalf("NewSQLManager() error = %v", err)
	}

	mock.ExpectExec("IF OBJECT_ID").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE t").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`VALUES \(@p1, CURRENT_TIMESTAMP\)`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := m.Up(context.Background())
	if err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
