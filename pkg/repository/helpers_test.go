package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/query"
	"github.com/nimburion/querykit/pkg/store/sqlite"
)

// article is a versioned entity.
type article struct {
	ID           int64  `db:"id"`
	Title        string `db:"title"`
	Author       string `db:"author"`
	Score        int64  `db:"score"`
	Version      int64  `db:"version"`
	VersionRefID int64  `db:"version_ref_id"`
}

func (a *article) GetVersion() int64        { return a.Version }
func (a *article) SetVersion(v int64)       { a.Version = v }
func (a *article) GetVersionRefID() int64   { return a.VersionRefID }
func (a *article) SetVersionRefID(id int64) { a.VersionRefID = id }

// tag is a plain entity without a version.
type tag struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

var articleColumns = []string{"id", "title", "author", "score", "version", "version_ref_id"}

func newMockDatabase(t *testing.T, dialect query.Dialect) (*SQLDatabase, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewSQLDatabase(db, dialect), mock
}

func newArticleRepository(db Database) *SQLRepository[article, int64] {
	return NewSQLRepository[article, int64](db, "articles", "id", NewReflectionMapper[article, int64]("ID"))
}

func newTagRepository(db Database) *SQLRepository[tag, int64] {
	return NewSQLRepository[tag, int64](db, "tags", "id", NewReflectionMapper[tag, int64]("ID"))
}

const articlesSchema = `create table articles (
	id integer primary key autoincrement,
	title text not null,
	author text not null default '',
	score integer not null default 0,
	version integer not null default 1,
	version_ref_id integer not null default -1
)`

// newSQLiteStore opens a fresh on-disk SQLite database with the articles table.
func newSQLiteStore(t *testing.T) (*sqlite.SQLiteAdapter, *SQLRepository[article, int64]) {
	t.Helper()
	adapter, err := sqlite.NewSQLiteAdapter(sqlite.Config{URL: filepath.Join(t.TempDir(), "articles.db")}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	_, err = adapter.ExecContext(context.Background(), articlesSchema)
	require.NoError(t, err)

	return adapter, newArticleRepository(NewSQLDatabase(adapter, adapter.Dialect()))
}
