package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimburion/querykit/pkg/query"
)

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t, query.SQLite)
	repo := newArticleRepository(db)
	byKim := query.New[article]().Where("author").Is(query.String("kim")).OrderBy("score").Limit(3)

	mock.ExpectQuery("select sum(score) from articles where author = 'kim'").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(12)))
	mock.ExpectQuery("select avg(score) from articles where author = 'kim'").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))
	mock.ExpectQuery("select min(title) from articles").
		WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow([]byte("alpha")))
	mock.ExpectQuery("select max(score) from articles").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(99)))
	mock.ExpectQuery("select count(*) from articles where author = 'kim'").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow("7"))

	sum, err := repo.Sum(ctx, "score", byKim)
	require.NoError(t, err)
	assert.Equal(t, 12.0, sum)

	avg, err := repo.Avg(ctx, "score", byKim)
	require.NoError(t, err)
	assert.Zero(t, avg, "avg over no rows")

	lowest, err := repo.Min(ctx, "title", nil)
	require.NoError(t, err)
	assert.Equal(t, "alpha", lowest)

	highest, err := repo.Max(ctx, "score", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(99), highest)

	n, err := repo.CountWhere(ctx, byKim)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestAggregateAs(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t, query.SQLServer)
	repo := newArticleRepository(db)

	mock.ExpectQuery("select max(score) from articles where score < 50").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(49)))
	mock.ExpectQuery("select max(title) from articles").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow("not a number"))

	got, err := AggregateAs[int](ctx, repo, AggregateMax, "score", query.New[article]().Where("score").LessThan(query.Int(50)))
	require.NoError(t, err)
	assert.Equal(t, 49, got)

	_, err = AggregateAs[int](ctx, repo, AggregateMax, "title", nil)
	assert.Error(t, err)
}

func TestAggregateRejectsIncompleteCriteria(t *testing.T) {
	db, _ := newMockDatabase(t, query.SQLite)
	repo := newArticleRepository(db)

	_, err := repo.Sum(context.Background(), "score", query.New[article]().Where("author"))
	assert.ErrorIs(t, err, query.ErrIncompleteCondition)
}

func TestDistinct(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t, query.SQLite)
	repo := newArticleRepository(db)

	mock.ExpectQuery("select distinct author from articles where score > 1 order by author Asc").
		WillReturnRows(sqlmock.NewRows([]string{"author"}).AddRow("kim").AddRow([]byte("lee")))
	mock.ExpectQuery("select distinct score from articles").
		WillReturnRows(sqlmock.NewRows([]string{"score"}))

	authors, err := Distinct[string](ctx, repo, "author",
		query.New[article]().Where("score").MoreThan(query.Int(1)).OrderBy("author"))
	require.NoError(t, err)
	assert.Equal(t, []string{"kim", "lee"}, authors)

	scores, err := Distinct[int64](ctx, repo, "score", nil)
	require.NoError(t, err)
	assert.NotNil(t, scores)
	assert.Empty(t, scores)
}

func TestGroup(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t, query.Postgres)
	repo := newArticleRepository(db)

	mock.ExpectQuery("select author, count(*) from articles where version_ref_id = -1 group by author").
		WillReturnRows(sqlmock.NewRows([]string{"author", "count"}).
			AddRow("kim", int64(3)).
			AddRow("lee", int64(1)))

	groups, err := Group[string](ctx, repo, "author",
		query.New[article]().Where("version_ref_id").Is(query.Int(-1)))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"kim": 3, "lee": 1}, groups)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t, query.SQLite)
	repo := newArticleRepository(db)

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(articleColumns).
			AddRow(int64(1), "a", "kim", int64(3), int64(1), int64(-1)).
			AddRow(int64(2), "b", "lee", int64(5), int64(1), int64(-1)).
			AddRow(int64(3), "c", "kim", int64(8), int64(1), int64(-1))
	}
	mock.ExpectQuery("select * from articles").WillReturnRows(rows())
	mock.ExpectQuery("select * from articles").WillReturnRows(rows())

	byAuthor, err := Lookup[string](ctx, repo, "author", nil)
	require.NoError(t, err)
	require.Len(t, byAuthor, 2)
	assert.Equal(t, "c", byAuthor["kim"].Title, "last row read wins")
	assert.Equal(t, "b", byAuthor["lee"].Title)

	_, err = Lookup[string](ctx, repo, "missing", nil)
	assert.ErrorContains(t, err, `column "missing"`)
}
