package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimburion/querykit/pkg/query"
)

func TestDbType_String(t *testing.T) {
	assert.Equal(t, "string", DbTypeString.String())
	assert.Equal(t, "datetime", DbTypeDateTime.String())
	assert.Equal(t, "DbType(42)", DbType(42).String())
}

func TestInParam(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		t       DbType
		value   any
		want    any
		wantErr bool
	}{
		{name: "string from int", t: DbTypeString, value: 42, want: "42"},
		{name: "int32 from string", t: DbTypeInt32, value: "7", want: int32(7)},
		{name: "int64 from float", t: DbTypeInt64, value: 3.0, want: int64(3)},
		{name: "decimal", t: DbTypeDecimal, value: "1.5", want: 1.5},
		{name: "boolean", t: DbTypeBoolean, value: "true", want: true},
		{name: "datetime", t: DbTypeDateTime, value: "2024-03-01T12:00:00Z", want: when},
		{name: "binary from string", t: DbTypeBinary, value: "ab", want: []byte("ab")},
		{name: "nil stays nil", t: DbTypeInt64, value: nil, want: nil},
		{name: "bad int", t: DbTypeInt32, value: "seven", wantErr: true},
		{name: "bad binary", t: DbTypeBinary, value: 12, wantErr: true},
		{name: "unknown type", t: DbType(99), value: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arg, err := InParam("p", tt.t, tt.value)
			if tt.wantErr {
				assert.ErrorContains(t, err, "parameter p")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "p", arg.Name)
			assert.Equal(t, tt.want, arg.Value)
		})
	}
}

func TestOutParam(t *testing.T) {
	arg := OutParam("total", DbTypeInt64)
	out, ok := arg.Value.(sql.Out)
	require.True(t, ok)
	*(out.Dest.(*int64)) = 12
	assert.Equal(t, int64(12), OutValue(arg))

	assert.Equal(t, "", OutValue(OutParam("s", DbTypeString)))
	assert.Equal(t, 5, OutValue(sql.Named("plain", 5)))
}

func TestStatementKind(t *testing.T) {
	assert.Equal(t, "select", statementKind("  SELECT * from t"))
	assert.Equal(t, "insert", statementKind("insert into t values (1)"))
	assert.Equal(t, "other", statementKind("create table t (id int)"))
	assert.Equal(t, "other", statementKind(""))
}

func TestSQLDatabase_ExecuteScalar(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t, query.SQLite)

	mock.ExpectQuery("select name from tags where id = ?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("go")))
	mock.ExpectQuery("select name from tags where id = ?").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	v, err := db.ExecuteScalar(ctx, "select name from tags where id = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, "go", v)

	v, err = db.ExecuteScalar(ctx, "select name from tags where id = ?", 2)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSQLDatabase_ExecuteNonQueryAndInsert(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t, query.MySQL)
	boom := errors.New("deadlock")

	mock.ExpectExec("update tags set name = ?").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("insert into tags (name) values (?)").WillReturnResult(sqlmock.NewResult(17, 1))
	mock.ExpectExec("delete from tags").WillReturnError(boom)

	n, err := db.ExecuteNonQuery(ctx, "update tags set name = ?", "x")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	id, err := db.ExecuteInsert(ctx, "insert into tags (name) values (?)", "x")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	_, err = db.ExecuteNonQuery(ctx, "delete from tags")
	assert.ErrorIs(t, err, boom)
}

func TestSQLDatabase_ExecuteReaderStopsOnScanError(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t, query.SQLite)
	stop := errors.New("stop")

	mock.ExpectQuery("select id from tags").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))

	seen := 0
	err := db.ExecuteReader(ctx, func(rows *sql.Rows) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	}, "select id from tags")
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestSQLDatabase_Defaults(t *testing.T) {
	db := NewSQLDatabase(nil, nil)
	assert.Equal(t, query.SQLServer, db.Dialect())

	arg, err := db.BuildInParam("n", DbTypeInt32, "3")
	require.NoError(t, err)
	assert.Equal(t, int32(3), arg.Value)
	assert.Equal(t, "n", db.BuildOutParam("n", DbTypeBoolean).Name)
}
