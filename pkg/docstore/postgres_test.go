package docstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewPostgresStore(sqlxDB), mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestPostgresStoreGet(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"Grade 7"}`))
	mock.ExpectQuery("SELECT data FROM documents").
		WithArgs("teachers/t1/classes/c1").
		WillReturnRows(rows)

	raw, err := store.Get(context.Background(), "teachers/t1/classes/c1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Grade 7"}`, string(raw))
}

func TestPostgresStoreGetMissing(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT data FROM documents").
		WithArgs("teachers/t1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	_, err := store.Get(context.Background(), "teachers/t1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreGetRejectsCollectionPath(t *testing.T) {
	store, _, cleanup := newStoreMock(t)
	defer cleanup()

	_, err := store.Get(context.Background(), "teachers/t1/classes")
	assert.Error(t, err)
}

func TestPostgresStoreSetReplace(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("teachers/t1", "teachers", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Set(context.Background(), "teachers/t1", map[string]interface{}{"email": "a@b.c"}, false)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSetMergeUsesConcatenation(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(`documents\.data \|\| EXCLUDED\.data`).
		WithArgs("teachers/t1/lessons/l1", "teachers/t1/lessons", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Set(context.Background(), "teachers/t1/lessons/l1", map[string]interface{}{"deleted": true}, true)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreQueryWithFilter(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"path", "data"}).
		AddRow("teachers/t1", []byte(`{"email":"a@b.c"}`))
	mock.ExpectQuery("SELECT path, data FROM documents").
		WithArgs("teachers", []byte(`{"email":"a@b.c"}`)).
		WillReturnRows(rows)

	entries, err := store.Query(context.Background(), "teachers", map[string]interface{}{"email": "a@b.c"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "teachers/t1", entries[0].Path)
}

func TestPostgresStoreInTxCommitsWrites(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("teachers/t1/lessons/l1", "teachers/t1/lessons", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx Store) error {
		return tx.Set(context.Background(), "teachers/t1/lessons/l1", map[string]interface{}{"questions_locked": []string{"q1"}}, true)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreInTxRollsBackOnError(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx Store) error {
		return context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParentOf(t *testing.T) {
	assert.Equal(t, "teachers/t1/lessons", ParentOf("teachers/t1/lessons/l1"))
	assert.Equal(t, "", ParentOf("teachers"))
}

func TestValidPath(t *testing.T) {
	cases := map[string]bool{
		"teachers/t1":                     true,
		"teachers/t1/lessons/l1":          true,
		"teachers":                        false,
		"teachers/t1/lessons":             false,
		"teachers//lessons/l1":            false,
		"":                                false,
		"teachers/t1/lessons/l1/extra":    false,
		"teachers/t1/lessons/l1/r/r1":     true,
	}
	for path, want := range cases {
		assert.Equal(t, want, ValidPath(path), path)
	}
}
