package jsonlite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := openTestDB(t)
	opts := NewOptions(db)
	schemas := NewSchemaRegistry(db)
	store, err := NewStore(db, opts, schemas)
	require.NoError(t, err)
	return store
}

func TestStoreInsertAssignsUID(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.Insert(Record{"type": "process", "name": "cmd.exe"})
	require.NoError(t, err)
	require.Regexp(t, `^process--[0-9a-f-]{36}$`, uid)
}

func TestStoreInsertMissingDiscriminator(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert(Record{"name": "cmd.exe"})
	require.ErrorIs(t, err, ErrMissingDiscriminator)
}

func TestStoreInsertGetRoundtrip(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.Insert(Record{
		"type": "process",
		"name": "cmd.exe",
		"pid":  1234,
		"env":  Record{"PATH": "/bin"},
	})
	require.NoError(t, err)

	got, err := s.Get(uid)
	require.NoError(t, err)
	require.Equal(t, "process", got["type"])
	require.Equal(t, "cmd.exe", got["name"])
	require.Equal(t, int64(1234), got["pid"])
	env, ok := got["env"].(Record)
	require.True(t, ok)
	require.Equal(t, "/bin", env["PATH"])
}

func TestStoreGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("process--00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreInsertAddsNewColumnOnSecondRecord(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert(Record{"type": "process", "name": "a"})
	require.NoError(t, err)
	_, err = s.Insert(Record{"type": "process", "name": "b", "pid": 99})
	require.NoError(t, err)

	require.Contains(t, s.catalog["process"], "pid")
}

func TestStoreColumnOnceTextAlwaysText(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert(Record{"type": "process", "name": "a", "pid": "not-a-number"})
	require.NoError(t, err)
	require.Equal(t, "TEXT", s.catalog["process"]["pid"])

	_, err = s.Insert(Record{"type": "process", "name": "b", "pid": 42})
	require.NoError(t, err, "an integral value into a TEXT column must coerce, not fail")
}

func TestStoreColumnIntegerRejectsNonIntegral(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert(Record{"type": "process", "name": "a", "pid": 42})
	require.NoError(t, err)
	require.Equal(t, "INTEGER", s.catalog["process"]["pid"])

	_, err = s.Insert(Record{"type": "process", "name": "b", "pid": "abc"})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestStoreUpdateSetsOnlyPartialKeys(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.Insert(Record{"type": "process", "name": "cmd.exe", "pid": 1})
	require.NoError(t, err)

	_, err = s.Update(uid, Record{"name": "updated.exe"})
	require.NoError(t, err)

	got, err := s.Get(uid)
	require.NoError(t, err)
	require.Equal(t, "updated.exe", got["name"])
	require.Equal(t, int64(1), got["pid"])
}

func TestStoreUpdateDiscriminatorMovesTable(t *testing.T) {
	s := newTestStore(t)
	uid, err := s.Insert(Record{"type": "process", "name": "cmd.exe"})
	require.NoError(t, err)

	newUID, err := s.Update(uid, Record{"type": "file", "name": "cmd.exe"})
	require.NoError(t, err)
	require.NotEqual(t, uid, newUID)
	require.Regexp(t, `^file--`, newUID)

	_, err = s.Get(uid)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := s.Get(newUID)
	require.NoError(t, err)
	require.Equal(t, "file", got["type"])
}

func TestStoreSelectRejectsUnknownColumn(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert(Record{"type": "process", "name": "cmd.exe"})
	require.NoError(t, err)

	_, err = s.Select("process", []Condition{{"nonexistent": "x"}})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestStoreSelectMatchesOredConditions(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert(Record{"type": "process", "name": "a"})
	require.NoError(t, err)
	_, err = s.Insert(Record{"type": "process", "name": "b"})
	require.NoError(t, err)

	cur, err := s.Select("process", []Condition{{"name": "a"}, {"name": "b"}})
	require.NoError(t, err)
	defer cur.Close()

	var names []string
	for cur.Next() {
		rec, err := cur.Record()
		require.NoError(t, err)
		names = append(names, rec["name"].(string))
	}
	require.NoError(t, cur.Err())
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestStoreAllSpansTables(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert(Record{"type": "process", "name": "a"})
	require.NoError(t, err)
	_, err = s.Insert(Record{"type": "file", "name": "b"})
	require.NoError(t, err)

	cur, err := s.All()
	require.NoError(t, err)
	defer cur.Close()

	count := 0
	for cur.Next() {
		_, err := cur.Record()
		require.NoError(t, err)
		count++
	}
	require.NoError(t, cur.Err())
	require.Equal(t, 2, count)
}
