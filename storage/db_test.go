package storage

import (
	"bytes"
	"path/filepath"
	"testing"
)

func exerciseDatabase(t *testing.T, db Database) {
	t.Helper()
	key := []byte("k1")

	value, err := db.Get(key)
	if err != nil || value != nil {
		t.Fatalf("missing key should read as (nil, nil), got %v, %v", value, err)
	}
	ok, err := db.Has(key)
	if err != nil || ok {
		t.Fatalf("missing key reported present")
	}

	if err := db.Put(key, []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err = db.Get(key)
	if err != nil || !bytes.Equal(value, []byte("v1")) {
		t.Fatalf("unexpected value %q, %v", value, err)
	}
	ok, err = db.Has(key)
	if err != nil || !ok {
		t.Fatalf("stored key reported absent")
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	value, err = db.Get(key)
	if err != nil || value != nil {
		t.Fatalf("deleted key should read as (nil, nil), got %v, %v", value, err)
	}
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	exerciseDatabase(t, db)
}

func TestMemDBCopiesBuffers(t *testing.T) {
	db := NewMemDB()
	buf := []byte("original")
	if err := db.Put([]byte("k"), buf); err != nil {
		t.Fatalf("put: %v", err)
	}
	buf[0] = 'X'
	stored, _ := db.Get([]byte("k"))
	if !bytes.Equal(stored, []byte("original")) {
		t.Fatalf("caller mutation leaked into store: %q", stored)
	}
	stored[0] = 'Y'
	again, _ := db.Get([]byte("k"))
	if !bytes.Equal(again, []byte("original")) {
		t.Fatalf("reader mutation leaked into store: %q", again)
	}
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	exerciseDatabase(t, db)
}
