package store

import (
	"fmt"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoadLastWriteWins(t *testing.T) {
	db := openTestDB(t)
	if _, ok, err := db.Load("default"); err != nil || ok {
		t.Fatalf("expected absent document, ok=%v err=%v", ok, err)
	}
	if err := db.Save("default", "first"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.Save("default", "second"); err != nil {
		t.Fatalf("save: %v", err)
	}
	snapshot, ok, err := db.Load("default")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snapshot != "second" {
		t.Fatalf("last write must win, got %q", snapshot)
	}
}

func TestHistoryIsBoundedAndNewestFirst(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < historyLimit+5; i++ {
		if err := db.Save("default", fmt.Sprintf("rev-%d", i)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	revisions, err := db.History("default", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(revisions) != historyLimit {
		t.Fatalf("expected %d retained revisions, got %d", historyLimit, len(revisions))
	}
	if revisions[0].Snapshot != fmt.Sprintf("rev-%d", historyLimit+4) {
		t.Fatalf("expected newest first, got %q", revisions[0].Snapshot)
	}
	if oldest := revisions[len(revisions)-1]; oldest.Snapshot != "rev-5" {
		t.Fatalf("pruning kept the wrong tail, oldest is %q", oldest.Snapshot)
	}

	limited, err := db.History("default", 3)
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("expected 3 revisions, got %d", len(limited))
	}
}

func TestDocumentsAreIndependent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Save("alpha", "alpha text"); err != nil {
		t.Fatalf("save alpha: %v", err)
	}
	if err := db.Save("beta", "beta text"); err != nil {
		t.Fatalf("save beta: %v", err)
	}
	if snapshot, _, _ := db.Load("alpha"); snapshot != "alpha text" {
		t.Fatalf("alpha corrupted: %q", snapshot)
	}
	if snapshot, _, _ := db.Load("beta"); snapshot != "beta text" {
		t.Fatalf("beta corrupted: %q", snapshot)
	}
	revisions, err := db.History("alpha", 0)
	if err != nil || len(revisions) != 1 {
		t.Fatalf("alpha history: len=%d err=%v", len(revisions), err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Save("default", "durable"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	snapshot, ok, err := reopened.Load("default")
	if err != nil || !ok || snapshot != "durable" {
		t.Fatalf("snapshot lost across reopen: %q ok=%v err=%v", snapshot, ok, err)
	}
}
