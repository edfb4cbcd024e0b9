package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(filepath.Join(dir, "state.json"), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	mem, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { mem.Close() })

	return map[string]Store{"file": file, "sqlite": mem}
}

func TestStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
			}

			if err := s.Set(ctx, "k", "v1"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := s.Set(ctx, "k", "v2"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, ok, err := s.Get(ctx, "k")
			if err != nil || !ok || got != "v2" {
				t.Fatalf("Get(k) = %q, %v, %v; want v2", got, ok, err)
			}

			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "k"); ok {
				t.Fatal("key still present after delete")
			}
			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("deleting a missing key should be a no-op: %v", err)
			}
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "state.json")

	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "userData", `{"token":"abc"}`); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := reopened.Get(ctx, "userData")
	if err != nil || !ok || got != `{"token":"abc"}` {
		t.Fatalf("Get after reopen = %q, %v, %v", got, ok, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, body := range map[string]string{
		"truncated":  `{"userData": "{\"token\":\"abc\"`,
		"garbage":    "{not json",
		"empty":      "",
		"wrong type": `["a", "b"]`,
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "state.json")
			if err := os.WriteFile(path, []byte(body), 0600); err != nil {
				t.Fatal(err)
			}

			s, err := Open(BackendFile, dir, nil)
			if err != nil {
				t.Fatalf("Open over a corrupt file: %v", err)
			}
			if _, ok, err := s.Get(ctx, "userData"); err != nil || ok {
				t.Fatalf("Get = ok %v, err %v; want absent", ok, err)
			}
			if _, err := os.Stat(path + ".corrupt"); err != nil {
				t.Fatalf("corrupt file not kept aside: %v", err)
			}

			if err := s.Set(ctx, "k", "v"); err != nil {
				t.Fatalf("Set after recovery: %v", err)
			}
			reopened, err := NewFileStore(path, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got, ok, _ := reopened.Get(ctx, "k"); !ok || got != "v" {
				t.Fatalf("Get after reopen = %q, %v", got, ok)
			}
		})
	}
}

func TestFileStoreLoadReportsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{oops"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Load = %v, want ErrCorrupt", err)
	}
}

func TestFileStoreNullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("null"), 0600); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("Set on a store loaded from null: %v", err)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "state.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "tasksState:week", `{"showDoneTasks":false}`); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	var version int
	s2.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
	got, ok, err := s2.Get(ctx, "tasksState:week")
	if err != nil || !ok || got != `{"showDoneTasks":false}` {
		t.Fatalf("Get after reopen = %q, %v, %v", got, ok, err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"", BackendFile, BackendSQLite} {
		s, err := Open(backend, dir, nil)
		if err != nil {
			t.Fatalf("Open(%q): %v", backend, err)
		}
		s.Close()
	}
	if _, err := Open("redis", dir, nil); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}
