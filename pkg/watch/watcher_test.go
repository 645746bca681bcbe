package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, dir string, exts []string) *Watcher {
	t.Helper()
	w, err := New(dir, exts, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), nil, 0)
	if err == nil {
		t.Fatal("New() on a missing directory should fail")
	}
}

func TestWants(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		path string
		want bool
	}{
		{"match", []string{".csv"}, "/data/in.csv", true},
		{"case insensitive", []string{".csv"}, "/data/IN.CSV", true},
		{"no match", []string{".csv"}, "/data/in.txt", false},
		{"no extension", []string{".csv"}, "/data/README", false},
		{"empty filter accepts all", nil, "/data/anything.bin", true},
	}
	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWatcher(t, dir, tt.exts)
			if got := w.wants(tt.path); got != tt.want {
				t.Errorf("wants(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestHandle_DedupUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(path, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, dir, []string{".csv"})
	var calls int
	w.OnFile = func(string) error {
		calls++
		return nil
	}

	// Same modtime and size the second time around: one callback only.
	w.handle(path)
	w.handle(path)
	if calls != 1 {
		t.Fatalf("OnFile fired %d times for an unchanged file, want 1", calls)
	}

	// A real change fires again.
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	w.handle(path)
	if calls != 2 {
		t.Errorf("OnFile fired %d times after a modification, want 2", calls)
	}
}

func TestHandle_MissingFileRoutesToOnError(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, nil)

	var gotPath string
	var gotErr error
	w.OnError = func(path string, err error) {
		gotPath = path
		gotErr = err
	}
	w.OnFile = func(string) error {
		t.Error("OnFile fired for a missing file")
		return nil
	}

	missing := filepath.Join(dir, "gone.csv")
	w.handle(missing)
	if gotPath != missing {
		t.Errorf("OnError path = %q, want %q", gotPath, missing)
	}
	if !errors.Is(gotErr, fs.ErrNotExist) {
		t.Errorf("OnError err = %v, want fs.ErrNotExist", gotErr)
	}
}

func TestHandle_CallbackErrorRoutesToOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, dir, nil)
	wantErr := errors.New("convert failed")
	w.OnFile = func(string) error { return wantErr }

	var gotErr error
	w.OnError = func(_ string, err error) { gotErr = err }

	w.handle(path)
	if !errors.Is(gotErr, wantErr) {
		t.Errorf("OnError err = %v, want %v", gotErr, wantErr)
	}
}

func TestRun_DebouncesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, []string{".csv"})

	fired := make(chan string, 8)
	w.OnFile = func(path string) error {
		fired <- path
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// A burst of writes to the same file collapses into one callback.
	path := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(path, []byte("one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-fired:
		if got != path {
			t.Errorf("OnFile path = %q, want %q", got, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnFile never fired after the debounce window")
	}

	select {
	case got := <-fired:
		t.Errorf("burst produced a second callback for %q", got)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() returned %v, want context.Canceled", err)
	}
}

func TestRun_IgnoresFilteredExtensions(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, []string{".csv"})

	fired := make(chan string, 1)
	w.OnFile = func(path string) error {
		fired <- path
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-fired:
		t.Errorf("OnFile fired for filtered file %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}
