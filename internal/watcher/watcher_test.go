package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/palilex/internal/dictionary"
)

const dictV1 = "headword,headword_thai,definition\ndhamma,ธรรม,the teaching\n"
const dictV2 = dictV1 + "sati,สติ,mindfulness\n"

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.csv")
	if err := writeFile(path, dictV1); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := writeFile(path, dictV2); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("expected a change callback")
	}
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("burst of writes produced %d callbacks, want 1", got)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.csv")
	if err := writeFile(path, dictV1); err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	w := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "notes.txt"), "x"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("unrelated file triggered %d callbacks", calls.Load())
	}
}

func TestWatcher_SeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.csv")
	if err := writeFile(path, dictV1); err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	w := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, "dict.csv.tmp")
	if err := writeFile(tmp, dictV2); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Error("rename over the watched file should trigger a callback")
	}
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "dict.csv"), nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing parent directory")
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.csv")
	w := NewWatcher(path, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestWatchable(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"/data/pali.csv", true},
		{"dict.xlsx", true},
		{"postgres://localhost/pali", false},
		{"sqlite:///data/pali.db", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Watchable(tt.source); got != tt.want {
			t.Errorf("Watchable(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

type fakeSwapper struct {
	mu      sync.Mutex
	tables  []*dictionary.Table
	rebuild []bool
	err     error
}

func (f *fakeSwapper) ReloadTable(ctx context.Context, table *dictionary.Table, rebuild bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, table)
	f.rebuild = append(f.rebuild, rebuild)
	return f.err
}

func (f *fakeSwapper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables)
}

func TestReloader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.csv")
	if err := writeFile(path, dictV2); err != nil {
		t.Fatal(err)
	}
	target := &fakeSwapper{}
	r := NewReloader(path, target, true, nil)
	if err := r.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if target.count() != 1 || target.tables[0].Len() != 2 || !target.rebuild[0] {
		t.Errorf("swapper got %d tables", target.count())
	}
}

func TestReloader_LoadFailureKeepsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.csv")
	if err := writeFile(path, "word,meaning\nx,y\n"); err != nil {
		t.Fatal(err)
	}
	target := &fakeSwapper{}
	r := NewReloader(path, target, false, nil)
	err := r.Reload(context.Background())
	if !errors.Is(err, dictionary.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
	if target.count() != 0 {
		t.Error("malformed source must not be swapped in")
	}
}

func TestWatcher_TriggersReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.csv")
	if err := writeFile(path, dictV1); err != nil {
		t.Fatal(err)
	}
	target := &fakeSwapper{}
	r := NewReloader(path, target, false, nil)
	w := NewWatcher(path, r.OnChange(time.Second), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(path, dictV2); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return target.count() >= 1 }) {
		t.Fatal("expected reload after write")
	}
	target.mu.Lock()
	last := target.tables[len(target.tables)-1]
	target.mu.Unlock()
	if last.Len() != 2 {
		t.Errorf("reloaded table len = %d, want 2", last.Len())
	}
}
