package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func entryNames(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReadDirectoryOrdersDirectoriesFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"))
	writeFile(t, filepath.Join(dir, ".hidden"))
	if err := os.Mkdir(filepath.Join(dir, "B"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	entries, err := ReadDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}

	want := []string{"B", ".hidden", "a.txt"}
	if got := entryNames(entries); !equalNames(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if entries[0].Kind != KindDirectory {
		t.Fatalf("expected B to be a directory, got %v", entries[0].Kind)
	}
	if runtime.GOOS != "windows" && !entries[1].Hidden {
		t.Fatalf("expected .hidden to be flagged hidden")
	}
	if !entries[2].HasSize || entries[2].Size != int64(len("a.txt")) {
		t.Fatalf("expected size of a.txt to be recorded, got %d (has=%v)", entries[2].Size, entries[2].HasSize)
	}
}

func TestReadDirectoryIsDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"beta", "Alpha", "alpha", "gamma", "ALPHA"} {
		writeFile(t, filepath.Join(dir, name+".txt"))
	}
	for _, name := range []string{"zdir", "Adir"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	first, err := ReadDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := ReadDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}

	if !equalNames(entryNames(first), entryNames(second)) {
		t.Fatalf("listing order changed between reads: %v vs %v", entryNames(first), entryNames(second))
	}
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		// Case-insensitive filesystems collapse the ALPHA/Alpha/alpha variants.
		return
	}

	want := []string{"Adir", "zdir", "ALPHA.txt", "Alpha.txt", "alpha.txt", "beta.txt", "gamma.txt"}
	if got := entryNames(first); !equalNames(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSortEntriesCaseInsensitiveWithByteTieBreak(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Name: "b.txt", Kind: KindFile},
		{Name: "a", Kind: KindFile},
		{Name: "A", Kind: KindFile},
		{Name: "Docs", Kind: KindDirectory},
		{Name: "link", Kind: KindSymlink, TargetIsDir: true, SymlinkTarget: "/tmp"},
		{Name: "C.txt", Kind: KindFile},
	}

	SortEntries(entries)

	want := []string{"Docs", "link", "A", "a", "b.txt", "C.txt"}
	if got := entryNames(entries); !equalNames(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestReadDirectoryFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	writeFile(t, file)

	tests := []struct {
		name   string
		path   string
		reason Reason
	}{
		{name: "missing", path: filepath.Join(dir, "missing"), reason: ReasonNotFound},
		{name: "file", path: file, reason: ReasonNotADirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDirectory(context.Background(), tt.path)
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %T (%v)", err, err)
			}
			if loadErr.Reason != tt.reason {
				t.Fatalf("expected reason %v, got %v", tt.reason, loadErr.Reason)
			}
			if ReasonOf(err) != tt.reason {
				t.Fatalf("ReasonOf mismatch: %v", ReasonOf(err))
			}
		})
	}
}

func TestReadDirectoryHonoursCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := ReadDirectory(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if entries != nil {
		t.Fatalf("expected partial listing to be discarded, got %v", entryNames(entries))
	}
}

func TestReadEntryResolvesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs elevated privileges on windows")
	}
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(dir, "good")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "broken")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	good := ReadEntry(dir, "good")
	if good.Kind != KindSymlink || !good.IsDir() || good.SymlinkTarget != target {
		t.Fatalf("unexpected good link entry: %+v", good)
	}

	broken := ReadEntry(dir, "broken")
	if broken.Kind != KindSymlink || broken.IsDir() || !broken.IsBrokenSymlink() {
		t.Fatalf("unexpected broken link entry: %+v", broken)
	}
}

func TestReadDirectoryDegradesUnreadableEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.txt"))
	writeFile(t, filepath.Join(dir, "bad.txt"))

	original := lstatFn
	lstatFn = func(name string) (os.FileInfo, error) {
		if filepath.Base(name) == "bad.txt" {
			return nil, os.ErrPermission
		}
		return original(name)
	}
	t.Cleanup(func() { lstatFn = original })

	entries, err := ReadDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("a single unreadable entry must not fail the listing: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both entries, got %v", entryNames(entries))
	}

	for _, e := range entries {
		switch e.Name {
		case "bad.txt":
			if e.Kind != KindUnknown || e.HasSize {
				t.Fatalf("expected degraded entry, got %+v", e)
			}
		case "ok.txt":
			if e.Kind != KindFile {
				t.Fatalf("expected regular file, got %+v", e)
			}
		}
	}
}
