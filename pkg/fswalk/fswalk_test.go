package fswalk

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/mftypes/pkg/errors"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"index.d.ts",
		"Button/index.d.ts",
		"Button/types.d.ts",
		"Card/nested/deep/file.d.ts",
	)
	if err := os.MkdirAll(filepath.Join(root, "Empty", "Dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	want := []string{
		filepath.Join(root, "Button", "index.d.ts"),
		filepath.Join(root, "Button", "types.d.ts"),
		filepath.Join(root, "Card", "nested", "deep", "file.d.ts"),
		filepath.Join(root, "index.d.ts"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
	for _, p := range got {
		if !filepath.IsAbs(p) {
			t.Errorf("Walk() returned relative path %q", p)
		}
	}
}

func TestWalkRelativeInput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/b.ts")

	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}

	got, err := Walk("a")
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(got) != 1 || !filepath.IsAbs(got[0]) || !strings.HasSuffix(got[0], filepath.Join("a", "b.ts")) {
		t.Errorf("Walk(\"a\") = %v", got)
	}
}

func TestWalkMissingDir(t *testing.T) {
	got, err := Walk(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("Walk() expected error for missing directory")
	}
	if !errors.Is(err, errors.ErrCodeFileSystem) {
		t.Errorf("Walk() code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileSystem)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Walk() = %v, want empty non-nil slice", got)
	}
}

func TestWalkFileInput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.ts")

	got, err := Walk(filepath.Join(root, "file.ts"))
	if err == nil {
		t.Fatal("Walk() expected error for file input")
	}
	if len(got) != 0 {
		t.Errorf("Walk() = %v, want empty", got)
	}
}

func TestWalkSkipsDirectorySymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	root := t.TempDir()
	writeTree(t, root, "real/a.d.ts")
	if err := os.Symlink(root, filepath.Join(root, "real", "loop")); err != nil {
		t.Fatal(err)
	}

	got, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	want := []string{filepath.Join(root, "real", "a.d.ts")}
	if !slices.Equal(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestWalkExt(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.ts", "b.css", "c/d.tsx")

	got, err := WalkExt(root, func(p string) bool {
		return strings.HasSuffix(p, ".ts") || strings.HasSuffix(p, ".tsx")
	})
	if err != nil {
		t.Fatalf("WalkExt() error: %v", err)
	}
	want := []string{filepath.Join(root, "a.ts"), filepath.Join(root, "c", "d.tsx")}
	if !slices.Equal(got, want) {
		t.Errorf("WalkExt() = %v, want %v", got, want)
	}
}
