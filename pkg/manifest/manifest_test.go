package manifest

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/mftypes/pkg/errors"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("export {};\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWrite(t *testing.T) {
	root := t.TempDir()
	files := []string{
		touch(t, filepath.Join(root, "@types", "shop", "index.d.ts")),
		touch(t, filepath.Join(root, "@types", "shop", "Button", "index.d.ts")),
		touch(t, filepath.Join(root, "@types", "shop", "Button", "types.d.ts")),
	}
	target := filepath.Join(root, DefaultFile)

	m, err := Write(root, target, files)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	want := Manifest{
		"@types/shop/index.d.ts",
		"@types/shop/Button/index.d.ts",
		"@types/shop/Button/types.d.ts",
	}
	if !slices.Equal(m, want) {
		t.Errorf("Write() = %v, want %v", m, want)
	}

	got, err := Read(target)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("Read() = %v, want %v", got, want)
	}
}

func TestWriteRejectsMissingFiles(t *testing.T) {
	root := t.TempDir()
	present := touch(t, filepath.Join(root, "@types", "shop", "index.d.ts"))
	missing := filepath.Join(root, "@types", "shop", "Gone", "index.d.ts")
	target := filepath.Join(root, DefaultFile)

	m, err := Write(root, target, []string{present, missing})
	if !errors.Is(err, errors.ErrCodeFileSystem) {
		t.Fatalf("Write() error = %v, want FILESYSTEM", err)
	}
	if !slices.Equal(m, Manifest{"@types/shop/index.d.ts"}) {
		t.Errorf("Write() = %v, missing file must not be listed", m)
	}

	got, err := Read(target)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	for _, e := range got {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(e))); err != nil {
			t.Errorf("manifest lists %q which does not exist", e)
		}
	}
}

func TestWriteOverwrites(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, DefaultFile)
	a := touch(t, filepath.Join(root, "@types", "app", "A", "index.d.ts"))
	b := touch(t, filepath.Join(root, "@types", "app", "B", "index.d.ts"))

	if _, err := Write(root, target, []string{a, b}); err != nil {
		t.Fatal(err)
	}
	if _, err := Write(root, target, []string{b}); err != nil {
		t.Fatal(err)
	}
	got, _ := Read(target)
	if !slices.Equal(got, Manifest{"@types/app/B/index.d.ts"}) {
		t.Errorf("Read() = %v, want only B", got)
	}
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Manifest(nil).Encode()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]\n" {
		t.Errorf("Encode() = %q, want %q", data, "[]\n")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		want     Manifest
		wantCode errors.Code
	}{
		{"valid", `["@types/shop/index.d.ts","@types/shop/Button/index.d.ts"]`,
			Manifest{"@types/shop/index.d.ts", "@types/shop/Button/index.d.ts"}, ""},
		{"empty array", `[]`, Manifest{}, ""},
		{"cleaned", `["@types/./shop/index.d.ts"]`, Manifest{"@types/shop/index.d.ts"}, ""},
		{"not json", `<html>404</html>`, nil, errors.ErrCodeSerialization},
		{"object", `{"files":[]}`, nil, errors.ErrCodeSerialization},
		{"numbers", `[1,2]`, nil, errors.ErrCodeSerialization},
		{"traversal", `["../../etc/passwd"]`, nil, errors.ErrCodeInvalidPath},
		{"absolute", `["/etc/passwd"]`, nil, errors.ErrCodeInvalidPath},
		{"empty entry", `[""]`, nil, errors.ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("Decode() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Decode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), DefaultFile))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Read() error = %v, want NOT_FOUND", err)
	}
}

func TestDiff(t *testing.T) {
	prev := Manifest{"a/index.d.ts", "b/index.d.ts", "c/index.d.ts"}
	cur := Manifest{"a/index.d.ts", "c/index.d.ts", "d/index.d.ts"}
	if got := cur.Diff(prev); !slices.Equal(got, []string{"b/index.d.ts"}) {
		t.Errorf("Diff() = %v, want [b/index.d.ts]", got)
	}
	if got := cur.Diff(nil); got != nil {
		t.Errorf("Diff(nil) = %v, want nil", got)
	}
}
