package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/mftypes/pkg/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"@types/shop/index.d.ts":        "declare module 'Button' {}",
		"@types/shop/Button/index.d.ts": "export {};",
		"@types.json":                   "[]",
		"main.js":                       "console.log(1)",
	})
	target := filepath.Join(root, DefaultFile)

	entries, err := Pack(root, "@types", target)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	want := []string{"@types/shop/Button/index.d.ts", "@types/shop/index.d.ts"}
	if !slices.Equal(entries, want) {
		t.Errorf("Pack() entries = %v, want %v", entries, want)
	}

	dest := filepath.Join(t.TempDir(), "node_modules")
	got, err := UnpackFile(target, dest)
	if err != nil {
		t.Fatalf("UnpackFile() error: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("UnpackFile() = %v, want %v", got, want)
	}
	data, err := os.ReadFile(filepath.Join(dest, "@types", "shop", "Button", "index.d.ts"))
	if err != nil || string(data) != "export {};" {
		t.Errorf("unpacked content = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "main.js")); !os.IsNotExist(err) {
		t.Error("files outside the packed directory must not be archived")
	}
}

func TestPackSkipsOwnTarget(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"@types/app/index.d.ts": "x"})
	target := filepath.Join(root, "@types", DefaultFile)

	entries, err := Pack(root, "@types", target)
	if err != nil {
		t.Fatal(err)
	}
	if slices.Contains(entries, "@types/"+DefaultFile) {
		t.Error("archive must not contain itself")
	}
}

func TestPackMissingDir(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, DefaultFile)
	_, err := Pack(root, "@types", target)
	if !errors.Is(err, errors.ErrCodeFileSystem) {
		t.Errorf("Pack() error = %v, want FILESYSTEM", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("failed pack must not leave an archive behind")
	}
}

func tarOf(t *testing.T, names ...string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, n := range names {
		body := []byte("evil")
		if err := tw.WriteHeader(&tar.Header{Name: n, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		tw.Write(body)
	}
	tw.Close()
	return &buf
}

func TestUnpackRejectsTraversal(t *testing.T) {
	tests := []string{
		"../escape.d.ts",
		"@types/../../escape.d.ts",
		"/etc/passwd",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "node_modules")

			_, err := Unpack(tarOf(t, name), dest)
			if !errors.Is(err, errors.ErrCodeInvalidPath) {
				t.Fatalf("Unpack() error = %v, want INVALID_PATH", err)
			}
			if _, err := os.Stat(filepath.Join(parent, "escape.d.ts")); !os.IsNotExist(err) {
				t.Error("entry escaped the destination")
			}
		})
	}
}

func TestUnpackNormalizesDotPrefix(t *testing.T) {
	dest := t.TempDir()
	got, err := Unpack(tarOf(t, "./@types/a/index.d.ts"), dest)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"@types/a/index.d.ts"}) {
		t.Errorf("Unpack() = %v", got)
	}
}

func TestUnpackCorrupt(t *testing.T) {
	_, err := Unpack(bytes.NewReader([]byte("definitely not a tar archive but long enough to fill a header block? no")), t.TempDir())
	if err == nil {
		t.Error("Unpack() should fail on corrupt input")
	}
}
