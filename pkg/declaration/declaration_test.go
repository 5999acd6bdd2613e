package declaration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mftypes/pkg/compiler"
	"github.com/matzehuels/mftypes/pkg/errors"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
}

// fakeCompiler mirrors each source into outDir as "<name>.d.ts" (".d.mts"
// and ".d.cts" for module sources, as tsc does) whose body is the source
// text prefixed with "export declare ".
type fakeCompiler struct {
	calls map[string][]string
	fail  map[string]bool
}

func (f *fakeCompiler) Compile(_ context.Context, files []string, outDir string) error {
	if f.calls == nil {
		f.calls = map[string][]string{}
	}
	f.calls[outDir] = files
	if f.fail[filepath.Base(outDir)] {
		return errors.New(errors.ErrCodeCompile, "boom")
	}
	root := compiler.CommonDir(files)
	for _, src := range files {
		rel, _ := filepath.Rel(root, src)
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		ext := filepath.Ext(rel)
		outExt := ".d.ts"
		switch ext {
		case ".mts":
			outExt = ".d.mts"
		case ".cts":
			outExt = ".d.cts"
		}
		out := filepath.Join(outDir, strings.TrimSuffix(rel, ext)+outExt)
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		body := "export declare " + strings.TrimSpace(string(data)) + "\n"
		if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestDeriveModulePath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "out", "@types", "app")
	tests := []struct {
		name    string
		file    string
		want    string
		isRoot  bool
		wantErr bool
	}{
		{"root file", filepath.Join(root, "index.d.ts"), "", true, false},
		{"one level", filepath.Join(root, "Button", "index.d.ts"), "Button", false, false},
		{"two levels", filepath.Join(root, "forms", "Input", "types.d.ts"), "forms/Input", false, false},
		{"outside root", filepath.Join(root, "..", "other", "index.d.ts"), "", false, true},
		{"root itself", root, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveModulePath(root, tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeriveModulePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.String() != tt.want {
				t.Errorf("DeriveModulePath() = %q, want %q", got.String(), tt.want)
			}
			if got.IsRoot() != tt.isRoot {
				t.Errorf("IsRoot() = %v, want %v", got.IsRoot(), tt.isRoot)
			}
		})
	}
}

func TestParseModulePath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Button", []string{"Button"}},
		{"./Button", []string{"Button"}},
		{"forms/Input/", []string{"forms", "Input"}},
		{"", nil},
		{"./", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseModulePath(tt.in); !slices.Equal(got, ModulePath(tt.want)) {
				t.Errorf("ParseModulePath(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	got := Render([]Module{
		{Path: ModulePath{"Button"}, Contents: []string{"export declare const a: 1;\n", "export type B = string;"}},
		{Path: ModulePath{"forms", "Input"}, Contents: []string{"export {};"}},
	})
	want := "declare module 'Button' {\n" +
		"export declare const a: 1;\n" +
		"export type B = string;\n" +
		"};\n" +
		"\n" +
		"declare module 'forms/Input' {\n" +
		"export {};\n" +
		"};\n"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}

	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}
}

func TestMergerOneBlockPerModule(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"index.d.ts":             "stale merged output",
		"Button/index.d.ts":      "export declare const Button: () => void;",
		"Button/types.d.ts":      "export interface ButtonProps {}",
		"Button/README.md":       "not a declaration",
		"forms/Input/index.d.ts": "export declare const Input: () => void;",
		"app/index.d.ts":         "self reference",
		"forms/Input/extra.d.ts": "export type Extra = 1;",
		"forms/Input/x/y/z.d.ts": "export type Deep = 1;",
	})

	m := NewMerger(root, "app", quietLogger())
	res, err := m.Merge()
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	wantModules := []string{"Button", "forms/Input", "forms/Input/x/y"}
	if !slices.Equal(res.Modules, wantModules) {
		t.Errorf("Modules = %v, want %v", res.Modules, wantModules)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}

	data, err := os.ReadFile(filepath.Join(root, IndexFile))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	for _, mod := range wantModules {
		if n := strings.Count(out, fmt.Sprintf("declare module '%s' {", mod)); n != 1 {
			t.Errorf("module %q emitted %d times, want 1", mod, n)
		}
	}
	if strings.Contains(out, "declare module 'app'") || strings.Contains(out, "self reference") {
		t.Error("merged output must not contain the producer's own module")
	}
	if strings.Contains(out, "stale merged output") {
		t.Error("merged output must not include the previous index.d.ts")
	}
	if strings.Contains(out, "not a declaration") {
		t.Error("merged output must only include .d.ts files")
	}
	if !strings.Contains(out, "export declare const Button") || !strings.Contains(out, "export interface ButtonProps") {
		t.Errorf("Button block missing declarations:\n%s", out)
	}
}

func TestMergerRecoversFromUnreadableFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Button/index.d.ts": "export declare const Button: () => void;",
	})
	// A dangling link is listed by the walker but cannot be read.
	if err := os.Symlink(filepath.Join(root, "missing.d.ts"), filepath.Join(root, "Button", "broken.d.ts")); err != nil {
		t.Fatal(err)
	}

	res, err := NewMerger(root, "app", quietLogger()).Merge()
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0], errors.ErrCodeFileSystem) {
		t.Errorf("Warnings = %v, want one FILESYSTEM warning", res.Warnings)
	}
	if !slices.Equal(res.Modules, []string{"Button"}) {
		t.Errorf("Modules = %v, want [Button]", res.Modules)
	}
	data, _ := os.ReadFile(res.IndexPath)
	if !strings.Contains(string(data), "export declare const Button") {
		t.Error("readable files must still be merged")
	}
}

func TestMergerMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	_, err := NewMerger(root, "app", quietLogger()).Merge()
	if !errors.Is(err, errors.ErrCodeFileSystem) {
		t.Errorf("Merge() error = %v, want FILESYSTEM (index cannot be written)", err)
	}
}

func TestGeneratorEndToEnd(t *testing.T) {
	project := t.TempDir()
	writeFiles(t, project, map[string]string{
		"src/Button/index.ts":  "const Button: () => void;",
		"src/Button/types.ts":  "interface ButtonProps { label: string }",
		"src/Button/style.css": ".btn {}",
		"src/Card.tsx":         "const Card: () => void;",
	})
	rootDir := filepath.Join(project, "public")

	fc := &fakeCompiler{}
	g := NewGenerator(fc, quietLogger())
	res, err := g.Generate(context.Background(), Options{
		RootDir:  rootDir,
		TypesDir: "@types",
		AppName:  "app",
		Exposes: map[string]string{
			"./Button": filepath.Join(project, "src", "Button"),
			"Card":     filepath.Join(project, "src", "Card"),
			"Missing":  filepath.Join(project, "src", "Missing"),
		},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if !slices.Equal(res.Compiled, []string{"./Button", "Card"}) {
		t.Errorf("Compiled = %v", res.Compiled)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one for the missing entry", res.Warnings)
	}
	if !slices.Equal(res.Modules, []string{"Button", "Card"}) {
		t.Errorf("Modules = %v, want [Button Card]", res.Modules)
	}

	index := filepath.Join(rootDir, "@types", "app", "index.d.ts")
	if res.IndexPath != index {
		t.Errorf("IndexPath = %q, want %q", res.IndexPath, index)
	}
	data, err := os.ReadFile(index)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Count(out, "declare module 'Button' {") != 1 {
		t.Errorf("want exactly one Button block:\n%s", out)
	}
	if !strings.Contains(out, "export declare const Button") || !strings.Contains(out, "export declare interface ButtonProps") {
		t.Errorf("Button block must include both files:\n%s", out)
	}

	wantFiles := []string{
		index,
		filepath.Join(rootDir, "@types", "app", "Button", "index.d.ts"),
		filepath.Join(rootDir, "@types", "app", "Button", "types.d.ts"),
		filepath.Join(rootDir, "@types", "app", "Card", "Card.d.ts"),
	}
	if !slices.Equal(res.Files, wantFiles) {
		t.Errorf("Files = %v, want %v", res.Files, wantFiles)
	}

	buttonOut := filepath.Join(rootDir, "@types", "app", "Button")
	if srcs := fc.calls[buttonOut]; len(srcs) != 2 {
		t.Errorf("Button compiled with %v, want 2 sources (css filtered)", srcs)
	}
}

func TestGeneratorRegeneratesFromScratch(t *testing.T) {
	project := t.TempDir()
	writeFiles(t, project, map[string]string{
		"src/Button.ts":                    "const Button: 1;",
		"public/@types/app/Old/index.d.ts": "export declare const Old: 1;",
	})

	g := NewGenerator(&fakeCompiler{}, quietLogger())
	res, err := g.Generate(context.Background(), Options{
		RootDir:  filepath.Join(project, "public"),
		TypesDir: "@types",
		AppName:  "app",
		Exposes:  map[string]string{"Button": filepath.Join(project, "src", "Button.ts")},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if slices.Contains(res.Modules, "Old") {
		t.Error("output from a previous run must not survive")
	}
}

func TestGeneratorCompileFailureIsIsolated(t *testing.T) {
	project := t.TempDir()
	writeFiles(t, project, map[string]string{
		"src/A.ts": "const A: 1;",
		"src/B.ts": "const B: 1;",
	})

	fc := &fakeCompiler{fail: map[string]bool{"A": true}}
	res, err := NewGenerator(fc, quietLogger()).Generate(context.Background(), Options{
		RootDir:  filepath.Join(project, "public"),
		TypesDir: "@types",
		AppName:  "app",
		Exposes: map[string]string{
			"A": filepath.Join(project, "src", "A.ts"),
			"B": filepath.Join(project, "src", "B.ts"),
		},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !slices.Equal(res.Modules, []string{"B"}) {
		t.Errorf("Modules = %v, want [B]", res.Modules)
	}
	if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0], errors.ErrCodeCompile) {
		t.Errorf("Warnings = %v, want one COMPILE warning", res.Warnings)
	}
}

func TestGeneratorRejectsInvalidAppName(t *testing.T) {
	_, err := NewGenerator(&fakeCompiler{}, quietLogger()).Generate(context.Background(), Options{
		RootDir: t.TempDir(), TypesDir: "@types", AppName: "",
	})
	if !errors.Is(err, errors.ErrCodeConfigMissing) {
		t.Errorf("Generate() error = %v, want CONFIG_MISSING", err)
	}
}

func TestGeneratorRelativeRootDir(t *testing.T) {
	project, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	writeFiles(t, project, map[string]string{
		"src/Button/index.ts": "const Button: () => void;",
		"src/Button/types.ts": "interface ButtonProps { label: string }",
	})
	t.Chdir(project)

	g := NewGenerator(&fakeCompiler{}, quietLogger())
	res, err := g.Generate(context.Background(), Options{
		RootDir:  "public",
		TypesDir: "@types",
		AppName:  "app",
		Exposes:  map[string]string{"Button": "src/Button"},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
	if !slices.Equal(res.Modules, []string{"Button"}) {
		t.Errorf("Modules = %v, want [Button]", res.Modules)
	}

	outDir := filepath.Join(project, "public", "@types", "app")
	if res.OutDir != outDir {
		t.Errorf("OutDir = %q, want %q", res.OutDir, outDir)
	}
	wantFiles := []string{
		filepath.Join(outDir, "index.d.ts"),
		filepath.Join(outDir, "Button", "index.d.ts"),
		filepath.Join(outDir, "Button", "types.d.ts"),
	}
	if !slices.Equal(res.Files, wantFiles) {
		t.Errorf("Files = %v, want %v", res.Files, wantFiles)
	}

	data, err := os.ReadFile(filepath.Join("public", "@types", "app", "index.d.ts"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "declare module 'Button' {") {
		t.Errorf("index.d.ts missing Button block:\n%s", data)
	}
}

func TestMergerRelativeRoot(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	writeFiles(t, dir, map[string]string{
		"out/forms/Input/index.d.ts": "export declare const Input: 1;",
	})
	t.Chdir(dir)

	res, err := NewMerger("out", "app", quietLogger()).Merge()
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if len(res.Warnings) != 0 || !slices.Equal(res.Modules, []string{"forms/Input"}) {
		t.Errorf("Merge() = modules %v warnings %v", res.Modules, res.Warnings)
	}
	if res.IndexPath != filepath.Join(dir, "out", "index.d.ts") {
		t.Errorf("IndexPath = %q", res.IndexPath)
	}
}

func TestGeneratorModuleDeclarations(t *testing.T) {
	project := t.TempDir()
	writeFiles(t, project, map[string]string{
		"src/Util/index.mts":  "const util: 1;",
		"src/Legacy/main.cts": "const legacy: 1;",
	})
	rootDir := filepath.Join(project, "public")

	g := NewGenerator(&fakeCompiler{}, quietLogger())
	res, err := g.Generate(context.Background(), Options{
		RootDir:  rootDir,
		TypesDir: "@types",
		AppName:  "app",
		Exposes: map[string]string{
			"Util":   filepath.Join(project, "src", "Util"),
			"Legacy": filepath.Join(project, "src", "Legacy"),
		},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !slices.Equal(res.Modules, []string{"Legacy", "Util"}) {
		t.Errorf("Modules = %v, want [Legacy Util]", res.Modules)
	}

	outDir := filepath.Join(rootDir, "@types", "app")
	for _, want := range []string{
		filepath.Join(outDir, "Legacy", "main.d.cts"),
		filepath.Join(outDir, "Util", "index.d.mts"),
	} {
		if !slices.Contains(res.Files, want) {
			t.Errorf("Files = %v, missing %s", res.Files, want)
		}
	}

	data, err := os.ReadFile(res.IndexPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "export declare const util") {
		t.Errorf("Util block missing from index.d.ts:\n%s", data)
	}
}

func TestIsDeclaration(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a/index.d.ts", true},
		{"a/index.d.mts", true},
		{"a/index.D.CTS", true},
		{"a/index.ts", false},
		{"a/index.mts", false},
	}
	for _, tt := range tests {
		if got := isDeclaration(tt.path); got != tt.want {
			t.Errorf("isDeclaration(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
