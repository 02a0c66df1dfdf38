package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func workspace(t *testing.T, archive string) *WorkspaceSource {
	t.Helper()
	return ParseWorkspace([]byte(archive))
}

func TestResolveSymbols(t *testing.T) {
	ws := workspace(t, `
-- main.masm --
LBL main
MOV RAX RBX
LBL loop          ; first definition wins
JMP #loop
LBL loop          ; redefinition, resolver keeps line 3
DB $100 "hello"
DB $100 "again"
`)
	r := New(ws)
	info := r.Resolve("main.masm", "")

	if len(info.IncludeErrors) != 0 {
		t.Fatalf("unexpected include errors: %v", info.IncludeErrors)
	}

	main, ok := info.Labels["main"]
	if !ok || main.Line != 0 {
		t.Errorf("Labels[main] = %+v, ok=%v; want line 0", main, ok)
	}
	loop, ok := info.Labels["loop"]
	if !ok || loop.Line != 2 {
		t.Errorf("Labels[loop] = %+v, ok=%v; want first occurrence on line 2", loop, ok)
	}
	data, ok := info.DataAddresses["$100"]
	if !ok || data.Line != 5 {
		t.Errorf("DataAddresses[$100] = %+v, ok=%v; want first occurrence on line 5", data, ok)
	}
	if data.Size != len("hello")+1 {
		t.Errorf("DataAddresses[$100].Size = %d; want %d", data.Size, len("hello")+1)
	}
}

func TestResolveIncludeMerge(t *testing.T) {
	ws := workspace(t, `
-- main.masm --
#include "lib.masm"
LBL main
LBL shared        ; lib's definition was merged first and wins
-- lib.masm --
LBL shared
DB $200 "lib data"
`)
	r := New(ws)
	info := r.Resolve("main.masm", "")

	if len(info.IncludeErrors) != 0 {
		t.Fatalf("unexpected include errors: %v", info.IncludeErrors)
	}
	shared, ok := info.Labels["shared"]
	if !ok {
		t.Fatal("label shared missing after merge")
	}
	if shared.Document != "lib.masm" {
		t.Errorf("Labels[shared].Document = %q; want lib.masm (first definition wins across merge)", shared.Document)
	}
	if _, ok := info.DataAddresses["$200"]; !ok {
		t.Error("DataAddresses[$200] missing after merge")
	}
}

func TestResolveCircularInclude(t *testing.T) {
	ws := workspace(t, `
-- a.masm --
#include "b.masm"
LBL main
-- b.masm --
#include "a.masm"
LBL helper
`)
	r := New(ws)
	info := r.Resolve("a.masm", "")

	if got := len(info.IncludeErrors); got != 1 {
		t.Fatalf("got %d include errors, want exactly 1: %v", got, info.IncludeErrors)
	}
	if msg := info.IncludeErrors[0].Message; !strings.Contains(msg, "circular") {
		t.Errorf("include error %q does not identify a circular include", msg)
	}
	// resolution is best-effort: symbols on both sides still land
	if _, ok := info.Labels["helper"]; !ok {
		t.Error("label helper missing despite cycle")
	}
	if _, ok := info.Labels["main"]; !ok {
		t.Error("label main missing despite cycle")
	}
}

func TestResolveDiamondInclude(t *testing.T) {
	// a includes b and c, both include d: d is reached along two
	// independent paths and must not be flagged as a cycle.
	ws := workspace(t, `
-- a.masm --
#include "b.masm"
#include "c.masm"
LBL main
-- b.masm --
#include "d.masm"
LBL from_b
-- c.masm --
#include "d.masm"
LBL from_c
-- d.masm --
LBL from_d
`)
	r := New(ws)
	info := r.Resolve("a.masm", "")

	if len(info.IncludeErrors) != 0 {
		t.Fatalf("diamond include produced errors: %v", info.IncludeErrors)
	}
	for _, name := range []string{"main", "from_b", "from_c", "from_d"} {
		if _, ok := info.Labels[name]; !ok {
			t.Errorf("label %s missing", name)
		}
	}
}

func TestResolveMissingInclude(t *testing.T) {
	ws := workspace(t, `
-- main.masm --
#include "nope.masm"
LBL main
`)
	r := New(ws)
	info := r.Resolve("main.masm", "")

	if got := len(info.IncludeErrors); got != 1 {
		t.Fatalf("got %d include errors, want 1: %v", got, info.IncludeErrors)
	}
	if d := info.IncludeErrors[0]; d.Range.Start.Line != 0 || !strings.Contains(d.Message, "nope.masm") {
		t.Errorf("include error not anchored on the #include line: %+v", d)
	}
	if _, ok := info.Labels["main"]; !ok {
		t.Error("resolution aborted on missing include; want best effort")
	}
}

func TestResolveDepthBound(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 70; i++ {
		fmt.Fprintf(&sb, "-- f%d.masm --\n#include \"f%d.masm\"\nLBL l%d\n", i, i+1, i)
	}
	fmt.Fprintf(&sb, "-- f70.masm --\nLBL last\n")

	r := New(workspace(t, sb.String()))
	info := r.Resolve("f0.masm", "")

	found := false
	for _, d := range info.IncludeErrors {
		if strings.Contains(d.Message, "depth exceeded") {
			found = true
		}
	}
	if !found {
		t.Errorf("no depth-exceeded diagnostic in %v", info.IncludeErrors)
	}
}

func TestResolveIncludePathPriority(t *testing.T) {
	dir := t.TempDir()
	incDir := filepath.Join(dir, "include")
	docDir := filepath.Join(dir, "src")
	for _, d := range []string{incDir, docDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// same include name in both directories; the configured include
	// directory is checked first
	write := func(path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(incDir, "lib.masm"), "LBL from_include_dir\n")
	write(filepath.Join(docDir, "lib.masm"), "LBL from_doc_dir\n")
	write(filepath.Join(docDir, "main.masm"), "#include \"lib.masm\"\nLBL main\n")

	r := New(DiskSource{})
	info := r.Resolve(filepath.Join(docDir, "main.masm"), incDir)
	if _, ok := info.Labels["from_include_dir"]; !ok {
		t.Error("configured include directory was not searched first")
	}
	if _, ok := info.Labels["from_doc_dir"]; ok {
		t.Error("document directory shadowed the configured include directory")
	}

	// without a configured directory, the including file's own
	// directory is used
	r2 := New(DiskSource{})
	info2 := r2.Resolve(filepath.Join(docDir, "main.masm"), "")
	if _, ok := info2.Labels["from_doc_dir"]; !ok {
		t.Error("document directory was not searched as fallback")
	}
}

func TestResolveCache(t *testing.T) {
	ws := workspace(t, `
-- main.masm --
LBL main
`)
	r := New(ws)
	first := r.Resolve("main.masm", "")
	second := r.Resolve("main.masm", "")
	if first != second {
		t.Error("second Resolve did not hit the cache")
	}

	ws.Put("main.masm", "LBL main\nLBL added\n")
	if got := r.Resolve("main.masm", ""); got != first {
		t.Error("edit without invalidation must still return the cached result")
	}

	r.Invalidate("main.masm")
	refreshed := r.Resolve("main.masm", "")
	if refreshed == first {
		t.Error("Invalidate did not drop the cached result")
	}
	if _, ok := refreshed.Labels["added"]; !ok {
		t.Error("re-resolve did not pick up the edited text")
	}

	r.InvalidateAll()
	if r.Resolve("main.masm", "") == refreshed {
		t.Error("InvalidateAll did not drop the cached result")
	}
}

func TestWorkspaceSourceFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.masm")
	if err := os.WriteFile(path, []byte("LBL ondisk\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ws := NewWorkspaceSource(DiskSource{})
	ws.Put("open.masm", "LBL inmemory\n")

	if !ws.Exists("open.masm") {
		t.Error("overlay document not found")
	}
	if !ws.Exists(path) {
		t.Error("disk fallback document not found")
	}
	if ws.Exists(filepath.Join(dir, "ghost.masm")) {
		t.Error("nonexistent document reported as existing")
	}

	got, err := ws.ReadFile(path)
	if err != nil || got != "LBL ondisk\n" {
		t.Errorf("ReadFile(disk) = %q, %v", got, err)
	}
}
