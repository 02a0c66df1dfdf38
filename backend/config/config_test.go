package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Fy-nite/masm-lsp/backend/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStoreFallback(t *testing.T) {
	global := model.Settings{MaxNumberOfProblems: 42, IncludePath: "/inc"}
	s := NewStore(global)

	if got := s.For("untracked.masm"); got != global {
		t.Errorf("For(untracked) = %+v; want global %+v", got, global)
	}

	s.Set("a.masm", model.Settings{MaxNumberOfProblems: 7})
	got := s.For("a.masm")
	if got.MaxNumberOfProblems != 7 {
		t.Errorf("MaxNumberOfProblems = %d; want 7", got.MaxNumberOfProblems)
	}
	if got.IncludePath != "/inc" {
		t.Errorf("IncludePath = %q; want global fallback /inc", got.IncludePath)
	}

	s.Drop("a.masm")
	if got := s.For("a.masm"); got != global {
		t.Errorf("after Drop, For = %+v; want global", got)
	}
}

func TestStoreZeroCapUsesDefault(t *testing.T) {
	s := NewStore(model.Settings{})
	if got := s.For("x.masm").MaxNumberOfProblems; got != model.DefaultSettings().MaxNumberOfProblems {
		t.Errorf("MaxNumberOfProblems = %d; want default", got)
	}
}

func TestLoadToolchain(t *testing.T) {
	path := writeFile(t, "masm-toolchain.json", `{"include_dir": "/opt/masm/include", "version": "1.2.0"}`)
	tc, err := LoadToolchain(path)
	if err != nil {
		t.Fatal(err)
	}
	if tc.IncludeDir != "/opt/masm/include" {
		t.Errorf("IncludeDir = %q", tc.IncludeDir)
	}

	settings := model.Settings{IncludePath: "/from/settings"}
	if got := EffectiveIncludePath(settings, tc); got != "/opt/masm/include" {
		t.Errorf("EffectiveIncludePath = %q; want toolchain override", got)
	}
	if got := EffectiveIncludePath(settings, nil); got != "/from/settings" {
		t.Errorf("EffectiveIncludePath without toolchain = %q", got)
	}
}

func TestLoadToolchainInvalidVersion(t *testing.T) {
	path := writeFile(t, "masm-toolchain.json", `{"include_dir": "/x", "version": "not-a-version"}`)
	if _, err := LoadToolchain(path); err == nil || !strings.Contains(err.Error(), "invalid version") {
		t.Errorf("err = %v; want invalid version error", err)
	}
}

func TestLoadToolchainMissing(t *testing.T) {
	if _, err := LoadToolchain(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing descriptor did not error")
	}
}

func TestLoadNatives(t *testing.T) {
	first := writeFile(t, "core.json", `{
		"io.write": {"args": [{"kind": "immediate"}, {"kind": "memory"}]},
		"str.len": {"args": [{"kind": "register"}]}
	}`)
	second := writeFile(t, "extra.json", `{
		"str.len": {"args": [{"kind": "register"}, {"kind": "register"}]}
	}`)

	got, err := LoadNatives(first, second)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]model.NativeSignature{
		"io.write": {Args: []model.NativeArg{{Kind: "immediate"}, {Kind: "memory"}}},
		// later files win per key
		"str.len": {Args: []model.NativeArg{{Kind: "register"}, {Kind: "register"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadNatives mismatch (-want +got):\n%s", diff)
	}
}
