// Package config loads analysis settings, the optional toolchain
// descriptor, and native-function signature declarations.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/mod/semver"

	"github.com/Fy-nite/masm-lsp/backend/model"
)

// Store resolves settings per document with a global fallback.
type Store struct {
	mu       sync.Mutex
	global   model.Settings
	document map[string]model.Settings
}

// NewStore returns a Store whose global fallback is global.
func NewStore(global model.Settings) *Store {
	if global.MaxNumberOfProblems <= 0 {
		global.MaxNumberOfProblems = model.DefaultSettings().MaxNumberOfProblems
	}
	return &Store{global: global, document: make(map[string]model.Settings)}
}

// Set records document-specific settings for uri.
func (s *Store) Set(uri string, settings model.Settings) {
	s.mu.Lock()
	s.document[uri] = settings
	s.mu.Unlock()
}

// Drop removes the document-specific settings for uri, restoring the
// global fallback.
func (s *Store) Drop(uri string) {
	s.mu.Lock()
	delete(s.document, uri)
	s.mu.Unlock()
}

// For returns the settings in effect for uri.
func (s *Store) For(uri string) model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings, ok := s.document[uri]; ok {
		if settings.MaxNumberOfProblems <= 0 {
			settings.MaxNumberOfProblems = s.global.MaxNumberOfProblems
		}
		if settings.IncludePath == "" {
			settings.IncludePath = s.global.IncludePath
		}
		return settings
	}
	return s.global
}

// Toolchain is the optional descriptor file shipped next to a project.
// Its include directory overrides the plain settings value.
type Toolchain struct {
	IncludeDir string `json:"include_dir"`
	Version    string `json:"version"`
}

// LoadToolchain reads and validates a toolchain descriptor.
func LoadToolchain(path string) (*Toolchain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read toolchain descriptor: %w", err)
	}
	var tc Toolchain
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("parse toolchain descriptor %s: %w", path, err)
	}
	if tc.Version != "" {
		v := tc.Version
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			return nil, fmt.Errorf("toolchain descriptor %s: invalid version %q", path, tc.Version)
		}
	}
	return &tc, nil
}

// EffectiveIncludePath applies the toolchain override: a descriptor
// include directory wins over the configured settings value.
func EffectiveIncludePath(settings model.Settings, tc *Toolchain) string {
	if tc != nil && tc.IncludeDir != "" {
		return tc.IncludeDir
	}
	return settings.IncludePath
}

// LoadNatives reads native-function signature declaration files and
// merges them by qualified name. Later files win on conflicts.
func LoadNatives(paths ...string) (map[string]model.NativeSignature, error) {
	merged := make(map[string]model.NativeSignature)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read native declarations: %w", err)
		}
		var table map[string]model.NativeSignature
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse native declarations %s: %w", path, err)
		}
		for name, sig := range table {
			merged[name] = sig
		}
	}
	return merged, nil
}
