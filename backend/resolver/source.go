package resolver

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/txtar"
)

// Source supplies document text to the resolver. Document names are
// paths: absolute or workspace-relative depending on the
// implementation.
type Source interface {
	ReadFile(name string) (string, error)
	Exists(name string) bool
}

// DiskSource reads documents from the local filesystem.
type DiskSource struct{}

func (DiskSource) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

func (DiskSource) Exists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

// WorkspaceSource overlays in-memory documents (open editor buffers,
// or the files of a txtar archive) on top of an optional fallback
// source. Lookups hit the overlay first.
type WorkspaceSource struct {
	files    map[string]string
	fallback Source
}

// NewWorkspaceSource returns an empty overlay over fallback. A nil
// fallback means overlay-only.
func NewWorkspaceSource(fallback Source) *WorkspaceSource {
	return &WorkspaceSource{files: make(map[string]string), fallback: fallback}
}

// ParseWorkspace builds an overlay-only source from a txtar archive,
// one archive file per document.
func ParseWorkspace(archive []byte) *WorkspaceSource {
	ws := NewWorkspaceSource(nil)
	for _, file := range txtar.Parse(archive).Files {
		ws.Put(file.Name, string(file.Data))
	}
	return ws
}

// Put adds or replaces an overlay document. Names are cleaned so that
// "./foo.masm" and "foo.masm" are the same document.
func (ws *WorkspaceSource) Put(name, content string) {
	ws.files[filepath.Clean(name)] = content
}

// Names returns the overlay document names in unspecified order.
func (ws *WorkspaceSource) Names() []string {
	out := make([]string, 0, len(ws.files))
	for name := range ws.files {
		out = append(out, name)
	}
	return out
}

func (ws *WorkspaceSource) ReadFile(name string) (string, error) {
	if content, ok := ws.files[filepath.Clean(name)]; ok {
		return content, nil
	}
	if ws.fallback != nil {
		return ws.fallback.ReadFile(name)
	}
	return "", fmt.Errorf("read %s: no such document", name)
}

func (ws *WorkspaceSource) Exists(name string) bool {
	if _, ok := ws.files[filepath.Clean(name)]; ok {
		return true
	}
	return ws.fallback != nil && ws.fallback.Exists(name)
}
