package state

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tuannvm/agentctl/internal/document"
)

// Backend loads and persists full entity documents. The store never caches
// across calls: every transition re-reads through the backend.
type Backend interface {
	// Load returns the entity's full configuration document, or a
	// *document.NotFoundError when the entity does not exist.
	Load(name string) (document.Document, error)

	// Save replaces the entity's full configuration document.
	Save(name string, doc document.Document) error

	// List returns the names of all known entities, sorted.
	List() ([]string, error)
}

// FileBackend stores one document per entity under baseDir/<name>/<file>.
type FileBackend struct {
	BaseDir  string
	FileName string
}

// NewAssistantBackend returns the conventional backend for assistant
// configuration documents.
func NewAssistantBackend(baseDir string) *FileBackend {
	return &FileBackend{BaseDir: baseDir, FileName: "assistant.yaml"}
}

// NewSquadBackend returns the conventional backend for squad documents.
func NewSquadBackend(baseDir string) *FileBackend {
	return &FileBackend{BaseDir: baseDir, FileName: "squad.yaml"}
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.BaseDir, name, b.FileName)
}

func (b *FileBackend) Load(name string) (document.Document, error) {
	return document.Load(b.path(name))
}

func (b *FileBackend) Save(name string, doc document.Document) error {
	return document.Save(b.path(name), doc)
}

func (b *FileBackend) List() ([]string, error) {
	entries, err := os.ReadDir(b.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(b.path(e.Name())); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// MemoryBackend keeps documents in memory. Intended for tests.
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string]document.Document
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: map[string]document.Document{}}
}

// Put seeds an entity document.
func (b *MemoryBackend) Put(name string, doc document.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[name] = doc
}

func (b *MemoryBackend) Load(name string) (document.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, ok := b.docs[name]
	if !ok {
		return nil, &document.NotFoundError{Path: name}
	}
	return doc, nil
}

func (b *MemoryBackend) Save(name string, doc document.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[name] = doc
	return nil
}

func (b *MemoryBackend) List() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.docs))
	for name := range b.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
