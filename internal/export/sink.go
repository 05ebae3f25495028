package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DirSink writes exports into a directory.
type DirSink struct {
	Dir string
}

func (d DirSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("refusing to write outside %s: %q", d.Dir, name)
	}
	path := filepath.Join(d.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Artifact is an export held in memory for download.
type Artifact struct {
	ID      string
	Name    string
	Data    []byte
	Created time.Time
}

// MemorySink keeps the most recent exports in memory, keyed by a random ID.
type MemorySink struct {
	mu    sync.Mutex
	limit int
	order []string
	items map[string]Artifact
}

// NewMemorySink creates a sink holding at most limit artifacts.
func NewMemorySink(limit int) *MemorySink {
	if limit < 1 {
		limit = 1
	}
	return &MemorySink{limit: limit, items: make(map[string]Artifact)}
}

// Save stores data and returns the artifact ID.
func (m *MemorySink) Save(ctx context.Context, name string, data []byte) (string, error) {
	id := uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = Artifact{ID: id, Name: name, Data: data, Created: time.Now()}
	m.order = append(m.order, id)
	for len(m.order) > m.limit {
		delete(m.items, m.order[0])
		m.order = m.order[1:]
	}
	return id, nil
}

// Get returns the artifact with the given ID.
func (m *MemorySink) Get(id string) (Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	return a, ok
}
