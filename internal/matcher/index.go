package matcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"

	"github.com/issuewiz/graphix/internal/embeddings"
)

// Index stores one embedding per repository file, grouped into a chromem
// collection per repository and embedding model. Entries carry the content
// hash they were computed from so unchanged files are not re-embedded.
type Index struct {
	db       *chromem.DB
	embedder embeddings.Embedder
	embedFn  chromem.EmbeddingFunc
	path     string
}

// Entry is a file embedding to store.
type Entry struct {
	Path        string
	DownloadURL string
	ContentHash string
	Embedding   []float32
}

// Hit is a query result.
type Hit struct {
	Path        string
	DownloadURL string
	Similarity  float64
}

// NewIndex creates an index. When path is non-empty and exists, previously
// persisted embeddings are loaded from it.
func NewIndex(embedder embeddings.Embedder, path string) (*Index, error) {
	ix := &Index{
		db:       chromem.NewDB(),
		embedder: embedder,
		embedFn:  embeddings.ToChromemFunc(embedder),
		path:     path,
	}
	if path == "" {
		return ix, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return ix, nil
	}
	if err := ix.db.ImportFromFile(path, ""); err != nil {
		return nil, fmt.Errorf("import embeddings from %s: %w", path, err)
	}
	return ix, nil
}

func (ix *Index) collection(repo string) (*chromem.Collection, error) {
	name := repo + "@" + ix.embedder.Name()
	c, err := ix.db.GetOrCreateCollection(name, nil, ix.embedFn)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}
	return c, nil
}

// Hash returns the content hash stored for path, if any.
func (ix *Index) Hash(ctx context.Context, repo, path string) (string, bool) {
	c, err := ix.collection(repo)
	if err != nil {
		return "", false
	}
	doc, err := c.GetByID(ctx, path)
	if err != nil {
		return "", false
	}
	return doc.Metadata["content_hash"], true
}

// Upsert adds or replaces entries.
func (ix *Index) Upsert(ctx context.Context, repo string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	c, err := ix.collection(repo)
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.Path,
			Content:   e.Path,
			Embedding: e.Embedding,
			Metadata: map[string]string{
				"content_hash": e.ContentHash,
				"download_url": e.DownloadURL,
			},
		}
	}
	return c.AddDocuments(ctx, docs, 1)
}

// Query embeds text and returns up to n entries of repo ranked by cosine
// similarity.
func (ix *Index) Query(ctx context.Context, repo, text string, n int) ([]Hit, error) {
	c, err := ix.collection(repo)
	if err != nil {
		return nil, err
	}
	// chromem-go requires nResults <= collection size.
	if count := c.Count(); count == 0 {
		return nil, nil
	} else if n > count || n <= 0 {
		n = count
	}

	results, err := c.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			Path:        r.ID,
			DownloadURL: r.Metadata["download_url"],
			Similarity:  float64(r.Similarity),
		}
	}
	return hits, nil
}

// Count returns the number of entries stored for repo.
func (ix *Index) Count(repo string) int {
	c, err := ix.collection(repo)
	if err != nil {
		return 0
	}
	return c.Count()
}

// Persist writes the index to the path it was created with. It is a no-op
// for in-memory indexes.
func (ix *Index) Persist() error {
	if ix.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	return ix.db.ExportToFile(ix.path, true, "")
}
