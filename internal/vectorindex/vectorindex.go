// Package vectorindex stores one document's chunk embeddings on disk and
// answers nearest-neighbor queries over them.
//
// Each index occupies its own directory containing meta.json (embedding
// model, dimension, chunk count) and index.json (chunk texts and vectors).
// Similarity is cosine, best-first. Search is exact brute force; document
// indexes are small enough that approximate methods buy nothing.
package vectorindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"
)

var (
	// ErrIndexNotFound is returned when a path does not hold a valid
	// persisted index.
	ErrIndexNotFound = errors.New("vectorindex: index not found")

	// ErrDimensionMismatch is returned when vectors of differing
	// dimensions meet. If it triggers at query time the index was built
	// with a different embedding model than the one querying it.
	ErrDimensionMismatch = errors.New("vectorindex: vector dimension mismatch")

	// ErrModelMismatch is returned when a loaded index was built with a
	// different embedding model than the active one.
	ErrModelMismatch = errors.New("vectorindex: embedding model mismatch")
)

// DefaultTopK is the number of chunks retrieved when the caller passes k <= 0.
const DefaultTopK = 4

const (
	metaFile  = "meta.json"
	indexFile = "index.json"
)

// Index holds one document's chunks and their embedding vectors.
type Index struct {
	Model   string
	Dim     int
	Chunks  []string
	Vectors [][]float64
}

// Result is one retrieved chunk with its cosine similarity to the query.
type Result struct {
	Chunk string
	Score float64
}

type meta struct {
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

type payload struct {
	Chunks  []string    `json:"chunks"`
	Vectors [][]float64 `json:"vectors"`
}

// Build constructs an in-memory index from parallel chunk and vector
// slices. All vectors must share the dimension of the first one. An empty
// chunk set is valid and produces an index that retrieves nothing.
func Build(model string, chunks []string, vectors [][]float64) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("vectorindex: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return &Index{Model: model, Dim: dim, Chunks: chunks, Vectors: vectors}, nil
}

// Save persists the index under dir, replacing whatever index lived there.
// The write goes to a temporary sibling directory first and is moved into
// place with a rename, so a concurrent Load sees either the previous
// complete index, ErrIndexNotFound during the swap, or the new one, but
// never a partial write. Parent directories are created as needed.
func (idx *Index) Save(dir string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("vectorindex: creating %s: %w", parent, err)
	}

	tmp, err := os.MkdirTemp(parent, filepath.Base(dir)+".tmp-")
	if err != nil {
		return fmt.Errorf("vectorindex: creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	m := meta{
		Model:     idx.Model,
		Dimension: idx.Dim,
		Chunks:    len(idx.Chunks),
		CreatedAt: time.Now().UTC(),
	}
	if err := writeJSON(filepath.Join(tmp, metaFile), m); err != nil {
		return err
	}
	p := payload{Chunks: idx.Chunks, Vectors: idx.Vectors}
	if err := writeJSON(filepath.Join(tmp, indexFile), p); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("vectorindex: removing old index at %s: %w", dir, err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("vectorindex: installing index at %s: %w", dir, err)
	}
	return nil
}

// Load reconstructs an index from dir. Missing, unreadable, or internally
// inconsistent data all surface as ErrIndexNotFound; the persisted format,
// not in-process identity, is the contract.
func Load(dir string) (*Index, error) {
	var m meta
	if err := readJSON(filepath.Join(dir, metaFile), &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexNotFound, dir, err)
	}
	var p payload
	if err := readJSON(filepath.Join(dir, indexFile), &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexNotFound, dir, err)
	}

	if len(p.Chunks) != len(p.Vectors) || len(p.Chunks) != m.Chunks {
		return nil, fmt.Errorf("%w: %s: inconsistent chunk counts", ErrIndexNotFound, dir)
	}
	for _, v := range p.Vectors {
		if len(v) != m.Dimension {
			return nil, fmt.Errorf("%w: %s: vector dimension does not match metadata", ErrIndexNotFound, dir)
		}
	}

	return &Index{Model: m.Model, Dim: m.Dimension, Chunks: p.Chunks, Vectors: p.Vectors}, nil
}

// Match reports whether the index was built by the given embedding model.
func (idx *Index) Match(model string) error {
	if idx.Model != "" && model != "" && idx.Model != model {
		return fmt.Errorf("%w: index built with %q, querying with %q", ErrModelMismatch, idx.Model, model)
	}
	return nil
}

// Search returns the k chunks nearest to the query vector by cosine
// similarity, best-first. k <= 0 means DefaultTopK; when the index holds
// fewer than k chunks all of them are returned.
func (idx *Index) Search(query []float64, k int) ([]Result, error) {
	if len(idx.Chunks) == 0 {
		return nil, nil
	}
	if len(query) != idx.Dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrDimensionMismatch, len(query), idx.Dim)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	if k > len(idx.Chunks) {
		k = len(idx.Chunks)
	}

	results := make([]Result, len(idx.Chunks))
	for i, v := range idx.Vectors {
		results[i] = Result{Chunk: idx.Chunks[i], Score: cosine(query, v)}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	return results[:k], nil
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("vectorindex: encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("vectorindex: writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
