package match

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/linnemanlabs/sitrep/internal/embed"
	"github.com/linnemanlabs/sitrep/internal/taxonomy"
)

// Index is a similarity index over the category catalog, built once at
// startup by embedding each category's name and description. Category
// names alone are short labels while alert text is long and descriptive,
// so the richer description text is embedded to keep retrieval usable.
type Index struct {
	embedder embed.Embedder
	entries  []indexEntry
}

type indexEntry struct {
	category taxonomy.Category
	vector   []float32
}

// BuildIndex embeds every catalog entry. Called once at process start.
func BuildIndex(ctx context.Context, e embed.Embedder, catalog *taxonomy.Catalog) (*Index, error) {
	idx := &Index{
		embedder: e,
		entries:  make([]indexEntry, 0, catalog.Len()),
	}
	for _, p := range catalog.Profiles() {
		vec, err := e.Embed(ctx, p.Name+". "+p.Description)
		if err != nil {
			return nil, fmt.Errorf("match: embed category %q: %w", p.Category, err)
		}
		idx.entries = append(idx.entries, indexEntry{category: p.Category, vector: vec})
	}
	return idx, nil
}

// TopK returns up to k categories nearest to the alert text by cosine
// similarity, best first.
func (ix *Index) TopK(ctx context.Context, alert string, k int) ([]taxonomy.Category, error) {
	qv, err := ix.embedder.Embed(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("match: embed alert: %w", err)
	}

	type scored struct {
		category taxonomy.Category
		score    float64
	}
	scores := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		scores = append(scores, scored{category: e.category, score: cosine(qv, e.vector)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if k > len(scores) {
		k = len(scores)
	}
	out := make([]taxonomy.Category, 0, k)
	for _, s := range scores[:k] {
		out = append(out, s.category)
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
