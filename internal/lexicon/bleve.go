package lexicon

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/kalima/internal/arabic"
)

const (
	textBoost  = 3.0
	rootBoost  = 2.0
	defaultHit = 20
)

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()
	// Lemma text is matched without stemming so a query for a lemma finds exactly it.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("text_clean", text)
	doc.AddFieldMappingsAt("gloss", text)

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	doc.AddFieldMappingsAt("root", exact)
	doc.AddFieldMappingsAt("pos", exact)
	doc.AddFieldMappingsAt("lemma_id", exact)
	doc.AddFieldMappingsAt("ar_u_token", exact)

	im.AddDocumentMapping("lemma", doc)
	im.DefaultType = "lemma"
	im.DefaultMapping = doc
	return im
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is reopened with the mapping it was created with; remove the
// directory after changing the mapping to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open lexicon index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create lexicon index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryIndex creates an index that lives only in memory.
func NewMemoryIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create lexicon index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces the entry of a lemma.
func (b *BleveIndex) Index(ctx context.Context, e Entry) error {
	if e.LemmaID <= 0 {
		return fmt.Errorf("lexicon entry %q has no lemma id", e.Text)
	}
	clean := e.TextClean
	if clean == "" {
		clean = e.Text
	}
	doc := map[string]interface{}{
		"lemma_id":   strconv.FormatInt(e.LemmaID, 10),
		"text":       arabic.StripDiacritics(e.Text),
		"text_clean": arabic.StripDiacritics(clean),
		"pos":        e.POS,
		"root":       arabic.StripDiacritics(e.Root),
		"gloss":      e.Gloss,
		"ar_u_token": e.UTokenID,
	}
	return b.index.Index(e.DocID(), doc)
}

// Search matches query against lemma text, root and gloss. Diacritics in the query
// are ignored. Single-term queries also match lemma text by prefix.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	query = arabic.StripDiacritics(query)
	if query == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = defaultHit
	}

	req := bleve.NewSearchRequest(buildQuery(query))
	req.Size = limit
	req.Fields = []string{"lemma_id", "text", "pos"}
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexicon search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["lemma_id"].(string); ok {
			hit.LemmaID, _ = strconv.ParseInt(v, 10, 64)
		}
		hit.Text, _ = h.Fields["text"].(string)
		hit.POS, _ = h.Fields["pos"].(string)
		hits = append(hits, hit)
	}
	return hits, nil
}

func buildQuery(q string) blevequery.Query {
	text := bleve.NewMatchQuery(q)
	text.SetField("text")
	text.SetBoost(textBoost)

	clean := bleve.NewMatchQuery(q)
	clean.SetField("text_clean")
	clean.SetBoost(textBoost)

	root := bleve.NewTermQuery(q)
	root.SetField("root")
	root.SetBoost(rootBoost)

	gloss := bleve.NewMatchQuery(q)
	gloss.SetField("gloss")

	queries := []blevequery.Query{text, clean, root, gloss}
	if terms := strings.Fields(q); len(terms) == 1 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(terms[0]))
		prefix.SetField("text")
		queries = append(queries, prefix)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes the entry of a lemma.
func (b *BleveIndex) Delete(ctx context.Context, lemmaID int64) error {
	return b.index.Delete(DocID(lemmaID))
}

// DocCount returns the number of indexed lemmas.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// Terms returns the distinct lemma text terms with their document frequency.
func (b *BleveIndex) Terms() (map[string]int, error) {
	dict, err := b.index.FieldDict("text")
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon terms: %w", err)
	}
	defer dict.Close()

	terms := make(map[string]int)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			break
		}
		terms[entry.Term] = int(entry.Count)
	}
	return terms, nil
}
