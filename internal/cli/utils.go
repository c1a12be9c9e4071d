// Package cli formats Kalima results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/kalima/internal/ingest"
	"github.com/hyperjump/kalima/internal/lexicon"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per item.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// featureWidth caps the feature list printed per token in text mode.
const featureWidth = 60

// ParseFormat maps a --output value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// WriteVerse writes the lemmas and tokens of a resolved verse.
func WriteVerse(w io.Writer, v *models.VerseResolution, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, v)
	case OutputCompact:
		for _, tok := range v.Tokens {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", tok.PosIndex, tok.Surface, tok.Lemma, tok.POS)
		}
		return nil
	}
	fmt.Fprintf(w, "\n%d:%d  %d lemma(s), %d token(s)\n\n", v.Surah, v.Ayah, len(v.Lemmas), len(v.Tokens))
	for _, tok := range v.Tokens {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] %s  (%s)\n", tok.PosIndex, tok.Surface, tok.POS)
		fmt.Fprintf(w, "lemma: %s  norm: %s\n", tok.Lemma, tok.Norm)
		if tok.UTokenID != "" {
			fmt.Fprintf(w, "u_token: %s\n", tok.UTokenID)
		}
		if len(tok.Features) > 0 {
			fmt.Fprintf(w, "features: %s\n", utils.Truncate(FormatFeatures(tok.Features), featureWidth))
		}
		if len(tok.Concepts) > 0 {
			fmt.Fprintf(w, "concepts: %s\n", strings.Join(tok.Concepts, ", "))
		}
	}
	fmt.Fprintln(w)
	return nil
}

// FormatFeatures renders features as sorted key=value pairs.
func FormatFeatures(feats map[string]any) string {
	keys := make([]string, 0, len(feats))
	for k := range feats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, feats[k]))
	}
	return strings.Join(parts, " ")
}

// WriteSegments writes segmented words.
func WriteSegments(w io.Writer, words []ingest.SegmentedWord, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, words)
	}
	for _, word := range words {
		parts := make([]string, 0, len(word.Segments))
		for _, seg := range word.Segments {
			if format == OutputCompact {
				parts = append(parts, seg.Simple)
				continue
			}
			parts = append(parts, fmt.Sprintf("%s[%s/%s]", seg.Surface, seg.Kind, seg.POS))
		}
		sep := " + "
		if format == OutputCompact {
			sep = "+"
		}
		fmt.Fprintf(w, "%s\t%s\n", word.Surface, strings.Join(parts, sep))
	}
	return nil
}

// WriteLexicon writes lexicon hits, or the suggestions when nothing matched.
func WriteLexicon(w io.Writer, res *lexicon.SearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, res)
	case OutputCompact:
		for _, h := range res.Hits {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\n", h.LemmaID, h.Text, h.POS, h.Score)
		}
		return nil
	}
	fmt.Fprintf(w, "\nFound %d lemma(s) for %q\n\n", len(res.Hits), res.Query)
	for i, h := range res.Hits {
		fmt.Fprintf(w, "%2d. %s  (id %d", i+1, h.Text, h.LemmaID)
		if h.POS != "" {
			fmt.Fprintf(w, ", %s", h.POS)
		}
		fmt.Fprintf(w, ")  score %.4f\n", h.Score)
	}
	if len(res.Hits) == 0 && len(res.Suggestions) > 0 {
		terms := make([]string, 0, len(res.Suggestions))
		for _, sg := range res.Suggestions {
			terms = append(terms, sg.Term)
		}
		fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(terms, ", "))
	}
	fmt.Fprintln(w)
	return nil
}

// WriteImports writes the outcome of file imports.
func WriteImports(w io.Writer, results []ingest.FileResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	imported := 0
	for _, r := range results {
		status := "imported"
		if r.Skipped {
			status = "unchanged"
		} else {
			imported++
		}
		fmt.Fprintf(w, "%s\t%s\t%d row(s)\t%s\n", status, r.Kind, r.Rows, r.Path)
	}
	if format == OutputText {
		fmt.Fprintf(w, "Imported %d of %d file(s)\n", imported, len(results))
	}
	return nil
}
