package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kalima/internal/models"
)

// DetectKind decides whether path holds lemma rows or grammar entries. A CSV file is
// a grammar sheet when its header names a grammar id, or an id next to a title.
func DetectKind(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" {
		grammar, err := isGrammarCSV(path)
		if err != nil {
			return "", err
		}
		if grammar {
			return models.ImportGrammar, nil
		}
		return models.ImportLemmaRows, nil
	}
	if hasExtension(LemmaRowExtensions, ext) {
		return models.ImportLemmaRows, nil
	}
	if hasExtension(GrammarExtensions, ext) {
		return models.ImportGrammar, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
}

func isGrammarCSV(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read csv header: %w", err)
	}
	names := map[string]bool{}
	for _, h := range header {
		names[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = true
	}
	if names["grammar_id"] || names["concept_id"] {
		return true, nil
	}
	return names["id"] && names["title"], nil
}

func hasExtension(list []string, ext string) bool {
	for _, e := range list {
		if e == ext {
			return true
		}
	}
	return false
}
