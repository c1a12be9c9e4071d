// Package importer reads lemma-location rows and grammar entries from spreadsheets,
// CSV, JSON, lemma databases and grammar books.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kalima/internal/models"
)

// ErrUnsupported is returned for a file extension no reader handles.
var ErrUnsupported = errors.New("unsupported file type")

// headerAliases maps alternative column names to row keys.
var headerAliases = map[string]string{
	"lemma":         "lemma_text",
	"text":          "lemma_text",
	"text_clean":    "lemma_text_clean",
	"location":      "word_location",
	"word":          "word_simple",
	"token_occ_id":  "ar_token_occ_id",
	"u_token":       "ar_u_token",
	"word_position": "token_index",
}

// LemmaRowExtensions lists the extensions ReadLemmaRows accepts.
var LemmaRowExtensions = []string{".xlsx", ".csv", ".json", ".db", ".sqlite"}

// ReadLemmaRows reads lemma-location rows from path, choosing the reader by extension.
// Spreadsheets and CSV files need a header row naming the columns.
func ReadLemmaRows(path string) ([]models.LemmaLocationRow, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".db", ".sqlite":
		return ReadQULLemmas(path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	switch ext {
	case ".xlsx":
		return readXLSXRows(content)
	case ".csv":
		return readCSVRows(bytes.NewReader(content))
	case ".json":
		return readJSONRows(content)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
}

func readJSONRows(content []byte) ([]models.LemmaLocationRow, error) {
	var rows []models.LemmaLocationRow
	if err := json.Unmarshal(content, &rows); err != nil {
		return nil, fmt.Errorf("decode lemma rows: %w", err)
	}
	return rows, nil
}

func readCSVRows(r io.Reader) ([]models.LemmaLocationRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsFromTable(records)
}

func readXLSXRows(content []byte) ([]models.LemmaLocationRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []models.LemmaLocationRow{}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rowsFromTable(records)
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.Join(strings.FieldsFunc(h, func(r rune) bool { return r == ' ' || r == '-' }), "_")
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}

// rowsFromTable treats the first record as the header and skips blank lines.
func rowsFromTable(records [][]string) ([]models.LemmaLocationRow, error) {
	rows := []models.LemmaLocationRow{}
	if len(records) == 0 {
		return rows, nil
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = normalizeHeader(h)
	}

	for n, record := range records[1:] {
		fields := make(map[string]string, len(headers))
		blank := true
		for i, cell := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				fields[headers[i]] = cell
				blank = false
			}
		}
		if blank {
			continue
		}
		row, err := rowFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowFromFields(fields map[string]string) (models.LemmaLocationRow, error) {
	var row models.LemmaLocationRow
	var err error
	intField := func(key string) *int {
		v, ok := fields[key]
		if !ok || err != nil {
			return nil
		}
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			err = fmt.Errorf("%s: %w", key, convErr)
			return nil
		}
		return &n
	}
	strField := func(key string) *string {
		if v, ok := fields[key]; ok {
			return &v
		}
		return nil
	}

	if v, ok := fields["id"]; ok {
		if row.ID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return row, fmt.Errorf("id: %w", err)
		}
	}
	if v, ok := fields["lemma_id"]; ok {
		id, convErr := strconv.ParseInt(v, 10, 64)
		if convErr != nil {
			return row, fmt.Errorf("lemma_id: %w", convErr)
		}
		row.LemmaID = &id
	}
	row.LemmaText = strField("lemma_text")
	row.LemmaTextClean = strField("lemma_text_clean")
	row.WordLocation = strField("word_location")
	row.TokenOccID = strField("ar_token_occ_id")
	row.UToken = strField("ar_u_token")
	row.WordSimple = strField("word_simple")
	row.WordDiacritic = strField("word_diacritic")
	row.WordsCount = intField("words_count")
	row.UniqWordsCount = intField("uniq_words_count")
	row.Surah = intField("surah")
	row.Ayah = intField("ayah")
	row.TokenIndex = intField("token_index")
	return row, err
}
