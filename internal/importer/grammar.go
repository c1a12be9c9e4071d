package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/hyperjump/kalima/internal/models"
)

// Grammar entry categories.
const (
	CategoryChapter = "chapter"
	CategorySection = "section"
)

// GrammarEntry is one grammar concept read from a concept sheet or a book's table of contents.
type GrammarEntry struct {
	GrammarID    string `json:"grammar_id"`
	Category     string `json:"category,omitempty"`
	Title        string `json:"title"`
	TitleAr      string `json:"title_ar,omitempty"`
	Definition   string `json:"definition,omitempty"`
	DefinitionAr string `json:"definition_ar,omitempty"`
	ParentID     string `json:"parent_id,omitempty"`
	Chapter      int    `json:"chapter,omitempty"`
	Number       string `json:"number,omitempty"`
	Page         int    `json:"page,omitempty"`
}

// UGrammar converts the entry to a universal grammar record. Book position is kept in Meta.
func (e GrammarEntry) UGrammar() models.UGrammar {
	g := models.UGrammar{
		GrammarID:    e.GrammarID,
		Category:     e.Category,
		Title:        e.Title,
		TitleAr:      e.TitleAr,
		Definition:   e.Definition,
		DefinitionAr: e.DefinitionAr,
	}
	meta := map[string]any{}
	if e.ParentID != "" {
		meta["parent_id"] = e.ParentID
	}
	if e.Chapter > 0 {
		meta["chapter"] = e.Chapter
	}
	if e.Number != "" {
		meta["number"] = e.Number
	}
	if e.Page > 0 {
		meta["page"] = e.Page
	}
	if len(meta) > 0 {
		g.Meta = meta
	}
	return g
}

// GrammarExtensions lists the extensions ExtractGrammarEntries accepts.
var GrammarExtensions = []string{".pdf", ".docx", ".odt", ".rtf", ".txt", ".md", ".csv"}

// ExtractGrammarEntries reads grammar concepts from path. CSV files are read as
// concept sheets; every other format is converted to text and its table of
// contents parsed, with ids scoped by the file name.
func ExtractGrammarEntries(path string) ([]GrammarEntry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		defer f.Close()
		return ReadGrammarCSV(f)
	}
	text, err := ExtractText(path)
	if err != nil {
		return nil, err
	}
	return ParseTOC(BookKey(path), text), nil
}

// BookKey derives a lowercase identifier from a file name.
func BookKey(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(base) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

var (
	tocPageRe    = regexp.MustCompile(`\.{3,}\s*\d+\s*$`)
	tocStartRe   = regexp.MustCompile(`^\d+\.\d+`)
	tocChapterRe = regexp.MustCompile(`(?i)^chapter\s+(\d+)\s*[–-]\s*(.+?)\s*\.{3,}\s*(\d+)\s*$`)
	tocSectionRe = regexp.MustCompile(`^(\d+\.\d+)\s+(.+?)\s*\.{3,}\s*(\d+)\s*$`)
	tocMiscRe    = regexp.MustCompile(`^([A-Za-z][A-Za-z\s'"-]+?)\s*\.{3,}\s*(\d+)\s*$`)
	pageNumberRe = regexp.MustCompile(`^\d+$`)
)

// tocLines joins wrapped entries so each returned line ends in a dot leader and page.
func tocLines(text string) []string {
	var entries, buffer []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || pageNumberRe.MatchString(line) {
			continue
		}
		if tocPageRe.MatchString(line) {
			entries = append(entries, strings.Join(append(buffer, line), " "))
			buffer = nil
			continue
		}
		if len(buffer) > 0 || strings.HasPrefix(strings.ToLower(line), "chapter") || tocStartRe.MatchString(line) {
			buffer = append(buffer, line)
		}
	}
	return entries
}

// ParseTOC parses table-of-contents lines of the forms
// "Chapter 3 – Title ..... 41", "3.2 Title ..... 44" and "Introduction ..... 40".
// Sections before the first chapter are ignored.
func ParseTOC(book, text string) []GrammarEntry {
	entries := []GrammarEntry{}
	var chapter *GrammarEntry
	for _, line := range tocLines(text) {
		if m := tocChapterRe.FindStringSubmatch(line); m != nil {
			num, _ := strconv.Atoi(m[1])
			page, _ := strconv.Atoi(m[3])
			entries = append(entries, GrammarEntry{
				GrammarID: fmt.Sprintf("%s:chapter:%02d", book, num),
				Category:  CategoryChapter,
				Title:     m[2],
				Chapter:   num,
				Page:      page,
			})
			c := entries[len(entries)-1]
			chapter = &c
			continue
		}
		if chapter == nil {
			continue
		}
		if m := tocSectionRe.FindStringSubmatch(line); m != nil {
			page, _ := strconv.Atoi(m[3])
			entries = append(entries, GrammarEntry{
				GrammarID: fmt.Sprintf("%s:section:%s", book, m[1]),
				Category:  CategorySection,
				Title:     m[2],
				ParentID:  chapter.GrammarID,
				Chapter:   chapter.Chapter,
				Number:    m[1],
				Page:      page,
			})
			continue
		}
		if m := tocMiscRe.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[1])
			page, _ := strconv.Atoi(m[2])
			entries = append(entries, GrammarEntry{
				GrammarID: fmt.Sprintf("%s:%s", chapter.GrammarID, slug(title)),
				Category:  CategorySection,
				Title:     title,
				ParentID:  chapter.GrammarID,
				Chapter:   chapter.Chapter,
				Page:      page,
			})
		}
	}
	return entries
}

func slug(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), "_")
}

// grammarColumns maps concept sheet headers to entry fields, first match wins.
var grammarColumns = map[string][]string{
	"grammar_id":    {"grammar_id", "id", "concept_id"},
	"title":         {"title"},
	"title_ar":      {"title_ar", "ar"},
	"definition":    {"definition"},
	"definition_ar": {"definition_ar", "definition_arabic"},
	"category":      {"category"},
	"parent_id":     {"parent_id", "parent", "parent_grammar_id"},
}

// ReadGrammarCSV reads a concept sheet with a header row. Rows without a grammar id
// are skipped; repeated ids fill in fields left empty by earlier rows.
func ReadGrammarCSV(r io.Reader) ([]GrammarEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	entries := []GrammarEntry{}
	if len(records) == 0 {
		return entries, nil
	}

	index := map[string]int{}
	for i, h := range records[0] {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	value := func(record []string, field string) string {
		for _, name := range grammarColumns[field] {
			if i, ok := index[name]; ok && i < len(record) {
				if v := strings.TrimSpace(record[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	seen := map[string]int{}
	for _, record := range records[1:] {
		id := value(record, "grammar_id")
		if id == "" {
			continue
		}
		e := GrammarEntry{
			GrammarID:    id,
			Title:        value(record, "title"),
			TitleAr:      value(record, "title_ar"),
			Definition:   value(record, "definition"),
			DefinitionAr: value(record, "definition_ar"),
			Category:     value(record, "category"),
			ParentID:     value(record, "parent_id"),
		}
		if i, ok := seen[id]; ok {
			entries[i] = fillEmpty(entries[i], e)
			continue
		}
		seen[id] = len(entries)
		entries = append(entries, e)
	}
	return entries, nil
}

func fillEmpty(dst, src GrammarEntry) GrammarEntry {
	for _, f := range []struct{ d, s *string }{
		{&dst.Title, &src.Title},
		{&dst.TitleAr, &src.TitleAr},
		{&dst.Definition, &src.Definition},
		{&dst.DefinitionAr, &src.DefinitionAr},
		{&dst.Category, &src.Category},
		{&dst.ParentID, &src.ParentID},
	} {
		if *f.d == "" {
			*f.d = *f.s
		}
	}
	return dst
}
