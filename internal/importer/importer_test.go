package importer

import (
	"archive/zip"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kalima/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadLemmaRows_CSV(t *testing.T) {
	path := writeFile(t, "rows.csv", "\ufeffLemma ID,Lemma,Word Location,word_simple,words_count\n"+
		"12,كِتَاب,2:2:2,الكتاب,230\n"+
		",,,,\n"+
		"13,هُدًى,DOC_QURAN_HAFS:2:2:TOK_06,هدى,\n")

	rows, err := ReadLemmaRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(12), *rows[0].LemmaID)
	assert.Equal(t, "كِتَاب", *rows[0].LemmaText)
	assert.Equal(t, "الكتاب", *rows[0].WordSimple)
	assert.Equal(t, 230, *rows[0].WordsCount)
	assert.Nil(t, rows[0].Surah)

	loc, ok := rows[1].Locate(0, 0)
	require.True(t, ok)
	assert.Equal(t, models.Location{Surah: 2, Ayah: 2, TokenIndex: 6}, loc)
	assert.Nil(t, rows[1].WordsCount)
}

func TestReadLemmaRows_BadNumber(t *testing.T) {
	path := writeFile(t, "rows.csv", "lemma_id,surah\n1,two\n")
	_, err := ReadLemmaRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "surah")
}

func TestReadLemmaRows_JSON(t *testing.T) {
	path := writeFile(t, "rows.json", `[{"lemma_id": 5, "lemma_text": "ذَٰلِك", "surah": 2, "ayah": 2, "token_index": 1, "word_simple": "ذلك"}]`)
	rows, err := ReadLemmaRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), *rows[0].LemmaID)
	assert.Equal(t, 1, *rows[0].TokenIndex)
}

func TestReadLemmaRows_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"lemma_id", "lemma_text", "surah", "ayah", "token_index"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{7, "رَيْب", 2, 2, 4}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := ReadLemmaRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), *rows[0].LemmaID)
	assert.Equal(t, "رَيْب", *rows[0].LemmaText)
	assert.Equal(t, 4, *rows[0].TokenIndex)
}

func TestReadLemmaRows_QUL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lemmas.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE lemmas (id INTEGER PRIMARY KEY, text TEXT, text_clean TEXT, words_count INTEGER, uniq_words_count INTEGER);
		CREATE TABLE lemma_words (lemma_id INTEGER, word_location TEXT);
		INSERT INTO lemmas VALUES (1, 'كِتَاب', 'كتاب', 230, 25);
		INSERT INTO lemma_words VALUES (1, '2:2:2'), (1, 'bad'), (1, '3:3:1');`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	rows, err := ReadLemmaRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2, "unparseable locations are skipped")
	assert.Equal(t, "كتاب", *rows[0].LemmaTextClean)
	assert.Equal(t, 25, *rows[0].UniqWordsCount)
	assert.Equal(t, 3, *rows[1].Surah)

	_, err = ReadQULLemmas(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestReadLemmaRows_Unsupported(t *testing.T) {
	path := writeFile(t, "rows.txt", "x")
	_, err := ReadLemmaRows(path)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

const sampleTOC = `TABLE OF CONTENTS
Chapter 1 – The Noun ..... 7
Introduction ..... 7
1.1 Gender of
the noun ..... 9
12
1.2 Number ..... 11
Chapter 2 - The Verb ..... 20
2.1 The past tense ..... 21
`

func TestParseTOC(t *testing.T) {
	entries := ParseTOC("nahw", sampleTOC)
	require.Len(t, entries, 6)

	assert.Equal(t, GrammarEntry{GrammarID: "nahw:chapter:01", Category: CategoryChapter, Title: "The Noun", Chapter: 1, Page: 7}, entries[0])
	assert.Equal(t, "nahw:chapter:01:introduction", entries[1].GrammarID)
	assert.Equal(t, "nahw:chapter:01", entries[1].ParentID)

	assert.Equal(t, "nahw:section:1.1", entries[2].GrammarID)
	assert.Equal(t, "Gender of the noun", entries[2].Title, "wrapped lines are joined")
	assert.Equal(t, 9, entries[2].Page)
	assert.Equal(t, "1.1", entries[2].Number)

	assert.Equal(t, "nahw:chapter:02", entries[4].GrammarID)
	assert.Equal(t, "The Verb", entries[4].Title)
	assert.Equal(t, 2, entries[5].Chapter)

	assert.Empty(t, ParseTOC("x", "1.1 Orphan ..... 3\n"))
}

func TestGrammarEntry_UGrammar(t *testing.T) {
	g := ParseTOC("nahw", sampleTOC)[2].UGrammar()
	assert.Equal(t, "nahw:section:1.1", g.GrammarID)
	assert.Equal(t, CategorySection, g.Category)
	assert.Equal(t, map[string]any{"parent_id": "nahw:chapter:01", "chapter": 1, "number": "1.1", "page": 9}, g.Meta)

	assert.Nil(t, GrammarEntry{GrammarID: "idafa"}.UGrammar().Meta)
}

func TestReadGrammarCSV(t *testing.T) {
	in := "id,title,ar,definition_arabic,category\n" +
		"idafa,Construct state,,,\n" +
		",No id,,,\n" +
		"idafa,,إضافة,,syntax\n" +
		"naat,Adjective,نعت,,syntax\n"
	entries, err := ReadGrammarCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, GrammarEntry{GrammarID: "idafa", Title: "Construct state", TitleAr: "إضافة", Category: "syntax"}, entries[0])
	assert.Equal(t, "نعت", entries[1].TitleAr)
}

func TestExtractGrammarEntries(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		path := writeFile(t, "Nahw Textbook.txt", sampleTOC)
		entries, err := ExtractGrammarEntries(path)
		require.NoError(t, err)
		require.Len(t, entries, 6)
		assert.Equal(t, "nahw_textbook:chapter:01", entries[0].GrammarID)
	})

	t.Run("docx", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sarf.docx")
		f, err := os.Create(path)
		require.NoError(t, err)
		zw := zip.NewWriter(f)
		w, err := zw.Create("word/document.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(`<w:document><w:body>` +
			`<w:p w:rsidR="00A1"><w:r><w:t>Chapter 1 – Verb </w:t></w:r><w:r><w:t xml:space="preserve">forms ..... 3</w:t></w:r></w:p>` +
			`<w:p><w:pPr/><w:r><w:t>1.1 Form I &amp; II ..... 4</w:t></w:r></w:p>` +
			`</w:body></w:document>`))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())

		entries, err := ExtractGrammarEntries(path)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Verb forms", entries[0].Title)
		assert.Equal(t, "Form I & II", entries[1].Title)
	})

	t.Run("csv", func(t *testing.T) {
		path := writeFile(t, "concepts.csv", "grammar_id,title\nidafa,Construct state\n")
		entries, err := ExtractGrammarEntries(path)
		require.NoError(t, err)
		assert.Equal(t, []GrammarEntry{{GrammarID: "idafa", Title: "Construct state"}}, entries)
	})
}

func TestExtractTextBytes_Plain(t *testing.T) {
	got, err := ExtractTextBytes([]byte("hello\x80world"), ".txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\uFFFDworld", got)

	_, err = ExtractTextBytes([]byte("not a zip"), ".docx")
	assert.Error(t, err)
}

func TestBookKey(t *testing.T) {
	assert.Equal(t, "nahw_textbook", BookKey("/books/Nahw Textbook.pdf"))
	assert.Equal(t, "advanced_nahw_2", BookKey("advanced-nahw (2).docx"))
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
		wantErr bool
	}{
		{"lemma csv", "rows.csv", "lemma_id,lemma,word_location\n1,a,1:1:1\n", models.ImportLemmaRows, false},
		{"grammar csv", "concepts.csv", "\ufeffgrammar_id,title\nnoun,Noun\n", models.ImportGrammar, false},
		{"id and title csv", "book.csv", "id,title,category\nnoun,Noun,chapter\n", models.ImportGrammar, false},
		{"empty csv", "empty.csv", "", models.ImportLemmaRows, false},
		{"json rows", "rows.json", "[]", models.ImportLemmaRows, false},
		{"grammar book", "book.md", "1.1 Nouns ..... 3\n", models.ImportGrammar, false},
		{"unknown", "image.png", "x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			got, err := DetectKind(path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsupported))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
