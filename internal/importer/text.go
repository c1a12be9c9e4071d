package importer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat"
	"github.com/xuri/excelize/v2"
)

// ExtractText reads the file at path and returns its text. PDF, DOCX, ODT, RTF and
// XLSX are decoded; anything else is read as UTF-8 text.
func ExtractText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return ExtractTextBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractTextBytes extracts text from content; ext includes the leading dot.
func ExtractTextBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt", ".rtf":
		text, err := cat.FromBytes(content)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", ext, err)
		}
		return text, nil
	case ".xlsx":
		return extractExcel(content)
	}
	return extractPlain(content), nil
}

func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

var (
	// wParagraph matches one <w:p> element with any attributes.
	wParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// wText matches <w:t>text</w:t> with any attributes.
	wText = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
)

// extractDOCX returns the text of word/document.xml, one line per paragraph so
// table-of-contents entries stay on their own lines.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		docXML = buf.Bytes()
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: word/document.xml not found")
	}

	var lines []string
	for _, para := range wParagraph.FindAll(docXML, -1) {
		var b strings.Builder
		for _, m := range wText.FindAllSubmatch(para, -1) {
			b.Write(m[1])
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, unescapeXML(line))
		}
	}
	return strings.Join(lines, "\n"), nil
}

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}

func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// extractPlain replaces invalid UTF-8 sequences with U+FFFD.
func extractPlain(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\uFFFD")
	}
	return string(content)
}
