package fileid

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestImportID(t *testing.T) {
	id1 := ImportID("lemma_rows", "/import/rows.csv")
	id2 := ImportID("lemma_rows", "/import/rows.csv")
	if id1 != id2 {
		t.Errorf("same path should give same ID: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, prefix) {
		t.Errorf("ID should have prefix %q: got %q", prefix, id1)
	}
	if len(id1) <= len(prefix) {
		t.Errorf("ID too short: %q", id1)
	}
}

func TestImportID_differentInputs(t *testing.T) {
	base := ImportID("lemma_rows", "/import/rows.csv")
	if other := ImportID("lemma_rows", "/import/other.csv"); other == base {
		t.Errorf("different paths should give different IDs: %q", base)
	}
	if grammar := ImportID("grammar", "/import/rows.csv"); grammar == base {
		t.Errorf("different kinds should give different IDs: %q", base)
	}
}

func TestImportID_normalized(t *testing.T) {
	id1 := ImportID("grammar", "/books/nahw")
	id2 := ImportID("grammar", "/books/nahw/")
	id3 := ImportID("grammar", "/books/./nahw")
	if id1 != id2 {
		t.Errorf("paths differing only by trailing slash should match: %q vs %q", id1, id2)
	}
	if id1 != id3 {
		t.Errorf("paths with . should normalize: %q vs %q", id1, id3)
	}
}

func TestImportID_absoluteFromFilepath(t *testing.T) {
	abs, _ := filepath.Abs(".")
	id := ImportID("grammar", abs)
	if !strings.HasPrefix(id, prefix) {
		t.Errorf("absolute path: got %q", id)
	}
}

func TestImportID_caseSensitive(t *testing.T) {
	if ImportID("grammar", "/Books/a.md") == ImportID("grammar", "/books/a.md") {
		t.Error("paths differing in case should give different IDs")
	}
}
