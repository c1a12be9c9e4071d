package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/config"
	"github.com/hyperjump/kalima/internal/ingest"
	"github.com/hyperjump/kalima/internal/lexicon"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/internal/segment"
	"github.com/hyperjump/kalima/internal/storage"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

type testEnv struct {
	srv   *Server
	svc   *ingest.Service
	store *storage.SQLiteStorage
	cfg   *config.Config
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DatabasePath:     filepath.Join(dir, "kalima.db"),
			LexiconIndexPath: filepath.Join(dir, "lexicon"),
		},
	}
	config.ApplyDefaults(cfg)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	lex, err := lexicon.NewBleveIndex(cfg.Storage.LexiconIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = lex.Close() })

	cache := segment.NewCache(cfg.Resolver.SegmentCacheSize)
	svc := ingest.New(store,
		ingest.WithLexicon(lex),
		ingest.WithSegmentCache(cache),
		ingest.WithOccurrenceIDs(canonical.OccurrenceTokenID),
	)
	opts = append([]Option{
		WithSegmentCache(cache),
		WithSuggester(lexicon.NewSuggester(lex, lexicon.WithMaxDistance(cfg.Lexicon.SuggestMaxDistance))),
	}, opts...)
	srv := NewServer(svc, store, lex, cfg, zap.NewNop(), opts...)
	return &testEnv{srv: srv, svc: svc, store: store, cfg: cfg}
}

func strp(v string) *string { return &v }

// seedVerse imports the first five words of Al-Baqarah 2:2.
func (e *testEnv) seedVerse(t *testing.T) {
	t.Helper()
	words := []struct {
		loc, lemma, surface string
		id                  int64
	}{
		{"2:2:1", "ذا", "ذَٰلِكَ", 101},
		{"2:2:2", "كِتَاب", "الْكِتَابُ", 1234},
		{"2:2:3", "لا", "لَا", 102},
		{"2:2:4", "رَيْب", "رَيْبَ", 103},
		{"2:2:5", "فِي", "فِيهِ", 104},
	}
	rows := make([]models.LemmaLocationRow, len(words))
	for i, w := range words {
		id := w.id
		rows[i] = models.LemmaLocationRow{
			LemmaID:       &id,
			LemmaText:     strp(w.lemma),
			WordLocation:  strp(w.loc),
			WordDiacritic: strp(w.surface),
		}
	}
	if _, err := e.svc.ImportLemmaRows(context.Background(), rows); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, target, rd)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleLemmaLocations(t *testing.T) {
	env := newTestEnv(t)
	env.seedVerse(t)

	w := env.do(t, http.MethodGet, "/api/v1/lemma-locations?surah=2&ayah=2&limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var page models.LemmaLocationPage
	decode(t, w, &page)
	if page.Total != 5 || page.PageSize != 2 || !page.HasMore || len(page.Results) != 2 {
		t.Errorf("page: %+v", page)
	}
	if page.Results[0].WordLocation != "2:2:1" {
		t.Errorf("first result: %+v", page.Results[0])
	}

	w = env.do(t, http.MethodGet, "/api/v1/lemma-locations?lemma_id=1234", nil)
	decode(t, w, &page)
	if page.Total != 1 || page.Results[0].LemmaText != "كِتَاب" {
		t.Errorf("lemma filter: %+v", page)
	}

	for _, target := range []string{
		"/api/v1/lemma-locations?surah=x",
		"/api/v1/lemma-locations?ayah=2",
		"/api/v1/lemma-locations?surah=-1",
	} {
		if w := env.do(t, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", target, w.Code)
		}
	}
}

func TestHandleGetLemma(t *testing.T) {
	env := newTestEnv(t)
	env.seedVerse(t)

	w := env.do(t, http.MethodGet, "/api/v1/lemmas/1234", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var lemma models.Lemma
	decode(t, w, &lemma)
	if lemma.Text != "كِتَاب" {
		t.Errorf("lemma: %+v", lemma)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/lemmas/9", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing lemma: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/lemmas/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d", w.Code)
	}
}

func TestHandleResolveVerse(t *testing.T) {
	env := newTestEnv(t)
	env.seedVerse(t)

	w := env.do(t, http.MethodPost, "/api/v1/verses/2/2/tokens", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.VerseResolution
	decode(t, w, &out)
	if len(out.Tokens) != 6 || len(out.Lemmas) != 5 {
		t.Errorf("tokens %d lemmas %d, want 6 and 5", len(out.Tokens), len(out.Lemmas))
	}

	w = env.do(t, http.MethodPost, "/api/v1/verses/2/2/tokens", map[string]interface{}{"split_affixes": false})
	decode(t, w, &out)
	if len(out.Tokens) != 5 {
		t.Errorf("unsplit tokens: got %d, want 5", len(out.Tokens))
	}

	w = env.do(t, http.MethodGet, "/api/v1/verses/2/2/tokens", nil)
	var stored struct {
		UnitID string         `json:"unit_id"`
		Tokens []models.Token `json:"tokens"`
	}
	decode(t, w, &stored)
	if stored.UnitID != "U:C:QURAN:2:2" || len(stored.Tokens) != 0 {
		t.Errorf("nothing should be stored yet: %+v", stored)
	}

	w = env.do(t, http.MethodPost, "/api/v1/verses/2/2/tokens", map[string]interface{}{"persist": true})
	if w.Code != http.StatusOK {
		t.Fatalf("persist status: got %d, body: %s", w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodGet, "/api/v1/verses/2/2/tokens", nil)
	decode(t, w, &stored)
	if len(stored.Tokens) != 6 {
		t.Errorf("stored tokens: got %d, want 6", len(stored.Tokens))
	}

	for _, target := range []string{"/api/v1/verses/0/2/tokens", "/api/v1/verses/2/x/tokens"} {
		if w := env.do(t, http.MethodPost, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", target, w.Code)
		}
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/verses/2/2/tokens", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: got %d", rec.Code)
	}
}

func TestHandleSegment(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/segment", map[string]string{"text": "فِيهِ الْكِتَابُ"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Words []struct {
			Surface  string `json:"surface"`
			Segments []struct {
				Kind    string `json:"kind"`
				Simple  string `json:"simple"`
				Surface string `json:"surface"`
				POS     string `json:"pos"`
			} `json:"segments"`
		} `json:"words"`
	}
	decode(t, w, &out)
	if len(out.Words) != 2 {
		t.Fatalf("words: %+v", out.Words)
	}
	fihi := out.Words[0].Segments
	if len(fihi) != 2 || fihi[0].Kind != "stem" || fihi[1].Kind != "suffix" || fihi[1].Simple != "ه" {
		t.Errorf("fihi segments: %+v", fihi)
	}
	if fihi[1].POS != "particle" {
		t.Errorf("suffix pos: %q", fihi[1].POS)
	}
	if kitab := out.Words[1].Segments; len(kitab) != 1 || kitab[0].POS != "noun" {
		t.Errorf("kitab segments: %+v", kitab)
	}

	w = env.do(t, http.MethodPost, "/api/v1/segment", map[string]interface{}{"text": "فِيهِ", "split_affixes": false})
	decode(t, w, &out)
	if len(out.Words) != 1 || len(out.Words[0].Segments) != 1 {
		t.Errorf("unsplit: %+v", out.Words)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/segment", map[string]string{"text": "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("empty text: got %d", w.Code)
	}
}

func TestHandleCanonical(t *testing.T) {
	env := newTestEnv(t)
	want, err := canonical.Token("كتاب", "noun", "")
	if err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/api/v1/canonical/token", map[string]string{"lemma_norm": "كتاب", "pos": "noun"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var got canonical.Entity
	decode(t, w, &got)
	if got != want {
		t.Errorf("entity: got %+v, want %+v", got, want)
	}
	if _, err := env.store.CanonicalInput(context.Background(), "ar_u_tokens", want.ID); err == nil {
		t.Error("derive-only request should not store the token")
	}

	w = env.do(t, http.MethodPost, "/api/v1/canonical/token?persist=true", map[string]string{"lemma_norm": "كتاب", "pos": "noun"})
	if w.Code != http.StatusCreated {
		t.Fatalf("persist status: got %d, body: %s", w.Code, w.Body.String())
	}
	input, err := env.store.CanonicalInput(context.Background(), "ar_u_tokens", want.ID)
	if err != nil || input != want.CanonicalInput {
		t.Errorf("stored input: %q, %v", input, err)
	}

	tests := []struct {
		name   string
		target string
		body   interface{}
		want   int
	}{
		{"invalid pos", "/api/v1/canonical/token", map[string]string{"lemma_norm": "كتاب", "pos": "pronoun"}, http.StatusBadRequest},
		{"missing key", "/api/v1/canonical/root", map[string]string{}, http.StatusBadRequest},
		{"invalid frame", "/api/v1/canonical/valency", map[string]string{"verb_lemma_norm": "رغب", "prep_token_id": "x", "frame_type": "MAYBE"}, http.StatusBadRequest},
		{"wrong shape", "/api/v1/canonical/span", map[string]interface{}{"token_ids": "not-a-list"}, http.StatusBadRequest},
		{"unknown entity", "/api/v1/canonical/word", map[string]string{}, http.StatusNotFound},
		{"synset member", "/api/v1/canonical/synset-member", map[string]string{"synset_id": "s", "token_id": "t"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, tt.target, tt.body); w.Code != tt.want {
				t.Errorf("got %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleGrammarLinks(t *testing.T) {
	env := newTestEnv(t)

	link := map[string]string{"target_type": "token", "target_id": "occ-1", "grammar_id": "g-1"}
	w := env.do(t, http.MethodPost, "/api/v1/grammar-links", link)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodGet, "/api/v1/grammar-links?target_type=token&target_id=occ-1", nil)
	var out struct {
		Links []models.GrammarLink `json:"links"`
	}
	decode(t, w, &out)
	if len(out.Links) != 1 || out.Links[0].ID != canonical.GrammarLinkID("token", "occ-1", "g-1") {
		t.Errorf("links: %+v", out.Links)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/grammar-links", map[string]string{"target_type": "token"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/grammar-links?target_type=token", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing target_id: got %d", w.Code)
	}
}

func TestHandleLexiconSearch(t *testing.T) {
	env := newTestEnv(t)
	env.seedVerse(t)

	w := env.do(t, http.MethodGet, "/api/v1/lexicon/search?q=%D9%83%D8%AA%D8%A7%D8%A8", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out lexicon.SearchResult
	decode(t, w, &out)
	if len(out.Hits) == 0 || out.Hits[0].LemmaID != 1234 {
		t.Errorf("hits: %+v", out.Hits)
	}

	// كتبا is a transposition away from كتاب
	w = env.do(t, http.MethodGet, "/api/v1/lexicon/search?q=%D9%83%D8%AA%D8%A8%D8%A7", nil)
	out = lexicon.SearchResult{}
	decode(t, w, &out)
	if len(out.Hits) != 0 {
		t.Errorf("misspelling should not hit: %+v", out.Hits)
	}
	if len(out.Suggestions) == 0 || out.Suggestions[0].Term != "كتاب" {
		t.Errorf("suggestions: %+v", out.Suggestions)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/lexicon/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/lexicon/search?q=a&limit=x", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d", w.Code)
	}
}

func TestHandleImport(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	if err := os.WriteFile(path, []byte("lemma_id,lemma_text,word_location\n1234,كِتَاب,2:2:2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/api/v1/imports", map[string]string{"path": path})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var res ingest.FileResult
	decode(t, w, &res)
	if res.Kind != models.ImportLemmaRows || res.Rows != 1 || res.Skipped {
		t.Errorf("result: %+v", res)
	}

	png := filepath.Join(dir, "image.png")
	if err := os.WriteFile(png, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"missing path", map[string]string{}, http.StatusBadRequest},
		{"missing file", map[string]string{"path": filepath.Join(dir, "nope.csv")}, http.StatusNotFound},
		{"unsupported", map[string]string{"path": png}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, "/api/v1/imports", tt.body); w.Code != tt.want {
				t.Errorf("got %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandleImportDirectories_NotEnabled(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, http.MethodGet, "/api/v1/imports/directories", nil); w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleImportDirectories(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	mock := &mockWatchService{dirs: []string{"/tmp/lemmas"}}
	env := newTestEnv(t, WithWatch(mock, configPath))

	w := env.do(t, http.MethodGet, "/api/v1/imports/directories", nil)
	var out struct {
		Directories []string `json:"directories"`
	}
	decode(t, w, &out)
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/lemmas" {
		t.Errorf("directories: got %v", out.Directories)
	}

	dir := t.TempDir()
	w = env.do(t, http.MethodPost, "/api/v1/imports/directories", map[string]string{"path": dir})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.dirs) != 2 {
		t.Errorf("mock dirs: %v", mock.dirs)
	}
	saved, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Import.Directories) != 2 || saved.Import.Directories[1] != dir {
		t.Errorf("saved directories: %v", saved.Import.Directories)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/imports/directories", map[string]string{"path": filepath.Join(dir, "missing")}); w.Code != http.StatusNotFound {
		t.Errorf("missing dir: got %d", w.Code)
	}
	file := filepath.Join(dir, "file.csv")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/imports/directories", map[string]string{"path": file}); w.Code != http.StatusBadRequest {
		t.Errorf("file path: got %d", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/imports/directories?path="+dir, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove status: got %d", w.Code)
	}
	if len(mock.dirs) != 1 || mock.dirs[0] != "/tmp/lemmas" {
		t.Errorf("after remove: %v", mock.dirs)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/imports/directories", nil); w.Code != http.StatusBadRequest {
		t.Errorf("remove without path: got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seedVerse(t)

	w := env.do(t, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Lemmas         int64  `json:"lemmas"`
		LexiconEntries uint64 `json:"lexicon_entries"`
		DiskUsageBytes *int64 `json:"disk_usage_bytes"`
		Config         struct {
			SplitAffixes bool `json:"split_affixes"`
		} `json:"config"`
	}
	decode(t, w, &out)
	if out.Lemmas != 5 || out.LexiconEntries != 5 {
		t.Errorf("counts: lemmas %d lexicon %d", out.Lemmas, out.LexiconEntries)
	}
	if out.DiskUsageBytes == nil || *out.DiskUsageBytes < 1 {
		t.Errorf("disk_usage_bytes: %v", out.DiskUsageBytes)
	}
	if !out.Config.SplitAffixes {
		t.Error("split_affixes defaults to true")
	}
}
