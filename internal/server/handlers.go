package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kalima/internal/config"
	"github.com/hyperjump/kalima/internal/importer"
	"github.com/hyperjump/kalima/internal/ingest"
	"github.com/hyperjump/kalima/internal/lexicon"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	lemmaCount, err := s.storage.CountLemmas(r.Context())
	if err != nil {
		s.logger.Error("status: count lemmas failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"lemmas": lemmaCount,
	}
	if s.lexicon != nil {
		if docs, err := s.lexicon.DocCount(); err == nil {
			resp["lexicon_entries"] = docs
		}
	}
	if s.cache != nil {
		resp["segment_cache_entries"] = s.cache.Len()
	}

	configInfo := map[string]interface{}{
		"split_affixes":                s.config.Resolver.SplitAffixesOrDefault(),
		"deterministic_occurrence_ids": s.config.Resolver.DeterministicOccurrenceIDs,
		"database_path":                s.config.Storage.DatabasePath,
		"lexicon_index_path":           s.config.Storage.LexiconIndexPath,
	}
	diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.LexiconIndexPath)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func (s *Server) handleLemmaLocations(w http.ResponseWriter, r *http.Request) {
	var q models.LemmaLocationQuery
	var err error
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"surah", &q.Surah},
		{"ayah", &q.Ayah},
		{"offset", &q.Offset},
		{"limit", &q.Limit},
	} {
		if *p.dst, err = queryInt(r, p.name); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	lemmaID, err := queryInt(r, "lemma_id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.LemmaID = int64(lemmaID)
	q.Q = r.URL.Query().Get("q")
	if err := q.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	total, err := s.storage.CountLemmaLocations(ctx, q)
	if err != nil {
		s.logger.Error("count lemma locations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results, err := s.storage.ListLemmaLocations(ctx, q)
	if err != nil {
		s.logger.Error("list lemma locations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []models.LemmaLocation{}
	}
	s.respondJSON(w, http.StatusOK, models.LemmaLocationPage{
		Total:    total,
		Offset:   q.Offset,
		PageSize: q.Limit,
		HasMore:  q.Offset+len(results) < total,
		Results:  results,
	})
}

func (s *Server) handleGetLemma(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid lemma id")
		return
	}
	lemma, err := s.storage.GetLemma(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "lemma not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, lemma)
}

func verseParams(r *http.Request) (int, int, error) {
	surah, err := strconv.Atoi(chi.URLParam(r, "surah"))
	if err != nil || surah <= 0 {
		return 0, 0, errors.New("invalid surah")
	}
	ayah, err := strconv.Atoi(chi.URLParam(r, "ayah"))
	if err != nil || ayah <= 0 {
		return 0, 0, errors.New("invalid ayah")
	}
	return surah, ayah, nil
}

type resolveRequest struct {
	SplitAffixes *bool `json:"split_affixes,omitempty"`
	Persist      bool  `json:"persist"`
}

// decodeOptional decodes a JSON body into v. An empty body leaves v unchanged.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleResolveVerse(w http.ResponseWriter, r *http.Request) {
	surah, ayah, err := verseParams(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req resolveRequest
	if err := decodeOptional(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("resolve verse request",
		zap.Int("surah", surah), zap.Int("ayah", ayah), zap.Bool("persist", req.Persist))
	result, err := s.ingest.ResolveVerse(r.Context(), surah, ayah, ingest.ResolveOptions{
		SplitAffixes: req.SplitAffixes,
		Persist:      req.Persist,
	})
	if errors.Is(err, ingest.ErrInvalidVerse) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("resolve verse failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Persist {
		s.refreshSuggester()
	}
	s.respondJSON(w, http.StatusOK, models.VerseResolution{
		Surah:  surah,
		Ayah:   ayah,
		Lemmas: result.Lemmas,
		Tokens: result.Tokens,
	})
}

func (s *Server) handleVerseTokens(w http.ResponseWriter, r *http.Request) {
	surah, ayah, err := verseParams(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	unitID := models.ComposeAyahUnitID(surah, ayah)
	tokens, err := s.storage.ListOccurrenceTokens(r.Context(), unitID)
	if err != nil {
		s.logger.Error("list occurrence tokens failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tokens == nil {
		tokens = []models.Token{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"unit_id": unitID, "tokens": tokens})
}

type segmentRequest struct {
	Text         string `json:"text"`
	SplitAffixes *bool  `json:"split_affixes,omitempty"`
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"words": s.ingest.SegmentText(req.Text, req.SplitAffixes)})
}

func (s *Server) handleLexiconSearch(w http.ResponseWriter, r *http.Request) {
	if s.lexicon == nil {
		s.respondError(w, http.StatusNotImplemented, "lexicon not enabled")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit <= 0 {
		limit = s.config.Lexicon.DefaultLimit
	}
	if maxLimit := s.config.Lexicon.MaxLimit; maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	hits, err := s.lexicon.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("lexicon search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := lexicon.SearchResult{Query: query, Hits: hits}
	if resp.Hits == nil {
		resp.Hits = []lexicon.Hit{}
	}
	if len(hits) == 0 && s.suggester != nil {
		suggestions, err := s.suggester.Suggest(query)
		if err != nil {
			s.logger.Warn("lexicon suggestions failed", zap.Error(err))
		}
		resp.Suggestions = suggestions
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type importRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	s.logger.Debug("import request", zap.String("path", req.Path))
	result, err := s.ingest.ImportFile(r.Context(), req.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	case errors.Is(err, importer.ErrUnsupported):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("import failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !result.Skipped {
		s.refreshSuggester()
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) refreshSuggester() {
	if s.suggester == nil {
		return
	}
	if err := s.suggester.Refresh(); err != nil {
		s.logger.Warn("suggester refresh failed", zap.Error(err))
	}
}

func (s *Server) handleImportDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type directoryRequest struct {
	Path   string `json:"path"`
	Import *bool  `json:"import,omitempty"`
}

func (s *Server) handleImportDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req directoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	importExisting := true
	if req.Import != nil {
		importExisting = *req.Import
	}
	s.logger.Debug("import add directory request", zap.String("path", abs), zap.Bool("import_existing", importExisting))
	if err := s.watch.AddDirectory(abs, importExisting); err != nil {
		s.logger.Error("import add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.saveDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleImportDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body directoryRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("import remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("import remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.saveDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// saveDirectories writes the watched directories back to the config file.
func (s *Server) saveDirectories() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Import.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist import directories", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
