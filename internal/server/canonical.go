package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/internal/storage"
)

var errInvalidBody = errors.New("invalid request body")

// entityFunc derives the id of a universal entity from a JSON body, storing the
// entity as well when persist is set.
type entityFunc func(ctx context.Context, st storage.Storage, body json.RawMessage, persist bool) (canonical.Entity, error)

func entityRoute[T any](
	derive func(T) (canonical.Entity, error),
	upsert func(storage.Storage, context.Context, T) (canonical.Entity, error),
) entityFunc {
	return func(ctx context.Context, st storage.Storage, body json.RawMessage, persist bool) (canonical.Entity, error) {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return canonical.Entity{}, errInvalidBody
		}
		if persist {
			return upsert(st, ctx, v)
		}
		return derive(v)
	}
}

var entities = map[string]entityFunc{
	"root": entityRoute(func(r models.URoot) (canonical.Entity, error) {
		return canonical.Root(r.RootNorm)
	}, storage.Storage.UpsertRoot),
	"token": entityRoute(func(t models.UToken) (canonical.Entity, error) {
		return canonical.Token(t.LemmaNorm, t.POS, t.RootNorm)
	}, storage.Storage.UpsertToken),
	"span": entityRoute(func(sp models.USpan) (canonical.Entity, error) {
		return canonical.Span(sp.SpanType, sp.TokenIDs)
	}, storage.Storage.UpsertSpan),
	"sentence": entityRoute(func(st models.USentence) (canonical.Entity, error) {
		return canonical.Sentence(st.Kind, st.Sequence)
	}, storage.Storage.UpsertSentence),
	"valency": entityRoute(func(v models.UValency) (canonical.Entity, error) {
		return canonical.Valency(v.VerbLemmaNorm, v.PrepTokenID, canonical.FrameType(v.FrameType))
	}, storage.Storage.UpsertValency),
	"lexicon": entityRoute(func(l models.ULexicon) (canonical.Entity, error) {
		return canonical.Lexicon(l.LemmaNorm, l.POS, l.RootNorm, l.ValencyID, l.SenseKey)
	}, storage.Storage.UpsertLexicon),
	"grammar": entityRoute(func(g models.UGrammar) (canonical.Entity, error) {
		return canonical.Grammar(g.GrammarID)
	}, storage.Storage.UpsertGrammar),
	"synset": entityRoute(func(sy models.USynset) (canonical.Entity, error) {
		return canonical.Synset(sy.SynsetKey)
	}, storage.Storage.UpsertSynset),
	"synset-member": entityRoute(func(m models.USynsetMember) (canonical.Entity, error) {
		return canonical.SynsetMember(m.SynsetID, m.TokenID)
	}, storage.Storage.UpsertSynsetMember),
}

// isInputError reports whether err comes from an incomplete or invalid entity.
func isInputError(err error) bool {
	return errors.Is(err, errInvalidBody) ||
		errors.Is(err, canonical.ErrMissingKey) ||
		errors.Is(err, canonical.ErrInvalidPOS) ||
		errors.Is(err, canonical.ErrInvalidFrame)
}

func (s *Server) handleCanonical(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "entity")
	derive, ok := entities[name]
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown entity type "+strconv.Quote(name))
		return
	}
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}
	persist, _ := strconv.ParseBool(r.URL.Query().Get("persist"))

	e, err := derive(r.Context(), s.storage, body, persist)
	if isInputError(err) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("canonical entity failed", zap.String("entity", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if persist {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, e)
}

type grammarLinkRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	GrammarID  string `json:"grammar_id"`
}

func (s *Server) handleAddGrammarLink(w http.ResponseWriter, r *http.Request) {
	var req grammarLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}
	link, err := s.storage.UpsertGrammarLink(r.Context(), req.TargetType, req.TargetID, req.GrammarID)
	if isInputError(err) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("grammar link failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, link)
}

func (s *Server) handleListGrammarLinks(w http.ResponseWriter, r *http.Request) {
	targetType := r.URL.Query().Get("target_type")
	targetID := r.URL.Query().Get("target_id")
	if targetType == "" || targetID == "" {
		s.respondError(w, http.StatusBadRequest, "target_type and target_id are required")
		return
	}
	links, err := s.storage.ListGrammarLinks(r.Context(), targetType, targetID)
	if err != nil {
		s.logger.Error("list grammar links failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if links == nil {
		links = []models.GrammarLink{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"links": links})
}
