package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/features"
	"github.com/hyperjump/kalima/internal/lexicon"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/internal/resolver"
)

// ResolveOptions configure ResolveVerse.
type ResolveOptions struct {
	// SplitAffixes overrides the service default when set.
	SplitAffixes *bool
	// Persist stores the resolved tokens, their lemmas and grammar links.
	Persist bool
}

// ResolveVerse resolves the stored rows of one verse into tokens and lemma
// locations. Stored lemma locations are never rewritten: persisting replaces the
// verse's occurrence tokens and upserts what they reference.
func (s *Service) ResolveVerse(ctx context.Context, surah, ayah int, opts ResolveOptions) (resolver.Result, error) {
	if surah <= 0 || ayah <= 0 {
		return resolver.Result{}, fmt.Errorf("%w: %d:%d", ErrInvalidVerse, surah, ayah)
	}
	locs, err := s.store.ListLemmaLocations(ctx, models.LemmaLocationQuery{
		Surah: surah,
		Ayah:  ayah,
		Limit: models.MaxLemmaPageSize,
	})
	if err != nil {
		return resolver.Result{}, fmt.Errorf("failed to load verse %d:%d: %w", surah, ayah, err)
	}
	rows := make([]models.LemmaLocationRow, len(locs))
	for i, loc := range locs {
		rows[i] = loc.Row()
	}

	split := s.splitAffixes
	if opts.SplitAffixes != nil {
		split = *opts.SplitAffixes
	}
	result := resolver.ResolveVerseTokens(rows, resolver.Options{
		SplitAffixes:    split,
		Surah:           surah,
		Ayah:            ayah,
		NewOccurrenceID: s.newOccID,
		SegmentCache:    s.cache,
	})
	s.logger.Debug("ingest verse resolved",
		zap.Int("surah", surah), zap.Int("ayah", ayah),
		zap.Int("rows", len(rows)), zap.Int("tokens", len(result.Tokens)))

	if opts.Persist {
		if err := s.persist(ctx, models.ComposeAyahUnitID(surah, ayah), &result); err != nil {
			return resolver.Result{}, fmt.Errorf("failed to persist verse %d:%d: %w", surah, ayah, err)
		}
	}
	return result, nil
}

func (s *Service) persist(ctx context.Context, unitID string, result *resolver.Result) error {
	posByIndex := make(map[int]string, len(result.Tokens))
	for _, tok := range result.Tokens {
		posByIndex[tok.PosIndex] = tok.POS
	}

	for i := range result.Lemmas {
		loc := &result.Lemmas[i]
		if loc.LemmaID == 0 {
			id, err := s.store.ResolveLemmaID(ctx, loc.LemmaTextClean)
			if err != nil {
				return err
			}
			loc.LemmaID = id
		}
		lemma := &models.Lemma{
			ID:             loc.LemmaID,
			Text:           loc.LemmaText,
			TextClean:      loc.LemmaTextClean,
			WordsCount:     loc.WordsCount,
			UniqWordsCount: loc.UniqWordsCount,
			PrimaryUToken:  loc.UToken,
		}
		if err := s.store.UpsertLemma(ctx, lemma); err != nil {
			return fmt.Errorf("lemma %d: %w", loc.LemmaID, err)
		}
		s.indexLemma(ctx, lexicon.Entry{
			LemmaID:   loc.LemmaID,
			Text:      lemma.Text,
			TextClean: lemma.TextClean,
			POS:       posByIndex[loc.TokenIndex],
			UTokenID:  models.StringOr(loc.UToken, ""),
		})
	}

	for _, tok := range result.Tokens {
		// stored ids that carry a root cannot be rebuilt from the token alone
		if tok.UTokenID == "" || tok.UTokenID != resolver.UniversalTokenID(tok) {
			continue
		}
		if _, err := s.store.UpsertToken(ctx, universalToken(tok)); err != nil {
			return fmt.Errorf("universal token %s: %w", tok.UTokenID, err)
		}
	}

	// tokens and their grammar links go in one transaction
	return s.store.ReplaceUnitTokens(ctx, unitID, result.Tokens)
}

func universalToken(tok models.Token) models.UToken {
	pos := tok.POS
	if !canonical.ValidPOS(pos) {
		pos = features.POSNoun
	}
	lemmaNorm := resolver.LemmaNorm(tok)
	return models.UToken{
		LemmaAr:   tok.Lemma,
		LemmaNorm: lemmaNorm,
		POS:       pos,
		Features:  tok.Features,
	}
}
