package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/models"
)

// universalTables maps entity tables to their id column.
var universalTables = map[string]string{
	"ar_u_roots":          "ar_u_root",
	"ar_u_tokens":         "ar_u_token",
	"ar_u_spans":          "ar_u_span",
	"ar_u_sentences":      "ar_u_sentence",
	"ar_u_valency":        "ar_u_valency",
	"ar_u_lexicon":        "ar_u_lexicon",
	"ar_u_grammar":        "ar_u_grammar",
	"ar_u_synsets":        "ar_u_synset",
	"ar_u_synset_members": "ar_u_synset_member",
}

func statusOr(status, fallback string) string {
	if status == "" {
		return fallback
	}
	return status
}

// UpsertRoot stores a root under ROOT|{root_norm}.
func (s *SQLiteStorage) UpsertRoot(ctx context.Context, r models.URoot) (canonical.Entity, error) {
	e, err := canonical.Root(r.RootNorm)
	if err != nil {
		return e, err
	}
	altJSON, err := toJSON(r.AltLatn, len(r.AltLatn) == 0)
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(r.Meta, len(r.Meta) == 0)
	if err != nil {
		return e, err
	}
	root := r.Root
	if root == "" {
		root = r.RootNorm
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ar_u_roots (
			ar_u_root, canonical_input, root, arabic_trilateral, english_trilateral,
			root_latn, root_norm, alt_latn_json, search_keys_norm,
			status, difficulty, frequency, meta_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ar_u_root) DO UPDATE SET
			root = excluded.root,
			arabic_trilateral = excluded.arabic_trilateral,
			english_trilateral = excluded.english_trilateral,
			root_latn = excluded.root_latn,
			root_norm = excluded.root_norm,
			alt_latn_json = excluded.alt_latn_json,
			search_keys_norm = excluded.search_keys_norm,
			status = excluded.status,
			difficulty = excluded.difficulty,
			frequency = excluded.frequency,
			meta_json = excluded.meta_json,
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, root, nullString(r.ArabicTrilateral), nullString(r.EnglishTrilateral),
		nullString(r.RootLatn), r.RootNorm, altJSON, nullString(r.SearchKeys),
		statusOr(r.Status, "active"), r.Difficulty, nullString(r.Frequency), metaJSON,
	)
	return e, err
}

// UpsertToken stores a universal token under TOK|{lemma_norm}|{pos}|{root_norm}.
func (s *SQLiteStorage) UpsertToken(ctx context.Context, t models.UToken) (canonical.Entity, error) {
	e, err := canonical.Token(t.LemmaNorm, t.POS, t.RootNorm)
	if err != nil {
		return e, err
	}
	featuresJSON, err := toJSON(t.Features, len(t.Features) == 0)
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(t.Meta, len(t.Meta) == 0)
	if err != nil {
		return e, err
	}
	lemmaAr := t.LemmaAr
	if lemmaAr == "" {
		lemmaAr = t.LemmaNorm
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ar_u_tokens (
			ar_u_token, canonical_input, lemma_ar, lemma_norm, pos,
			root_norm, ar_u_root, features_json, meta_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ar_u_token) DO UPDATE SET
			lemma_ar = excluded.lemma_ar,
			lemma_norm = excluded.lemma_norm,
			pos = excluded.pos,
			root_norm = excluded.root_norm,
			ar_u_root = excluded.ar_u_root,
			features_json = COALESCE(excluded.features_json, ar_u_tokens.features_json),
			meta_json = COALESCE(excluded.meta_json, ar_u_tokens.meta_json),
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, lemmaAr, t.LemmaNorm, t.POS,
		nullString(t.RootNorm), nullString(t.URootID), featuresJSON, metaJSON,
	)
	return e, err
}

// UpsertSpan stores a span under SPAN|{span_type}|{token ids}.
func (s *SQLiteStorage) UpsertSpan(ctx context.Context, sp models.USpan) (canonical.Entity, error) {
	e, err := canonical.Span(sp.SpanType, sp.TokenIDs)
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(sp.Meta, len(sp.Meta) == 0)
	if err != nil {
		return e, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ar_u_spans (ar_u_span, canonical_input, span_type, token_ids_csv, meta_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(ar_u_span) DO UPDATE SET
			span_type = excluded.span_type,
			token_ids_csv = excluded.token_ids_csv,
			meta_json = excluded.meta_json,
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, sp.SpanType, strings.Join(sp.TokenIDs, ","), metaJSON,
	)
	return e, err
}

// UpsertSentence stores a sentence under SENT|{kind}|{sequence}.
func (s *SQLiteStorage) UpsertSentence(ctx context.Context, st models.USentence) (canonical.Entity, error) {
	e, err := canonical.Sentence(st.Kind, st.Sequence)
	if err != nil {
		return e, err
	}
	sequenceJSON, err := toJSON(st.Sequence, false)
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(st.Meta, len(st.Meta) == 0)
	if err != nil {
		return e, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ar_u_sentences (ar_u_sentence, canonical_input, sentence_kind, sequence_json, text_ar, meta_json)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ar_u_sentence) DO UPDATE SET
			sentence_kind = excluded.sentence_kind,
			sequence_json = excluded.sequence_json,
			text_ar = excluded.text_ar,
			meta_json = excluded.meta_json,
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, st.Kind, sequenceJSON, nullString(st.TextAr), metaJSON,
	)
	return e, err
}

// UpsertValency stores a valency frame under VAL|{verb}|{prep token}|{frame}.
func (s *SQLiteStorage) UpsertValency(ctx context.Context, v models.UValency) (canonical.Entity, error) {
	e, err := canonical.Valency(v.VerbLemmaNorm, v.PrepTokenID, canonical.FrameType(v.FrameType))
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(v.Meta, len(v.Meta) == 0)
	if err != nil {
		return e, err
	}
	verbAr := v.VerbLemmaAr
	if verbAr == "" {
		verbAr = v.VerbLemmaNorm
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ar_u_valency (
			ar_u_valency, canonical_input, verb_lemma_ar, verb_lemma_norm,
			prep_ar_u_token, frame_type, meta_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ar_u_valency) DO UPDATE SET
			verb_lemma_ar = excluded.verb_lemma_ar,
			verb_lemma_norm = excluded.verb_lemma_norm,
			prep_ar_u_token = excluded.prep_ar_u_token,
			frame_type = excluded.frame_type,
			meta_json = excluded.meta_json,
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, verbAr, v.VerbLemmaNorm, v.PrepTokenID, v.FrameType, metaJSON,
	)
	return e, err
}

// UpsertLexicon stores a sense under LEX|{lemma}|{pos}|{root}|{valency}|{sense key}.
func (s *SQLiteStorage) UpsertLexicon(ctx context.Context, l models.ULexicon) (canonical.Entity, error) {
	e, err := canonical.Lexicon(l.LemmaNorm, l.POS, l.RootNorm, l.ValencyID, l.SenseKey)
	if err != nil {
		return e, err
	}
	glossJSON, err := toJSON(l.GlossSecondary, len(l.GlossSecondary) == 0)
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(l.Meta, len(l.Meta) == 0)
	if err != nil {
		return e, err
	}
	lemmaAr := l.LemmaAr
	if lemmaAr == "" {
		lemmaAr = l.LemmaNorm
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ar_u_lexicon (
			ar_u_lexicon, canonical_input, lemma_ar, lemma_norm, pos,
			root_norm, ar_u_root, valency_id, sense_key, gloss_primary,
			gloss_secondary_json, usage_notes, meta_json, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ar_u_lexicon) DO UPDATE SET
			lemma_ar = excluded.lemma_ar,
			lemma_norm = excluded.lemma_norm,
			pos = excluded.pos,
			root_norm = excluded.root_norm,
			ar_u_root = excluded.ar_u_root,
			valency_id = excluded.valency_id,
			sense_key = excluded.sense_key,
			gloss_primary = excluded.gloss_primary,
			gloss_secondary_json = excluded.gloss_secondary_json,
			usage_notes = excluded.usage_notes,
			meta_json = excluded.meta_json,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, lemmaAr, l.LemmaNorm, l.POS,
		nullString(l.RootNorm), nullString(l.URootID), nullString(l.ValencyID), l.SenseKey, nullString(l.GlossPrimary),
		glossJSON, nullString(l.UsageNotes), metaJSON, statusOr(l.Status, "active"),
	)
	return e, err
}

// UpsertGrammar stores a grammar concept under GRAM|{grammar_id}. Empty fields keep
// their stored value.
func (s *SQLiteStorage) UpsertGrammar(ctx context.Context, g models.UGrammar) (canonical.Entity, error) {
	return upsertGrammar(ctx, s.db, g)
}

func upsertGrammar(ctx context.Context, db execer, g models.UGrammar) (canonical.Entity, error) {
	e, err := canonical.Grammar(g.GrammarID)
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(g.Meta, len(g.Meta) == 0)
	if err != nil {
		return e, err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO ar_u_grammar (
			ar_u_grammar, canonical_input, grammar_id, category, title, title_ar,
			definition, definition_ar, meta_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ar_u_grammar) DO UPDATE SET
			grammar_id = excluded.grammar_id,
			category = COALESCE(excluded.category, ar_u_grammar.category),
			title = COALESCE(excluded.title, ar_u_grammar.title),
			title_ar = COALESCE(excluded.title_ar, ar_u_grammar.title_ar),
			definition = COALESCE(excluded.definition, ar_u_grammar.definition),
			definition_ar = COALESCE(excluded.definition_ar, ar_u_grammar.definition_ar),
			meta_json = COALESCE(excluded.meta_json, ar_u_grammar.meta_json),
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, g.GrammarID, nullString(g.Category), nullString(g.Title), nullString(g.TitleAr),
		nullString(g.Definition), nullString(g.DefinitionAr), metaJSON,
	)
	return e, err
}

// UpsertSynset stores a synset under SYN|{synset_key}.
func (s *SQLiteStorage) UpsertSynset(ctx context.Context, sy models.USynset) (canonical.Entity, error) {
	e, err := canonical.Synset(sy.SynsetKey)
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(sy.Meta, len(sy.Meta) == 0)
	if err != nil {
		return e, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ar_u_synsets (ar_u_synset, canonical_input, synset_key, gloss, meta_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(ar_u_synset) DO UPDATE SET
			synset_key = excluded.synset_key,
			gloss = excluded.gloss,
			meta_json = excluded.meta_json,
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, sy.SynsetKey, nullString(sy.Gloss), metaJSON,
	)
	return e, err
}

// UpsertSynsetMember stores a membership under SYNM|{synset_id}|{token_id}.
func (s *SQLiteStorage) UpsertSynsetMember(ctx context.Context, m models.USynsetMember) (canonical.Entity, error) {
	e, err := canonical.SynsetMember(m.SynsetID, m.TokenID)
	if err != nil {
		return e, err
	}
	metaJSON, err := toJSON(m.Meta, len(m.Meta) == 0)
	if err != nil {
		return e, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ar_u_synset_members (ar_u_synset_member, canonical_input, ar_u_synset, ar_u_token, meta_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(ar_u_synset_member) DO UPDATE SET
			meta_json = excluded.meta_json,
			updated_at = CURRENT_TIMESTAMP`,
		e.ID, e.CanonicalInput, m.SynsetID, m.TokenID, metaJSON,
	)
	return e, err
}

// UpsertGrammarLink links a grammar concept to a token, span or sentence. Linking
// twice is a no-op.
func (s *SQLiteStorage) UpsertGrammarLink(ctx context.Context, targetType, targetID, grammarID string) (models.GrammarLink, error) {
	return upsertGrammarLink(ctx, s.db, targetType, targetID, grammarID)
}

func upsertGrammarLink(ctx context.Context, db execer, targetType, targetID, grammarID string) (models.GrammarLink, error) {
	link := models.GrammarLink{TargetType: targetType, TargetID: targetID, GrammarID: grammarID}
	for name, v := range map[string]string{"target_type": targetType, "target_id": targetID, "grammar_id": grammarID} {
		if strings.TrimSpace(v) == "" {
			return link, fmt.Errorf("grammar link: %w: %s", canonical.ErrMissingKey, name)
		}
	}
	link.ID = canonical.GrammarLinkID(targetType, targetID, grammarID)
	_, err := db.ExecContext(ctx,
		`INSERT INTO ar_grammar_links (id, target_type, target_id, ar_u_grammar)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		link.ID, targetType, targetID, grammarID,
	)
	return link, err
}

// ListGrammarLinks returns the grammar links of a target.
func (s *SQLiteStorage) ListGrammarLinks(ctx context.Context, targetType, targetID string) ([]models.GrammarLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target_type, target_id, ar_u_grammar FROM ar_grammar_links
		 WHERE target_type = ? AND target_id = ? ORDER BY id`, targetType, targetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []models.GrammarLink{}
	for rows.Next() {
		var l models.GrammarLink
		if err := rows.Scan(&l.ID, &l.TargetType, &l.TargetID, &l.GrammarID); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// CanonicalInput returns the stored canonical input of an entity.
func (s *SQLiteStorage) CanonicalInput(ctx context.Context, table, id string) (string, error) {
	column, ok := universalTables[table]
	if !ok {
		return "", fmt.Errorf("unknown universal table %q", table)
	}
	var input string
	err := s.db.QueryRowContext(ctx,
		`SELECT canonical_input FROM `+table+` WHERE `+column+` = ?`, id,
	).Scan(&input)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return input, err
}
