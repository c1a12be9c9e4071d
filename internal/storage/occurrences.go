package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperjump/kalima/internal/models"
)

const upsertOccurrenceSQL = `
	INSERT INTO ar_occ_token (
		ar_token_occ_id, container_id, unit_id, pos_index,
		surface_ar, norm_ar, lemma_ar, pos, ar_u_token, ar_u_root, features_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(ar_token_occ_id) DO UPDATE SET
		container_id = excluded.container_id,
		unit_id = excluded.unit_id,
		pos_index = excluded.pos_index,
		surface_ar = excluded.surface_ar,
		norm_ar = excluded.norm_ar,
		lemma_ar = excluded.lemma_ar,
		pos = excluded.pos,
		ar_u_token = excluded.ar_u_token,
		ar_u_root = excluded.ar_u_root,
		features_json = excluded.features_json`

func upsertOccurrence(ctx context.Context, db execer, tok models.Token) error {
	if tok.OccID == "" {
		return fmt.Errorf("occurrence token at %s:%d has no id", tok.UnitID, tok.PosIndex)
	}
	featuresJSON, err := toJSON(tok.Features, len(tok.Features) == 0)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, upsertOccurrenceSQL,
		tok.OccID, tok.ContainerID, tok.UnitID, tok.PosIndex,
		tok.Surface, nullString(tok.Norm), nullString(tok.Lemma), nullString(tok.POS),
		nullString(tok.UTokenID), tok.URootID, featuresJSON,
	)
	return err
}

// UpsertOccurrenceToken stores a resolved token, replacing any token with the same occurrence id.
func (s *SQLiteStorage) UpsertOccurrenceToken(ctx context.Context, tok models.Token) error {
	return upsertOccurrence(ctx, s.db, tok)
}

// ReplaceUnitTokens swaps every token of a unit for tokens in one transaction. Grammar
// links of the removed tokens are dropped with them, and each new token is linked to
// the grammar entity of every concept it carries.
func (s *SQLiteStorage) ReplaceUnitTokens(ctx context.Context, unitID string, tokens []models.Token) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ar_grammar_links WHERE target_type = 'token'
		 AND target_id IN (SELECT ar_token_occ_id FROM ar_occ_token WHERE unit_id = ?)`, unitID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ar_occ_token WHERE unit_id = ?`, unitID); err != nil {
		return err
	}
	for _, tok := range tokens {
		tok.UnitID = unitID
		if err := upsertOccurrence(ctx, tx, tok); err != nil {
			return err
		}
		for _, concept := range tok.Concepts {
			g, err := upsertGrammar(ctx, tx, models.UGrammar{GrammarID: concept})
			if err != nil {
				return fmt.Errorf("grammar %q of %s: %w", concept, tok.OccID, err)
			}
			if _, err := upsertGrammarLink(ctx, tx, "token", tok.OccID, g.ID); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// ListOccurrenceTokens returns the tokens of a unit ordered by position.
func (s *SQLiteStorage) ListOccurrenceTokens(ctx context.Context, unitID string) ([]models.Token, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ar_token_occ_id, container_id, unit_id, pos_index, surface_ar,
			COALESCE(norm_ar, ''), COALESCE(lemma_ar, ''), COALESCE(pos, ''),
			COALESCE(ar_u_token, ''), ar_u_root, COALESCE(features_json, '')
		 FROM ar_occ_token WHERE unit_id = ? ORDER BY pos_index`, unitID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.Token
	for rows.Next() {
		var tok models.Token
		var featuresJSON string
		if err := rows.Scan(&tok.OccID, &tok.ContainerID, &tok.UnitID, &tok.PosIndex, &tok.Surface,
			&tok.Norm, &tok.Lemma, &tok.POS, &tok.UTokenID, &tok.URootID, &featuresJSON); err != nil {
			return nil, err
		}
		if featuresJSON != "" {
			if err := json.Unmarshal([]byte(featuresJSON), &tok.Features); err != nil {
				return nil, fmt.Errorf("failed to unmarshal features of %s: %w", tok.OccID, err)
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}
