// Package resolver turns the stored word rows of a verse into lesson tokens and
// lemma locations, splitting affixes and inferring roles along the way.
package resolver

import (
	"sort"

	"github.com/google/uuid"

	"github.com/hyperjump/kalima/internal/arabic"
	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/features"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/internal/segment"
)

// OccurrenceIDFunc mints the occurrence id of a token that has none stored.
type OccurrenceIDFunc func(containerID, unitID string, posIndex int, surface string) string

// RandomOccurrenceID mints a random UUID.
func RandomOccurrenceID(string, string, int, string) string {
	return uuid.New().String()
}

// Options configure ResolveVerseTokens.
type Options struct {
	// SplitAffixes runs the segmenter; otherwise each word is one stem token.
	SplitAffixes bool
	// Surah and Ayah are used for rows that do not carry their own.
	Surah int
	Ayah  int
	// ContainerID and UnitID default to the ids composed from the verse.
	ContainerID string
	UnitID      string
	// NewOccurrenceID defaults to RandomOccurrenceID. canonical.OccurrenceTokenID
	// gives stable ids instead.
	NewOccurrenceID OccurrenceIDFunc
	SegmentCache    *segment.Cache
}

// Result holds the resolved lemma locations and tokens. Both are non-nil.
type Result struct {
	Lemmas []models.LemmaLocation `json:"lemmas"`
	Tokens []models.Token         `json:"tokens"`
}

type locatedRow struct {
	row models.LemmaLocationRow
	loc models.Location
}

// ResolveVerseTokens resolves the rows of one verse. Rows without a resolvable
// verse or position are skipped. Tokens are numbered from 1 in row order, one per
// segment, and every stem gets exactly one lemma location at its new position.
func ResolveVerseTokens(rows []models.LemmaLocationRow, opts Options) Result {
	result := Result{
		Lemmas: []models.LemmaLocation{},
		Tokens: []models.Token{},
	}
	newID := opts.NewOccurrenceID
	if newID == nil {
		newID = RandomOccurrenceID
	}

	located := make([]locatedRow, 0, len(rows))
	for _, row := range rows {
		loc, ok := row.Locate(opts.Surah, opts.Ayah)
		if !ok {
			continue
		}
		located = append(located, locatedRow{row: row, loc: loc})
	}
	sort.SliceStable(located, func(i, j int) bool {
		a, b := located[i].loc, located[j].loc
		if a.Surah != b.Surah {
			return a.Surah < b.Surah
		}
		if a.Ayah != b.Ayah {
			return a.Ayah < b.Ayah
		}
		return a.TokenIndex < b.TokenIndex
	})

	position := 1
	for _, lr := range located {
		row, loc := lr.row, lr.loc
		containerID := opts.ContainerID
		if containerID == "" {
			containerID = models.ComposeContainerID(loc.Surah)
		}
		unitID := opts.UnitID
		if unitID == "" {
			unitID = models.ComposeAyahUnitID(loc.Surah, loc.Ayah)
		}

		for _, seg := range splitRow(row, opts) {
			token, lemma := resolveSegment(row, seg, position, loc, containerID, unitID, newID)
			result.Tokens = append(result.Tokens, token)
			if lemma != nil {
				result.Lemmas = append(result.Lemmas, *lemma)
			}
			position++
		}
	}
	return result
}

func splitRow(row models.LemmaLocationRow, opts Options) []segment.Segment {
	simple := models.StringOr(row.WordSimple, "")
	surface := models.StringOr(row.WordDiacritic, simple)
	if simple == "" {
		simple = arabic.StripDiacritics(surface)
	}
	if !opts.SplitAffixes {
		return segment.Whole(simple, surface)
	}
	return opts.SegmentCache.Split(simple, surface)
}

func resolveSegment(
	row models.LemmaLocationRow,
	seg segment.Segment,
	position int,
	loc models.Location,
	containerID, unitID string,
	newID OccurrenceIDFunc,
) (models.Token, *models.LemmaLocation) {
	isStem := seg.Kind == segment.Stem
	lemmaText := seg.Simple
	if isStem {
		lemmaText = models.StringOr(row.LemmaText, seg.Simple)
	}

	role := features.InferSegmentRole(seg)
	if isStem && (role.POS == "" || role.Features == nil) {
		defaults := features.InferWordDefaults(features.WordInput{
			Surface:    seg.Surface,
			Normalized: seg.Simple,
			Lemma:      lemmaText,
			POS:        role.POS,
		})
		if role.POS == "" {
			role.POS = defaults.POS
		}
		if role.Features == nil {
			role.Features = defaults.Features
		}
	}
	if role.POS != "" && len(role.Features) == 0 {
		role.Features = features.Template(role.POS)
	}

	token := models.Token{
		ContainerID: containerID,
		UnitID:      unitID,
		PosIndex:    position,
		Surface:     seg.Surface,
		Norm:        seg.Simple,
		Lemma:       lemmaText,
		POS:         role.POS,
		Features:    role.Features,
		Concepts:    features.AssignConcept(nil, role.POS),
	}
	if isStem {
		token.OccID = models.StringOr(row.TokenOccID, "")
		token.UTokenID = models.StringOr(row.UToken, "")
		if token.UTokenID == "" {
			token.UTokenID = UniversalTokenID(token)
		}
	}
	if token.OccID == "" {
		token.OccID = newID(containerID, unitID, position, seg.Surface)
	}
	if !isStem {
		return token, nil
	}

	var lemmaID int64
	if row.LemmaID != nil && *row.LemmaID > 0 {
		lemmaID = *row.LemmaID
	}
	lemma := &models.LemmaLocation{
		LemmaID:        lemmaID,
		LemmaText:      lemmaText,
		LemmaTextClean: models.StringOr(row.LemmaTextClean, seg.Simple),
		WordsCount:     row.WordsCount,
		UniqWordsCount: row.UniqWordsCount,
		WordLocation:   models.Location{Surah: loc.Surah, Ayah: loc.Ayah, TokenIndex: position}.String(),
		Surah:          loc.Surah,
		Ayah:           loc.Ayah,
		TokenIndex:     position,
		TokenOccID:     models.StringPtr(token.OccID),
		UToken:         models.StringPtr(token.UTokenID),
		WordSimple:     models.StringPtr(seg.Simple),
		WordDiacritic:  models.StringPtr(seg.Surface),
	}
	return token, lemma
}

// LemmaNorm is the lemma_norm key of a stem: its normalized form, or its lemma text,
// passed through canonical.NormalizeTextNorm.
func LemmaNorm(token models.Token) string {
	norm := token.Norm
	if norm == "" {
		norm = token.Lemma
	}
	return canonical.NormalizeTextNorm(norm)
}

// UniversalTokenID derives the content id of a stem from its normalized form. An
// unknown part of speech counts as a noun.
func UniversalTokenID(token models.Token) string {
	pos := token.POS
	if !canonical.ValidPOS(pos) {
		pos = features.POSNoun
	}
	entity, err := canonical.Token(LemmaNorm(token), pos, "")
	if err != nil {
		return ""
	}
	return entity.ID
}
