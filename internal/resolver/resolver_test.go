package resolver

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/features"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/internal/segment"
)

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }
func strp(v string) *string { return &v }

func word(index int, surface string) models.LemmaLocationRow {
	return models.LemmaLocationRow{TokenIndex: intp(index), WordDiacritic: strp(surface)}
}

// Al-Baqarah 2:2, first five words.
func verseRows() []models.LemmaLocationRow {
	rows := []models.LemmaLocationRow{
		word(1, "ذَٰلِكَ"),
		word(2, "الْكِتَابُ"),
		word(3, "لَا"),
		word(4, "رَيْبَ"),
		word(5, "فِيهِ"),
	}
	rows[1].LemmaID = int64p(1234)
	rows[1].LemmaText = strp("كِتَاب")
	rows[1].LemmaTextClean = strp("كتاب")
	rows[1].TokenOccID = strp("occ-kitab")
	rows[4].TokenOccID = strp("occ-fihi")
	rows[4].UToken = strp("u-fi")
	return rows
}

func counter() OccurrenceIDFunc {
	n := 0
	return func(string, string, int, string) string {
		n++
		return fmt.Sprintf("minted-%d", n)
	}
}

func TestResolveVerseTokens_SplitAffixes(t *testing.T) {
	res := ResolveVerseTokens(verseRows(), Options{
		SplitAffixes:    true,
		Surah:           2,
		Ayah:            2,
		NewOccurrenceID: counter(),
	})

	require.Len(t, res.Tokens, 6)
	require.Len(t, res.Lemmas, 5)

	norms := make([]string, len(res.Tokens))
	for i, tok := range res.Tokens {
		norms[i] = tok.Norm
		assert.Equal(t, i+1, tok.PosIndex)
		assert.Equal(t, "C:QURAN:2", tok.ContainerID)
		assert.Equal(t, "U:C:QURAN:2:2", tok.UnitID)
	}
	assert.Equal(t, []string{"ذلك", "الكتاب", "لا", "ريب", "في", "ه"}, norms)

	kitab := res.Tokens[1]
	assert.Equal(t, "occ-kitab", kitab.OccID)
	assert.Equal(t, "كِتَاب", kitab.Lemma)
	assert.Equal(t, features.POSNoun, kitab.POS)
	assert.Equal(t, features.Definite, kitab.Features[features.KeyType])
	assert.Equal(t, []string{features.ConceptNoun}, kitab.Concepts)

	la := res.Tokens[2]
	assert.Equal(t, features.POSParticle, la.POS)
	assert.Equal(t, features.ParticleNegation, la.Features[features.KeyParticleType])

	fi := res.Tokens[4]
	assert.Equal(t, "occ-fihi", fi.OccID)
	assert.Equal(t, "u-fi", fi.UTokenID)
	assert.Equal(t, "فِي", fi.Surface)

	hi := res.Tokens[5]
	assert.Equal(t, "هِ", hi.Surface)
	assert.Equal(t, "minted-4", hi.OccID, "affix gets a fresh occurrence id")
	assert.Empty(t, hi.UTokenID)
	assert.Equal(t, features.ParticlePronoun, hi.Features[features.KeyParticleType])

	locations := make([]string, len(res.Lemmas))
	for i, l := range res.Lemmas {
		locations[i] = l.WordLocation
	}
	assert.Equal(t, []string{"2:2:1", "2:2:2", "2:2:3", "2:2:4", "2:2:5"}, locations)

	assert.Equal(t, int64(1234), res.Lemmas[1].LemmaID)
	assert.Equal(t, "كتاب", res.Lemmas[1].LemmaTextClean)
	assert.Equal(t, int64(0), res.Lemmas[0].LemmaID)
	assert.Equal(t, "ذلك", res.Lemmas[0].LemmaTextClean)
	assert.Equal(t, "u-fi", *res.Lemmas[4].UToken)
}

func TestResolveVerseTokens_DerivesUniversalTokenID(t *testing.T) {
	res := ResolveVerseTokens(verseRows(), Options{SplitAffixes: true, Surah: 2, Ayah: 2, NewOccurrenceID: counter()})

	dhalika := res.Tokens[0]
	assert.Empty(t, dhalika.POS)
	want, err := canonical.Token("ذلك", "noun", "")
	require.NoError(t, err)
	assert.Equal(t, want.ID, dhalika.UTokenID)
	assert.Equal(t, want.ID, *res.Lemmas[0].UToken)

	la := res.Tokens[2]
	wantLa, err := canonical.Token("لا", "particle", "")
	require.NoError(t, err)
	assert.Equal(t, wantLa.ID, la.UTokenID)
}

func TestResolveVerseTokens_AttachedPronounsHaveNoLemma(t *testing.T) {
	rows := []models.LemmaLocationRow{
		word(1, "لَكُمْ"),
		word(2, "لَهُمْ"),
		word(3, "بِهِمْ"),
		word(4, "وَلَهُمْ"),
	}
	res := ResolveVerseTokens(rows, Options{SplitAffixes: true, Surah: 2, Ayah: 7, NewOccurrenceID: counter()})

	assert.Empty(t, res.Lemmas)
	require.Len(t, res.Tokens, 9)
	for _, tok := range res.Tokens {
		assert.Equal(t, features.POSParticle, tok.POS, "token %d", tok.PosIndex)
	}
	assert.Equal(t, "هم", res.Tokens[8].Norm)
	assert.Equal(t, 9, res.Tokens[8].PosIndex)
}

func TestLemmaNorm(t *testing.T) {
	assert.Equal(t, "كتاب", LemmaNorm(models.Token{Norm: "كتاب", Lemma: "كِتَاب"}))
	assert.Equal(t, "كِتَاب", LemmaNorm(models.Token{Lemma: "كِتَاب"}))
	assert.Equal(t, "ذو_القرنين", LemmaNorm(models.Token{Norm: "  ذو   القرنين "}))
	assert.Equal(t, "a_b", LemmaNorm(models.Token{Norm: "A|B"}))

	tok := models.Token{Norm: "ذو القرنين", POS: "noun"}
	want, err := canonical.Token("ذو_القرنين", "noun", "")
	require.NoError(t, err)
	assert.Equal(t, want.ID, UniversalTokenID(tok))
}

func TestResolveVerseTokens_WholeWords(t *testing.T) {
	res := ResolveVerseTokens(verseRows(), Options{Surah: 2, Ayah: 2, NewOccurrenceID: counter()})

	require.Len(t, res.Tokens, 5)
	require.Len(t, res.Lemmas, 5)
	assert.Equal(t, "فيه", res.Tokens[4].Norm)
	assert.Equal(t, "فِيهِ", res.Tokens[4].Surface)
	assert.Equal(t, "2:2:5", res.Lemmas[4].WordLocation)
}

func TestResolveVerseTokens_SkipsUnlocatableRows(t *testing.T) {
	rows := []models.LemmaLocationRow{
		{WordDiacritic: strp("بِسْمِ")},
		{WordLocation: strp("1:1:2"), WordDiacritic: strp("اللَّهِ")},
		{TokenIndex: intp(3), WordDiacritic: strp("الرَّحْمَٰنِ")},
	}

	res := ResolveVerseTokens(rows, Options{NewOccurrenceID: counter()})
	require.Len(t, res.Tokens, 1, "only the row carrying its own verse resolves")
	assert.Equal(t, "الله", res.Tokens[0].Norm)
	assert.Equal(t, 1, res.Tokens[0].PosIndex)
	assert.Equal(t, "1:1:1", res.Lemmas[0].WordLocation)

	res = ResolveVerseTokens(rows, Options{Surah: 1, Ayah: 1, NewOccurrenceID: counter()})
	require.Len(t, res.Tokens, 2)
	assert.Equal(t, []string{"الله", "الرحمن"}, []string{res.Tokens[0].Norm, res.Tokens[1].Norm})
}

func TestResolveVerseTokens_SortsByPosition(t *testing.T) {
	rows := []models.LemmaLocationRow{word(3, "لَا"), word(1, "ذَٰلِكَ"), word(2, "الْكِتَابُ")}
	res := ResolveVerseTokens(rows, Options{Surah: 2, Ayah: 2, NewOccurrenceID: counter()})
	require.Len(t, res.Tokens, 3)
	assert.Equal(t, "ذلك", res.Tokens[0].Norm)
	assert.Equal(t, "لا", res.Tokens[2].Norm)
}

func TestResolveVerseTokens_Empty(t *testing.T) {
	res := ResolveVerseTokens(nil, Options{SplitAffixes: true})
	assert.NotNil(t, res.Lemmas)
	assert.NotNil(t, res.Tokens)
	assert.Empty(t, res.Lemmas)
	assert.Empty(t, res.Tokens)
}

func TestResolveVerseTokens_PositionsAreDense(t *testing.T) {
	surfaces := []string{"وَبِالْوَالِدَيْنِ", "إِحْسَانًا", "لَكُمْ", "وَبِهِ", "سَيَقُولُ", "كِتَابُهُ"}
	rows := make([]models.LemmaLocationRow, len(surfaces))
	for i, s := range surfaces {
		rows[i] = word(i+1, s)
	}
	res := ResolveVerseTokens(rows, Options{SplitAffixes: true, Surah: 4, Ayah: 36, SegmentCache: segment.NewCache(16)})

	stems := 0
	for i, tok := range res.Tokens {
		assert.Equal(t, i+1, tok.PosIndex)
		_, err := uuid.Parse(tok.OccID)
		assert.NoError(t, err, "default occurrence ids are UUIDs")
		if tok.UTokenID != "" {
			stems++
		}
	}
	assert.Len(t, res.Lemmas, stems)
	for _, l := range res.Lemmas {
		assert.Equal(t, fmt.Sprintf("4:36:%d", l.TokenIndex), l.WordLocation)
	}
}

func TestResolveVerseTokens_DeterministicOccurrenceIDs(t *testing.T) {
	opts := Options{SplitAffixes: true, Surah: 2, Ayah: 2, NewOccurrenceID: canonical.OccurrenceTokenID}
	first := ResolveVerseTokens(verseRows(), opts)
	second := ResolveVerseTokens(verseRows(), opts)
	assert.Equal(t, first.Tokens, second.Tokens)
	assert.Equal(t, canonical.OccurrenceTokenID("C:QURAN:2", "U:C:QURAN:2:2", 6, "هِ"), first.Tokens[5].OccID)
}

func TestResolveVerseTokens_CustomIDs(t *testing.T) {
	res := ResolveVerseTokens([]models.LemmaLocationRow{word(1, "كِتَابٌ")}, Options{
		Surah:           2,
		Ayah:            2,
		ContainerID:     "C:LESSON:7",
		UnitID:          "U:C:LESSON:7:1",
		NewOccurrenceID: counter(),
	})
	require.Len(t, res.Tokens, 1)
	tok := res.Tokens[0]
	assert.Equal(t, "C:LESSON:7", tok.ContainerID)
	assert.Equal(t, "U:C:LESSON:7:1", tok.UnitID)
	assert.Equal(t, features.Nominative, tok.Features[features.KeyStatus])
	assert.Equal(t, "minted-1", tok.OccID)
}
