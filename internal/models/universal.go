package models

// Universal records are content-addressed: their ids derive from the identity fields
// only, so Meta and the descriptive fields can change without changing the id.

// URoot is a universal root.
type URoot struct {
	Root              string         `json:"root"`
	RootNorm          string         `json:"root_norm"`
	ArabicTrilateral  string         `json:"arabic_trilateral,omitempty"`
	EnglishTrilateral string         `json:"english_trilateral,omitempty"`
	RootLatn          string         `json:"root_latn,omitempty"`
	AltLatn           []string       `json:"alt_latn,omitempty"`
	SearchKeys        string         `json:"search_keys,omitempty"`
	Status            string         `json:"status,omitempty"`
	Difficulty        *int           `json:"difficulty,omitempty"`
	Frequency         string         `json:"frequency,omitempty"`
	Meta              map[string]any `json:"meta,omitempty"`
}

// UToken is a universal token: a lemma with its part of speech and root.
type UToken struct {
	LemmaAr   string         `json:"lemma_ar"`
	LemmaNorm string         `json:"lemma_norm"`
	POS       string         `json:"pos"`
	RootNorm  string         `json:"root_norm,omitempty"`
	URootID   string         `json:"ar_u_root,omitempty"`
	Features  map[string]any `json:"features,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// USpan is an ordered group of universal tokens.
type USpan struct {
	SpanType string         `json:"span_type"`
	TokenIDs []string       `json:"token_ids"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// USentence is a sentence of a given kind built from a sequence of ids.
type USentence struct {
	Kind     string         `json:"kind"`
	Sequence []string       `json:"sequence"`
	TextAr   string         `json:"text_ar,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// UValency is a verb's prepositional frame.
type UValency struct {
	VerbLemmaAr   string         `json:"verb_lemma_ar"`
	VerbLemmaNorm string         `json:"verb_lemma_norm"`
	PrepTokenID   string         `json:"prep_token_id"`
	FrameType     string         `json:"frame_type"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// ULexicon is one sense of a lemma.
type ULexicon struct {
	LemmaAr        string         `json:"lemma_ar"`
	LemmaNorm      string         `json:"lemma_norm"`
	POS            string         `json:"pos"`
	RootNorm       string         `json:"root_norm,omitempty"`
	URootID        string         `json:"ar_u_root,omitempty"`
	ValencyID      string         `json:"valency_id,omitempty"`
	SenseKey       string         `json:"sense_key"`
	GlossPrimary   string         `json:"gloss_primary,omitempty"`
	GlossSecondary []string       `json:"gloss_secondary,omitempty"`
	UsageNotes     string         `json:"usage_notes,omitempty"`
	Status         string         `json:"status,omitempty"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// UGrammar is a grammar concept.
type UGrammar struct {
	GrammarID    string         `json:"grammar_id"`
	Category     string         `json:"category,omitempty"`
	Title        string         `json:"title,omitempty"`
	TitleAr      string         `json:"title_ar,omitempty"`
	Definition   string         `json:"definition,omitempty"`
	DefinitionAr string         `json:"definition_ar,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
}

// USynset groups tokens that share a meaning.
type USynset struct {
	SynsetKey string         `json:"synset_key"`
	Gloss     string         `json:"gloss,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// USynsetMember places a universal token in a synset.
type USynsetMember struct {
	SynsetID string         `json:"synset_id"`
	TokenID  string         `json:"token_id"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// GrammarLink attaches a grammar concept to a token, span or sentence.
type GrammarLink struct {
	ID         string `json:"id"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	GrammarID  string `json:"grammar_id"`
}

// Row converts a stored location back into the row shape the resolver reads.
func (l LemmaLocation) Row() LemmaLocationRow {
	row := LemmaLocationRow{
		ID:             l.ID,
		WordsCount:     l.WordsCount,
		UniqWordsCount: l.UniqWordsCount,
		WordLocation:   StringPtr(l.WordLocation),
		TokenOccID:     l.TokenOccID,
		UToken:         l.UToken,
		WordSimple:     l.WordSimple,
		WordDiacritic:  l.WordDiacritic,
		LemmaText:      StringPtr(l.LemmaText),
		LemmaTextClean: StringPtr(l.LemmaTextClean),
	}
	if l.LemmaID > 0 {
		id := l.LemmaID
		row.LemmaID = &id
	}
	if l.Surah > 0 {
		surah := l.Surah
		row.Surah = &surah
	}
	if l.Ayah > 0 {
		ayah := l.Ayah
		row.Ayah = &ayah
	}
	if l.TokenIndex > 0 {
		index := l.TokenIndex
		row.TokenIndex = &index
	}
	return row
}
