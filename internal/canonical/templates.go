package canonical

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingKey is returned when a field that takes part in identity is empty.
	ErrMissingKey = errors.New("canonical: missing required key")
	// ErrInvalidPOS is returned for a part of speech outside AllowedPOS.
	ErrInvalidPOS = errors.New("canonical: invalid part of speech")
	// ErrInvalidFrame is returned for an unknown valency frame type.
	ErrInvalidFrame = errors.New("canonical: invalid valency frame type")
)

// AllowedPOS lists the parts of speech universal tokens and lexicon senses accept.
var AllowedPOS = []string{"verb", "noun", "adj", "particle", "phrase"}

// FrameType classifies how a verb governs its preposition.
type FrameType string

const (
	FrameRequired FrameType = "REQ_PREP"
	FrameAlt      FrameType = "ALT_PREP"
	FrameOptional FrameType = "OPTIONAL_PREP"
)

// ValidPOS reports whether pos is one of AllowedPOS.
func ValidPOS(pos string) bool {
	for _, p := range AllowedPOS {
		if p == pos {
			return true
		}
	}
	return false
}

func (f FrameType) valid() bool {
	switch f {
	case FrameRequired, FrameAlt, FrameOptional:
		return true
	}
	return false
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrMissingKey, name)
	}
	return nil
}

func checkPOS(pos string) error {
	if !ValidPOS(pos) {
		return fmt.Errorf("%w: %q", ErrInvalidPOS, pos)
	}
	return nil
}

// RootInput returns ROOT|{rootNorm}.
func RootInput(rootNorm string) (string, error) {
	if err := required("root_norm", rootNorm); err != nil {
		return "", err
	}
	return "ROOT|" + rootNorm, nil
}

// TokenInput returns TOK|{lemmaNorm}|{pos}|{rootNorm}. rootNorm may be empty.
func TokenInput(lemmaNorm, pos, rootNorm string) (string, error) {
	if err := required("lemma_norm", lemmaNorm); err != nil {
		return "", err
	}
	if err := checkPOS(pos); err != nil {
		return "", err
	}
	return "TOK|" + lemmaNorm + "|" + pos + "|" + rootNorm, nil
}

// SpanInput returns SPAN|{spanType}|{tokenIds joined by ','}.
func SpanInput(spanType string, tokenIDs []string) (string, error) {
	if err := required("span_type", spanType); err != nil {
		return "", err
	}
	return "SPAN|" + spanType + "|" + strings.Join(tokenIDs, ","), nil
}

// SentenceInput returns SENT|{kind}|{sequence joined by ';'}.
func SentenceInput(kind string, sequence []string) (string, error) {
	if err := required("kind", kind); err != nil {
		return "", err
	}
	return "SENT|" + kind + "|" + strings.Join(sequence, ";"), nil
}

// ValencyInput returns VAL|{verbLemmaNorm}|{prepTokenId}|{frameType}.
func ValencyInput(verbLemmaNorm, prepTokenID string, frame FrameType) (string, error) {
	if err := required("verb_lemma_norm", verbLemmaNorm); err != nil {
		return "", err
	}
	if err := required("prep_token_id", prepTokenID); err != nil {
		return "", err
	}
	if !frame.valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrame, frame)
	}
	return "VAL|" + verbLemmaNorm + "|" + prepTokenID + "|" + string(frame), nil
}

// LexiconInput returns LEX|{lemmaNorm}|{pos}|{rootNorm}|{valencyId}|{senseKey}.
func LexiconInput(lemmaNorm, pos, rootNorm, valencyID, senseKey string) (string, error) {
	if err := required("lemma_norm", lemmaNorm); err != nil {
		return "", err
	}
	if err := checkPOS(pos); err != nil {
		return "", err
	}
	if err := required("sense_key", senseKey); err != nil {
		return "", err
	}
	return "LEX|" + lemmaNorm + "|" + pos + "|" + rootNorm + "|" + valencyID + "|" + senseKey, nil
}

// GrammarInput returns GRAM|{grammarId}.
func GrammarInput(grammarID string) (string, error) {
	if err := required("grammar_id", grammarID); err != nil {
		return "", err
	}
	return "GRAM|" + grammarID, nil
}

// SynsetInput returns SYN|{synsetKey}.
func SynsetInput(synsetKey string) (string, error) {
	if err := required("synset_key", synsetKey); err != nil {
		return "", err
	}
	return "SYN|" + synsetKey, nil
}

// SynsetMemberInput returns SYNM|{synsetId}|{tokenId}.
func SynsetMemberInput(synsetID, tokenID string) (string, error) {
	if err := required("synset_id", synsetID); err != nil {
		return "", err
	}
	if err := required("token_id", tokenID); err != nil {
		return "", err
	}
	return "SYNM|" + synsetID + "|" + tokenID, nil
}

func entity(input string, err error) (Entity, error) {
	if err != nil {
		return Entity{}, err
	}
	return Universal(input), nil
}

// Root derives the universal root entity.
func Root(rootNorm string) (Entity, error) { return entity(RootInput(rootNorm)) }

// Token derives the universal token entity.
func Token(lemmaNorm, pos, rootNorm string) (Entity, error) {
	return entity(TokenInput(lemmaNorm, pos, rootNorm))
}

// Span derives the universal span entity.
func Span(spanType string, tokenIDs []string) (Entity, error) {
	return entity(SpanInput(spanType, tokenIDs))
}

// Sentence derives the universal sentence entity.
func Sentence(kind string, sequence []string) (Entity, error) {
	return entity(SentenceInput(kind, sequence))
}

// Valency derives the universal valency frame entity.
func Valency(verbLemmaNorm, prepTokenID string, frame FrameType) (Entity, error) {
	return entity(ValencyInput(verbLemmaNorm, prepTokenID, frame))
}

// Lexicon derives the universal lexicon sense entity.
func Lexicon(lemmaNorm, pos, rootNorm, valencyID, senseKey string) (Entity, error) {
	return entity(LexiconInput(lemmaNorm, pos, rootNorm, valencyID, senseKey))
}

// Grammar derives the universal grammar concept entity.
func Grammar(grammarID string) (Entity, error) { return entity(GrammarInput(grammarID)) }

// Synset derives the universal synset entity.
func Synset(synsetKey string) (Entity, error) { return entity(SynsetInput(synsetKey)) }

// SynsetMember derives the synset membership entity.
func SynsetMember(synsetID, tokenID string) (Entity, error) {
	return entity(SynsetMemberInput(synsetID, tokenID))
}
