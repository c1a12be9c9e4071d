package ingest

import (
	"strings"

	"github.com/hyperjump/kalima/internal/arabic"
	"github.com/hyperjump/kalima/internal/features"
	"github.com/hyperjump/kalima/internal/segment"
)

// SegmentedPart is one segment of a word with its inferred role.
type SegmentedPart struct {
	segment.Segment
	POS      string       `json:"pos,omitempty"`
	Features features.Map `json:"features,omitempty"`
}

// SegmentedWord is a whitespace-separated word of free text and its segments.
type SegmentedWord struct {
	Surface  string          `json:"surface"`
	Simple   string          `json:"simple"`
	Segments []SegmentedPart `json:"segments"`
}

// SegmentText splits text on whitespace and segments every word. A nil split uses
// the service default. Affixes get their particle role and stems the word defaults.
func (s *Service) SegmentText(text string, split *bool) []SegmentedWord {
	doSplit := s.splitAffixes
	if split != nil {
		doSplit = *split
	}
	words := strings.Fields(text)
	out := make([]SegmentedWord, 0, len(words))
	for _, surface := range words {
		simple := arabic.StripDiacritics(surface)
		segs := segment.Whole(simple, surface)
		if doSplit {
			segs = s.cache.Split(simple, surface)
		}
		word := SegmentedWord{Surface: surface, Simple: simple, Segments: make([]SegmentedPart, 0, len(segs))}
		for _, seg := range segs {
			role := features.InferSegmentRole(seg)
			if seg.Kind == segment.Stem {
				role = features.AutoBuild(role, features.WordInput{
					Surface:    seg.Surface,
					Normalized: seg.Simple,
					Lemma:      seg.Simple,
				})
			}
			word.Segments = append(word.Segments, SegmentedPart{Segment: seg, POS: role.POS, Features: role.Features})
		}
		out = append(out, word)
	}
	return out
}
