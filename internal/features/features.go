// Package features infers part of speech and grammatical features for segments and
// whole words from closed-class tables, the definite article and tanween.
package features

import (
	"strings"

	"github.com/hyperjump/kalima/internal/arabic"
	"github.com/hyperjump/kalima/internal/segment"
)

// Map holds feature values. A key present with a nil value is a slot still to be filled.
type Map map[string]any

// Clone returns a shallow copy, or nil for an empty map.
func (m Map) Clone() Map {
	if len(m) == 0 {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Role is an inferred part of speech with its features. An empty POS means unknown.
type Role struct {
	POS      string `json:"pos,omitempty"`
	Features Map    `json:"features,omitempty"`
}

// WordInput is what InferWordDefaults looks at.
type WordInput struct {
	Surface    string
	Normalized string
	Lemma      string
	// POS is kept when already set.
	POS string
}

// InferSegmentRole infers the role of an affix. Stems come back empty.
func InferSegmentRole(seg segment.Segment) Role {
	switch seg.Kind {
	case segment.Prefix:
		feats := Map{}
		if t, ok := prefixParticles[seg.Simple]; ok {
			feats[KeyParticleType] = t
		}
		return Role{POS: POSParticle, Features: feats}
	case segment.Suffix:
		return Role{POS: POSParticle, Features: Map{KeyParticleType: ParticlePronoun}}
	}
	return Role{}
}

// InferWordDefaults infers the role of a whole word or stem. Particles and pronouns
// are recognized by exact form; otherwise the article marks a definite noun and
// tanween an indefinite noun with its case.
func InferWordDefaults(in WordInput) Role {
	normalized := in.Normalized
	if normalized == "" {
		normalized = arabic.StripDiacritics(in.Surface)
	}

	pos := in.POS
	feats := Map{}

	particleType, isParticle := particles[normalized]
	if !isParticle {
		particleType, isParticle = particles[in.Surface]
	}
	isPronoun := IsPronoun(normalized)
	if isParticle || isPronoun {
		if pos == "" {
			pos = POSParticle
		}
		if isParticle {
			feats[KeyParticleType] = particleType
		}
		if isPronoun {
			feats[KeyParticleType] = ParticlePronoun
			feats[KeyPronoun] = normalized
		}
	}

	if pos == "" {
		if strings.HasPrefix(normalized, "ال") || strings.HasPrefix(in.Lemma, "ال") {
			pos = POSNoun
			feats[KeyType] = Definite
		}
		if t, ok := arabic.TanweenOf(in.Surface); ok {
			pos = POSNoun
			feats[KeyStatus] = tanweenStatus[t.String()]
			if _, set := feats[KeyType]; !set {
				feats[KeyType] = Indefinite
			}
		}
	}

	if len(feats) == 0 {
		feats = nil
	}
	return Role{POS: pos, Features: feats}
}

// Template returns the feature slots for a part of speech, all unset.
func Template(pos string) Map {
	switch pos {
	case POSVerb:
		return Map{KeyTense: nil, KeyMood: nil}
	case POSNoun, POSAdj:
		return Map{KeyStatus: nil, KeyNumber: nil, KeyGender: nil, KeyType: nil}
	case POSParticle:
		return Map{KeyParticleType: nil}
	case POSPhrase:
		return Map{KeyRole: nil}
	}
	return Map{}
}

// Merge fills gaps in existing with inferred values. Existing values always win.
func Merge(existing, inferred Map) Map {
	if len(existing) == 0 && len(inferred) == 0 {
		return nil
	}
	out := make(Map, len(existing)+len(inferred))
	for k, v := range inferred {
		out[k] = v
	}
	for k, v := range existing {
		out[k] = v
	}
	return out
}

// AutoBuild completes a token's role from its word: the POS is inferred when missing,
// inferred features are merged under existing ones, and a POS with no features at
// all gets its template.
func AutoBuild(current Role, in WordInput) Role {
	in.POS = current.POS
	defaults := InferWordDefaults(in)

	out := Role{POS: current.POS}
	if out.POS == "" {
		out.POS = defaults.POS
	}
	switch {
	case len(current.Features) == 0 && len(defaults.Features) > 0:
		out.Features = defaults.Features
	case len(current.Features) == 0 && out.POS != "":
		out.Features = Template(out.POS)
	default:
		out.Features = Merge(current.Features, defaults.Features)
	}
	return out
}
