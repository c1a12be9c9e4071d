package features

import (
	"reflect"
	"testing"
)

func TestGrammarConcept(t *testing.T) {
	tests := map[string]string{
		POSVerb:     ConceptVerb,
		POSParticle: ConceptParticle,
		POSNoun:     ConceptNoun,
		POSAdj:      ConceptNoun,
		POSPhrase:   "",
		"":          "",
	}
	for pos, want := range tests {
		if got := GrammarConcept(pos); got != want {
			t.Errorf("GrammarConcept(%q) = %q, want %q", pos, got, want)
		}
	}
}

func TestAssignConcept(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		pos      string
		want     []string
	}{
		{"adds concept", nil, POSVerb, []string{ConceptVerb}},
		{"replaces other core concept", []string{ConceptNoun, "مبتدأ"}, POSVerb, []string{"مبتدأ", ConceptVerb}},
		{"normalizes legacy", []string{"ism"}, POSNoun, []string{ConceptNoun}},
		{"drops core without pos", []string{"harf", "مبتدأ", ConceptNoun}, "", []string{"مبتدأ"}},
		{"empty result", []string{ConceptNoun}, "", nil},
		{"no duplicates", []string{ConceptParticle, "harf"}, POSParticle, []string{ConceptParticle}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignConcept(tt.existing, tt.pos)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AssignConcept(%v, %q) = %v, want %v", tt.existing, tt.pos, got, tt.want)
			}
		})
	}
}

func TestNormalizeConcept(t *testing.T) {
	if got := NormalizeConcept("fi_l"); got != ConceptVerb {
		t.Errorf("got %q", got)
	}
	if got := NormalizeConcept("خبر"); got != "خبر" {
		t.Errorf("got %q", got)
	}
}
