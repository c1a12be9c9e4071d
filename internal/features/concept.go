package features

// Core grammar concepts a token can be linked to.
const (
	ConceptNoun     = "اسم"
	ConceptVerb     = "فعل"
	ConceptParticle = "حرف"
)

var legacyConcepts = map[string]string{
	"ism":  ConceptNoun,
	"fi_l": ConceptVerb,
	"harf": ConceptParticle,
}

// GrammarConcept returns the core concept for a part of speech, or "" when none applies.
func GrammarConcept(pos string) string {
	switch pos {
	case POSVerb:
		return ConceptVerb
	case POSParticle:
		return ConceptParticle
	case POSNoun, POSAdj:
		return ConceptNoun
	}
	return ""
}

// NormalizeConcept maps transliterated legacy concept names to their Arabic form.
func NormalizeConcept(concept string) string {
	if c, ok := legacyConcepts[concept]; ok {
		return c
	}
	return concept
}

func isCoreConcept(concept string) bool {
	switch concept {
	case ConceptNoun, ConceptVerb, ConceptParticle:
		return true
	}
	_, legacy := legacyConcepts[concept]
	return legacy
}

// AssignConcept rewrites a token's grammar links so that exactly the core concept for
// pos is present. Non-core links are kept in order.
func AssignConcept(existing []string, pos string) []string {
	concept := GrammarConcept(pos)
	out := make([]string, 0, len(existing)+1)
	for _, c := range existing {
		if concept != "" {
			c = NormalizeConcept(c)
		}
		if isCoreConcept(c) && c != concept {
			continue
		}
		if c == concept && contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	if concept != "" && !contains(out, concept) {
		out = append(out, concept)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
