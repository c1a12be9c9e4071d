package segment

import "strings"

// ProcliticClass says which licensing rule a proclitic letter follows.
type ProcliticClass int

const (
	// Conjunction proclitics (wa-, fa-) attach to anything.
	Conjunction ProcliticClass = iota + 1
	// Preposition proclitics (bi-, ka-) attach before the article or a pronoun enclitic.
	Preposition
	// Lam attaches like a preposition and also before a second lam (lil-).
	Lam
	// Future sa- attaches before an imperfect verb prefix.
	Future
)

// Proclitics is the set of single-letter proclitics the segmenter strips.
var Proclitics = map[rune]ProcliticClass{
	'و': Conjunction,
	'ف': Conjunction,
	'ب': Preposition,
	'ك': Preposition,
	'ل': Lam,
	'س': Future,
}

// Enclitics are the pronominal suffixes, longest first. Order matters: the first
// match wins.
var Enclitics = []string{"كما", "هما", "كم", "كن", "هم", "هن", "ها", "ه", "ك", "ي", "نا"}

// imperfectPrefixes are the letters a future sa- must precede.
var imperfectPrefixes = map[rune]struct{}{
	'ي': {},
	'ت': {},
	'ن': {},
	'أ': {},
}

const definiteArticle = "ال"

// Lexicalized words are closed-class forms that are never segmented, and that stop
// proclitic stripping when they remain after a proclitic.
var Lexicalized = toSet(
	// prepositions and particles
	"في", "من", "إلى", "على", "عن", "حتى", "إن", "أن", "لن", "لم", "لا", "ما", "يا", "قد",
	"إلا", "ثم", "بل", "لكن", "لعل", "كي", "كأن", "ليت", "إذا", "إذ", "لو", "لولا", "لما",
	"كلا", "بلى", "نعم", "هل", "أم", "أو", "كل",
	// prepositions as spelled before a pronoun enclitic
	"علي", "إلي", "لدي",
	// independent pronouns
	"هو", "هي", "هم", "هن", "هما", "أنا", "نحن", "أنت", "أنتم", "أنتن", "أنتما",
	// demonstratives carry an addressee kaf that is not a pronoun
	"ذلك", "تلك", "كذلك", "هنالك", "أولئك", "ذلكم", "ذلكما", "هذا", "هذه", "هؤلاء", "هذان", "هاتان",
	// relatives
	"الذي", "التي", "الذين", "اللذان", "اللتان", "اللاتي", "اللائي",
	// divine name
	"الله", "لله", "اللهم",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsLexicalized reports whether the diacritic-free form is a closed-class word.
func IsLexicalized(simple string) bool {
	_, ok := Lexicalized[simple]
	return ok
}

// IsEnclitic reports whether s is exactly one of the Enclitics.
func IsEnclitic(s string) bool {
	for _, e := range Enclitics {
		if e == s {
			return true
		}
	}
	return false
}

// Licensed reports whether a proclitic of class c may be stripped when rest follows it.
func (c ProcliticClass) Licensed(rest []rune) bool {
	if len(rest) == 0 {
		return false
	}
	s := string(rest)
	switch c {
	case Conjunction:
		return true
	case Preposition:
		return strings.HasPrefix(s, definiteArticle) || IsEnclitic(s)
	case Lam:
		return strings.HasPrefix(s, definiteArticle) || rest[0] == 'ل' || IsEnclitic(s)
	case Future:
		_, ok := imperfectPrefixes[rest[0]]
		return ok && len(rest) >= 3
	}
	return false
}
