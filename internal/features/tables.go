package features

// Parts of speech accepted by the lesson editor.
const (
	POSVerb     = "verb"
	POSNoun     = "noun"
	POSAdj      = "adj"
	POSParticle = "particle"
	POSPhrase   = "phrase"
)

// Feature keys.
const (
	KeyParticleType = "particle_type"
	KeyPronoun      = "pronoun"
	KeyStatus       = "status"
	KeyType         = "type"
	KeyNumber       = "number"
	KeyGender       = "gender"
	KeyTense        = "tense"
	KeyMood         = "mood"
	KeyRole         = "role"
)

// Feature values.
const (
	ParticleConjunction = "عطف"
	ParticleFuture      = "استقبال"
	ParticlePreposition = "جر"
	ParticlePronoun     = "ضمير"
	ParticleNegation    = "نفي"
	ParticleVocative    = "نداء"
	ParticleAffirmation = "تحقيق"

	Definite   = "معرفة"
	Indefinite = "نكرة"

	Accusative = "منصوب"
	Nominative = "مرفوع"
	Genitive   = "مجرور"
)

// prefixParticles maps proclitic letters to their particle type.
var prefixParticles = map[string]string{
	"و": ParticleConjunction,
	"ف": ParticleConjunction,
	"س": ParticleFuture,
	"ب": ParticlePreposition,
	"ك": ParticlePreposition,
	"ل": ParticlePreposition,
}

// particles maps whole particle words to their particle type.
var particles = map[string]string{
	"و":   ParticleConjunction,
	"ف":   ParticleConjunction,
	"س":   ParticleFuture,
	"ب":   ParticlePreposition,
	"ك":   ParticlePreposition,
	"ل":   ParticlePreposition,
	"إلى": ParticlePreposition,
	"على": ParticlePreposition,
	"من":  ParticlePreposition,
	"في":  ParticlePreposition,
	"عن":  ParticlePreposition,
	"حتى": ParticlePreposition,
	"إن":  "إنَّ",
	"إِن": "إنَّ",
	"أن":  "أنْ",
	"لن":  ParticleNegation,
	"لم":  ParticleNegation,
	"لا":  ParticleNegation,
	"ما":  ParticleNegation,
	"يا":  ParticleVocative,
	"قد":  ParticleAffirmation,
}

var pronouns = map[string]struct{}{
	"ي": {}, "ك": {}, "ه": {}, "ها": {}, "هم": {}, "هن": {},
	"نا": {}, "كما": {}, "كم": {}, "كن": {}, "هما": {},
}

var tanweenStatus = map[string]string{
	"fathatan": Accusative,
	"dammatan": Nominative,
	"kasratan": Genitive,
}

// ParticleType returns the particle type of a whole word, if it is a known particle.
func ParticleType(word string) (string, bool) {
	t, ok := particles[word]
	return t, ok
}

// IsPronoun reports whether word is an attached pronoun form.
func IsPronoun(word string) bool {
	_, ok := pronouns[word]
	return ok
}
