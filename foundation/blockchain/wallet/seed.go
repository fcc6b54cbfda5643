package wallet

// SeedWords is the number of words in a seed phrase.
const SeedWords = 12

// vocabulary is the fixed word list seed phrases are drawn from.
var vocabulary = []string{
	"cosmic", "space", "protocol", "galaxy", "star", "planet", "meteor",
	"asteroid", "comet", "nebula", "quasar", "black", "hole", "universe",
	"exploration", "discovery", "mission", "rocket", "satellite", "orbit",
	"lunar", "solar", "system", "colony", "station", "module", "quantum",
	"gravity", "fusion", "energy", "matter", "dark", "light", "void",
	"dimension", "portal", "wormhole", "infinity", "beyond", "eternal",
}

// IsVocabulary reports if the word belongs to the seed phrase vocabulary.
func IsVocabulary(word string) bool {
	for _, w := range vocabulary {
		if w == word {
			return true
		}
	}
	return false
}
