package morph

var englishClosedClass = map[Tag][]string{
	TagWord: {
		"like", "near", "round", "past", "well",
	},
	TagPronoun: {
		"that", "what", "which", "who",
	},
	TagAdverb: {
		"so", "yet", "since", "before", "after", "up", "down", "off", "over",
		"out", "once", "only",
	},
	TagPreposition: {
		"in", "on", "at", "to", "of", "for", "with", "by", "from", "about",
		"into", "onto", "over", "under", "between", "through", "during",
		"without", "before", "after", "above", "below", "up", "down", "off",
		"near", "against", "among", "per", "via", "across", "behind", "beyond",
		"within", "upon", "toward", "towards", "like", "past", "round", "since",
		"until", "till", "despite", "inside", "outside", "around", "along",
		"beside", "besides", "except", "out",
	},
	TagConjunction: {
		"and", "or", "but", "nor", "so", "yet", "if", "because", "although",
		"though", "while", "whereas", "unless", "than", "that", "whether",
		"since", "once", "until", "till", "either", "neither", "both",
	},
	TagParticle: {
		"not", "to", "only", "the", "a", "an",
	},
	TagInterjection: {
		"oh", "ah", "wow", "oops", "hey", "alas", "ouch", "yeah", "yay", "ugh",
		"hooray", "bravo", "well", "hello", "hi", "eh", "aha", "ooh", "yo",
	},
}

// NewEnglish returns the analyzer for Latin words.
// Articles are filed under particles so they never reach the index.
func NewEnglish() Analyzer {
	return &dictionaryAnalyzer{
		language: "english",
		letter:   func(r rune) bool { return r >= 'a' && r <= 'z' },
		vowels:   "aeiouy",
		closed:   buildDictionary(englishClosedClass, tagOrder),
	}
}
