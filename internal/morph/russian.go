package morph

// tagOrder puts content categories first so that an ambiguous word is
// counted under its content reading.
var tagOrder = []Tag{TagWord, TagPronoun, TagAdverb, TagPreposition, TagConjunction, TagParticle, TagInterjection}

var russianClosedClass = map[Tag][]string{
	TagPronoun: {
		"что", "то", "это", "кто", "все",
	},
	TagAdverb: {
		"как", "так", "когда", "тогда", "пока", "уж",
	},
	TagPreposition: {
		"в", "во", "на", "с", "со", "к", "ко", "по", "о", "об", "обо", "от", "ото",
		"до", "из", "изо", "у", "за", "над", "надо", "под", "подо", "при", "про",
		"для", "без", "безо", "через", "перед", "передо", "между", "около",
		"вокруг", "после", "среди", "сквозь", "ради", "вдоль", "возле", "мимо",
		"против", "вместо", "кроме", "внутри", "вне", "согласно", "благодаря",
	},
	TagConjunction: {
		"и", "а", "но", "или", "либо", "что", "чтобы", "чтоб", "если", "как",
		"когда", "хотя", "хоть", "зато", "однако", "то", "ибо", "пока",
		"будто", "словно", "причем", "притом", "также", "тоже", "нежели",
	},
	TagParticle: {
		"не", "ни", "же", "ж", "ли", "ль", "бы", "б", "вот", "вон", "даже",
		"лишь", "только", "ведь", "разве", "неужели", "пусть", "пускай",
		"именно", "да", "нет", "уж", "ка", "таки", "едва",
	},
	TagInterjection: {
		"ах", "ох", "эх", "ой", "ай", "ух", "увы", "ого", "эй", "ура", "ау",
		"браво", "алло", "о", "ага", "угу",
	},
}

// NewRussian returns the analyzer for Cyrillic words.
// The letter "ё" is expected to be folded into "е" before parsing.
func NewRussian() Analyzer {
	return &dictionaryAnalyzer{
		language: "russian",
		letter:   func(r rune) bool { return r >= 'а' && r <= 'я' },
		vowels:   "аеиоуыэюя",
		closed:   buildDictionary(russianClosedClass, tagOrder),
	}
}
