package morph

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Tag is a coarse part-of-speech category attached to a parse.
type Tag string

const (
	// TagWord marks an open-class word normalized by stemming.
	TagWord Tag = "WORD"

	// TagPronoun marks pronouns listed in the closed-class dictionary.
	TagPronoun Tag = "PRON"

	// TagAdverb marks adverbs listed in the closed-class dictionary.
	TagAdverb Tag = "ADVB"

	// Function-word categories. A token whose parses all carry one of these
	// never reaches the index.
	TagPreposition  Tag = "PREP"
	TagConjunction  Tag = "CONJ"
	TagParticle     Tag = "PART"
	TagInterjection Tag = "INTJ"
)

// IsFunction reports whether the tag is a function-word category.
func (t Tag) IsFunction() bool {
	switch t {
	case TagPreposition, TagConjunction, TagParticle, TagInterjection:
		return true
	default:
		return false
	}
}

// Parse is one candidate analysis of a word.
type Parse struct {
	// Normal is the dictionary form used as the lemma.
	Normal string

	Tag Tag
}

// Analyzer produces candidate parses for words of one script.
// Implementations are read-only after construction and safe for concurrent use.
type Analyzer interface {
	// Language is the snowball language name, e.g. "russian".
	Language() string

	// Letter reports whether r belongs to the analyzer's alphabet.
	// Input is expected in lower case.
	Letter(r rune) bool

	// Parse returns the candidate parses of a lower-case word made only of
	// the analyzer's letters. An empty result means the word is not
	// recognizable as a word.
	Parse(word string) []Parse
}

// dictionaryAnalyzer resolves closed-class words from a fixed dictionary and
// normalizes every other word with the snowball stemmer of its language.
type dictionaryAnalyzer struct {
	language string
	letter   func(rune) bool
	vowels   string
	closed   map[string][]Tag
}

func (a *dictionaryAnalyzer) Language() string { return a.language }

func (a *dictionaryAnalyzer) Letter(r rune) bool { return a.letter(r) }

func (a *dictionaryAnalyzer) Parse(word string) []Parse {
	if word == "" || !strings.ContainsAny(word, a.vowels) {
		return nil
	}

	tags, ok := a.closed[word]
	if !ok {
		return []Parse{{Normal: a.stem(word), Tag: TagWord}}
	}

	parses := make([]Parse, 0, len(tags))
	for _, tag := range tags {
		normal := word
		if tag == TagWord {
			normal = a.stem(word)
		}
		parses = append(parses, Parse{Normal: normal, Tag: tag})
	}
	return parses
}

func (a *dictionaryAnalyzer) stem(word string) string {
	stemmed, err := snowball.Stem(word, a.language, true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

// buildDictionary merges per-category word lists into a word -> tags map.
// Words listed under several categories keep every tag, in list order.
func buildDictionary(lists map[Tag][]string, order []Tag) map[string][]Tag {
	dict := make(map[string][]Tag)
	for _, tag := range order {
		for _, w := range lists[tag] {
			dict[w] = append(dict[w], tag)
		}
	}
	return dict
}
