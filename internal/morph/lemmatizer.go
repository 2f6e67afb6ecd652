package morph

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxWordLength is the longest token, in letters, that is still treated as a
// word. Longer runs are noise such as concatenated identifiers.
const MaxWordLength = 40

// Lemmatizer turns text into lemma frequencies.
// It holds only read-only dictionaries and is safe for concurrent use.
type Lemmatizer struct {
	russian Analyzer
	english Analyzer
}

// NewLemmatizer creates a Lemmatizer with the Russian and English analyzers.
func NewLemmatizer() *Lemmatizer {
	return &Lemmatizer{
		russian: NewRussian(),
		english: NewEnglish(),
	}
}

// LemmatizeText returns the number of occurrences of every lemma in text.
// Tokens mixing Cyrillic and Latin letters, tokens longer than MaxWordLength,
// unrecognizable tokens and pure function words are skipped.
func (l *Lemmatizer) LemmatizeText(text string) map[string]int {
	lemmas := make(map[string]int)
	for _, token := range strings.Fields(prepare(text)) {
		word, analyzer := l.route(token)
		if analyzer == nil || utf8.RuneCountInString(word) > MaxWordLength {
			continue
		}

		parses := analyzer.Parse(word)
		if len(parses) == 0 || allFunction(parses) {
			continue
		}
		lemmas[parses[0].Normal]++
	}
	return lemmas
}

// NormalForm returns the lemma of a single word.
// The word is stripped to its Cyrillic letters, or failing that to its Latin
// letters; a word with neither is returned unchanged.
func (l *Lemmatizer) NormalForm(word string) string {
	w := prepare(word)
	for _, a := range []Analyzer{l.russian, l.english} {
		stripped := keepLetters(w, a)
		if stripped == "" {
			continue
		}
		if parses := a.Parse(stripped); len(parses) > 0 {
			return parses[0].Normal
		}
		return stripped
	}
	return word
}

// route picks the analyzer for a token and strips everything that is not a
// letter of its script. It returns a nil analyzer for tokens with no letters
// or with letters of both scripts.
func (l *Lemmatizer) route(token string) (string, Analyzer) {
	var ru, en bool
	for _, r := range token {
		switch {
		case l.russian.Letter(r):
			ru = true
		case l.english.Letter(r):
			en = true
		}
	}

	switch {
	case ru && en:
		return "", nil
	case ru:
		return keepLetters(token, l.russian), l.russian
	case en:
		return keepLetters(token, l.english), l.english
	default:
		return "", nil
	}
}

// prepare composes the text to NFC, lower-cases it and folds "ё" into "е".
// NFC keeps letters such as "й" as single runes when the source used
// combining marks.
func prepare(text string) string {
	return strings.ReplaceAll(strings.ToLower(norm.NFC.String(text)), "ё", "е")
}

func keepLetters(s string, a Analyzer) string {
	return strings.Map(func(r rune) rune {
		if a.Letter(r) {
			return r
		}
		return -1
	}, s)
}

func allFunction(parses []Parse) bool {
	for _, p := range parses {
		if !p.Tag.IsFunction() {
			return false
		}
	}
	return true
}
