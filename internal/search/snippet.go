package search

import (
	"strings"
	"unicode/utf8"
)

const (
	// SnippetCap is the number of characters after which a snippet is closed.
	SnippetCap = 220

	// snippetContext is the number of words kept after a match.
	snippetContext = 10

	ellipsis = "..."
)

// Normalizer maps a word to its lemma.
type Normalizer interface {
	NormalForm(word string) string
}

// BuildSnippet returns an excerpt of content around the words whose lemma
// is in lemmas. Matches are wrapped in <b></b> and followed by up to ten
// words of context; other words are skipped. A lemma is highlighted again
// only after every lemma has been highlighted once.
//
// The snippet always starts with "..." and, when cut, ends with "...". Its
// length never exceeds SnippetCap plus the closing ellipsis.
func BuildSnippet(content string, lemmas []string, n Normalizer) string {
	wanted := make(map[string]struct{}, len(lemmas))
	for _, l := range lemmas {
		wanted[l] = struct{}{}
	}
	used := make(map[string]struct{}, len(wanted))

	var b strings.Builder
	b.WriteString(ellipsis)
	length := utf8.RuneCountInString(ellipsis)

	appendPiece := func(piece string) bool {
		size := utf8.RuneCountInString(piece)
		if length+size > SnippetCap {
			return false
		}
		b.WriteString(piece)
		length += size
		return true
	}

	inRun := false
	remaining := 0
	for _, word := range strings.Fields(content) {
		normal := n.NormalForm(word)
		_, isWanted := wanted[normal]
		_, isUsed := used[normal]

		if isWanted && !isUsed {
			if !appendPiece("<b>" + word + "</b> ") {
				return b.String() + ellipsis
			}
			inRun = true
			remaining = snippetContext
			used[normal] = struct{}{}
			if len(used) == len(wanted) {
				clear(used)
			}
			continue
		}

		if inRun {
			if !appendPiece(word + " ") {
				return b.String() + ellipsis
			}
			remaining--
			if remaining == 0 {
				inRun = false
			}
		}
		if length >= SnippetCap {
			return b.String() + ellipsis
		}
	}
	return b.String()
}
