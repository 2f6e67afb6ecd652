// Package morph normalizes Russian and English text into lemmas.
//
// Each token is routed by script to an Analyzer. Closed-class words
// (prepositions, conjunctions, particles, interjections and a few ambiguous
// pronouns and adverbs) come from a built-in dictionary; every other word is
// normalized with the snowball stemmer of its language, so the "lemma" is a
// stem rather than a dictionary headword. The same normalization is used for
// indexing, for query parsing and for snippet matching, so the three always
// agree.
package morph
