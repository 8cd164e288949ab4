// Package matching implements the text-matching core: Arabic-aware
// normalization, a sequence-similarity scorer, and the candidate-pool
// cascade that pairs current-cycle requirements with their previous-cycle
// counterparts.
package matching

import (
	"strings"
)

// NormalizerRules is the immutable rule set driving text normalization.
// Rules are fixed at construction so every comparison within one matching
// run uses identical canonical forms.
type NormalizerRules struct {
	// StopWords are removed as whole tokens after whitespace splitting.
	StopWords []string
	// LetterVariants maps rune variants onto one canonical rune anywhere
	// in a token.
	LetterVariants map[rune]rune
	// TrailingVariants maps a token's final rune onto a canonical rune.
	TrailingVariants map[rune]rune
}

// DefaultRules returns the Arabic rule set: common prepositions as stop
// words, hamza-form unification onto the bare alif, and the feminine
// ta-marbuta folded into ha at token end.
func DefaultRules() NormalizerRules {
	return NormalizerRules{
		StopWords: []string{
			"على", "من", "في", "إلى", "بين", "مع", "عن", "الى", "فى",
		},
		LetterVariants: map[rune]rune{
			'أ': 'ا',
			'إ': 'ا',
			'آ': 'ا',
		},
		TrailingVariants: map[rune]rune{
			'ة': 'ه',
		},
	}
}

// Normalizer canonicalizes free text before similarity scoring.  Normalize
// is idempotent: applying it to already-normalized text returns the text
// unchanged.
type Normalizer struct {
	stopWords        map[string]struct{}
	letterVariants   map[rune]rune
	trailingVariants map[rune]rune
}

// NewNormalizer builds a Normalizer from the given rules.  The rule maps
// are copied; later mutation of the input does not affect the normalizer.
func NewNormalizer(rules NormalizerRules) *Normalizer {
	n := &Normalizer{
		stopWords:        make(map[string]struct{}, len(rules.StopWords)),
		letterVariants:   make(map[rune]rune, len(rules.LetterVariants)),
		trailingVariants: make(map[rune]rune, len(rules.TrailingVariants)),
	}
	for _, w := range rules.StopWords {
		n.stopWords[w] = struct{}{}
	}
	for from, to := range rules.LetterVariants {
		n.letterVariants[from] = to
	}
	for from, to := range rules.TrailingVariants {
		n.trailingVariants[from] = to
	}
	return n
}

// NewDefaultNormalizer is shorthand for NewNormalizer(DefaultRules()).
func NewDefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultRules())
}

// Normalize canonicalizes text: collapse whitespace runs, drop stop-word
// tokens, strip the definite-article prefix "ال" (token length > 2) or the
// conjunction prefix "و" (token length > 1), unify letter variants, and fold
// the trailing-variant rune of each token.  Empty or all-stop-word input
// yields the empty string.
func (n *Normalizer) Normalize(text string) string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		tok = n.normalizeToken(tok)
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// normalizeToken iterates the single-step token transform to a fixpoint.
// Stripping one prefix can expose another prefix or a stop word, so a
// single pass is not idempotent; the fixpoint is.  Each step shortens the
// token or maps runes onto canonical forms outside the variant tables, so
// the loop terminates within len(tok) iterations.
func (n *Normalizer) normalizeToken(tok string) string {
	for {
		next := n.stepToken(tok)
		if next == tok {
			return tok
		}
		tok = next
		if tok == "" {
			return ""
		}
	}
}

func (n *Normalizer) stepToken(tok string) string {
	if _, stop := n.stopWords[tok]; stop {
		return ""
	}
	runes := []rune(tok)
	if len(runes) > 2 && runes[0] == 'ا' && runes[1] == 'ل' {
		runes = runes[2:]
	} else if len(runes) > 1 && runes[0] == 'و' {
		runes = runes[1:]
	}
	for i, r := range runes {
		if to, ok := n.letterVariants[r]; ok {
			runes[i] = to
		}
	}
	if len(runes) > 0 {
		last := len(runes) - 1
		if to, ok := n.trailingVariants[runes[last]]; ok {
			runes[last] = to
		}
	}
	return string(runes)
}
