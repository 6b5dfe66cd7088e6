package corpus

import (
	"regexp"
	"strings"
)

// tokenRegex matches runs of two or more word characters.
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases text and returns its non-stop-word tokens in order.
func Tokenize(text string) []string {
	raw := tokenRegex.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if IsStopWord(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Terms returns unigrams followed by adjacent bigrams of the tokens of text.
// Bigrams are built after stop-word removal and joined with a single space.
func Terms(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, 0, 2*len(tokens)-1)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
