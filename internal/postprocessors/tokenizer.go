package postprocessors

import "regexp"

// tokenPattern matches a word (letters and digits, allowing inner
// apostrophes and numeric separators such as 1,234.56) or any single
// non-space symbol. Every non-whitespace rune belongs to some token.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.,][\p{L}\p{N}]+)*|[^\s\p{L}\p{N}]`)

// Token is a byte range within the tokenized text.
type Token struct {
	Start int
	End   int
}

// Tokenize splits text into word and punctuation tokens.
func Tokenize(text string) []Token {
	locs := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]Token, len(locs))
	for i, loc := range locs {
		tokens[i] = Token{Start: loc[0], End: loc[1]}
	}
	return tokens
}

// CountTokens returns the number of tokens in text.
func CountTokens(text string) int {
	return len(tokenPattern.FindAllStringIndex(text, -1))
}
