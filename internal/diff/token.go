package diff

import "unicode"

// tokenClass partitions runes into the three token classes. Tokens are maximal
// runs of a single class, so re-concatenating a token sequence reproduces the
// input exactly.
type tokenClass int

const (
	classSpace tokenClass = iota
	classWord
	classPunct
)

func classify(r rune) tokenClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsLetter(r) || unicode.IsDigit(r):
		return classWord
	default:
		return classPunct
	}
}

// tokenize splits text into (whitespace | word | punctuation) tokens,
// preserving exact characters.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	runes := []rune(text)
	start := 0
	current := classify(runes[0])

	for i := 1; i < len(runes); i++ {
		c := classify(runes[i])
		if c != current {
			tokens = append(tokens, string(runes[start:i]))
			start = i
			current = c
		}
	}
	return append(tokens, string(runes[start:]))
}
