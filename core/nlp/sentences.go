package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/siherrmann/inscriber/model"
)

// SplitSentences splits text after ".", "!" or "?" followed by whitespace, and at
// blank lines. Sentences are trimmed; Start and End are byte offsets into text.
func SplitSentences(text string) []model.Sentence {
	sentences := []model.Sentence{}
	start := 0

	emit := func(end int) {
		segment := text[start:end]
		trimmedLeft := strings.TrimLeftFunc(segment, unicode.IsSpace)
		s := start + len(segment) - len(trimmedLeft)
		trimmed := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
		if trimmed != "" {
			sentences = append(sentences, model.Sentence{
				Text:  trimmed,
				Start: s,
				End:   s + len(trimmed),
			})
		}
		start = end
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size

		switch {
		case r == '.' || r == '!' || r == '?':
			if next >= len(text) {
				break
			}
			nr, _ := utf8.DecodeRuneInString(text[next:])
			if unicode.IsSpace(nr) {
				emit(next)
			}
		case r == '\n':
			if strings.HasPrefix(strings.TrimLeft(text[next:], " \t\r"), "\n") {
				emit(next)
			}
		}
		i = next
	}
	emit(len(text))

	return sentences
}
