package parser

import "strings"

// SplitSegments splits text on top-level ",", "and" and "plus".
// Delimiters inside parentheses belong to a note and never split.
func SplitSegments(text string) []string {
	var (
		segments []string
		words    []string
		depth    int
	)

	flush := func() {
		if len(words) == 0 {
			return
		}
		segments = append(segments, strings.Join(words, " "))
		words = nil
	}

	for _, word := range strings.Fields(text) {
		if bare := strings.Trim(word, ","); depth == 0 && (bare == "and" || bare == "plus") {
			flush()
			continue
		}

		var b strings.Builder
		for _, r := range word {
			switch r {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			case ',':
				if depth == 0 {
					if b.Len() > 0 {
						words = append(words, b.String())
						b.Reset()
					}
					flush()
					continue
				}
			}
			b.WriteRune(r)
		}
		if b.Len() > 0 {
			words = append(words, b.String())
		}
	}
	flush()

	return segments
}
