package parser

import "strings"

// Normalize lower-cases and trims an utterance, collapses whitespace runs and
// drops trailing sentence punctuation left behind by speech-to-text.
func Normalize(utterance string) string {
	s := strings.ToLower(strings.Join(strings.Fields(utterance), " "))
	return strings.TrimSpace(strings.TrimRight(s, ".!?"))
}
