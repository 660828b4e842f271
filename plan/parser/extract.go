package parser

import (
	"strings"

	"github.com/teranos/pantry/internal/util"
	"github.com/teranos/pantry/plan"
)

// edgePunctuation is trimmed from both ends of names and notes.
const edgePunctuation = ".,;:!?\"' "

// ExtractName splits "name (note)" into a clean name and an optional note.
// The name is the text before the first "("; the note is the text up to the
// matching ")" (or the end, if it is never closed). Text after the closing
// parenthesis is ignored.
func ExtractName(phrase string) (string, *string) {
	var note *string

	if open := strings.IndexByte(phrase, '('); open >= 0 {
		inner := phrase[open+1:]
		if end := matchingParen(inner); end >= 0 {
			inner = inner[:end]
		}
		if n := strings.Trim(inner, edgePunctuation); n != "" {
			note = util.Ptr(strings.Join(strings.Fields(n), " "))
		}
		phrase = phrase[:open]
	}

	return cleanName(phrase), note
}

// matchingParen returns the index of the ")" closing an already-opened
// parenthesis in s, or -1.
func matchingParen(s string) int {
	depth := 1
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// cleanName drops "of"/"some", collapses whitespace and trims punctuation.
func cleanName(s string) string {
	var kept []string
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, edgePunctuation)
		if w == "" || stripWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// addScanner is the per-segment state of the add path: a pending quantity
// and the tokens of the group being built.
type addScanner struct {
	quantity      *int
	buffer        []string
	afterQuantity bool
	depth         int
	entries       []plan.AddEntry
}

// extractAddEntries runs the add-path state machine over one segment.
// A quantity token starts a new group, so "two chickens three steaks"
// yields two entries without any separator. A closing note parenthesis
// ends its group too: "milk (cheap) bread" is two items.
func extractAddEntries(segment string) []plan.AddEntry {
	s := &addScanner{}
	tokens := strings.Fields(segment)

	for i, tok := range tokens {
		if s.depth > 0 || strings.ContainsRune(tok, '(') {
			s.depth += strings.Count(tok, "(") - strings.Count(tok, ")")
			if s.depth < 0 {
				s.depth = 0
			}
			s.buffer = append(s.buffer, tok)
			s.afterQuantity = false
			if s.depth == 0 {
				// The note is closed; following words start a new item.
				s.flush()
			}
			continue
		}

		word := strings.Trim(tok, edgePunctuation)

		switch {
		case IsQuantityToken(word):
			s.startGroup(ResolveQuantity(word))
			continue
		case articles[word] && i < len(tokens)-1:
			s.startGroup(1, true)
			continue
		case s.afterQuantity && IsUnit(word):
			s.afterQuantity = false
			continue
		}

		s.afterQuantity = false
		if word == "" || fillerWords[word] {
			continue
		}
		s.buffer = append(s.buffer, tok)
	}
	s.flush()

	return s.entries
}

func (s *addScanner) startGroup(n int, ok bool) {
	if len(s.buffer) > 0 {
		s.flush()
	}
	s.quantity = nil
	if ok {
		s.quantity = util.Ptr(n)
	}
	s.afterQuantity = true
}

// flush emits the buffered group. Groups whose name is empty after cleanup
// are dropped silently.
func (s *addScanner) flush() {
	defer func() {
		s.buffer = nil
		s.quantity = nil
	}()
	if len(s.buffer) == 0 {
		return
	}
	name, note := ExtractName(strings.Join(s.buffer, " "))
	if name == "" {
		return
	}
	s.entries = append(s.entries, plan.AddEntry{
		Name:     name,
		Quantity: s.quantity,
		Note:     note,
	})
}
