package parser

import (
	"regexp"
	"strings"
)

// Intent is the single action an utterance asks for.
// Mixed-intent utterances ("add milk, remove eggs") are not decomposed:
// the leading verb governs the whole utterance.
type Intent int

const (
	IntentAdd Intent = iota
	IntentRemove
	IntentAdjust
)

func (i Intent) String() string {
	switch i {
	case IntentRemove:
		return "remove"
	case IntentAdjust:
		return "adjust"
	default:
		return "add"
	}
}

// Classification is the outcome of Classify.
type Classification struct {
	Intent Intent
	// Remainder is the text left after the verb (and quantity, for adjust).
	Remainder string
	// Delta is the signed adjustment; zero unless Intent is IntentAdjust.
	Delta int
	// HasQuantity reports whether an adjust quantity token was present.
	HasQuantity bool
}

const quantityAlternation = `\d+|one|two|three|four|five|six|seven|eight|nine|ten|an|a`

var (
	removePattern   = regexp.MustCompile(`^(?:remove|delete|drop|take off)\b\s*(.*)$`)
	increasePattern = regexp.MustCompile(`^(?:increase|plus)\s+(?:(` + quantityAlternation + `)\s+)?(.+)$`)
	addMorePattern  = regexp.MustCompile(`^add\s+(?:(` + quantityAlternation + `)\s+)?more\s+(.+)$`)
	decreasePattern = regexp.MustCompile(`^(?:decrease|subtract|minus)\s+(?:(` + quantityAlternation + `)\s+)?(.+)$`)
	softenerPattern = regexp.MustCompile(`^(?:can you add|please add|i need|i want|add|put|insert|get)\b\s*`)

	// interjectionPattern matches openers that precede the verb in speech ("hey, remove milk").
	interjectionPattern = regexp.MustCompile(`^(?:(?:hey|ok|okay|so|um|uh|please)\b[\s,]*)+`)
)

// Classify picks the intent of a normalized utterance from its leading verb.
//
//	remove|delete|drop|take off ...        -> remove
//	increase|plus [N] ...                   -> adjust +N
//	add [N] more ...                        -> adjust +N
//	decrease|subtract|minus [N] ...         -> adjust -N
//	anything else                           -> add (leading softener stripped)
//
// Leading interjections ("hey", "ok", "please", ...) are skipped first.
// A missing or unresolvable adjust quantity falls back to a magnitude of 1.
func Classify(normalized string) Classification {
	normalized = interjectionPattern.ReplaceAllString(normalized, "")

	if m := removePattern.FindStringSubmatch(normalized); m != nil {
		return Classification{Intent: IntentRemove, Remainder: strings.TrimSpace(m[1])}
	}

	for _, adj := range []struct {
		pattern *regexp.Regexp
		sign    int
	}{
		{increasePattern, 1},
		{addMorePattern, 1},
		{decreasePattern, -1},
	} {
		m := adj.pattern.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		magnitude := 1
		if n, ok := resolveAdjustQuantity(m[1]); ok {
			magnitude = n
		}
		return Classification{
			Intent:      IntentAdjust,
			Remainder:   strings.TrimSpace(m[2]),
			Delta:       adj.sign * magnitude,
			HasQuantity: m[1] != "",
		}
	}

	return Classification{
		Intent:    IntentAdd,
		Remainder: strings.TrimSpace(softenerPattern.ReplaceAllString(normalized, "")),
	}
}

func resolveAdjustQuantity(token string) (int, bool) {
	if articles[token] {
		return 1, true
	}
	return ResolveQuantity(token)
}
