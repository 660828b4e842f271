package parser

import (
	"strconv"

	"github.com/teranos/pantry/plan"
)

// numberWords are the spoken quantities the compiler understands.
var numberWords = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
	"six":   6,
	"seven": 7,
	"eight": 8,
	"nine":  9,
	"ten":   10,
}

// articles count as a quantity of one when another word follows them
// ("a bag of chips"); see extractAddEntries.
var articles = map[string]bool{
	"a":  true,
	"an": true,
}

// unitWords are consumed silently when they directly follow a quantity.
var unitWords = map[string]bool{
	"can": true, "cans": true,
	"lb": true, "lbs": true, "pound": true, "pounds": true,
	"oz": true, "ounces": true,
	"bag": true, "bags": true,
	"dozen": true,
	"pack":  true, "packs": true,
}

// fillerWords are dropped from add phrases without affecting grouping.
var fillerWords = map[string]bool{
	"and":    true,
	"also":   true,
	"please": true,
	"hey":    true,
	"can":    true,
	"you":    true,
	"to":     true,
	"the":    true,
}

// stripWords are removed from every item name.
var stripWords = map[string]bool{
	"of":   true,
	"some": true,
}

// IsQuantityToken reports whether token is shaped like a quantity:
// a digit string or a number word. It may still fail to resolve (e.g. "0").
func IsQuantityToken(token string) bool {
	if _, ok := numberWords[token]; ok {
		return true
	}
	return isDigits(token)
}

// ResolveQuantity maps a digit string or number word to an integer in
// [1, plan.MaxQuantity]. Zero, larger values and anything else report false.
func ResolveQuantity(token string) (int, bool) {
	if n, ok := numberWords[token]; ok {
		return n, true
	}
	if !isDigits(token) {
		return 0, false
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 || n > plan.MaxQuantity {
		return 0, false
	}
	return n, true
}

// IsUnit reports whether token is a recognized unit word.
func IsUnit(token string) bool {
	return unitWords[token]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
