package puzzle

import (
	"math/rand/v2"
	"unicode"
)

// Alphabet is a shuffled a..z. It only feeds the clue numbers shown under
// letter cells.
type Alphabet [26]rune

func ShuffleAlphabet(rng *rand.Rand) Alphabet {
	var a Alphabet
	for i := range a {
		a[i] = rune('a' + i)
	}
	rng.Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
	return a
}

// Clue is the 1-based position of r in the shuffle, 0 for non-letters.
func (a Alphabet) Clue(r rune) int {
	r = unicode.ToLower(r)
	for i, x := range a {
		if x == r {
			return i + 1
		}
	}
	return 0
}
