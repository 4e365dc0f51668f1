package puzzle

import (
	"math/rand/v2"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ratios are in percent so the floor is exact.
const (
	minWrongBudget     = 5
	wrongBudgetPercent = 15
	minPrefill         = 3
	prefillPercent     = 10
)

// WrongBudget is the number of wrong guesses that ends an attempt.
func WrongBudget(letters int) int {
	return max(minWrongBudget, letters*wrongBudgetPercent/100)
}

// PrefillCount is the number of letters revealed on a fresh start.
func PrefillCount(letters int) int {
	return max(minPrefill, letters*prefillPercent/100)
}

func NewAttempt(level int, text string) *Attempt {
	m := BuildCharMap(text)
	return &Attempt{
		Level:       level,
		Map:         m,
		Guessed:     []Guess{},
		Wrong:       []Guess{},
		WrongBudget: WrongBudget(m.LetterCount()),
	}
}

// Prefill picks PrefillCount distinct letter cells and returns them as guesses
// carrying their true letters, ordered by index. A quotation with fewer letters
// than the prefill count is revealed entirely.
func Prefill(m CharMap, rng *rand.Rand) []Guess {
	letters := m.LetterIndices()
	n := min(PrefillCount(len(letters)), len(letters))
	out := make([]Guess, 0, n)
	for _, pos := range rng.Perm(len(letters))[:n] {
		idx := letters[pos]
		out = append(out, Guess{Index: idx, Letter: string(m[idx].Char)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (a *Attempt) IsGuessed(index int) bool {
	for _, g := range a.Guessed {
		if g.Index == index {
			return true
		}
	}
	return false
}

// Guessable reports whether index is a letter cell that still takes guesses.
func (a *Attempt) Guessable(index int) bool {
	c, ok := a.Map.Cell(index)
	return ok && c.IsLetter && !a.IsGuessed(index)
}

// SubmitGuess applies one guess. Inputs that are not exactly one character,
// or that target a non-letter or already guessed cell, are ignored and
// reported with ok=false.
func SubmitGuess(a *Attempt, index int, letter string) (fb Feedback, ok bool) {
	letter = strings.TrimSpace(letter)
	if utf8.RuneCountInString(letter) != 1 || !a.Guessable(index) {
		return Feedback{}, false
	}
	guess, _ := utf8.DecodeRuneInString(letter)
	truth := a.Map[index].Char
	if unicode.ToLower(guess) == unicode.ToLower(truth) {
		a.Guessed = append(a.Guessed, Guess{Index: index, Letter: string(truth)})
		return Feedback{Index: index, Type: FeedbackCorrect}, true
	}
	a.Wrong = append(a.Wrong, Guess{Index: index, Letter: string(unicode.ToLower(guess))})
	return Feedback{Index: index, Type: FeedbackWrong}, true
}

func Evaluate(a *Attempt) Outcome {
	guessed := make(map[int]struct{}, len(a.Guessed))
	for _, g := range a.Guessed {
		guessed[g.Index] = struct{}{}
	}
	won := true
	for _, c := range a.Map {
		if !c.IsLetter {
			continue
		}
		if _, ok := guessed[c.Index]; !ok {
			won = false
			break
		}
	}
	switch {
	case won:
		return OutcomeWon
	case len(a.Wrong) >= a.WrongBudget:
		return OutcomeLost
	default:
		return OutcomeContinue
	}
}

// Restore replaces the guess history with persisted records. Records that do
// not fit the current map are dropped.
func (a *Attempt) Restore(guessed, wrong []Guess) {
	a.Guessed = make([]Guess, 0, len(guessed))
	for _, g := range guessed {
		if a.Guessable(g.Index) {
			a.Guessed = append(a.Guessed, Guess{Index: g.Index, Letter: string(a.Map[g.Index].Char)})
		}
	}
	a.Wrong = make([]Guess, 0, len(wrong))
	for _, g := range wrong {
		if c, ok := a.Map.Cell(g.Index); ok && c.IsLetter {
			a.Wrong = append(a.Wrong, g)
		}
	}
}

// Reset clears the guess history and the clock. The budget is kept.
func (a *Attempt) Reset() {
	a.Guessed = []Guess{}
	a.Wrong = []Guess{}
	a.Seconds = 0
}

// Clone returns a deep copy safe to hand to another goroutine.
func (a *Attempt) Clone() Attempt {
	out := *a
	out.Map = append(CharMap(nil), a.Map...)
	out.Guessed = append([]Guess{}, a.Guessed...)
	out.Wrong = append([]Guess{}, a.Wrong...)
	return out
}
