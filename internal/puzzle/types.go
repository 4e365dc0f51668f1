package puzzle

// Cell is one rune of a quotation. Index is the rune position in the full
// quotation, spaces included, so persisted guesses stay valid across rebuilds.
type Cell struct {
	Char     rune
	Index    int
	Word     int
	IsLetter bool
}

type CharMap []Cell

// Guess is used for both the guessed and the wrong history. In the guessed set
// Letter is the true character of the cell; in the wrong set it is the
// lowercased submission.
type Guess struct {
	Index  int    `json:"index"`
	Letter string `json:"letter"`
}

type FeedbackType string

const (
	FeedbackCorrect FeedbackType = "correct"
	FeedbackWrong   FeedbackType = "wrong"
)

type Feedback struct {
	Index int
	Type  FeedbackType
}

type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeWon      Outcome = "won"
	OutcomeLost     Outcome = "lost"
)

// Attempt is the in-progress state of one level.
type Attempt struct {
	Level       int
	Map         CharMap
	Guessed     []Guess
	Wrong       []Guess
	Seconds     int
	WrongBudget int
}
