package game

import (
	"errors"

	"quotedojo/internal/catalog"
	"quotedojo/internal/puzzle"
)

var (
	ErrUnknownLevel = errors.New("unknown level")
	ErrLevelLocked  = errors.New("level is locked")
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseResuming   Phase = "resuming"
	PhaseFreshStart Phase = "fresh_start"
	PhasePlaying    Phase = "playing"
	PhaseWon        Phase = "won"
	PhaseLost       Phase = "lost"
	PhaseClosed     Phase = "closed"
)

// Catalog is the read side of the quotation list.
type Catalog interface {
	Len() int
	Quote(level int) (catalog.Quote, error)
}

// Events is implemented by the presentation layer. Methods may be called from
// the timer goroutine and must not call back into the Controller
// synchronously.
type Events interface {
	ProgressChanged(guessed, wrong []puzzle.Guess)
	Tick(seconds int)
	GuessFeedback(fb puzzle.Feedback)
	Outcome(level int, outcome puzzle.Outcome)
}

type NopEvents struct{}

func (NopEvents) ProgressChanged([]puzzle.Guess, []puzzle.Guess) {}
func (NopEvents) Tick(int)                                       {}
func (NopEvents) GuessFeedback(puzzle.Feedback)                  {}
func (NopEvents) Outcome(int, puzzle.Outcome)                    {}

type Snapshot struct {
	Phase    Phase
	Level    int
	Quote    catalog.Quote
	Attempt  puzzle.Attempt
	Alphabet puzzle.Alphabet
	Selected int
	Resumed  bool
}

type LevelStatus struct {
	Index     int
	Author    string
	Locked    bool
	Resumable bool
}
