package ui

import "quotedojo/internal/puzzle"

// Controller receives user intents. Calls are made from their own goroutine
// and may block.
type Controller interface {
	OnOpenLevelSelect()
	OnStartLevel(level int)
	OnSubmitGuess(index int, letter string)
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetLevels(levels []LevelRow, unlocked int)
	SetLoading(loading bool)
	SetPuzzle(state PuzzleState)
	SetProgress(guessed, wrong []puzzle.Guess)
	SetSeconds(seconds int)
	ShowFeedback(fb puzzle.Feedback)
	SetResult(state ResultState)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenLevelSelect Screen = iota
	ScreenPlaying
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

type LevelRow struct {
	Index     int
	Author    string
	Locked    bool
	Resumable bool
}

type PuzzleState struct {
	Level    int
	Author   string
	Map      puzzle.CharMap
	Alphabet puzzle.Alphabet
	Guessed  []puzzle.Guess
	Wrong    []puzzle.Guess
	Budget   int
	Seconds  int
	Resumed  bool
}

type ResultState struct {
	Visible bool
	Outcome puzzle.Outcome
	Level   int
	Seconds int
}
