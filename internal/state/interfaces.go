package state

import (
	"context"
	"errors"

	"quotedojo/internal/puzzle"
)

var (
	// ErrCorruptSave is returned by LoadActivePuzzle after it discarded a
	// progress record tagged for another level.
	ErrCorruptSave = errors.New("active save belongs to another level")
	// ErrNotActive rejects progress writes for a level that is not marked active.
	ErrNotActive = errors.New("level is not the active save")
)

// ProgressStore keeps exactly one level's progress and timer, tagged by the
// active-level marker, plus the unlock record shared by all levels.
type ProgressStore interface {
	LoadActivePuzzle(ctx context.Context, level int) (*ActiveSave, error)
	BeginFreshPuzzle(ctx context.Context, level int, prefilled []puzzle.Guess) error
	PersistProgress(ctx context.Context, level int, guessed, wrong []puzzle.Guess) error
	PersistTick(ctx context.Context, seconds int) error
	ClearTick(ctx context.Context) error
	ClearActiveSave(ctx context.Context) error
	ActiveLevel(ctx context.Context) (int, bool, error)
	// Resumable reports the active level when a progress record tagged for it
	// exists. Unlike LoadActivePuzzle it never discards anything.
	Resumable(ctx context.Context) (int, bool, error)
	LoadUnlock(ctx context.Context) (UnlockRecord, error)
	AdvanceUnlock(ctx context.Context, level int) (UnlockRecord, error)
	Close() error
}

type ProgressRecord struct {
	Level   int            `json:"levelIndex"`
	Guessed []puzzle.Guess `json:"guessedLetters"`
	Wrong   []puzzle.Guess `json:"wrongGuesses"`
}

type ActiveSave struct {
	Progress ProgressRecord
	Seconds  int
}

type UnlockRecord struct {
	UnlockedLevel int `json:"unlockedLevel"`
}

// Unlocked reports whether level may be entered.
func (u UnlockRecord) Unlocked(level int) bool {
	return level >= 0 && level <= u.UnlockedLevel
}

func (u UnlockRecord) advance(level int) UnlockRecord {
	return UnlockRecord{UnlockedLevel: max(u.UnlockedLevel, level+1)}
}

const (
	keyActiveLevel    = "active_level"
	keyActiveProgress = "active_progress"
	keyActiveTimer    = "active_timer"
	keyUnlock         = "unlock"
)

func normalizeRecord(rec ProgressRecord) ProgressRecord {
	if rec.Guessed == nil {
		rec.Guessed = []puzzle.Guess{}
	}
	if rec.Wrong == nil {
		rec.Wrong = []puzzle.Guess{}
	}
	return rec
}
