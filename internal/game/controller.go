// Package game sequences a puzzle from open to win or loss: it owns the
// attempt, the timer and every call into the progress store.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"quotedojo/internal/catalog"
	"quotedojo/internal/puzzle"
	"quotedojo/internal/state"
	"quotedojo/internal/telemetry"
	"quotedojo/internal/timer"
)

type Options struct {
	Catalog      Catalog
	Store        state.ProgressStore
	Events       Events
	Logger       telemetry.Logger
	TickInterval time.Duration
	Rand         *rand.Rand
}

type Controller struct {
	catalog  Catalog
	store    state.ProgressStore
	events   Events
	logger   telemetry.Logger
	interval time.Duration
	rng      *rand.Rand

	mu       sync.Mutex
	phase    Phase
	quote    catalog.Quote
	attempt  *puzzle.Attempt
	alphabet puzzle.Alphabet
	selected int
	resumed  bool
	// detached attempts could not read the save, so they never write to it.
	detached    bool
	timer       *timer.Service
	timerCtx    context.Context
	cancelTimer context.CancelFunc
}

func New(opts Options) *Controller {
	if opts.Events == nil {
		opts.Events = NopEvents{}
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Nop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Rand == nil {
		now := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(now, now>>7|1))
	}
	return &Controller{
		catalog:  opts.Catalog,
		store:    opts.Store,
		events:   opts.Events,
		logger:   opts.Logger,
		interval: opts.TickInterval,
		rng:      opts.Rand,
		phase:    PhaseIdle,
		selected: -1,
	}
}

// OpenPuzzle loads level, resuming the active save when it belongs to this
// level and starting fresh otherwise. Any previously open puzzle is closed.
func (c *Controller) OpenPuzzle(ctx context.Context, level int) (Snapshot, error) {
	quote, err := c.catalog.Quote(level)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open level %d: %w", level, ErrUnknownLevel)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if unlock := c.loadUnlock(ctx); !unlock.Unlocked(level) {
		return Snapshot{}, fmt.Errorf("open level %d (unlocked up to %d): %w", level, unlock.UnlockedLevel, ErrLevelLocked)
	}
	c.closeLocked()

	c.phase = PhaseLoading
	attempt := puzzle.NewAttempt(level, quote.Text)

	detached := false
	save, err := c.store.LoadActivePuzzle(ctx, level)
	switch {
	case errors.Is(err, state.ErrCorruptSave):
		c.logger.Warn("store.corrupt_save", map[string]any{"level": level, "error": err.Error()})
	case err != nil:
		// The save may still be valid. Play in memory and leave it alone.
		c.logger.Error("store.load_failed", map[string]any{"level": level, "error": err.Error()})
		detached = true
	}

	var ticks timer.Persister
	if !detached {
		ticks = c.store
	}
	tmr := timer.New(timer.Options{
		Interval: c.interval,
		Store:    ticks,
		Logger:   c.logger,
		OnTick:   c.events.Tick,
	})

	if save != nil {
		c.phase = PhaseResuming
		attempt.Restore(save.Progress.Guessed, save.Progress.Wrong)
		attempt.Seconds = save.Seconds
		tmr.Restore(save.Seconds)
	} else {
		c.phase = PhaseFreshStart
		attempt.Restore(puzzle.Prefill(attempt.Map, c.rng), nil)
		if !detached {
			if err := c.store.BeginFreshPuzzle(ctx, level, attempt.Guessed); err != nil {
				c.logger.Error("store.begin_fresh_failed", map[string]any{"level": level, "error": err.Error()})
			}
		}
	}

	c.quote = quote
	c.attempt = attempt
	c.alphabet = puzzle.ShuffleAlphabet(c.rng)
	c.selected = -1
	c.resumed = save != nil
	c.detached = detached
	c.timer = tmr
	c.timerCtx, c.cancelTimer = context.WithCancel(context.WithoutCancel(ctx))
	c.logger.Info("puzzle.open", map[string]any{
		"level":    level,
		"resumed":  c.resumed,
		"detached": c.detached,
		"letters":  attempt.Map.LetterCount(),
		"budget":   attempt.WrongBudget,
		"guessed":  len(attempt.Guessed),
		"wrong":    len(attempt.Wrong),
		"seconds":  attempt.Seconds,
	})

	c.phase = PhasePlaying
	c.events.ProgressChanged(cloneGuesses(attempt.Guessed), cloneGuesses(attempt.Wrong))
	switch puzzle.Evaluate(attempt) {
	case puzzle.OutcomeWon:
		c.finishWonLocked(ctx)
	case puzzle.OutcomeLost:
		c.resetLostLocked(ctx)
	default:
		tmr.Start(c.timerCtx)
	}
	return c.snapshotLocked(), nil
}

// SelectCell marks the cell the next SubmitGuess targets. Only letter cells
// that are not yet guessed can be selected.
func (c *Controller) SelectCell(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePlaying || !c.attempt.Guessable(index) {
		return false
	}
	c.selected = index
	return true
}

// SubmitGuess guesses letter at the selected cell. ok is false when the input
// was ignored.
func (c *Controller) SubmitGuess(ctx context.Context, letter string) (fb puzzle.Feedback, outcome puzzle.Outcome, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePlaying || c.selected < 0 {
		return puzzle.Feedback{}, puzzle.OutcomeContinue, false
	}
	return c.guessLocked(ctx, c.selected, letter)
}

// GuessAt guesses letter at index regardless of the selection.
func (c *Controller) GuessAt(ctx context.Context, index int, letter string) (fb puzzle.Feedback, outcome puzzle.Outcome, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePlaying {
		return puzzle.Feedback{}, puzzle.OutcomeContinue, false
	}
	return c.guessLocked(ctx, index, letter)
}

func (c *Controller) guessLocked(ctx context.Context, index int, letter string) (puzzle.Feedback, puzzle.Outcome, bool) {
	fb, ok := puzzle.SubmitGuess(c.attempt, index, letter)
	if !ok {
		return fb, puzzle.OutcomeContinue, false
	}
	c.selected = -1

	level := c.attempt.Level
	if !c.detached {
		if err := c.store.PersistProgress(ctx, level, c.attempt.Guessed, c.attempt.Wrong); err != nil {
			c.logger.Error("store.persist_progress_failed", map[string]any{"level": level, "error": err.Error()})
		}
	}
	c.events.GuessFeedback(fb)
	c.events.ProgressChanged(cloneGuesses(c.attempt.Guessed), cloneGuesses(c.attempt.Wrong))

	outcome := puzzle.Evaluate(c.attempt)
	switch outcome {
	case puzzle.OutcomeWon:
		c.finishWonLocked(ctx)
	case puzzle.OutcomeLost:
		c.resetLostLocked(ctx)
	}
	return fb, outcome, true
}

func (c *Controller) finishWonLocked(ctx context.Context) {
	level := c.attempt.Level
	c.timer.Stop()
	c.attempt.Seconds = c.timer.Seconds()
	c.phase = PhaseWon
	c.selected = -1

	if !c.detached {
		if err := c.store.ClearActiveSave(ctx); err != nil {
			c.logger.Error("store.clear_failed", map[string]any{"level": level, "error": err.Error()})
		}
	}
	unlock, err := c.store.AdvanceUnlock(ctx, level)
	if err != nil {
		c.logger.Error("store.advance_unlock_failed", map[string]any{"level": level, "error": err.Error()})
	}
	c.logger.Info("puzzle.won", map[string]any{
		"level":    level,
		"seconds":  c.attempt.Seconds,
		"wrong":    len(c.attempt.Wrong),
		"unlocked": unlock.UnlockedLevel,
	})
	c.events.Outcome(level, puzzle.OutcomeWon)
}

// resetLostLocked keeps the player on the level with an empty attempt. The
// prefill from the fresh start is not reapplied, and an empty progress record
// is saved so a reopen resumes the empty attempt instead of starting fresh.
func (c *Controller) resetLostLocked(ctx context.Context) {
	level := c.attempt.Level
	c.timer.Stop()
	c.phase = PhaseLost
	if !c.detached {
		if err := c.store.ClearActiveSave(ctx); err != nil {
			c.logger.Error("store.clear_failed", map[string]any{"level": level, "error": err.Error()})
		}
	}
	c.logger.Info("puzzle.lost", map[string]any{
		"level":   level,
		"seconds": c.timer.Seconds(),
		"wrong":   len(c.attempt.Wrong),
	})
	c.events.Outcome(level, puzzle.OutcomeLost)

	c.attempt.Reset()
	c.selected = -1
	c.alphabet = puzzle.ShuffleAlphabet(c.rng)
	c.timer.Reset(ctx)
	if !c.detached {
		if err := c.store.PersistProgress(ctx, level, []puzzle.Guess{}, []puzzle.Guess{}); err != nil {
			c.logger.Error("store.persist_progress_failed", map[string]any{"level": level, "error": err.Error()})
		}
	}
	c.events.ProgressChanged([]puzzle.Guess{}, []puzzle.Guess{})
	c.phase = PhasePlaying
	c.timer.Start(c.timerCtx)
}

// ClosePuzzle stops the timer and stops accepting guesses. The persisted save
// is left as it is so the level can be resumed later.
func (c *Controller) ClosePuzzle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	if c.timer != nil {
		c.timer.Stop()
		if c.attempt != nil {
			c.attempt.Seconds = c.timer.Seconds()
		}
	}
	if c.cancelTimer != nil {
		c.cancelTimer()
		c.cancelTimer = nil
	}
	if c.attempt != nil && c.phase != PhaseWon {
		c.logger.Info("puzzle.close", map[string]any{"level": c.attempt.Level, "phase": string(c.phase)})
		c.phase = PhaseClosed
	}
	c.selected = -1
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:    c.phase,
		Quote:    c.quote,
		Alphabet: c.alphabet,
		Selected: c.selected,
		Resumed:  c.resumed,
		Level:    -1,
	}
	if c.attempt != nil {
		s.Level = c.attempt.Level
		s.Attempt = c.attempt.Clone()
		if c.timer != nil && c.phase != PhaseWon {
			s.Attempt.Seconds = c.timer.Seconds()
		}
	}
	return s
}

// Levels lists every catalog entry with its lock and resume state. It only
// reads from the store.
func (c *Controller) Levels(ctx context.Context) ([]LevelStatus, state.UnlockRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	unlock := c.loadUnlock(ctx)
	resumable := -1
	if active, ok, err := c.store.Resumable(ctx); err != nil {
		c.logger.Error("store.resumable_failed", map[string]any{"error": err.Error()})
	} else if ok {
		resumable = active
	}

	out := make([]LevelStatus, c.catalog.Len())
	for i := range out {
		q, _ := c.catalog.Quote(i)
		out[i] = LevelStatus{
			Index:     i,
			Author:    q.Author,
			Locked:    !unlock.Unlocked(i),
			Resumable: i == resumable,
		}
	}
	return out, unlock
}

func (c *Controller) loadUnlock(ctx context.Context) state.UnlockRecord {
	unlock, err := c.store.LoadUnlock(ctx)
	if err != nil {
		c.logger.Error("store.load_unlock_failed", map[string]any{"error": err.Error()})
		return state.UnlockRecord{}
	}
	return unlock
}

func cloneGuesses(in []puzzle.Guess) []puzzle.Guess {
	return append([]puzzle.Guess{}, in...)
}
