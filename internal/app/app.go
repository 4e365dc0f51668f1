package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	"quotedojo/internal/catalog"
	"quotedojo/internal/game"
	"quotedojo/internal/puzzle"
	"quotedojo/internal/state"
	"quotedojo/internal/telemetry"
	"quotedojo/internal/ui"

	"github.com/google/uuid"
)

const storeFile = "progress.db"

type App struct {
	cfg Config

	logger  *telemetry.JSONLogger
	store   state.ProgressStore
	catalog *catalog.Catalog
	game    *game.Controller
	view    ui.View
}

func New(cfg Config) (*App, error) {
	logger, err := telemetry.NewJSONLogger(cfg.LogPath, telemetry.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()
	logger = logger.With(map[string]any{"session": sessionID})

	ctx := context.Background()
	cat, err := LoadCatalog(ctx, cfg)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.DebugLayout,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
	})
	a := assemble(cfg, logger, store, cat, view, nil)
	view.SetController(a)
	return a, nil
}

// OpenStore returns the sqlite save slots under cfg.DataDir, or an in-memory
// store when cfg.Ephemeral is set.
func OpenStore(ctx context.Context, cfg Config) (state.ProgressStore, error) {
	if cfg.Ephemeral {
		return state.NewMemoryStore(), nil
	}
	store, err := state.NewSQLite(StorePath(cfg))
	if err != nil {
		return nil, fmt.Errorf("open progress store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("prepare progress store: %w", err)
	}
	return store, nil
}

func StorePath(cfg Config) string {
	return filepath.Join(cfg.DataDir, storeFile)
}

func LoadCatalog(ctx context.Context, cfg Config) (*catalog.Catalog, error) {
	loader := catalog.NewLoader()
	if cfg.CatalogPath == "" {
		return loader.Builtin()
	}
	return loader.LoadCatalog(ctx, cfg.CatalogPath)
}

func assemble(cfg Config, logger *telemetry.JSONLogger, store state.ProgressStore, cat *catalog.Catalog, view ui.View, rng *rand.Rand) *App {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		catalog: cat,
		view:    view,
	}
	a.game = game.New(game.Options{
		Catalog:      cat,
		Store:        store,
		Events:       viewEvents{view: view},
		Logger:       logger,
		TickInterval: cfg.TickInterval,
		Rand:         rng,
	})
	return a
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{
		"catalog":   a.catalog.CatalogID,
		"quotes":    a.catalog.Len(),
		"ephemeral": a.cfg.Ephemeral,
		"data_dir":  a.cfg.DataDir,
	})
	a.refreshLevels(ctx)
	a.view.SetScreen(ui.ScreenLevelSelect)
	err := a.view.Run()
	a.game.ClosePuzzle()
	a.logger.Info("app.stop", map[string]any{})
	return err
}

func (a *App) Close() {
	a.game.ClosePuzzle()
	if err := a.store.Close(); err != nil {
		a.logger.Error("store.close_failed", map[string]any{"error": err.Error()})
	}
	_ = a.logger.Close()
}

func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

func (a *App) Levels(ctx context.Context) ([]game.LevelStatus, state.UnlockRecord) {
	return a.game.Levels(ctx)
}

func (a *App) OnOpenLevelSelect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.game.ClosePuzzle()
	a.refreshLevels(ctx)
	a.view.SetResult(ui.ResultState{})
	a.view.SetScreen(ui.ScreenLevelSelect)
}

func (a *App) OnStartLevel(level int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := a.game.OpenPuzzle(ctx, level)
	if err != nil {
		a.logger.Warn("ui.open_rejected", map[string]any{"level": level, "error": err.Error()})
		a.view.SetLoading(false)
		switch {
		case errors.Is(err, game.ErrLevelLocked):
			a.view.FlashStatus(fmt.Sprintf("Level %d is locked", level+1))
		default:
			a.view.FlashStatus("Could not open level: " + err.Error())
		}
		return
	}
	a.view.SetResult(ui.ResultState{})
	a.view.SetPuzzle(puzzleState(snap))
	a.view.SetScreen(ui.ScreenPlaying)
	if snap.Phase == game.PhaseWon {
		a.view.SetResult(ui.ResultState{Visible: true, Outcome: puzzle.OutcomeWon, Level: snap.Level, Seconds: snap.Attempt.Seconds})
	}
}

// OnSubmitGuess guesses letter at index. A loss restarts the level in place
// with a fresh alphabet, so the whole puzzle is redrawn.
func (a *App) OnSubmitGuess(index int, letter string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, outcome, ok := a.game.GuessAt(ctx, index, letter)
	if !ok {
		return
	}
	switch outcome {
	case puzzle.OutcomeWon:
		snap := a.game.Snapshot()
		a.view.SetResult(ui.ResultState{Visible: true, Outcome: puzzle.OutcomeWon, Level: snap.Level, Seconds: snap.Attempt.Seconds})
	case puzzle.OutcomeLost:
		snap := a.game.Snapshot()
		a.view.SetPuzzle(puzzleState(snap))
		a.view.SetResult(ui.ResultState{Visible: true, Outcome: puzzle.OutcomeLost, Level: snap.Level})
	}
}

func (a *App) OnQuit() {
	a.game.ClosePuzzle()
	a.view.Stop()
}

func (a *App) refreshLevels(ctx context.Context) {
	statuses, unlock := a.game.Levels(ctx)
	rows := make([]ui.LevelRow, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, ui.LevelRow{
			Index:     s.Index,
			Author:    s.Author,
			Locked:    s.Locked,
			Resumable: s.Resumable,
		})
	}
	a.view.SetLevels(rows, unlock.UnlockedLevel)
}

func puzzleState(s game.Snapshot) ui.PuzzleState {
	return ui.PuzzleState{
		Level:    s.Level,
		Author:   s.Quote.Author,
		Map:      s.Attempt.Map,
		Alphabet: s.Alphabet,
		Guessed:  s.Attempt.Guessed,
		Wrong:    s.Attempt.Wrong,
		Budget:   s.Attempt.WrongBudget,
		Seconds:  s.Attempt.Seconds,
		Resumed:  s.Resumed,
	}
}

// viewEvents forwards controller events to the view. The view queues them on
// its own loop, so they never call back into the controller.
type viewEvents struct {
	view ui.View
}

func (e viewEvents) ProgressChanged(guessed, wrong []puzzle.Guess) {
	e.view.SetProgress(guessed, wrong)
}

func (e viewEvents) Tick(seconds int) {
	e.view.SetSeconds(seconds)
}

func (e viewEvents) GuessFeedback(fb puzzle.Feedback) {
	e.view.ShowFeedback(fb)
}

func (e viewEvents) Outcome(level int, outcome puzzle.Outcome) {
	switch outcome {
	case puzzle.OutcomeWon:
		e.view.FlashStatus(fmt.Sprintf("Level %d complete", level+1))
	case puzzle.OutcomeLost:
		e.view.FlashStatus("Out of guesses")
	}
}

var _ ui.Controller = (*App)(nil)
var _ game.Events = viewEvents{}
