package app

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"quotedojo/internal/catalog"
	"quotedojo/internal/puzzle"
	"quotedojo/internal/state"
	"quotedojo/internal/telemetry"
	"quotedojo/internal/ui"
)

type fakeView struct {
	mu       sync.Mutex
	ctrl     ui.Controller
	screen   ui.Screen
	levels   []ui.LevelRow
	unlocked int
	puzzle   ui.PuzzleState
	result   ui.ResultState
	flashes  []string
	feedback []puzzle.Feedback
	stopped  bool
}

func (f *fakeView) Run() error { return nil }

func (f *fakeView) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeView) SetController(c ui.Controller) { f.ctrl = c }

func (f *fakeView) SetScreen(screen ui.Screen) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen = screen
}

func (f *fakeView) SetLevels(levels []ui.LevelRow, unlocked int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = levels
	f.unlocked = unlocked
}

func (f *fakeView) SetLoading(bool) {}

func (f *fakeView) SetPuzzle(s ui.PuzzleState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puzzle = s
}

func (f *fakeView) SetProgress(guessed, wrong []puzzle.Guess) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puzzle.Guessed = guessed
	f.puzzle.Wrong = wrong
}

func (f *fakeView) SetSeconds(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puzzle.Seconds = seconds
}

func (f *fakeView) ShowFeedback(fb puzzle.Feedback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = append(f.feedback, fb)
}

func (f *fakeView) SetResult(s ui.ResultState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = s
}

func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, msg)
}

func newTestApp(t *testing.T, store state.ProgressStore) (*App, *fakeView) {
	t.Helper()
	cat := &catalog.Catalog{
		Kind:          catalog.CatalogKind,
		SchemaVersion: catalog.SupportedSchemaVersion,
		CatalogID:     "test-pack",
		Quotes: []catalog.Quote{
			{Text: "abcdefghij", Author: "First"},
			{Text: "Second one", Author: "Second"},
		},
	}
	cfg := DefaultConfig()
	cfg.Ephemeral = true
	cfg.TickInterval = time.Hour
	view := &fakeView{}
	a := assemble(cfg, telemetry.Nop(), store, cat, view, rand.New(rand.NewPCG(3, 9)))
	view.SetController(a)
	t.Cleanup(a.Close)
	return a, view
}

// unrevealed lists letter indices not yet in the view's guessed set.
func unrevealed(s ui.PuzzleState) []int {
	done := map[int]bool{}
	for _, g := range s.Guessed {
		done[g.Index] = true
	}
	var out []int
	for _, i := range s.Map.LetterIndices() {
		if !done[i] {
			out = append(out, i)
		}
	}
	return out
}

func TestStartLevelShowsPrefilledPuzzle(t *testing.T) {
	a, view := newTestApp(t, state.NewMemoryStore())
	a.OnStartLevel(0)

	if view.screen != ui.ScreenPlaying {
		t.Fatalf("expected playing screen, got %v", view.screen)
	}
	if view.puzzle.Author != "First" || view.puzzle.Budget != 5 {
		t.Fatalf("unexpected puzzle %#v", view.puzzle)
	}
	if len(view.puzzle.Guessed) != 3 {
		t.Fatalf("expected 3 prefilled letters, got %d", len(view.puzzle.Guessed))
	}
}

func TestStartLockedLevelFlashes(t *testing.T) {
	a, view := newTestApp(t, state.NewMemoryStore())
	a.OnStartLevel(1)

	if view.screen == ui.ScreenPlaying {
		t.Fatalf("locked level must not open")
	}
	if len(view.flashes) == 0 || !strings.Contains(view.flashes[len(view.flashes)-1], "locked") {
		t.Fatalf("expected locked flash, got %v", view.flashes)
	}
}

func TestSolvingLevelShowsWinAndUnlocksNext(t *testing.T) {
	store := state.NewMemoryStore()
	a, view := newTestApp(t, store)
	a.OnStartLevel(0)

	for _, idx := range unrevealed(view.puzzle) {
		cell, _ := view.puzzle.Map.Cell(idx)
		a.OnSubmitGuess(idx, string(cell.Char))
	}
	if !view.result.Visible || view.result.Outcome != puzzle.OutcomeWon {
		t.Fatalf("expected win result, got %#v", view.result)
	}
	unlock, err := store.LoadUnlock(context.Background())
	if err != nil || unlock.UnlockedLevel != 1 {
		t.Fatalf("expected level 1 unlocked, got %#v err=%v", unlock, err)
	}

	a.OnOpenLevelSelect()
	if view.screen != ui.ScreenLevelSelect || view.result.Visible {
		t.Fatalf("expected level select with no result overlay")
	}
	if len(view.levels) != 2 || view.levels[1].Locked || view.unlocked != 1 {
		t.Fatalf("expected second level unlocked, got %#v", view.levels)
	}
}

func TestLosingRestartsLevelInPlace(t *testing.T) {
	a, view := newTestApp(t, state.NewMemoryStore())
	a.OnStartLevel(0)

	target := unrevealed(view.puzzle)[0]
	for i := 0; i < 5; i++ {
		a.OnSubmitGuess(target, "z")
	}
	if !view.result.Visible || view.result.Outcome != puzzle.OutcomeLost {
		t.Fatalf("expected loss result, got %#v", view.result)
	}
	if len(view.puzzle.Guessed) != 0 || len(view.puzzle.Wrong) != 0 || view.puzzle.Seconds != 0 {
		t.Fatalf("expected empty attempt after loss, got %#v", view.puzzle)
	}
	if view.screen != ui.ScreenPlaying || view.puzzle.Level != 0 {
		t.Fatalf("expected to stay on level 0")
	}
}

func TestIgnoredGuessLeavesViewUntouched(t *testing.T) {
	a, view := newTestApp(t, state.NewMemoryStore())
	a.OnStartLevel(0)
	before := len(view.feedback)

	a.OnSubmitGuess(view.puzzle.Guessed[0].Index, "a")
	a.OnSubmitGuess(unrevealed(view.puzzle)[0], "ab")
	a.OnSubmitGuess(99, "a")

	if len(view.feedback) != before {
		t.Fatalf("expected ignored guesses to produce no feedback")
	}
}

func TestLevelSelectMarksResumableLevel(t *testing.T) {
	a, view := newTestApp(t, state.NewMemoryStore())
	a.OnStartLevel(0)
	a.OnSubmitGuess(unrevealed(view.puzzle)[0], "z")

	a.OnOpenLevelSelect()
	if !view.levels[0].Resumable {
		t.Fatalf("expected level 0 resumable, got %#v", view.levels)
	}

	a.OnStartLevel(0)
	if !view.puzzle.Resumed || len(view.puzzle.Wrong) != 1 {
		t.Fatalf("expected resumed attempt with one wrong guess, got %#v", view.puzzle)
	}
}

func TestQuitStopsView(t *testing.T) {
	a, view := newTestApp(t, state.NewMemoryStore())
	a.OnQuit()
	if !view.stopped {
		t.Fatalf("expected view stopped")
	}
}

func TestOpenStoreAndCatalogFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	store, err := OpenStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*state.SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}

	cfg.Ephemeral = true
	mem, err := OpenStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open ephemeral store: %v", err)
	}
	if _, ok := mem.(*state.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", mem)
	}

	cat, err := LoadCatalog(context.Background(), cfg)
	if err != nil || cat.CatalogID != "builtin-classics" {
		t.Fatalf("expected builtin catalog, got %v err=%v", cat, err)
	}
}
