package ui

import (
	"strings"
	"sync"
	"testing"
	"time"

	"quotedojo/internal/puzzle"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

type guessCall struct {
	index  int
	letter string
}

type mockController struct {
	mu          sync.Mutex
	started     []int
	guesses     []guessCall
	levelSelect int
	quitCalls   int
}

func (m *mockController) OnOpenLevelSelect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levelSelect++
}

func (m *mockController) OnStartLevel(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, level)
}

func (m *mockController) OnSubmitGuess(index int, letter string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guesses = append(m.guesses, guessCall{index: index, letter: letter})
}

func (m *mockController) OnQuit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quitCalls++
}

func (m *mockController) snapshot() mockController {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mockController{
		started:     append([]int(nil), m.started...),
		guesses:     append([]guessCall(nil), m.guesses...),
		levelSelect: m.levelSelect,
		quitCalls:   m.quitCalls,
	}
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func typeRune(v *Root, ch rune) {
	press(v, ch, 0, string(ch))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newPlayingView(t *testing.T, text string, guessed []puzzle.Guess) (*Root, *mockController) {
	t.Helper()
	v := New(Options{MotionLevel: "off"})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenPlaying)
	v.SetPuzzle(PuzzleState{
		Level:    2,
		Author:   "Tester",
		Map:      puzzle.BuildCharMap(text),
		Alphabet: puzzle.Alphabet{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'},
		Guessed:  guessed,
		Budget:   5,
	})
	return v, ctrl
}

func TestLockedLevelDoesNotStart(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetLevels([]LevelRow{{Index: 0, Author: "A"}, {Index: 1, Author: "B", Locked: true}}, 0)

	press(v, tea.KeyRight, 0, "")
	press(v, tea.KeyEnter, 0, "")

	if !strings.Contains(v.statusFlash, "locked") {
		t.Fatalf("expected locked flash, got %q", v.statusFlash)
	}
	time.Sleep(20 * time.Millisecond)
	if got := ctrl.snapshot().started; len(got) != 0 {
		t.Fatalf("expected no start call, got %v", got)
	}
}

func TestEnterStartsSelectedLevel(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetLevels([]LevelRow{{Index: 0}, {Index: 1}, {Index: 2, Locked: true}}, 1)

	if v.levelIndex != 1 {
		t.Fatalf("expected selection seeded at highest unlocked level, got %d", v.levelIndex)
	}
	press(v, tea.KeyEnter, 0, "")
	waitFor(t, "start", func() bool { return len(ctrl.snapshot().started) == 1 })
	if got := ctrl.snapshot().started[0]; got != 1 {
		t.Fatalf("expected level 1, got %d", got)
	}
	if !v.loading {
		t.Fatalf("expected loading state while the level opens")
	}
}

func TestCursorStartsOnFirstUnrevealedLetter(t *testing.T) {
	v, _ := newPlayingView(t, "Hi there!", []puzzle.Guess{{Index: 0, Letter: "H"}})
	if v.cursor != 1 {
		t.Fatalf("expected cursor on index 1, got %d", v.cursor)
	}
	press(v, tea.KeyRight, 0, "")
	if v.cursor != 3 {
		t.Fatalf("expected cursor to skip the space, got %d", v.cursor)
	}
	press(v, tea.KeyLeft, 0, "")
	press(v, tea.KeyLeft, 0, "")
	if v.cursor != 7 {
		t.Fatalf("expected cursor to wrap to the last letter, got %d", v.cursor)
	}
	press(v, tea.KeyUp, 0, "")
	if v.cursor != 1 {
		t.Fatalf("expected up to jump to the previous word, got %d", v.cursor)
	}
}

func TestTypedLetterPreviewsThenSubmits(t *testing.T) {
	v, ctrl := newPlayingView(t, "Go go!", nil)

	typeRune(v, 'x')
	if v.pending != "x" {
		t.Fatalf("expected preview letter, got %q", v.pending)
	}
	if out := ansi.Strip(v.renderPlaying()); !strings.Contains(out, " x ") {
		t.Fatalf("expected preview rendered in selected cell:\n%s", out)
	}
	typeRune(v, 'g')
	press(v, tea.KeyEnter, 0, "")

	waitFor(t, "guess", func() bool { return len(ctrl.snapshot().guesses) == 1 })
	if got := ctrl.snapshot().guesses[0]; got != (guessCall{index: 0, letter: "g"}) {
		t.Fatalf("unexpected guess %#v", got)
	}
	if v.pending != "" {
		t.Fatalf("expected preview cleared after submit")
	}
}

func TestBackspaceClearsPreview(t *testing.T) {
	v, ctrl := newPlayingView(t, "Go", nil)
	typeRune(v, 'q')
	press(v, tea.KeyBackspace, 0, "")
	press(v, tea.KeyEnter, 0, "")
	time.Sleep(20 * time.Millisecond)
	if len(ctrl.snapshot().guesses) != 0 {
		t.Fatalf("expected no guess without a preview")
	}
	if v.statusFlash == "" {
		t.Fatalf("expected a prompt to type a letter")
	}
}

func TestProgressMovesCursorOffRevealedCell(t *testing.T) {
	v, _ := newPlayingView(t, "abc", nil)
	press(v, tea.KeyRight, 0, "")
	if v.cursor != 1 {
		t.Fatalf("expected cursor at 1, got %d", v.cursor)
	}
	v.SetProgress([]puzzle.Guess{{Index: 1, Letter: "b"}}, nil)
	if v.cursor != 2 {
		t.Fatalf("expected cursor to advance to 2, got %d", v.cursor)
	}
	v.SetProgress([]puzzle.Guess{{Index: 0, Letter: "a"}, {Index: 1, Letter: "b"}, {Index: 2, Letter: "c"}}, nil)
	if v.cursor != -1 {
		t.Fatalf("expected no cursor when solved, got %d", v.cursor)
	}
}

func TestHeaderShowsClockAndBudget(t *testing.T) {
	v, _ := newPlayingView(t, "Go go!", nil)
	v.SetSeconds(65)
	v.SetProgress(nil, []puzzle.Guess{{Index: 0, Letter: "x"}})

	out := ansi.Strip(v.renderPlaying())
	for _, want := range []string{"Level 3", "Time: 01:05", "Wrong guesses: 1/5", "- Tester"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestCluesShareNumbersAcrossCase(t *testing.T) {
	v, _ := newPlayingView(t, "Go go!", nil)
	lines := v.quoteLines(80)
	if len(lines) < 2 {
		t.Fatalf("expected cell and clue rows, got %#v", lines)
	}
	clues := ansi.Strip(lines[1])
	if strings.Count(clues, " 7 ") != 2 || strings.Count(clues, "15 ") != 2 {
		t.Fatalf("expected g=7 and o=15 twice each, got %q", clues)
	}
}

func TestWonResultReturnsToLevelSelect(t *testing.T) {
	v, ctrl := newPlayingView(t, "Go", nil)
	v.SetResult(ResultState{Visible: true, Outcome: puzzle.OutcomeWon, Seconds: 12})

	if out := ansi.Strip(v.resultOverlay()); !strings.Contains(out, "Correct! Level Complete") {
		t.Fatalf("unexpected overlay %q", out)
	}
	typeRune(v, 'g')
	if v.pending != "" {
		t.Fatalf("expected typing to be blocked by the result overlay")
	}
	press(v, tea.KeyEnter, 0, "")
	waitFor(t, "level select", func() bool { return ctrl.snapshot().levelSelect == 1 })
	if v.result.Visible {
		t.Fatalf("expected overlay dismissed")
	}
}

func TestLostResultKeepsPlaying(t *testing.T) {
	v, ctrl := newPlayingView(t, "Go", nil)
	v.SetResult(ResultState{Visible: true, Outcome: puzzle.OutcomeLost})
	if out := ansi.Strip(v.resultOverlay()); !strings.Contains(out, "Too many wrong guesses - Try again!") {
		t.Fatalf("unexpected overlay %q", out)
	}
	press(v, tea.KeyEnter, 0, "")
	time.Sleep(20 * time.Millisecond)
	if v.result.Visible || ctrl.snapshot().levelSelect != 0 {
		t.Fatalf("expected loss overlay to dismiss in place")
	}
}

func TestHelpOverlayToggles(t *testing.T) {
	v, _ := newPlayingView(t, "Go", nil)
	press(v, tea.KeyF1, 0, "")
	if !v.helpOpen || v.overlayPos != 1 {
		t.Fatalf("expected help open without animation, pos=%v", v.overlayPos)
	}
	if out := ansi.Strip(v.helpOverlay()); !strings.Contains(out, "How to play") {
		t.Fatalf("expected how-to-play text, got %q", out)
	}
	press(v, tea.KeyEsc, 0, "")
	if v.helpOpen {
		t.Fatalf("expected esc to close help")
	}
}

func TestEscReturnsToLevelSelect(t *testing.T) {
	v, ctrl := newPlayingView(t, "Go", nil)
	press(v, tea.KeyEsc, 0, "")
	waitFor(t, "level select", func() bool { return ctrl.snapshot().levelSelect == 1 })
}

func TestCtrlQQuitsFromAnyScreen(t *testing.T) {
	v, ctrl := newPlayingView(t, "Go", nil)
	press(v, 'q', tea.ModCtrl, "")
	waitFor(t, "quit", func() bool { return ctrl.snapshot().quitCalls == 1 })
	if v.pending != "" {
		t.Fatalf("ctrl+q must not preview a letter")
	}
}

func TestComposeOverlayClipsAboveScreen(t *testing.T) {
	base := "aaaa\nbbbb\ncccc"
	out := composeOverlayAt(base, "XX\nYY", 4, 3, -1, 1)
	lines := strings.Split(ansi.Strip(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(lines))
	}
	if lines[0] != "aYYa" || lines[1] != "bbbb" {
		t.Fatalf("unexpected composition %#v", lines)
	}
}

func TestViewImplementsInterfaceCompileTime(t *testing.T) {
	var _ View = New(Options{})
}
