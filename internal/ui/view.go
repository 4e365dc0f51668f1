package ui

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"quotedojo/internal/puzzle"
	"quotedojo/internal/timer"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

const howToPlayMD = `# How to play

Every blank hides one letter of a quotation. The number under a blank is its
clue: blanks that share a number hide the same letter. Clues are reshuffled
each time a puzzle opens or restarts.

- Move between blanks with **←/→** (or **Tab**), jump words with **↑/↓**.
- Type a letter to preview it in the selected blank, then press **Enter**.
- **Backspace** clears the preview.

A few letters are revealed when a level starts fresh. Too many wrong guesses
restart the level from scratch. Reveal the whole quotation to unlock the next
level. Progress and time are saved as you play, so you can leave with **Esc**
and resume later.
`

type applyMsg struct {
	fn func(*Root)
}

type animateMsg time.Time

type playKeyMap struct {
	Move   key.Binding
	Word   key.Binding
	Submit key.Binding
	Clear  key.Binding
	Back   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k playKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Word, k.Submit, k.Clear, k.Back, k.Help, k.Quit}
}

func (k playKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Move, k.Word, k.Submit, k.Clear}, {k.Back, k.Help, k.Quit}}
}

type selectKeyMap struct {
	Move key.Binding
	Open key.Binding
	Help key.Binding
	Quit key.Binding
}

func (k selectKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Open, k.Help, k.Quit}
}

func (k selectKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	levels       []LevelRow
	unlocked     int
	levelIndex   int
	levelsSeeded bool
	loading      bool

	puzzle   PuzzleState
	revealed map[int]string
	cursor   int
	pending  string
	feedback *puzzle.Feedback
	result   ResultState
	helpOpen bool

	statusFlash string

	help       help.Model
	playKeys   playKeyMap
	selectKeys selectKeyMap
	progress   progress.Model
	loadSpin   spinner.Model
	markdown   *glamour.TermRenderer
	howToPlay  string
	logger     *clog.Logger
	overlayPos float64
	overlayVel float64
	spring     harmonica.Spring

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "quotedojo-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(60),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	if motionLevel == "reduced" {
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	}
	bar := progress.New(
		progress.WithWidth(24),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6")),
		progress.WithScaled(true),
	)
	loadSpin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		screen:       ScreenLevelSelect,
		layout:       LayoutWide,
		cols:         100,
		rows:         30,
		cursor:       -1,
		revealed:     map[int]string{},
		help:         h,
		progress:     bar,
		loadSpin:     loadSpin,
		markdown:     renderer,
		logger:       logger,
		spring:       spring,
	}
	r.playKeys = playKeyMap{
		Move:   key.NewBinding(key.WithKeys("left", "right", "tab"), key.WithHelp("←/→", "Move")),
		Word:   key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "Word")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Guess")),
		Clear:  key.NewBinding(key.WithKeys("backspace"), key.WithHelp("Bksp", "Clear")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Levels")),
		Help:   key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Help")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
	}
	r.selectKeys = selectKeyMap{
		Move: key.NewBinding(key.WithKeys("left", "right", "up", "down"), key.WithHelp("Arrows", "Move")),
		Open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Play")),
		Help: key.NewBinding(key.WithKeys("?", "f1"), key.WithHelp("?", "Help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+q"), key.WithHelp("q", "Quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return spinnerTickCmd(r.loadSpin)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case animateMsg:
		target := r.overlayTarget()
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.overlayPos = target
		r.overlayVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.loadSpin, cmd = r.loadSpin.Update(msg)
		return r, cmd
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			view = tea.NewView(r.theme.Wrong.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 100
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	switch {
	case DetermineLayoutMode(r.cols, r.rows) == LayoutTooSmall:
		base = r.renderTooSmall()
	case r.screen == ScreenPlaying:
		base = r.renderPlaying()
	default:
		base = r.renderLevelSelect()
	}
	if r.result.Visible {
		overlay := r.resultOverlay()
		oh := lipgloss.Height(overlay)
		base = composeOverlayAt(base, overlay, r.cols, r.rows, (r.rows-oh)/2, (r.cols-lipgloss.Width(overlay))/2)
	}
	if r.helpOpen || r.overlayPos > 0.001 {
		overlay := r.helpOverlay()
		oh := lipgloss.Height(overlay)
		target := max(1, (r.rows-oh)/2)
		row := int(math.Round(float64(target+oh)*r.overlayPos)) - oh
		base = composeOverlayAt(base, overlay, r.cols, r.rows, row, (r.cols-lipgloss.Width(overlay))/2)
	}

	v := tea.NewView(base)
	v.AltScreen = true
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		m.pending = ""
		m.feedback = nil
		if screen == ScreenLevelSelect {
			m.loading = false
		}
	})
}

func (r *Root) SetLevels(levels []LevelRow, unlocked int) {
	rows := append([]LevelRow(nil), levels...)
	r.apply(func(m *Root) {
		m.levels = rows
		m.unlocked = unlocked
		if !m.levelsSeeded && len(rows) > 0 {
			m.levelIndex = min(max(0, unlocked), len(rows)-1)
			m.levelsSeeded = true
		}
		if m.levelIndex >= len(rows) {
			m.levelIndex = max(0, len(rows)-1)
		}
	})
}

func (r *Root) SetLoading(loading bool) {
	r.apply(func(m *Root) {
		m.loading = loading
	})
}

// SetPuzzle replaces the whole puzzle. A visible result overlay is kept so a
// loss message survives the restart that follows it.
func (r *Root) SetPuzzle(state PuzzleState) {
	state.Guessed = append([]puzzle.Guess(nil), state.Guessed...)
	state.Wrong = append([]puzzle.Guess(nil), state.Wrong...)
	r.apply(func(m *Root) {
		m.puzzle = state
		m.rebuildRevealed()
		m.cursor = m.nextGuessable(-1)
		m.pending = ""
		m.feedback = nil
		m.loading = false
	})
}

func (r *Root) SetProgress(guessed, wrong []puzzle.Guess) {
	g := append([]puzzle.Guess(nil), guessed...)
	w := append([]puzzle.Guess(nil), wrong...)
	r.apply(func(m *Root) {
		m.puzzle.Guessed = g
		m.puzzle.Wrong = w
		m.rebuildRevealed()
		if !m.guessable(m.cursor) {
			m.cursor = m.nextGuessable(m.cursor)
		}
	})
}

func (r *Root) SetSeconds(seconds int) {
	r.apply(func(m *Root) {
		m.puzzle.Seconds = seconds
	})
}

func (r *Root) ShowFeedback(fb puzzle.Feedback) {
	r.apply(func(m *Root) {
		m.feedback = &fb
		if fb.Type == puzzle.FeedbackCorrect {
			m.statusFlash = "Correct!"
		} else {
			m.statusFlash = "Wrong guess"
		}
	})
}

func (r *Root) SetResult(state ResultState) {
	r.apply(func(m *Root) {
		m.result = state
		if state.Visible {
			m.pending = ""
		}
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.playKeys.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if r.helpOpen {
		switch msg.Code {
		case tea.KeyEsc, tea.KeyEnter, tea.KeyF1:
			r.helpOpen = false
		default:
			if msg.Text == "?" {
				r.helpOpen = false
			}
		}
		return r, r.animateIfNeeded()
	}
	if r.result.Visible {
		return r.handleResultKey(msg)
	}
	if msg.Code == tea.KeyF1 {
		return r.toggleHelp()
	}

	switch r.screen {
	case ScreenPlaying:
		return r.handlePlayingKey(msg)
	default:
		return r.handleLevelSelectKey(msg)
	}
}

func (r *Root) handleResultKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEnter, tea.KeyEsc, ' ':
	default:
		return r, nil
	}
	won := r.result.Outcome == puzzle.OutcomeWon
	r.result = ResultState{}
	if won {
		r.dispatchController(func(c Controller) { c.OnOpenLevelSelect() })
	}
	return r, nil
}

func (r *Root) handleLevelSelectKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, r.selectKeys.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if msg.Text == "?" {
		return r.toggleHelp()
	}

	n := len(r.levels)
	perRow := r.tilesPerRow()
	switch msg.Code {
	case tea.KeyLeft:
		r.levelIndex = wrapIndex(r.levelIndex-1, n)
	case tea.KeyRight, tea.KeyTab:
		r.levelIndex = wrapIndex(r.levelIndex+1, n)
	case tea.KeyUp:
		if r.levelIndex-perRow >= 0 {
			r.levelIndex -= perRow
		}
	case tea.KeyDown:
		if r.levelIndex+perRow < n {
			r.levelIndex += perRow
		}
	case tea.KeyHome:
		r.levelIndex = 0
	case tea.KeyEnd:
		r.levelIndex = max(0, n-1)
	case tea.KeyEnter:
		r.startSelectedLevel()
	}
	return r, nil
}

func (r *Root) startSelectedLevel() {
	if r.loading || r.levelIndex < 0 || r.levelIndex >= len(r.levels) {
		return
	}
	row := r.levels[r.levelIndex]
	if row.Locked {
		r.statusFlash = fmt.Sprintf("Level %d is locked", row.Index+1)
		return
	}
	r.loading = true
	r.statusFlash = ""
	level := row.Index
	r.dispatchController(func(c Controller) { c.OnStartLevel(level) })
}

func (r *Root) handlePlayingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEsc:
		r.pending = ""
		r.dispatchController(func(c Controller) { c.OnOpenLevelSelect() })
		return r, nil
	case tea.KeyLeft:
		r.moveCursor(-1)
		return r, nil
	case tea.KeyTab:
		if msg.Mod&tea.ModShift != 0 {
			r.moveCursor(-1)
		} else {
			r.moveCursor(1)
		}
		return r, nil
	case tea.KeyRight:
		r.moveCursor(1)
		return r, nil
	case tea.KeyUp:
		r.moveWord(-1)
		return r, nil
	case tea.KeyDown:
		r.moveWord(1)
		return r, nil
	case tea.KeyBackspace, tea.KeyDelete:
		r.pending = ""
		return r, nil
	case tea.KeyEnter:
		r.submitPending()
		return r, nil
	}

	if msg.Text == "?" {
		return r.toggleHelp()
	}
	if msg.Mod&(tea.ModCtrl|tea.ModAlt) != 0 {
		return r, nil
	}
	if ch, size := utf8.DecodeRuneInString(msg.Text); size > 0 && size == len(msg.Text) && unicode.IsPrint(ch) && !unicode.IsSpace(ch) {
		if r.cursor < 0 {
			r.statusFlash = "Nothing left to guess"
			return r, nil
		}
		r.pending = msg.Text
	}
	return r, nil
}

func (r *Root) submitPending() {
	if r.cursor < 0 {
		return
	}
	if r.pending == "" {
		r.statusFlash = "Type a letter first"
		return
	}
	index, letter := r.cursor, r.pending
	r.pending = ""
	r.dispatchController(func(c Controller) { c.OnSubmitGuess(index, letter) })
}

func (r *Root) toggleHelp() (tea.Model, tea.Cmd) {
	r.helpOpen = !r.helpOpen
	if r.motionLevel == "off" {
		r.overlayPos = r.overlayTarget()
		r.overlayVel = 0
	}
	return r, r.animateIfNeeded()
}

func (r *Root) rebuildRevealed() {
	r.revealed = make(map[int]string, len(r.puzzle.Guessed))
	for _, g := range r.puzzle.Guessed {
		r.revealed[g.Index] = g.Letter
	}
}

func (r *Root) guessable(index int) bool {
	cell, ok := r.puzzle.Map.Cell(index)
	if !ok || !cell.IsLetter {
		return false
	}
	_, done := r.revealed[index]
	return !done
}

// nextGuessable returns the first guessable index after from, wrapping to the
// start, or -1 when every letter is revealed.
func (r *Root) nextGuessable(from int) int {
	first := -1
	for _, c := range r.puzzle.Map {
		if !r.guessable(c.Index) {
			continue
		}
		if c.Index > from {
			return c.Index
		}
		if first < 0 {
			first = c.Index
		}
	}
	return first
}

func (r *Root) moveCursor(delta int) {
	var open []int
	pos := -1
	for _, c := range r.puzzle.Map {
		if r.guessable(c.Index) {
			if c.Index == r.cursor {
				pos = len(open)
			}
			open = append(open, c.Index)
		}
	}
	if len(open) == 0 {
		r.cursor = -1
		return
	}
	if pos < 0 {
		r.cursor = r.nextGuessable(r.cursor)
		return
	}
	next := open[wrapIndex(pos+delta, len(open))]
	if next != r.cursor {
		r.pending = ""
	}
	r.cursor = next
}

func (r *Root) moveWord(delta int) {
	cell, ok := r.puzzle.Map.Cell(r.cursor)
	if !ok {
		r.cursor = r.nextGuessable(-1)
		return
	}
	words := r.puzzle.Map.Words()
	for w := cell.Word + delta; w >= 0 && w < len(words); w += delta {
		for _, c := range words[w] {
			if r.guessable(c.Index) {
				r.cursor = c.Index
				r.pending = ""
				return
			}
		}
	}
}

func (r *Root) tilesPerRow() int {
	inner := max(1, r.cols-4)
	return max(1, inner/tileWidth)
}

const tileWidth = 7

func (r *Root) renderTooSmall() string {
	msg := []string{
		"Terminal too small",
		fmt.Sprintf("Current: %dx%d", r.cols, r.rows),
		"Minimum: 44x14",
	}
	panel := r.drawPanel("Resize", msg, min(30, r.cols), min(6, r.rows))
	return lipgloss.Place(r.cols, r.rows, lipgloss.Center, lipgloss.Center, panel)
}

func (r *Root) renderLevelSelect() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render(trimForWidth("Quote Dojo - Select a level", max(1, w-1)))

	perRow := r.tilesPerRow()
	var rows []string
	var line strings.Builder
	for i, lv := range r.levels {
		line.WriteString(r.renderTile(i, lv))
		if (i+1)%perRow == 0 || i == len(r.levels)-1 {
			rows = append(rows, line.String())
			line.Reset()
		}
	}
	if len(rows) == 0 {
		rows = []string{"No quotes loaded."}
	}

	panelH := max(5, h-2)
	visible := max(1, panelH-2-4)
	selRow := r.levelIndex / perRow
	first := max(0, selRow-visible+1)
	end := min(len(rows), first+visible)
	lines := append([]string{}, rows[first:end]...)
	lines = append(lines, "")
	lines = append(lines, r.levelDetailLines()...)

	body := r.drawPanel("Levels", lines, w, panelH)
	return header + "\n" + body + "\n" + r.statusText(r.selectKeys)
}

func (r *Root) renderTile(i int, lv LevelRow) string {
	mark := " "
	switch {
	case lv.Resumable && r.ascii:
		mark = ">"
	case lv.Resumable:
		mark = "▸"
	case lv.Locked && r.ascii:
		mark = "x"
	case lv.Locked:
		mark = "·"
	}
	label := fmt.Sprintf(" %3d%s ", lv.Index+1, mark)
	style := r.theme.Tile
	switch {
	case i == r.levelIndex:
		style = r.theme.TileActive
	case lv.Locked:
		style = r.theme.TileLocked
	case lv.Resumable:
		style = r.theme.Resume
	}
	return style.Render(label) + " "
}

func (r *Root) levelDetailLines() []string {
	unlocked := 0
	for _, lv := range r.levels {
		if !lv.Locked {
			unlocked++
		}
	}
	summary := r.theme.Muted.Render(fmt.Sprintf("Unlocked %d of %d", unlocked, len(r.levels)))
	if r.levelIndex < 0 || r.levelIndex >= len(r.levels) {
		return []string{summary}
	}
	lv := r.levels[r.levelIndex]
	title := r.theme.Accent.Render(fmt.Sprintf("Level %d", lv.Index+1))
	state := "Ready"
	switch {
	case lv.Locked:
		state = fmt.Sprintf("Locked - solve level %d to unlock", r.unlocked+1)
	case lv.Resumable:
		state = r.theme.Resume.Render("In progress - Enter to resume")
	}
	author := lv.Author
	if lv.Locked {
		author = "???"
	}
	return []string{title + "  " + r.theme.Muted.Render("by "+author), state, summary}
}

func (r *Root) renderPlaying() string {
	w, h := r.cols, r.rows
	r.layout = DetermineLayoutMode(w, h)

	header := r.headerText()
	bodyH := max(5, h-2)

	quoteW := w
	var side string
	if r.layout == LayoutWide {
		sideW := 28
		quoteW = w - sideW
		side = r.drawPanel("Wrong guesses", r.wrongLines(bodyH-2), sideW, bodyH)
	}
	inner := max(1, quoteW-4)
	lines := []string{""}
	for _, l := range r.quoteLines(inner) {
		lines = append(lines, " "+l)
	}
	lines = append(lines, " "+r.theme.Muted.Render("- "+firstNonEmptyStr(r.puzzle.Author, "Unknown")), "")
	lines = append(lines, " "+r.revealedBar(max(8, inner-16)))
	if r.puzzle.Resumed {
		lines = append(lines, " "+r.theme.Muted.Render("Resumed from your last session"))
	}
	body := r.drawPanel(fmt.Sprintf("Level %d", r.puzzle.Level+1), lines, quoteW, bodyH)
	if side != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, side)
	}
	return header + "\n" + body + "\n" + r.statusText(r.playKeys)
}

// quoteLines lays out the quotation word by word in rows of two lines: the
// cells, then the clue numbers under them.
func (r *Root) quoteLines(width int) []string {
	var out []string
	var top, bottom strings.Builder
	used := 0
	flush := func() {
		if used == 0 {
			return
		}
		out = append(out, top.String(), bottom.String(), "")
		top.Reset()
		bottom.Reset()
		used = 0
	}
	for _, word := range r.puzzle.Map.Words() {
		cells := make([]puzzle.Cell, 0, len(word))
		for _, c := range word {
			if c.Char != ' ' {
				cells = append(cells, c)
			}
		}
		if len(cells) == 0 {
			continue
		}
		ww := len(cells) * 3
		if used > 0 && used+1+ww > width {
			flush()
		}
		if used > 0 {
			top.WriteString(" ")
			bottom.WriteString(" ")
			used++
		}
		for _, c := range cells {
			t, b := r.renderCell(c)
			top.WriteString(t)
			bottom.WriteString(b)
		}
		used += ww
	}
	flush()
	if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}

func (r *Root) renderCell(c puzzle.Cell) (string, string) {
	if !c.IsLetter {
		return r.theme.Revealed.Render(" " + string(c.Char) + " "), "   "
	}
	clue := r.theme.Clue.Render(fmt.Sprintf("%2d ", r.puzzle.Alphabet.Clue(c.Char)))
	if letter, ok := r.revealed[c.Index]; ok {
		style := r.theme.Revealed
		if r.feedback != nil && r.feedback.Index == c.Index && r.feedback.Type == puzzle.FeedbackCorrect {
			style = r.theme.Correct
		}
		return style.Render(" " + letter + " "), clue
	}
	if c.Index == r.cursor {
		if r.pending != "" {
			return r.theme.Preview.Render(" " + r.pending + " "), clue
		}
		style := r.theme.Selected
		if r.feedback != nil && r.feedback.Index == c.Index && r.feedback.Type == puzzle.FeedbackWrong {
			style = style.Foreground(r.theme.Wrong.GetForeground())
		}
		return style.Render(" _ "), clue
	}
	return r.theme.Blank.Render(" _ "), clue
}

func (r *Root) wrongLines(limit int) []string {
	if len(r.puzzle.Wrong) == 0 {
		return []string{r.theme.Muted.Render(" none yet")}
	}
	lines := make([]string, 0, len(r.puzzle.Wrong))
	for _, g := range r.puzzle.Wrong {
		clue := 0
		if cell, ok := r.puzzle.Map.Cell(g.Index); ok {
			clue = r.puzzle.Alphabet.Clue(cell.Char)
		}
		lines = append(lines, fmt.Sprintf(" %s on clue %d", r.theme.Wrong.Render(g.Letter), clue))
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}

func (r *Root) revealedBar(width int) string {
	total := r.puzzle.Map.LetterCount()
	frac := 0.0
	if total > 0 {
		frac = float64(len(r.puzzle.Guessed)) / float64(total)
	}
	bar := r.progress
	bar.SetWidth(width)
	return fmt.Sprintf("Revealed %s %d/%d", bar.ViewAs(frac), len(r.puzzle.Guessed), total)
}

func (r *Root) headerText() string {
	width := max(1, r.cols-1)
	parts := []string{
		"Quote Dojo",
		fmt.Sprintf("Level %d", r.puzzle.Level+1),
		"Time: " + timer.FormatClock(r.puzzle.Seconds),
		fmt.Sprintf("Wrong guesses: %d/%d", len(r.puzzle.Wrong), r.puzzle.Budget),
	}
	txt := strings.Join(parts, " | ")
	if ansi.StringWidth(txt) > width {
		txt = strings.Join(parts[1:], " | ")
	}
	if r.debug {
		txt = fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout)
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(trimForWidth(txt, width))
}

func (r *Root) statusText(keys help.KeyMap) string {
	txt := r.help.View(keys)
	if r.loading {
		txt += " | " + r.theme.Accent.Render(strings.TrimSpace(r.loadSpin.View())+" Loading...")
	}
	if r.statusFlash != "" {
		txt += " | " + r.statusFlash
	}
	return r.theme.Status.Width(max(1, r.cols)).Render(trimForWidth(txt, max(1, r.cols-1)))
}

func (r *Root) resultOverlay() string {
	var title, body string
	switch r.result.Outcome {
	case puzzle.OutcomeWon:
		title = r.theme.Correct.Render("Correct! Level Complete")
		body = fmt.Sprintf("Solved in %s.\n\nEnter: back to levels", timer.FormatClock(r.result.Seconds))
	default:
		title = r.theme.Wrong.Render("Too many wrong guesses - Try again!")
		body = "The level starts over with fresh clues.\n\nEnter: continue"
	}
	return r.theme.Overlay.Render(title + "\n\n" + body)
}

func (r *Root) helpOverlay() string {
	if r.howToPlay == "" {
		r.howToPlay = strings.TrimSpace(howToPlayMD)
		if r.markdown != nil {
			if out, err := r.markdown.Render(howToPlayMD); err == nil {
				r.howToPlay = strings.Trim(out, "\n")
			}
		}
	}
	footer := r.theme.Muted.Render("Esc or F1 to close")
	return r.theme.Overlay.Render(r.howToPlay + "\n\n" + footer)
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := trimForWidth(" "+title+" ", innerW-1)
		top = tl + h + t + strings.Repeat(h, max(0, innerW-1-ansi.StringWidth(t))) + tr
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(padWidth(line, innerW))+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) overlayTarget() float64 {
	if r.helpOpen {
		return 1
	}
	return 0
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.shouldAnimate(r.overlayTarget()) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.overlayPos < 0.999 || math.Abs(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || math.Abs(r.overlayVel) > 0.001
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

// padWidth pads or cuts s to exactly width cells, keeping its styling.
func padWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-ansi.StringWidth(s))
}

// composeOverlayAt draws overlay over base with its top-left corner at
// (startRow, startCol). Rows outside the screen are clipped, which lets an
// overlay slide in from above.
func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	baseLines := strings.Split(base, "\n")
	for len(baseLines) < rows {
		baseLines = append(baseLines, "")
	}
	baseLines = baseLines[:rows]

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, ansi.StringWidth(line))
	}
	startCol = max(0, min(startCol, cols-1))
	ow = min(ow, cols-startCol)

	for i, line := range overlayLines {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := padWidth(baseLines[row], cols)
		left := ansi.Truncate(dst, startCol, "")
		right := ansi.TruncateLeft(dst, startCol+ow, "")
		baseLines[row] = left + "\x1b[0m" + padWidth(line, ow) + "\x1b[0m" + right
	}
	return strings.Join(baseLines, "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "dusk", "paper", "phosphor":
		return strings.TrimSpace(v)
	default:
		return "dusk"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"screen", r.screen,
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
