package commands

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpad/internal/engine"
	"github.com/leapstack-labs/sqlpad/pkg/completion"
	"github.com/leapstack-labs/sqlpad/pkg/editor"
	"github.com/leapstack-labs/sqlpad/pkg/result"
)

var (
	accentPrimary = lipgloss.Color("#50E3C2")
	accentMark    = lipgloss.Color("#F6AE2D")
	mutedText     = lipgloss.Color("#8CA1AE")
	warningText   = lipgloss.Color("#FF6B6B")
)

var (
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(accentPrimary)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	markStyle = lipgloss.NewStyle().
			Foreground(accentMark).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedText).
			Padding(0, 1)

	optionStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	selectedOptionStyle = lipgloss.NewStyle().
				Foreground(accentPrimary).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedText)
)

const (
	editorHeight   = 8
	maxOptionsShow = 8
)

// NewTUICommand creates the tui command.
func NewTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen query editor",
		Long: `Open a full-screen editor with the result grid below it.

  ctrl+r      run the selection, or the whole buffer when nothing is marked
  ctrl+space  set the selection mark at the cursor (esc clears it)
  ctrl+n      show more rows of the result
  tab         complete at the cursor
  ctrl+c      quit

The initial_query setting is placed in the editor and run on open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			m := newTUIModel(cmd.Context(), cmdCtx.Engine, cmdCtx.Cfg.InitialQuery)
			defer m.sess.clear()

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

type queryDoneMsg struct {
	query string
	table *result.ArrowTable
	err   error
}

type completionMsg struct {
	ticket *completion.Ticket
	req    completion.Request
	res    completion.Result
	ok     bool
}

// completionList is an open completion popup.
type completionList struct {
	res      completion.Result
	selected int
}

type tuiModel struct {
	ctx  context.Context
	eng  *engine.Engine
	sess *session

	editor  textarea.Model
	results viewport.Model

	initialQuery string
	mark         int
	completions  *completionList
	running      bool

	statusText string
	errorText  string

	width  int
	height int
}

func newTUIModel(ctx context.Context, eng *engine.Engine, initialQuery string) *tuiModel {
	ed := textarea.New()
	ed.Prompt = ""
	ed.ShowLineNumbers = true
	ed.CharLimit = 0
	ed.SetHeight(editorHeight)
	ed.SetWidth(80)
	ed.Placeholder = "SELECT ..."
	ed.SetValue(initialQuery)
	ed.Focus()

	results := viewport.New(80, 10)
	results.SetContent("No result yet. Press ctrl+r to run.")

	return &tuiModel{
		ctx:          ctx,
		eng:          eng,
		sess:         newSession(eng),
		editor:       ed,
		results:      results,
		initialQuery: initialQuery,
		mark:         -1,
		statusText:   "Ready",
	}
}

func (m *tuiModel) Init() tea.Cmd {
	if strings.TrimSpace(m.initialQuery) == "" {
		return textarea.Blink
	}
	m.running = true
	m.statusText = "Running..."
	return tea.Batch(textarea.Blink, runQueryCmd(m.ctx, m.eng, m.initialQuery))
}

func runQueryCmd(ctx context.Context, eng *engine.Engine, query string) tea.Cmd {
	return func() tea.Msg {
		tbl, err := eng.Query(ctx, query)
		return queryDoneMsg{query: query, table: tbl, err: err}
	}
}

func completeCmd(eng *completion.Engine, tk *completion.Ticket, req completion.Request) tea.Cmd {
	return func() tea.Msg {
		defer tk.Done()
		res, ok := eng.CompleteWith(tk, req)
		return completionMsg{ticket: tk, req: req, res: res, ok: ok}
	}
}

// buffer returns the editor state with byte offsets for the cursor and the
// marked selection.
func (m *tuiModel) buffer() editor.Buffer {
	text := m.editor.Value()
	b := editor.Buffer{Text: text, Cursor: cursorOffset(text, m.editor.Line(), m.editor.LineInfo())}
	if m.mark >= 0 {
		b.Selection = editor.Range{From: m.mark, To: b.Cursor}
	}
	return b
}

// cursorOffset converts the textarea's row and column to a byte offset.
func cursorOffset(text string, row int, li textarea.LineInfo) int {
	lines := strings.Split(text, "\n")
	off := 0
	for i := 0; i < row && i < len(lines); i++ {
		off += len(lines[i]) + 1
	}
	if row < len(lines) {
		r := []rune(lines[row])
		col := min(li.StartColumn+li.ColumnOffset, len(r))
		off += len(string(r[:col]))
	}
	return min(off, len(text))
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case queryDoneMsg:
		m.running = false
		if msg.err != nil {
			m.sess.clear()
			m.errorText = msg.err.Error()
			m.statusText = "Query failed"
			m.results.SetContent("")
			return m, nil
		}
		m.errorText = ""
		g := m.sess.install(msg.table)
		m.showGrid(g)
		return m, nil

	case completionMsg:
		if !msg.ticket.Current() || !msg.ok || len(msg.res.Options) == 0 {
			return m, nil
		}
		// The cursor moved without a new request being issued.
		if msg.req.LineStart+msg.req.Cursor != m.buffer().Cursor {
			return m, nil
		}
		m.completions = &completionList{res: msg.res}
		return m, nil

	case tea.KeyMsg:
		if m.completions != nil {
			if handled, cmd := m.updateCompletions(msg); handled {
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+r":
			if m.running {
				return m, nil
			}
			query := strings.TrimSpace(m.buffer().QueryText())
			if query == "" {
				m.statusText = "Nothing to run"
				return m, nil
			}
			m.running = true
			m.statusText = "Running..."
			return m, runQueryCmd(m.ctx, m.eng, query)

		case "ctrl+@", "ctrl+space":
			m.mark = m.buffer().Cursor
			m.statusText = fmt.Sprintf("Mark set at %d", m.mark)
			return m, nil

		case "esc":
			m.mark = -1
			m.statusText = "Mark cleared"
			return m, nil

		case "ctrl+n":
			if g, ok := m.sess.more(); ok {
				m.showGrid(g)
			}
			return m, nil

		case "tab":
			return m, m.requestCompletion(true)
		}

		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		if msg.Type == tea.KeyRunes && !msg.Paste {
			return m, tea.Batch(cmd, m.requestCompletion(false))
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// updateCompletions handles keys while the popup is open. Keys it does not
// use close the popup and fall through to the editor.
func (m *tuiModel) updateCompletions(msg tea.KeyMsg) (bool, tea.Cmd) {
	c := m.completions
	switch msg.String() {
	case "up", "ctrl+p":
		c.selected = (c.selected - 1 + len(c.res.Options)) % len(c.res.Options)
		return true, nil
	case "down":
		c.selected = (c.selected + 1) % len(c.res.Options)
		return true, nil
	case "enter", "tab":
		m.applyCompletion(c.res, c.res.Options[c.selected])
		m.completions = nil
		return true, nil
	case "esc":
		m.completions = nil
		return true, nil
	}
	m.completions = nil
	return false, nil
}

// requestCompletion starts a completion for the cursor position. Issuing
// the ticket supersedes any request still in flight.
func (m *tuiModel) requestCompletion(explicit bool) tea.Cmd {
	comp := m.eng.Completer()
	tk := comp.Begin(m.ctx)
	return completeCmd(comp, tk, m.buffer().CompletionRequest(explicit))
}

// applyCompletion replaces the text between res.From and the cursor with
// option.
func (m *tuiModel) applyCompletion(res completion.Result, option string) {
	b := m.buffer()
	from := min(max(res.From, 0), b.Cursor)
	typed := utf8.RuneCountInString(b.Text[from:b.Cursor])

	for i := 0; i < typed; i++ {
		m.editor, _ = m.editor.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m.editor.InsertString(option)
}

func (m *tuiModel) showGrid(g result.Grid) {
	var sb strings.Builder
	_ = renderTable(&sb, g, m.sess.total())
	m.results.SetContent(sb.String())
	m.results.GotoTop()
	m.statusText = footer(g, m.sess.total())
}

func (m *tuiModel) resize() {
	w := max(20, m.width-4)
	m.editor.SetWidth(w)
	m.results.Width = w
	m.results.Height = max(3, m.height-editorHeight-8)
}

func (m *tuiModel) View() string {
	var sections []string

	sections = append(sections, headerStyle.Render(fmt.Sprintf("sqlpad · %s", m.eng.Backend())))
	sections = append(sections, panelStyle.Render(m.editor.View()))

	if m.completions != nil {
		sections = append(sections, m.completionView())
	}

	status := statusStyle.Render(m.statusText)
	if m.errorText != "" {
		status = errorStyle.Render("Error: " + m.errorText)
	}
	if m.mark >= 0 {
		status = markStyle.Render("[mark] ") + status
	}
	sections = append(sections, status)
	sections = append(sections, m.results.View())
	sections = append(sections, helpStyle.Render("ctrl+r run · ctrl+space mark · ctrl+n more rows · tab complete · ctrl+c quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *tuiModel) completionView() string {
	opts := m.completions.res.Options
	start := 0
	if m.completions.selected >= maxOptionsShow {
		start = m.completions.selected - maxOptionsShow + 1
	}
	end := min(len(opts), start+maxOptionsShow)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if i == m.completions.selected {
			lines = append(lines, selectedOptionStyle.Render("> "+opts[i]))
		} else {
			lines = append(lines, optionStyle.Render("  "+opts[i]))
		}
	}
	return strings.Join(lines, "\n")
}
