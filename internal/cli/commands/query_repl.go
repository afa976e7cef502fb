package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpad/internal/cli/config"
	"github.com/leapstack-labs/sqlpad/internal/engine"
	"github.com/leapstack-labs/sqlpad/pkg/completion"
)

const continuationPrompt = "    ...> "

// completionTimeout bounds a single tab completion.
const completionTimeout = 2 * time.Second

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive query console",
		Long: `Start an interactive query console.

SQL statements run when terminated with a semicolon. Lines starting with a
dot are console commands; type .help to list them. Tab completes keywords,
functions, tables and columns using the database's completion service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	r := newREPL(cmdCtx.Engine, cmdCtx.Cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	defer r.sess.clear()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cmdCtx.Cfg.Prompt,
		HistoryFile:     cmdCtx.Cfg.HistoryFile,
		AutoComplete:    newREPLCompleter(ctx, cmdCtx.Engine.Completer()),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(r.out, "sqlpad %s console (%s)\n", cmdCtx.Engine.Backend(), cmdCtx.Cfg.Database)
	_, _ = fmt.Fprintln(r.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(r.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.pending.Reset()
			rl.SetPrompt(r.prompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		if r.handleLine(ctx, line) {
			break
		}
		if r.pending.Len() > 0 {
			rl.SetPrompt(continuationPrompt)
		} else {
			rl.SetPrompt(r.prompt)
		}
	}

	return nil
}

// repl holds the console state between input lines.
type repl struct {
	eng     *engine.Engine
	sess    *session
	out     io.Writer
	errOut  io.Writer
	format  string
	prompt  string
	pending strings.Builder
}

func newREPL(eng *engine.Engine, cfg *config.Config, out, errOut io.Writer) *repl {
	return &repl{
		eng:    eng,
		sess:   newSession(eng),
		out:    out,
		errOut: errOut,
		format: cfg.Output,
		prompt: cfg.Prompt,
	}
}

// handleLine processes one line of input and reports whether the console
// should exit. SQL accumulates until a line ends with a semicolon.
func (r *repl) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if r.pending.Len() == 0 && strings.HasPrefix(line, ".") {
		return r.handleDotCommand(ctx, line)
	}

	r.pending.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		r.pending.WriteString("\n")
		return false
	}

	query := strings.TrimSuffix(r.pending.String(), ";")
	r.pending.Reset()

	r.runQuery(ctx, query)
	_, _ = fmt.Fprintln(r.out)
	return false
}

func (r *repl) runQuery(ctx context.Context, query string) {
	g, err := r.sess.run(ctx, query)
	if err != nil {
		renderError(r.errOut, err)
		return
	}
	if err := renderGrid(r.out, g, r.sess.total(), r.format); err != nil {
		renderError(r.errOut, err)
	}
}

func (r *repl) handleDotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.out)

	case ".tables":
		tables, err := r.eng.Tables(ctx)
		if err != nil {
			renderError(r.errOut, err)
			break
		}
		if len(tables) == 0 {
			_, _ = fmt.Fprintln(r.out, "(no tables)")
		}
		for _, t := range tables {
			_, _ = fmt.Fprintln(r.out, t)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .schema <table>")
			break
		}
		cols, err := r.eng.Describe(ctx, parts[1])
		if err != nil {
			renderError(r.errOut, err)
			break
		}
		if err := renderSchema(r.out, parts[1], cols, r.format); err != nil {
			renderError(r.errOut, err)
		}

	case ".more":
		g, ok := r.sess.more()
		if !ok {
			_, _ = fmt.Fprintln(r.errOut, "No result to show")
			break
		}
		if err := renderGrid(r.out, g, r.sess.total(), r.format); err != nil {
			renderError(r.errOut, err)
		}

	case ".history":
		for i, q := range r.eng.History() {
			_, _ = fmt.Fprintf(r.out, "%4d  %s\n", i+1, strings.ReplaceAll(q, "\n", " "))
		}

	case ".import":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .import <file> [table]")
			break
		}
		var table string
		if len(parts) > 2 {
			table = parts[2]
		}
		name, err := r.eng.Import(ctx, parts[1], table)
		if err != nil {
			renderError(r.errOut, err)
			break
		}
		_, _ = fmt.Fprintf(r.out, "Imported %s as %s\n", parts[1], name)

	case ".clear":
		_, _ = fmt.Fprint(r.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                  Show this help message
  .tables                List all tables and views
  .schema <name>         Show columns of a table or view
  .more                  Show more rows of the last result
  .history               List statements run in this session
  .import <file> [name]  Load a CSV or Parquet file into a table
  .clear                 Clear the screen
  .quit / .exit          Exit the console

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completes keywords, functions, tables and columns
`
	_, _ = fmt.Fprintln(w, help)
}

var dotCommands = []string{".help", ".tables", ".schema", ".more", ".history", ".import", ".clear", ".quit", ".exit"}

// replCompleter adapts a completion.Engine to readline. Dot-commands are
// completed from a fixed list.
type replCompleter struct {
	ctx  context.Context
	eng  *completion.Engine
	dots *readline.PrefixCompleter
}

func newREPLCompleter(ctx context.Context, eng *completion.Engine) *replCompleter {
	items := make([]readline.PrefixCompleterInterface, len(dotCommands))
	for i, c := range dotCommands {
		items[i] = readline.PcItem(c)
	}
	return &replCompleter{ctx: ctx, eng: eng, dots: readline.NewPrefixCompleter(items...)}
}

// Do implements readline.AutoCompleter. readline appends the returned
// suffixes at the cursor, so options whose head differs from the typed
// text beyond case are skipped.
func (c *replCompleter) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	if strings.HasPrefix(strings.TrimSpace(prefix), ".") {
		return c.dots.Do(line, pos)
	}

	ctx, cancel := context.WithTimeout(c.ctx, completionTimeout)
	defer cancel()

	res, ok := c.eng.Complete(ctx, completion.Request{
		Line:     string(line),
		Cursor:   len(prefix),
		Explicit: true,
	})
	if !ok {
		return nil, 0
	}
	return completionSuffixes(prefix[res.From:], res.Options)
}

// completionSuffixes returns what each option adds after typed, and the
// length of typed in runes.
func completionSuffixes(typed string, options []string) ([][]rune, int) {
	t := []rune(typed)
	var out [][]rune
	for _, opt := range options {
		o := []rune(opt)
		if len(o) <= len(t) || !strings.EqualFold(string(o[:len(t)]), typed) {
			continue
		}
		out = append(out, o[len(t):])
	}
	return out, len(t)
}
