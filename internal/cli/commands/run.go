package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlpad/pkg/editor"
	"github.com/leapstack-labs/sqlpad/pkg/result"
)

// watchDebounce delays a re-run until writes to the watched file settle.
const watchDebounce = 100 * time.Millisecond

// RunOptions holds options for the run command.
type RunOptions struct {
	File  string
	From  int
	To    int
	Limit int
	Watch bool
	// ExactDecimals prints decimal fractional digits instead of the integer
	// quotient.
	ExactDecimals bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [SQL]",
		Short: "Run a query and print its result",
		Long: `Run SQL once and print the result.

SQL is taken from the arguments, from --file, or from stdin when it is not a
terminal. --from and --to select a byte range of the text to run instead of
all of it, the same way a selection is run in the editor.`,
		Example: `  # Run SQL directly
  sqlpad run "SELECT * FROM generate_series(5)"

  # Run only the second statement of a file
  sqlpad run -f report.sql --from 120 --to 180

  # Re-run a file whenever it is saved
  sqlpad run -f report.sql --watch

  # Output as CSV
  sqlpad run "FROM 'data.parquet'" -o csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Read SQL from file")
	cmd.Flags().IntVar(&opts.From, "from", 0, "Start byte offset of the text to run")
	cmd.Flags().IntVar(&opts.To, "to", 0, "End byte offset of the text to run")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum rows to print (default: row_limit from config)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when --file changes")
	cmd.Flags().BoolVar(&opts.ExactDecimals, "exact-decimals", false, "Print decimals with all fractional digits")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	if opts.Watch && opts.File == "" {
		return errors.New("--watch requires --file")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if !cmd.Flags().Changed("limit") {
		opts.Limit = cmdCtx.Cfg.RowLimit
	}
	r := &runner{
		cmdCtx: cmdCtx,
		out:    cmd.OutOrStdout(),
		opts:   opts,
	}

	if opts.Watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return r.watch(ctx)
	}

	text, err := readSQL(args, opts.File, cmd.InOrStdin())
	if err != nil {
		return err
	}
	return r.run(cmd.Context(), text)
}

// readSQL returns the SQL text from args, a file, or stdin.
func readSQL(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file != "":
		content, err := os.ReadFile(file) //nolint:gosec // path is supplied by the user on purpose
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(content), nil
	}

	if f, ok := stdin.(*os.File); ok && isTerminal(f) {
		return "", errors.New("no SQL given: pass it as an argument, with --file, or on stdin")
	}
	content, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(content), nil
}

type runner struct {
	cmdCtx *CommandContext
	out    io.Writer
	opts   *RunOptions
}

// run executes the selected part of text and prints up to opts.Limit rows.
func (r *runner) run(ctx context.Context, text string) error {
	buf := editor.Buffer{
		Text:      text,
		Selection: editor.Range{From: r.opts.From, To: r.opts.To},
	}
	query := strings.TrimSpace(buf.QueryText())
	if query == "" {
		return errors.New("nothing to run")
	}

	tbl, err := r.cmdCtx.Engine.Query(ctx, query)
	if err != nil {
		return err
	}
	defer tbl.Release()

	format := result.FormatCell
	if r.opts.ExactDecimals {
		format = result.FormatCellExact
	}
	g := result.MaterializeWith(tbl, r.opts.Limit, format)
	return renderGrid(r.out, g, tbl.NumRows(), r.cmdCtx.Cfg.Output)
}

// watch runs the file once, then again after every change until ctx is
// done. Query errors are printed and do not stop watching.
func (r *runner) watch(ctx context.Context) error {
	path, err := filepath.Abs(r.opts.File)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", r.opts.File, err)
	}

	logger := r.cmdCtx.Logger
	changes := make(chan struct{}, 1)
	changes <- struct{}{}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var debounceTimer *time.Timer
		defer func() {
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(watchDebounce, func() {
					select {
					case changes <- struct{}{}:
					default:
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error("watcher error", "error", err)
			}
		}
	})

	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				r.runFile(ctx, path, logger)
			}
		}
	})

	return eg.Wait()
}

func (r *runner) runFile(ctx context.Context, path string, logger *slog.Logger) {
	logger.Debug("file changed, re-running", "file", path)

	_, _ = fmt.Fprintf(r.out, "-- %s %s\n", time.Now().Format(time.TimeOnly), r.opts.File)
	text, err := readSQL(nil, path, nil)
	if err == nil {
		err = r.run(ctx, text)
	}
	if err != nil {
		renderError(r.out, err)
	}
	_, _ = fmt.Fprintln(r.out)
}
