package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpad/pkg/completion"
	"github.com/leapstack-labs/sqlpad/pkg/editor"
)

// CompleteOptions holds options for the complete command.
type CompleteOptions struct {
	Cursor   int
	Explicit bool
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand() *cobra.Command {
	opts := &CompleteOptions{}

	cmd := &cobra.Command{
		Use:   "complete <text>",
		Short: "Print completions for a cursor position",
		Long: `Compute the completion the editor would offer for text with the cursor
at --cursor (a byte offset, default: end of text). Prints the offset the
options replace from, followed by one option per line.`,
		Example: `  sqlpad complete "SELECT * FR"
  sqlpad complete "select * from us" --cursor 16 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.Cursor, "cursor", -1, "Cursor byte offset (default: end of text)")
	cmd.Flags().BoolVar(&opts.Explicit, "explicit", false, "Complete even when nothing is typed")

	return cmd
}

func runComplete(cmd *cobra.Command, text string, opts *CompleteOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	buf := editor.New(text)
	if opts.Cursor >= 0 {
		buf.Cursor = opts.Cursor
	}

	res, ok := cmdCtx.Engine.Completer().Complete(cmd.Context(), buf.CompletionRequest(opts.Explicit))
	if !ok {
		res = completion.Result{From: buf.Cursor}
	}
	return renderCompletion(cmd.OutOrStdout(), res, cmdCtx.Cfg.Output)
}

type completionOutput struct {
	From    int      `json:"from"`
	Options []string `json:"options"`
}

func renderCompletion(w io.Writer, res completion.Result, format string) error {
	if resolveFormat(format, w) == "json" {
		opts := res.Options
		if opts == nil {
			opts = []string{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(completionOutput{From: res.From, Options: opts})
	}

	_, _ = fmt.Fprintf(w, "from: %d\n", res.From)
	if len(res.Options) > 0 {
		_, _ = fmt.Fprintln(w, strings.Join(res.Options, "\n"))
	}
	return nil
}
