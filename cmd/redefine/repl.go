package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/redefine-mcp/internal/session"
)

const (
	replPrompt    = "redefine> "
	replContinue  = "      ... "
	unitDirective = "@unit"
	endDirective  = "@end"
	quitDirective = "@quit"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Start an interactive session. Lines are evaluated in Main. A block
starting with "@unit NAME" and ending with "@end" is loaded as unit NAME,
replacing any earlier version. "@quit" or end of input leaves.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		r := &repl{
			sess:   sess,
			in:     cmd.InOrStdin(),
			out:    cmd.OutOrStdout(),
			prompt: !flagJSON,
		}
		return r.run(cmd.Context())
	},
}

// repl reads statements and unit blocks from in
type repl struct {
	sess   *session.Session
	in     io.Reader
	out    io.Writer
	prompt bool

	unit  string   // Name of the block being collected, empty in Main
	block []string // Lines collected for unit
}

func (r *repl) run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	r.showPrompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if quit := r.handle(ctx, scanner.Text()); quit {
			return nil
		}
		r.showPrompt()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if r.unit != "" {
		fmt.Fprintf(r.out, "error: unit %s is missing %s\n", r.unit, endDirective)
	}
	return nil
}

// handle processes one input line and reports whether to stop
func (r *repl) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)

	if r.unit != "" {
		if trimmed == endDirective {
			r.finishUnit(ctx)
			return false
		}
		r.block = append(r.block, line)
		return false
	}

	switch {
	case trimmed == "":
		return false
	case trimmed == quitDirective:
		return true
	case trimmed == unitDirective || strings.HasPrefix(trimmed, unitDirective+" "):
		name := strings.TrimSpace(strings.TrimPrefix(trimmed, unitDirective))
		if name == "" {
			fmt.Fprintf(r.out, "error: %s needs a unit name\n", unitDirective)
			return false
		}
		r.unit = name
		r.block = r.block[:0]
		return false
	}

	value, err := r.sess.Eval(ctx, line)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return false
	}
	fmt.Fprintln(r.out, value)
	return false
}

func (r *repl) finishUnit(ctx context.Context) {
	name, code := r.unit, strings.Join(r.block, "\n")
	r.unit = ""
	r.block = r.block[:0]

	res, err := r.sess.Redefine(ctx, name, code)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	_ = writeReload(r.out, res, false)
}

func (r *repl) showPrompt() {
	if !r.prompt {
		return
	}
	if r.unit != "" {
		fmt.Fprint(r.out, replContinue)
		return
	}
	fmt.Fprint(r.out, replPrompt)
}
