package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant",
		Long: `Starts a conversation. With a message argument the assistant answers
once and exits; without one an interactive session starts.

Examples:
  nova chat "open spotify"
  nova chat`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}
	cmd.Flags().StringP("model", "m", "", "oracle model to use")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		rt.cfg.Oracle.Model = model
	}

	assistant, err := rt.newAgent(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		reply, err := assistant.Chat(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply)
		return nil
	}

	if rt.audit != nil && rt.cfg.Audit.PruneSchedule != "" {
		if err := rt.audit.StartPruning(rt.cfg.Audit.PruneSchedule); err != nil {
			rt.logger.Warn("audit pruning disabled", "error", err)
		}
	}

	reader, err := newLineReader(assistant.Name())
	if err != nil {
		return err
	}
	defer reader.Close()

	repl := &chatLoop{
		name:   assistant.Name(),
		reader: reader,
		out:    out,
		chat:   assistant.Chat,
	}
	repl.run(ctx)
	return nil
}

// lineReader yields one user line per call. It returns an error on EOF or
// interrupt.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// newLineReader returns a readline editor on a terminal and a plain
// scanner when stdin is piped.
func newLineReader(name string) (lineReader, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return &scanReader{sc: bufio.NewScanner(os.Stdin)}, nil
	}

	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".nova_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\nYou: ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("starting line editor for %s: %w", name, err)
	}
	return rl, nil
}

type scanReader struct {
	sc *bufio.Scanner
}

func (r *scanReader) Readline() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// chatLoop is the interactive session: banner, read, answer, goodbye.
type chatLoop struct {
	name   string
	reader lineReader
	out    io.Writer
	chat   func(ctx context.Context, input string) (string, error)
}

func (l *chatLoop) run(ctx context.Context) {
	fmt.Fprintf(l.out, "🧠 %s is online!\n", l.name)
	fmt.Fprintln(l.out, "Type 'exit' or Ctrl-C to shut down.")
	defer fmt.Fprintf(l.out, "\n👋 Shutting down %s. Goodbye!\n", l.name)

	for {
		line, err := l.readLine(ctx)
		if err != nil {
			// Interrupt, EOF, closed stdin or a cancelled context.
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			return
		}

		reply, err := l.chat(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(l.out, "❌ %v\n", err)
			continue
		}
		fmt.Fprintf(l.out, "%s: %s\n", l.name, reply)
	}
}

type readResult struct {
	line string
	err  error
}

// readLine waits for one line or for ctx to end. A read still blocked on
// stdin when ctx ends is abandoned; the process is exiting.
func (l *chatLoop) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ch := make(chan readResult, 1)
	go func() {
		line, err := l.reader.Readline()
		ch <- readResult{line: line, err: err}
	}()
	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
