// Package shell implements the interactive REPL: the shell-input task of the
// two cooperative tasks spec.md §5 describes. It owns no scheduler state
// itself; every batch operation goes through internal/submitter, which takes
// the shared shellctx.Context's lock only briefly. Grounded in
// original_source/scheduler.c's shell loop (tokenize, dispatch on the first
// word, `submit`, `history`, `exit`), reimplemented with Go's bufio.Scanner
// and os/exec in place of the original's readline+fork+execvp.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"batchshell/internal/submitter"
)

const historyCapacity = 64

// Shell is the REPL: it reads lines, dispatches built-in commands
// (submit/history/exit) or hands the line to Exec/RunPiped otherwise.
type Shell struct {
	sub     *submitter.Submitter
	log     *zap.Logger
	in      *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
	history *historyBuf
	prompt  string
}

// New constructs a Shell reading from in and writing to out/errOut.
func New(sub *submitter.Submitter, log *zap.Logger, in io.Reader, out, errOut io.Writer) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		sub:     sub,
		log:     log,
		in:      bufio.NewScanner(in),
		out:     out,
		errOut:  errOut,
		history: newHistoryBuf(historyCapacity),
		prompt:  "batchshell> ",
	}
}

// Run reads commands until EOF, an "exit" command, or stop is signalled
// (SIGINT wired by the caller through a closed stop channel, taking the same
// report-then-exit path as "exit"). Returns when the
// REPL should stop; the caller is responsible for cancelling the scheduler.
func (s *Shell) Run(stop <-chan struct{}) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			fmt.Fprint(s.out, s.prompt)
			if !s.in.Scan() {
				return
			}
			lines <- s.in.Text()
		}
	}()

	for {
		select {
		case <-stop:
			s.printReport()
			return
		case line, ok := <-lines:
			if !ok {
				s.printReport()
				return
			}
			if s.dispatch(line) {
				s.printReport()
				return
			}
		}
	}
}

// dispatch runs one line and returns true if the shell should exit.
func (s *Shell) dispatch(line string) (exit bool) {
	start := time.Now()
	trimmed := line
	tok := tokenize(trimmed)
	if len(tok) == 0 {
		return false
	}

	defer func() {
		s.history.add(entry{line: trimmed, ranAt: start, duration: time.Since(start)})
	}()

	switch tok[0] {
	case "exit", "quit":
		return true
	case "history":
		s.cmdHistory(tok[1:])
		return false
	case "submit":
		s.cmdSubmit(tok[1:])
		return false
	}

	if stages := splitPipeline(trimmed); len(stages) > 1 {
		if err := RunPiped(stages, nil, s.out, s.errOut); err != nil {
			fmt.Fprintln(s.errOut, err)
		}
		return false
	}
	if err := Exec(tok[0], tok[1:], nil, s.out, s.errOut); err != nil {
		fmt.Fprintln(s.errOut, err)
	}
	return false
}

func (s *Shell) cmdSubmit(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.errOut, "usage: submit <program_path> [args...]")
		return
	}
	id, err := s.sub.Submit(args[0], args[1:]...)
	if err != nil {
		fmt.Fprintln(s.errOut, "submit:", err)
		return
	}
	fmt.Fprintln(s.out, "submitted", id)
}

func (s *Shell) cmdHistory(args []string) {
	verbose := len(args) > 0 && args[0] == "-v"
	for i, e := range s.history.entries() {
		if verbose {
			fmt.Fprintf(s.out, "%3d  %s  (%s)  %s\n", i+1, e.ranAt.Format(time.RFC3339), e.duration, e.line)
		} else {
			fmt.Fprintf(s.out, "%3d  %s\n", i+1, e.line)
		}
	}
}

// printReport renders the Submitter's accounting, one line per job in the
// exact format the original's display_info_submitted_jobs produced at shell
// exit.
func (s *Shell) printReport() {
	for _, l := range s.sub.Report() {
		fmt.Fprintf(s.out, "%d: %s (PID: %d, Completion Time: %dms, Wait Time: %dms)\n",
			l.Index, l.Command, l.PID, l.CompletionMS, l.WaitMS)
	}
}
