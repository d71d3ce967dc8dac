package cmdutils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/crystaldolphin/crondeck/internal/cron"
	"github.com/crystaldolphin/crondeck/internal/i18n"
)

// Terminal shows notifications on the console and asks confirmations on stdin.
// It implements cron.Notifier and cron.Confirmer.
//
// A single goroutine owns the input stream, so a prompt abandoned through
// context cancellation never leaves a second reader behind.
type Terminal struct {
	t      i18n.Translator
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	readOnce sync.Once
	lines    chan inputLine

	mu        sync.Mutex
	assumeYes bool
}

type inputLine struct {
	text string
	err  error
}

var (
	_ cron.Notifier  = (*Terminal)(nil)
	_ cron.Confirmer = (*Terminal)(nil)
)

// NewTerminal creates a Terminal on the process's standard streams.
func NewTerminal(t i18n.Translator) *Terminal {
	return NewTerminalIO(t, os.Stdin, os.Stdout, os.Stderr)
}

// NewTerminalIO creates a Terminal on the given streams.
func NewTerminalIO(t i18n.Translator, in io.Reader, out, errOut io.Writer) *Terminal {
	return &Terminal{
		t:      t,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		lines:  make(chan inputLine),
	}
}

// readLines starts the input goroutine on first use. The channel is closed
// after the read that returns an error, EOF included.
func (term *Terminal) readLines() <-chan inputLine {
	term.readOnce.Do(func() {
		go func() {
			defer close(term.lines)
			for {
				text, err := term.in.ReadString('\n')
				term.lines <- inputLine{text, err}
				if err != nil {
					return
				}
			}
		}()
	})
	return term.lines
}

// AssumeYes makes every confirmation succeed without prompting.
func (term *Terminal) AssumeYes(yes bool) {
	term.mu.Lock()
	defer term.mu.Unlock()
	term.assumeYes = yes
}

// Out is the writer regular output goes to.
func (term *Terminal) Out() io.Writer { return term.out }

func (term *Terminal) Success(msg string) {
	fmt.Fprintf(term.out, "%s %s\n", cron.GlyphSuccess, msg)
}

func (term *Terminal) Error(msg string) {
	fmt.Fprintf(term.errOut, "%s %s\n", cron.GlyphFailed, msg)
}

// Confirm prints the prompt and waits for a line. Only "y" or "yes" approve.
func (term *Terminal) Confirm(ctx context.Context, title, message string) (bool, error) {
	term.mu.Lock()
	yes := term.assumeYes
	term.mu.Unlock()
	if yes {
		return true, nil
	}

	fmt.Fprint(term.out, term.t.T("confirmPrompt", i18n.Params{"title": title, "message": message}))

	select {
	case <-ctx.Done():
		fmt.Fprintln(term.out)
		return false, ctx.Err()
	case a, ok := <-term.readLines():
		if !ok {
			return false, nil
		}
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("read confirmation: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.text)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
