package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer decides a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)
}

// Always answers every question with the same value.
type Always bool

// Confirm returns the fixed answer.
func (a Always) Confirm(context.Context, string, bool) (bool, error) {
	return bool(a), nil
}

// Terminal asks questions on a text stream.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	// pending carries a read that outlived a cancelled Confirm.
	pending chan answer
}

// NewTerminal creates a Terminal reading answers from in and writing questions to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

type answer struct {
	line string
	err  error
}

// Confirm writes question and waits for y/yes/n/no. An empty line picks the
// default, anything else asks again. End of input counts as no.
func (t *Terminal) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	for {
		if _, err := fmt.Fprintf(t.out, "%s %s: ", question, hint); err != nil {
			return false, fmt.Errorf("write prompt: %w", err)
		}

		line, err := t.readLine(ctx)

		switch {
		case errors.Is(err, io.EOF) && strings.TrimSpace(line) == "":
			_, _ = fmt.Fprintln(t.out)
			return false, nil
		case err != nil && !errors.Is(err, io.EOF):
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}

		if errors.Is(err, io.EOF) {
			return false, nil
		}

		if _, err = fmt.Fprintln(t.out, "Please answer y or n."); err != nil {
			return false, fmt.Errorf("write prompt: %w", err)
		}
	}
}

// readLine reads one line, giving up when ctx is done.
// A read abandoned that way is picked up by the next call.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if t.pending == nil {
		t.pending = make(chan answer, 1)

		go func(result chan<- answer) {
			line, err := t.in.ReadString('\n')
			result <- answer{line: line, err: err}
		}(t.pending)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-t.pending:
		t.pending = nil
		return a.line, a.err
	}
}
