// Package prompt implements the interactive choices of a capture session as
// numbered terminal menus.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/hpungsan/ghost/internal/codegen"
	"github.com/hpungsan/ghost/internal/element"
	"github.com/hpungsan/ghost/internal/errors"
)

type line struct {
	text string
	err  error
}

// Terminal asks questions on out and reads answers from in, one per line.
// Typing q (or closing in) cancels the current capture. An empty answer takes
// the default shown in brackets.
type Terminal struct {
	reader *bufio.Reader
	out    io.Writer

	once  sync.Once
	lines chan line
}

// NewTerminal creates a Terminal.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		reader: bufio.NewReader(in),
		out:    out,
		lines:  make(chan line),
	}
}

// readLine waits for the next line or for ctx and returns it without its
// line terminator. Lines are read by a single background goroutine so a
// blocked read does not hold up cancellation.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	t.once.Do(func() {
		go func() {
			for {
				s, err := t.reader.ReadString('\n')
				if err != nil && s == "" {
					t.lines <- line{err: err}
					close(t.lines)
					return
				}
				t.lines <- line{text: s}
			}
		}()
	})

	select {
	case <-ctx.Done():
		return "", errors.NewCancelled("prompt")
	case l, ok := <-t.lines:
		if !ok || l.err != nil {
			return "", errors.NewCancelled("input closed")
		}
		return strings.TrimRight(l.text, "\r\n"), nil
	}
}

// ask prints question and returns the trimmed answer.
func (t *Terminal) ask(ctx context.Context, question string) (string, error) {
	fmt.Fprint(t.out, question)
	answer, err := t.readLine(ctx)
	if err != nil {
		fmt.Fprintln(t.out)
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if strings.EqualFold(answer, "q") {
		return "", errors.NewCancelled("capture")
	}
	return answer, nil
}

// choose shows a numbered menu and returns the zero-based index picked.
func (t *Terminal) choose(ctx context.Context, title string, options []string, def int) (int, error) {
	fmt.Fprintln(t.out, title)
	for i, o := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, o)
	}
	for {
		answer, err := t.ask(ctx, fmt.Sprintf("Choice [%d]: ", def+1))
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return def, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(t.out, "Enter a number between 1 and %d, or q to cancel.\n", len(options))
	}
}

func (t *Terminal) confirm(ctx context.Context, question string) (bool, error) {
	for {
		answer, err := t.ask(ctx, question+" [y/N]: ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "", "n", "no":
			return false, nil
		case "y", "yes":
			return true, nil
		}
		fmt.Fprintln(t.out, "Answer y or n, or q to cancel.")
	}
}

// ChooseLocator lists the candidates, most specific first.
func (t *Terminal) ChooseLocator(ctx context.Context, e element.RawElement, candidates []element.LocatorCandidate) (element.LocatorCandidate, error) {
	if len(candidates) == 0 {
		return element.LocatorCandidate{}, errors.NewInvalidRequest("no locator candidates")
	}
	options := make([]string, len(candidates))
	for i, c := range candidates {
		options[i] = fmt.Sprintf("%s  (%s)", c.Expression, c.Kind)
	}
	fmt.Fprintf(t.out, "\nCaptured %s\n", e.Describe())
	i, err := t.choose(ctx, "Locator:", options, 0)
	if err != nil {
		return element.LocatorCandidate{}, err
	}
	return candidates[i], nil
}

// ChooseAction defaults to click.
func (t *Terminal) ChooseAction(ctx context.Context, e element.RawElement) (codegen.ActionKind, error) {
	options := make([]string, len(codegen.ActionKinds))
	for i, k := range codegen.ActionKinds {
		options[i] = k.Label()
	}
	i, err := t.choose(ctx, "Action:", options, 0)
	if err != nil {
		return 0, err
	}
	return codegen.ActionKinds[i], nil
}

// ChooseWait defaults to waiting for visibility.
func (t *Terminal) ChooseWait(ctx context.Context, kind codegen.ActionKind) (codegen.WaitCondition, error) {
	if kind == codegen.AssertVisible {
		return codegen.WaitNone, nil
	}
	options := make([]string, len(codegen.WaitConditions))
	def := 0
	for i, w := range codegen.WaitConditions {
		if w == codegen.WaitVisible {
			def = i
		}
		if c := w.Chainer(); c != "" {
			options[i] = "should('" + c + "')"
		} else {
			options[i] = "no wait"
		}
	}
	i, err := t.choose(ctx, "Wait:", options, def)
	if err != nil {
		return 0, err
	}
	return codegen.WaitConditions[i], nil
}

func (t *Terminal) ChooseForce(ctx context.Context) (bool, error) {
	return t.confirm(ctx, "Force the action?")
}

func (t *Terminal) ChooseMultiple(ctx context.Context) (bool, error) {
	return t.confirm(ctx, "Apply to multiple elements?")
}

// TypedValue returns nil for an empty answer. The answer is taken literally,
// surrounding spaces included, so q does not cancel here.
func (t *Terminal) TypedValue(ctx context.Context) (*string, error) {
	fmt.Fprint(t.out, "Text to type: ")
	answer, err := t.readLine(ctx)
	if err != nil {
		fmt.Fprintln(t.out)
		return nil, err
	}
	if answer == "" {
		return nil, nil
	}
	return &answer, nil
}
