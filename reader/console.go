package reader

import (
	"context"
	"io"
	"sync"
)

// Console implements LineReader for a terminal (or any io.Reader) where the
// operator types answers, or a keyboard-wedge scanner is attached to the
// console's own keyboard.
type Console struct {
	out   io.Writer
	lines <-chan lineResult
	done  chan struct{}
	once  sync.Once
}

// NewConsole creates a console reader on in, writing prompts to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	done := make(chan struct{})
	return &Console{
		out:   out,
		lines: pump(in, done),
		done:  done,
	}
}

// ReadLine implements LineReader.ReadLine.
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	select {
	case <-c.done:
		return "", ErrClosed
	default:
	}
	showPrompt(c.out, prompt)
	return receive(ctx, c.lines)
}

// Close implements LineReader.Close. The underlying reader is not closed;
// a pending read of stdin is abandoned.
func (c *Console) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}
