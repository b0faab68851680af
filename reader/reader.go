package reader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrClosed is returned by ReadLine after Close.
var ErrClosed = errors.New("reader closed")

// LineReader is the interface for all operator input sources.
// ReadLine shows prompt (where the source has somewhere to show it) and
// blocks until a full line is received or ctx is cancelled. The returned
// line has its terminator removed.
type LineReader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)

	// Close releases any resources held by the reader.
	Close() error
}

// Config holds common configuration for reader implementations.
type Config struct {
	Type   string `yaml:"type"`   // "console", "keyboard", "serial", "pipe"
	Device string `yaml:"device"` // e.g. "/dev/ttyACM0", "/dev/input/event0", "/tmp/gostation-input"
	Baud   int    `yaml:"baud"`   // baud rate for serial scanners
}

// New creates a LineReader based on the provided configuration. Prompts are
// written to prompts; readers other than the console use it only to tell the
// operator what to scan.
func New(cfg Config, prompts io.Writer) (LineReader, error) {
	var r LineReader
	var err error
	switch cfg.Type {
	case "", "console", "stdin":
		return NewConsole(os.Stdin, prompts), nil
	case "keyboard":
		r, err = NewKeyboard(cfg.Device, prompts)
	case "serial":
		r, err = NewSerial(cfg.Device, cfg.Baud, prompts)
	case "pipe":
		r, err = NewPipe(cfg.Device, prompts)
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

type lineResult struct {
	line string
	err  error
}

// pump reads lines from r until it fails or done is closed and delivers
// them on the returned channel. The final element carries the read error.
func pump(r io.Reader, done <-chan struct{}) <-chan lineResult {
	ch := make(chan lineResult)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Split((&lineSplitter{}).split)
		for scanner.Scan() {
			select {
			case ch <- lineResult{line: scanner.Text()}:
			case <-done:
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		select {
		case ch <- lineResult{err: err}:
		case <-done:
		}
	}()
	return ch
}

// receive waits for the next line from ch.
func receive(ctx context.Context, ch <-chan lineResult) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-ch:
		if !ok {
			return "", ErrClosed
		}
		return r.line, r.err
	}
}

// lineSplitter splits on "\n", "\r" or "\r\n". Scanners in serial mode
// commonly terminate with a bare carriage return, so a '\r' ends the line
// at once and a '\n' directly after it is dropped.
type lineSplitter struct {
	afterCR bool
}

func (s *lineSplitter) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if s.afterCR && len(data) > 0 {
		s.afterCR = false
		if data[0] == '\n' {
			return 1, nil, nil
		}
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		s.afterCR = data[i] == '\r'
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func showPrompt(w io.Writer, prompt string) {
	if w != nil && prompt != "" {
		fmt.Fprint(w, prompt)
	}
}
