package reader

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

// Pipe implements LineReader on a named pipe, so that a test sequencer or
// another process can answer prompts automatically, e.g.
//
//	echo "10.00001-02 SN:0002" > /tmp/gostation-input
//
// Lines starting with '#' are ignored.
type Pipe struct {
	path   string
	file   *os.File
	prompt io.Writer
	lines  <-chan lineResult
	done   chan struct{}
	once   sync.Once
}

// NewPipe creates the named pipe at path, replacing any existing file.
func NewPipe(path string, prompts io.Writer) (*Pipe, error) {
	if path == "" {
		return nil, fmt.Errorf("pipe reader: no path configured")
	}

	os.Remove(path)
	if err := syscall.Mkfifo(path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", path, err)
	}

	// Opening read-write keeps the pipe from reporting EOF each time a
	// writer disconnects, and keeps open from blocking until one connects.
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("open named pipe %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("Input pipe listening")

	done := make(chan struct{})
	return &Pipe{
		path:   path,
		file:   file,
		prompt: prompts,
		lines:  pump(file, done),
		done:   done,
	}, nil
}

// ReadLine implements LineReader.ReadLine.
func (p *Pipe) ReadLine(ctx context.Context, prompt string) (string, error) {
	showPrompt(p.prompt, prompt)
	for {
		line, err := receive(ctx, p.lines)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		return line, nil
	}
}

// Close stops the reader and removes the pipe.
func (p *Pipe) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		p.file.Close()
		err = os.Remove(p.path)
	})
	return err
}
