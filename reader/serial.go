package reader

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tarm/serial"
)

// Serial implements LineReader for barcode scanners in serial (CDC/ACM or
// RS-232) mode, which send each scan terminated by CR and/or LF.
type Serial struct {
	port   *serial.Port
	device string
	prompt io.Writer
	lines  <-chan lineResult
	done   chan struct{}
	once   sync.Once
}

// NewSerial opens a serial scanner. A zero baud means 9600.
func NewSerial(device string, baud int, prompts io.Writer) (*Serial, error) {
	if baud == 0 {
		baud = 9600
	}
	c := &serial.Config{
		Name: device,
		Baud: baud,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	done := make(chan struct{})
	return &Serial{
		port:   port,
		device: device,
		prompt: prompts,
		lines:  pump(port, done),
		done:   done,
	}, nil
}

// ReadLine implements LineReader.ReadLine.
func (s *Serial) ReadLine(ctx context.Context, prompt string) (string, error) {
	showPrompt(s.prompt, prompt)
	line, err := receive(ctx, s.lines)
	if err != nil && err != ctx.Err() {
		return "", fmt.Errorf("read serial %s: %w", s.device, err)
	}
	return line, err
}

// Close implements LineReader.Close.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.port.Close()
	})
	return err
}
