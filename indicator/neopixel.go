package indicator

import (
	"fmt"
	"io"
	"os"
)

// Neopixel command strings for the external neopixel tool.
const (
	neoIdle     = "@3 !150000 400000"
	neoBusy     = "@2 !50000 404000"
	neoPass     = "@1 !50000 8000"
	neoFail     = "@2 !10000 ff"
	neoAlert    = "@2 !150000 001010"
	neoShutdown = "@0 010101"
)

// Neopixel implements Indicator using an external neopixel tool via named pipe.
type Neopixel struct {
	pipe io.WriteCloser
}

// NewNeopixel creates a new Neopixel indicator.
func NewNeopixel(pipePath string) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return &Neopixel{pipe: f}, nil
}

// Idle implements Indicator.Idle.
func (n *Neopixel) Idle() { n.write(neoIdle) }

// Busy implements Indicator.Busy.
func (n *Neopixel) Busy() { n.write(neoBusy) }

// Pass implements Indicator.Pass.
func (n *Neopixel) Pass() { n.write(neoPass) }

// Fail implements Indicator.Fail.
func (n *Neopixel) Fail() { n.write(neoFail) }

// Alert implements Indicator.Alert.
func (n *Neopixel) Alert() { n.write(neoAlert) }

// Shutdown implements Indicator.Shutdown.
func (n *Neopixel) Shutdown() { n.write(neoShutdown) }

// Release implements Indicator.Release.
func (n *Neopixel) Release() error {
	if n.pipe == nil {
		return nil
	}
	return n.pipe.Close()
}

func (n *Neopixel) write(s string) {
	if n.pipe != nil {
		n.pipe.Write([]byte(s + "\n"))
	}
}
