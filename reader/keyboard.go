package reader

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kenshaw/evdev"
	"github.com/rs/zerolog/log"
)

// Linux input event codes (linux/input-event-codes.h).
const (
	keyBackspace  = 14
	keyLeftShift  = 42
	keyRightShift = 54
	keyKPEnter    = 96
)

// keymap translates US-layout key codes to their unshifted and shifted
// characters. Keyboard-wedge scanners only emit printable ASCII.
var keymap = map[evdev.KeyType][2]rune{
	2: {'1', '!'}, 3: {'2', '@'}, 4: {'3', '#'}, 5: {'4', '$'}, 6: {'5', '%'},
	7: {'6', '^'}, 8: {'7', '&'}, 9: {'8', '*'}, 10: {'9', '('}, 11: {'0', ')'},
	12: {'-', '_'}, 13: {'=', '+'},
	16: {'q', 'Q'}, 17: {'w', 'W'}, 18: {'e', 'E'}, 19: {'r', 'R'}, 20: {'t', 'T'},
	21: {'y', 'Y'}, 22: {'u', 'U'}, 23: {'i', 'I'}, 24: {'o', 'O'}, 25: {'p', 'P'},
	26: {'[', '{'}, 27: {']', '}'},
	30: {'a', 'A'}, 31: {'s', 'S'}, 32: {'d', 'D'}, 33: {'f', 'F'}, 34: {'g', 'G'},
	35: {'h', 'H'}, 36: {'j', 'J'}, 37: {'k', 'K'}, 38: {'l', 'L'},
	39: {';', ':'}, 40: {'\'', '"'}, 41: {'`', '~'}, 43: {'\\', '|'},
	44: {'z', 'Z'}, 45: {'x', 'X'}, 46: {'c', 'C'}, 47: {'v', 'V'}, 48: {'b', 'B'},
	49: {'n', 'N'}, 50: {'m', 'M'},
	51: {',', '<'}, 52: {'.', '>'}, 53: {'/', '?'},
	57: {' ', ' '},
}

// lineBuilder assembles key presses into a text line.
type lineBuilder struct {
	buf   strings.Builder
	shift bool
}

// key applies one key event (value 1 = press, 0 = release, 2 = repeat) and
// reports whether it completed a line.
func (b *lineBuilder) key(code evdev.KeyType, value int32) (string, bool) {
	if code == keyLeftShift || code == keyRightShift {
		b.shift = value != 0
		return "", false
	}
	if value == 0 {
		return "", false
	}

	switch code {
	case evdev.KeyEnter, keyKPEnter:
		line := b.buf.String()
		b.buf.Reset()
		return line, true
	case keyBackspace:
		s := b.buf.String()
		if len(s) > 0 {
			b.buf.Reset()
			b.buf.WriteString(s[:len(s)-1])
		}
		return "", false
	}

	if chars, ok := keymap[code]; ok {
		if b.shift {
			b.buf.WriteRune(chars[1])
		} else {
			b.buf.WriteRune(chars[0])
		}
	}
	return "", false
}

// Keyboard implements LineReader for USB keyboard-wedge barcode scanners
// that type the label contents followed by Enter. One poller runs for the
// life of the reader; keys typed between prompts are kept.
type Keyboard struct {
	device *evdev.Evdev
	prompt io.Writer
	lines  chan lineResult
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	b lineBuilder // owned by the poll goroutine
}

func newKeyboard(prompts io.Writer, cancel context.CancelFunc) *Keyboard {
	return &Keyboard{
		prompt: prompts,
		lines:  make(chan lineResult),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// NewKeyboard opens the scanner's input device and starts polling it.
func NewKeyboard(device string, prompts io.Writer) (*Keyboard, error) {
	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", device, err)
	}

	log.Info().
		Str("device", dev.Name()).
		Str("vendor", fmt.Sprintf("0x%04x", dev.ID().Vendor)).
		Str("product", fmt.Sprintf("0x%04x", dev.ID().Product)).
		Msg("Opened keyboard device")

	ctx, cancel := context.WithCancel(context.Background())
	k := newKeyboard(prompts, cancel)
	k.device = dev

	// The poller sends every event unconditionally, so this loop drains
	// the channel until the device stops, also after Close.
	events := dev.Poll(ctx)
	go func() {
		for event := range events {
			if _, ok := event.Type.(evdev.KeyType); ok {
				k.key(evdev.KeyType(event.Code), event.Value)
			}
		}
		k.deliver(lineResult{err: fmt.Errorf("keyboard device %s closed", device)})
	}()

	return k, nil
}

// key feeds one key event and delivers the line it completes.
func (k *Keyboard) key(code evdev.KeyType, value int32) {
	if line, ok := k.b.key(code, value); ok {
		log.Debug().Str("line", line).Msg("Keyboard line")
		k.deliver(lineResult{line: line})
	}
}

func (k *Keyboard) deliver(r lineResult) {
	select {
	case k.lines <- r:
	case <-k.done:
	}
}

// ReadLine implements LineReader.ReadLine.
func (k *Keyboard) ReadLine(ctx context.Context, prompt string) (string, error) {
	select {
	case <-k.done:
		return "", ErrClosed
	default:
	}
	showPrompt(k.prompt, prompt)
	return receive(ctx, k.lines)
}

// Close implements LineReader.Close.
func (k *Keyboard) Close() error {
	var err error
	k.once.Do(func() {
		close(k.done)
		k.cancel()
		if k.device != nil {
			err = k.device.Close()
		}
	})
	return err
}
