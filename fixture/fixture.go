package fixture

import (
	"fmt"
	"time"

	"github.com/hjkoskel/govattu"
)

// Fixture is the interface for the DUT test fixture: a relay that powers or
// clamps the device while it is being tested.
type Fixture interface {
	// Engage powers/clamps the DUT.
	Engage() error

	// Disengage returns the fixture to its safe state.
	Disengage() error

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for fixture implementations.
type Config struct {
	Type     string `yaml:"type"`      // "gpio_high", "gpio_low", "none"
	Pin      *int   `yaml:"pin"`       // GPIO pin number
	SettleMs int    `yaml:"settle_ms"` // wait after engaging before the test starts
}

// New creates a Fixture based on the provided configuration.
func New(cfg Config) (Fixture, error) {
	if cfg.Pin == nil {
		return &Noop{}, nil
	}

	var activeHigh bool
	switch cfg.Type {
	case "gpio_high":
		activeHigh = true
	case "gpio_low":
		activeHigh = false
	default:
		return &Noop{}, nil
	}

	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	hw.PinMode(uint8(*cfg.Pin), govattu.ALToutput)

	return NewGPIO(hw, uint8(*cfg.Pin), activeHigh, time.Duration(cfg.SettleMs)*time.Millisecond), nil
}

// Noop implements Fixture but does nothing.
// Used when the station has no fixture.
type Noop struct{}

// Engage implements Fixture.Engage.
func (n *Noop) Engage() error { return nil }

// Disengage implements Fixture.Disengage.
func (n *Noop) Disengage() error { return nil }

// Release implements Fixture.Release.
func (n *Noop) Release() error { return nil }
