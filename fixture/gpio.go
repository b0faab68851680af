package fixture

import "time"

// Pins is the part of the GPIO driver the fixture uses.
type Pins interface {
	PinSet(pin uint8)
	PinClear(pin uint8)
	Close() error
}

// GPIO implements Fixture with a single relay pin.
type GPIO struct {
	hw         Pins
	pin        uint8
	activeHigh bool // true = set pin high to engage
	settle     time.Duration
	sleep      func(time.Duration)
}

// NewGPIO creates a GPIO fixture and puts it in the disengaged state.
func NewGPIO(hw Pins, pin uint8, activeHigh bool, settle time.Duration) *GPIO {
	g := &GPIO{
		hw:         hw,
		pin:        pin,
		activeHigh: activeHigh,
		settle:     settle,
		sleep:      time.Sleep,
	}
	g.Disengage()
	return g
}

// Engage implements Fixture.Engage.
func (g *GPIO) Engage() error {
	g.drive(g.activeHigh)
	if g.settle > 0 {
		g.sleep(g.settle)
	}
	return nil
}

// Disengage implements Fixture.Disengage.
func (g *GPIO) Disengage() error {
	g.drive(!g.activeHigh)
	return nil
}

// Release implements Fixture.Release.
func (g *GPIO) Release() error {
	g.Disengage()
	return g.hw.Close()
}

func (g *GPIO) drive(high bool) {
	if high {
		g.hw.PinSet(g.pin)
	} else {
		g.hw.PinClear(g.pin)
	}
}
