package indicator

// Indicator is the interface for station status lamps (LEDs, neopixels, etc).
type Indicator interface {
	// Idle shows the station is waiting for operator input.
	Idle()

	// Busy shows a DUT test is running.
	Busy()

	// Pass shows the last DUT passed.
	Pass()

	// Fail shows the last DUT failed.
	Fail()

	// Alert shows a scan was rejected (e.g. a part that is not accepted).
	Alert()

	// Shutdown sets the indicator to its stopped state.
	Shutdown()

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for indicator implementations.
type Config struct {
	// GPIO LED pins (nil = not configured)
	GreenPin  *uint8 `yaml:"green_pin"`
	YellowPin *uint8 `yaml:"yellow_pin"`
	RedPin    *uint8 `yaml:"red_pin"`

	// Neopixel pipe path (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`
}

// New creates an Indicator based on the provided configuration.
// Returns a Multi indicator if both GPIO and Neopixel are configured.
func New(cfg Config) (Indicator, error) {
	var indicators []Indicator

	if cfg.GreenPin != nil || cfg.YellowPin != nil || cfg.RedPin != nil {
		gpio, err := NewGPIO(cfg.GreenPin, cfg.YellowPin, cfg.RedPin)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, gpio)
	}

	if cfg.NeopixelPipe != "" {
		neo, err := NewNeopixel(cfg.NeopixelPipe)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, neo)
	}

	return Combine(indicators...), nil
}

// Combine merges indicators, returning Noop for none and the indicator
// itself for one.
func Combine(indicators ...Indicator) Indicator {
	switch len(indicators) {
	case 0:
		return &Noop{}
	case 1:
		return indicators[0]
	default:
		return &Multi{indicators: indicators}
	}
}
