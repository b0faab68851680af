package indicator

import "errors"

// Multi fans every state change out to several indicators.
type Multi struct {
	indicators []Indicator
}

func (m *Multi) each(fn func(Indicator)) {
	for _, ind := range m.indicators {
		fn(ind)
	}
}

// Idle implements Indicator.Idle.
func (m *Multi) Idle() { m.each(Indicator.Idle) }

// Busy implements Indicator.Busy.
func (m *Multi) Busy() { m.each(Indicator.Busy) }

// Pass implements Indicator.Pass.
func (m *Multi) Pass() { m.each(Indicator.Pass) }

// Fail implements Indicator.Fail.
func (m *Multi) Fail() { m.each(Indicator.Fail) }

// Alert implements Indicator.Alert.
func (m *Multi) Alert() { m.each(Indicator.Alert) }

// Shutdown implements Indicator.Shutdown.
func (m *Multi) Shutdown() { m.each(Indicator.Shutdown) }

// Release implements Indicator.Release.
func (m *Multi) Release() error {
	var errs []error
	for _, ind := range m.indicators {
		if err := ind.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
