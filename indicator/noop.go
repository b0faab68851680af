package indicator

// Noop implements Indicator but does nothing.
// Used when no indicators are configured.
type Noop struct{}

// Idle implements Indicator.Idle.
func (n *Noop) Idle() {}

// Busy implements Indicator.Busy.
func (n *Noop) Busy() {}

// Pass implements Indicator.Pass.
func (n *Noop) Pass() {}

// Fail implements Indicator.Fail.
func (n *Noop) Fail() {}

// Alert implements Indicator.Alert.
func (n *Noop) Alert() {}

// Shutdown implements Indicator.Shutdown.
func (n *Noop) Shutdown() {}

// Release implements Indicator.Release.
func (n *Noop) Release() error {
	return nil
}
