package station

import (
	"context"
	"time"

	"gostation/barcode"
)

// DUT is an identified device under test.
type DUT struct {
	ID           string
	SerialNumber string
	PIN          string
	IsBarcode    bool
	Match        barcode.Match
}

// Tester runs the actual test. Pre runs once before the first sign-on and
// Post once when the station stops, whatever the reason.
type Tester interface {
	Pre(ctx context.Context) error
	Run(ctx context.Context, dut DUT) (bool, error)
	Post(ctx context.Context) error
}

// DummyTester stands in for a real test: it waits Delay and passes when the
// DUT id ends in an odd digit.
type DummyTester struct {
	Delay time.Duration
}

// Pre implements Tester.Pre.
func (d DummyTester) Pre(context.Context) error { return nil }

// Post implements Tester.Post.
func (d DummyTester) Post(context.Context) error { return nil }

// Run implements Tester.Run.
func (d DummyTester) Run(ctx context.Context, dut DUT) (bool, error) {
	if dut.ID == "" {
		return false, nil
	}
	if d.Delay > 0 {
		t := time.NewTimer(d.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	switch dut.ID[len(dut.ID)-1] {
	case '1', '3', '5', '7', '9':
		return true, nil
	}
	return false, nil
}
