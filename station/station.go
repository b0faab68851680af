package station

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gostation/barcode"
	"gostation/entry"
	"gostation/fixture"
	"gostation/indicator"
	"gostation/metrics"
	"gostation/mqtt"
)

// Mode selects how DUTs are identified.
type Mode string

const (
	ModePN     Mode = "pn"     // board label: part number, revision, serial number
	ModeSNPIN  Mode = "sn_pin" // serial label: serial number and PIN
	ModeSerial Mode = "serial" // serial label with a MAC address
	ModeNoQR   Mode = "no_qr"  // no label, the operator connects the DUT and hits Enter
)

// ErrNoController is returned by New without a data-entry controller.
var ErrNoController = errors.New("station: controller is required")

// Config holds the station loop settings.
type Config struct {
	Mode        Mode         `yaml:"mode"`
	TestDelayMs int          `yaml:"test_delay_ms"` // DummyTester run time
	Commands    FilterConfig `yaml:"commands"`
}

// Publisher sends station events.
type Publisher interface {
	PublishEvent(ev mqtt.Event) error
}

// Handlers are called after the loop ends on a reboot or shutdown command.
type Handlers struct {
	Reboot   func() error
	Shutdown func() error
}

// Options holds the station's collaborators. Nil fields get a no-op.
type Options struct {
	Tester    Tester
	Indicator indicator.Indicator
	Fixture   fixture.Fixture
	Events    Publisher
	History   entry.Logger
	Handlers  Handlers
}

type noEvents struct{}

func (noEvents) PublishEvent(mqtt.Event) error { return nil }

// Station runs the sign-on, lot, DUT and test sequence.
type Station struct {
	ctrl    *entry.Controller
	out     entry.Logger
	mode    Mode
	opts    Options
	session string // id of the current sign-on
	units   int    // DUTs identified in this sign-on
}

// New creates a Station around ctrl. out receives operator messages.
func New(ctrl *entry.Controller, out entry.Logger, cfg Config, opts Options) (*Station, error) {
	if ctrl == nil {
		return nil, ErrNoController
	}
	mode := cfg.Mode
	switch mode {
	case "":
		mode = ModePN
	case ModePN, ModeSNPIN, ModeSerial, ModeNoQR:
	default:
		return nil, fmt.Errorf("station: unknown mode %q", mode)
	}

	if out == nil {
		out = entry.Discard
	}
	if opts.Tester == nil {
		opts.Tester = DummyTester{Delay: time.Duration(cfg.TestDelayMs) * time.Millisecond}
	}
	if opts.Indicator == nil {
		opts.Indicator = &indicator.Noop{}
	}
	if opts.Fixture == nil {
		opts.Fixture = &fixture.Noop{}
	}
	if opts.Events == nil {
		opts.Events = noEvents{}
	}
	if opts.History == nil {
		opts.History = entry.Discard
	}

	return &Station{ctrl: ctrl, out: out, mode: mode, opts: opts}, nil
}

// Run drives the station until a quit, reboot or shutdown command, or an
// input error. The tester's Post always runs, and the matching handler is
// called for reboot and shutdown.
func (s *Station) Run(ctx context.Context) (res entry.FilterResult, err error) {
	if err := s.opts.Tester.Pre(ctx); err != nil {
		return entry.FilterNone, fmt.Errorf("tester pre: %w", err)
	}

	res, err = s.run(ctx)

	if perr := s.opts.Tester.Post(ctx); perr != nil && err == nil {
		err = fmt.Errorf("tester post: %w", perr)
	}
	if err != nil {
		return res, err
	}

	if res != entry.FilterNone {
		s.publish(mqtt.Event{Kind: mqtt.KindCommand, Detail: res.String()})
	}
	var hook func() error
	switch res {
	case entry.FilterReboot:
		hook = s.opts.Handlers.Reboot
	case entry.FilterShutdown:
		hook = s.opts.Handlers.Shutdown
	}
	if hook != nil {
		if err := hook(); err != nil {
			return res, fmt.Errorf("%s: %w", res, err)
		}
	}
	return res, nil
}

func (s *Station) run(ctx context.Context) (entry.FilterResult, error) {
	for {
		res, err := s.signOn(ctx)
		if err != nil || res != entry.FilterNone {
			return res, err
		}

		res, err = s.lot(ctx)
		if err == nil && res == entry.FilterNone {
			res, err = s.testLoop(ctx)
		}
		if err != nil {
			return res, err
		}
		if res != entry.FilterSignOff {
			return res, nil
		}
		s.signOff()
	}
}

func (s *Station) signOn(ctx context.Context) (entry.FilterResult, error) {
	s.opts.Indicator.Idle()
	e, err := s.ctrl.OperatorSignOn(ctx)
	if err != nil || e.Interrupted() {
		return e.Filter, err
	}

	s.session = uuid.NewString()
	s.units = 0
	metrics.SignOnsTotal.Inc()
	s.opts.History.Print(fmt.Sprintf("Signed on %s", s.ctrl.OperatorInfo("")))
	s.publish(mqtt.Event{Kind: mqtt.KindSignOn})
	return entry.FilterNone, nil
}

func (s *Station) signOff() {
	s.opts.History.Print(fmt.Sprintf("Signed off %s", s.ctrl.OperatorInfo("")))
	s.publish(mqtt.Event{Kind: mqtt.KindSignOff})
}

func (s *Station) lot(ctx context.Context) (entry.FilterResult, error) {
	e, err := s.ctrl.OperatorLotNum(ctx)
	if err != nil || e.Interrupted() {
		return e.Filter, err
	}
	s.publish(mqtt.Event{Kind: mqtt.KindLot})
	return entry.FilterNone, nil
}

func (s *Station) testLoop(ctx context.Context) (entry.FilterResult, error) {
	for {
		s.opts.Indicator.Idle()
		dut, res, err := s.identify(ctx)
		if err != nil || res != entry.FilterNone {
			return res, err
		}
		if dut == nil {
			continue
		}
		if err := s.test(ctx, *dut); err != nil {
			return entry.FilterNone, err
		}
	}
}

// identify reads one DUT in the configured mode. A nil DUT without a
// command means the scan was rejected.
func (s *Station) identify(ctx context.Context) (*DUT, entry.FilterResult, error) {
	switch s.mode {
	case ModeSNPIN:
		l, err := s.ctrl.DUTLabelSNPIN(ctx, "")
		if err != nil || l.Interrupted() {
			return nil, l.Filter, err
		}
		decoded(barcode.OK)
		return &DUT{ID: l.SerialNumber, SerialNumber: l.SerialNumber, PIN: l.PIN, IsBarcode: true}, entry.FilterNone, nil

	case ModeNoQR:
		e, err := s.ctrl.DUTConnectNoQR(ctx)
		if err != nil || e.Interrupted() {
			return nil, e.Filter, err
		}
		s.units++
		return &DUT{ID: strconv.Itoa(s.units)}, entry.FilterNone, nil
	}

	var e entry.Entry
	var err error
	if s.mode == ModeSerial {
		e, err = s.ctrl.DUTSerialLabel(ctx)
	} else {
		e, err = s.ctrl.DUTPNEntry(ctx)
	}
	if err != nil || e.Interrupted() {
		return nil, e.Filter, err
	}
	if e.IsBarcode {
		decoded(e.Code)
	} else {
		decoded(barcode.BarcodeFormat)
	}

	if e.Code == barcode.UnknownPartNumber {
		s.opts.Indicator.Alert()
		s.publish(mqtt.Event{
			Kind:   mqtt.KindRejected,
			Result: e.Code.String(),
			Detail: s.ctrl.Config().PartNumberPrefix + e.Match.PartNumber,
		})
		return nil, entry.FilterNone, nil
	}

	s.units++
	return &DUT{
		ID:           e.Value,
		SerialNumber: e.Match.SerialNumber,
		IsBarcode:    e.IsBarcode,
		Match:        e.Match,
	}, entry.FilterNone, nil
}

func decoded(code barcode.Code) {
	metrics.BarcodeDecodesTotal.WithLabelValues(code.String()).Inc()
}

func (s *Station) test(ctx context.Context, dut DUT) error {
	info := s.ctrl.DUTInfo(dut.ID)

	s.opts.Indicator.Busy()
	s.out.Print(fmt.Sprintf("\nTesting %s", info))
	s.publish(mqtt.Event{Kind: mqtt.KindTestStarted, DUT: dut.ID})

	start := time.Now()
	passed, err := s.runTest(ctx, dut)
	metrics.TestDuration.Observe(time.Since(start).Seconds())
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("test %s: %w", dut.ID, err)
	}

	result := "fail"
	if passed {
		result = "pass"
		s.opts.Indicator.Pass()
	} else {
		s.opts.Indicator.Fail()
	}

	s.out.Print(fmt.Sprintf("\nDone testing %s\nresult: %s\n", info, result))
	s.opts.History.Print(fmt.Sprintf("%s result: %s", info, result))
	s.publish(mqtt.Event{Kind: mqtt.KindTestResult, DUT: dut.ID, Result: result})
	metrics.DUTTestsTotal.WithLabelValues(result).Inc()
	return nil
}

// runTest runs the tester with the fixture engaged. Fixture and tester
// failures fail the DUT.
func (s *Station) runTest(ctx context.Context, dut DUT) (bool, error) {
	if err := s.opts.Fixture.Engage(); err != nil {
		log.Error().Err(err).Str("dut", dut.ID).Msg("Engage fixture")
		s.opts.Fixture.Disengage()
		return false, err
	}
	defer func() {
		if err := s.opts.Fixture.Disengage(); err != nil {
			log.Error().Err(err).Str("dut", dut.ID).Msg("Disengage fixture")
		}
	}()

	passed, err := s.opts.Tester.Run(ctx, dut)
	if err != nil {
		log.Error().Err(err).Str("dut", dut.ID).Msg("Test run")
		return false, err
	}
	return passed, nil
}

func (s *Station) publish(ev mqtt.Event) {
	session := s.ctrl.Session()
	ev.Session = s.session
	ev.Operator = session.OperatorID
	ev.Lot = session.LotNumber
	if err := s.opts.Events.PublishEvent(ev); err != nil {
		log.Warn().Err(err).Str("kind", ev.Kind).Msg("Publish event")
	}
}
