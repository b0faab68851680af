package entry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gostation/barcode"
)

var (
	ErrNoInput  = errors.New("entry: input provider is required")
	ErrNoFilter = errors.New("entry: input filter is required")
	ErrNoLogger = errors.New("entry: logger is required")
)

// Input supplies one line of operator data per prompt.
// ReadLine blocks until a line is available or ctx is done.
type Input interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// InputFunc adapts a blocking prompt function to the Input interface.
type InputFunc func(prompt string) (string, error)

// ReadLine implements Input. ctx is not consulted; the function is expected
// to return once the operator answers.
func (f InputFunc) ReadLine(_ context.Context, prompt string) (string, error) {
	return f(prompt)
}

// Logger receives progress messages. Debug is for internal detail, Print
// is shown to the operator.
type Logger interface {
	Debug(msg string)
	Print(msg string)
}

type discard struct{}

func (discard) Debug(string) {}
func (discard) Print(string) {}

// Discard is a Logger that drops every message.
var Discard Logger = discard{}

// Entry is the result of a single-value flow. When Filter is not FilterNone
// the flow was interrupted by a command and every other field is zero.
type Entry struct {
	Filter    FilterResult
	Value     string
	IsBarcode bool

	// Code is barcode.UnknownPartNumber when DUTPNEntry decoded a label for
	// a part that is not accepted; Match then holds the decoded fields.
	Code  barcode.Code
	Match barcode.Match
}

// Interrupted reports whether a command ended the flow.
func (e Entry) Interrupted() bool {
	return e.Filter != FilterNone
}

// Label is the result of DUTLabelSNPIN.
type Label struct {
	Filter       FilterResult
	SerialNumber string
	PIN          string
	IsBarcode    bool
}

// Interrupted reports whether a command ended the flow.
func (l Label) Interrupted() bool {
	return l.Filter != FilterNone
}

// Controller runs the prompt/validate/retry loop for each field and owns the
// Session. It is not safe for concurrent use.
type Controller struct {
	in      Input
	filter  Filter
	log     Logger
	cfg     Config
	session Session
}

// New creates a Controller. Every collaborator is required.
func New(in Input, filter Filter, log Logger, cfg Config) (*Controller, error) {
	if in == nil {
		return nil, ErrNoInput
	}
	if filter == nil {
		return nil, ErrNoFilter
	}
	if log == nil {
		return nil, ErrNoLogger
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("entry config: %w", err)
	}
	return &Controller{
		in:     in,
		filter: filter,
		log:    log,
		cfg:    cfg.withDefaults(),
	}, nil
}

// Session returns a copy of the accumulated session state.
func (c *Controller) Session() Session {
	return c.session
}

// Config returns the effective configuration, defaults included.
func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) read(ctx context.Context, field, prompt string) (string, error) {
	line, err := c.in.ReadLine(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", field, err)
	}
	return strings.TrimSpace(line), nil
}

func (c *Controller) check(line string, allowSignOff bool) FilterResult {
	return c.filter.FilterInput(c.session, line, allowSignOff)
}

// OperatorSignOn asks for the operator ID. The sign-off command is not
// accepted here.
func (c *Controller) OperatorSignOn(ctx context.Context) (Entry, error) {
	field := c.cfg.OperatorField
	for {
		id, err := c.read(ctx, field, fmt.Sprintf("Enter %s: ", field))
		if err != nil {
			return Entry{}, err
		}
		if id == "" {
			c.log.Print(fmt.Sprintf("  %s not recognized. Do not enter spaces.", field))
			continue
		}
		c.log.Debug(fmt.Sprintf("got user entry: %q", id))

		if filt := c.check(id, false); filt != FilterNone {
			return Entry{Filter: filt}, nil
		}
		if strings.ContainsAny(id, " \t") {
			c.log.Print(fmt.Sprintf("  %s %q not recognized. Do not enter spaces.", field, id))
			continue
		}

		c.session.OperatorID = id
		return Entry{Value: id}, nil
	}
}

// OperatorLotNum asks for the lot number. An empty answer keeps the current
// lot number when one is already set.
func (c *Controller) OperatorLotNum(ctx context.Context) (Entry, error) {
	field := c.cfg.LotField
	for {
		prompt := fmt.Sprintf("Enter the %s: ", field)
		if c.session.LotNumber != "" {
			prompt = fmt.Sprintf("Enter the %s or press ENTER to use the current one (%s): ", field, c.session.LotNumber)
		}

		lot, err := c.read(ctx, field, prompt)
		if err != nil {
			return Entry{}, err
		}

		if lot == "" {
			if c.session.LotNumber == "" {
				continue
			}
			return Entry{Value: c.session.LotNumber}, nil
		}

		if filt := c.check(lot, true); filt != FilterNone {
			return Entry{Filter: filt}, nil
		}

		if !c.validLot(lot) {
			c.log.Print(fmt.Sprintf("Given %s %q is not valid, please give a %s %s.", field, lot, c.cfg.lotShape(), field))
			continue
		}

		c.session.LotNumber = lot
		return Entry{Value: lot}, nil
	}
}

func (c *Controller) validLot(lot string) bool {
	if c.cfg.LotLength > 0 && utf8.RuneCountInString(lot) != c.cfg.LotLength {
		return false
	}
	if c.cfg.LotDigitsOnly {
		for _, r := range lot {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// OperatorInfo describes the operator, defaulting to the signed-on one.
func (c *Controller) OperatorInfo(operatorID string) string {
	if operatorID == "" {
		operatorID = c.session.OperatorID
	}
	return fmt.Sprintf("%s %s", c.cfg.OperatorField, operatorID)
}

// DUTInfo describes a DUT, defaulting to the last identified one.
func (c *Controller) DUTInfo(dutID string) string {
	if dutID == "" {
		dutID = c.session.DUTID
	}
	return fmt.Sprintf("%s %s", c.cfg.DUTField, dutID)
}
