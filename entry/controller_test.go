package entry

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostation/barcode"
)

// script feeds prepared lines and records the prompts it was given.
type script struct {
	lines   []string
	prompts []string
}

func (s *script) ReadLine(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *script) feed(lines ...string) {
	s.lines = append(s.lines, lines...)
}

type recorder struct {
	debug []string
	print []string
}

func (r *recorder) Debug(msg string) { r.debug = append(r.debug, msg) }
func (r *recorder) Print(msg string) { r.print = append(r.print, msg) }

// commands intercepts the usual reserved words and records what it saw.
type commands struct {
	seen     []string
	sessions []Session
}

func (f *commands) FilterInput(s Session, entry string, allowSignOff bool) FilterResult {
	f.seen = append(f.seen, entry)
	f.sessions = append(f.sessions, s)
	switch entry {
	case "quit":
		return FilterQuit
	case "reboot":
		return FilterReboot
	case "shutdown":
		return FilterShutdown
	case "signoff":
		if allowSignOff {
			return FilterSignOff
		}
	}
	return FilterNone
}

func newController(t *testing.T, cfg Config, lines ...string) (*Controller, *script, *recorder, *commands) {
	t.Helper()
	in := &script{lines: lines}
	log := &recorder{}
	filt := &commands{}
	c, err := New(in, filt, log, cfg)
	require.NoError(t, err)
	return c, in, log, filt
}

func TestNewRequiresCollaborators(t *testing.T) {
	in := &script{}
	filt := &commands{}

	_, err := New(nil, filt, Discard, Config{})
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = New(in, nil, Discard, Config{})
	assert.ErrorIs(t, err, ErrNoFilter)

	_, err = New(in, filt, nil, Config{})
	assert.ErrorIs(t, err, ErrNoLogger)

	_, err = New(in, filt, Discard, Config{LotLength: -1})
	assert.ErrorIs(t, err, errLotLength)

	_, err = New(in, filt, Discard, Config{AllowedPartNumbers: []string{"10.00001", " "}})
	assert.Error(t, err)

	assert.Empty(t, in.prompts)
}

func TestOperatorSignOn(t *testing.T) {
	c, in, log, _ := newController(t, Config{}, "", "   ", "jo hn", "  op42 ")

	e, err := c.OperatorSignOn(context.Background())
	require.NoError(t, err)
	assert.False(t, e.Interrupted())
	assert.Equal(t, "op42", e.Value)
	assert.Equal(t, "op42", c.Session().OperatorID)
	assert.Len(t, in.prompts, 4)
	assert.Equal(t, "Enter operator ID: ", in.prompts[0])
	assert.Len(t, log.print, 3)
	assert.Contains(t, log.print[0], "Do not enter spaces")
}

func TestOperatorSignOnRejectsSignOff(t *testing.T) {
	c, _, _, filt := newController(t, Config{}, "signoff")

	e, err := c.OperatorSignOn(context.Background())
	require.NoError(t, err)
	assert.False(t, e.Interrupted())
	assert.Equal(t, "signoff", e.Value)
	assert.Equal(t, []string{"signoff"}, filt.seen)
}

func TestOperatorLotNum(t *testing.T) {
	cfg := Config{LotLength: 5, LotDigitsOnly: true}
	c, in, log, _ := newController(t, cfg, "", "1234", "12a45", "12345")

	e, err := c.OperatorLotNum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12345", e.Value)
	assert.Equal(t, "12345", c.Session().LotNumber)
	assert.Len(t, in.prompts, 4)
	for _, p := range in.prompts {
		assert.Equal(t, "Enter the LOT Number: ", p)
	}
	require.Len(t, log.print, 2)
	assert.Equal(t, `Given LOT Number "1234" is not valid, please give a 5-digit LOT Number.`, log.print[0])

	in.feed("")
	e, err = c.OperatorLotNum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12345", e.Value)
	assert.Equal(t, "Enter the LOT Number or press ENTER to use the current one (12345): ", in.prompts[len(in.prompts)-1])
	assert.Len(t, in.prompts, 5)
}

func TestOperatorLotNumKeepsStoredLotOnBadInput(t *testing.T) {
	c, in, _, _ := newController(t, Config{LotLength: 5, LotDigitsOnly: true}, "12345")
	_, err := c.OperatorLotNum(context.Background())
	require.NoError(t, err)

	in.feed("99", "")
	e, err := c.OperatorLotNum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12345", e.Value)
	assert.Equal(t, "12345", c.Session().LotNumber)
}

func TestOperatorLotNumIdempotent(t *testing.T) {
	c, _, _, _ := newController(t, Config{}, "LOT-7", "LOT-7")

	first, err := c.OperatorLotNum(context.Background())
	require.NoError(t, err)
	second, err := c.OperatorLotNum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "LOT-7", c.Session().LotNumber)
}

func TestOperatorLotNumCountsCharacters(t *testing.T) {
	c, in, log, _ := newController(t, Config{LotLength: 5}, "ÄBCDE", "ÄBCDEF")

	e, err := c.OperatorLotNum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ÄBCDE", e.Value)
	assert.Equal(t, "ÄBCDE", c.Session().LotNumber)
	assert.Empty(t, log.print)
	assert.Len(t, in.prompts, 1)

	in.feed("ABCDE")
	e, err = c.OperatorLotNum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCDE", e.Value)
	require.Len(t, log.print, 1)
	assert.Equal(t, `Given LOT Number "ÄBCDEF" is not valid, please give a 5-letter LOT Number.`, log.print[0])
}

func TestOperatorLotNumShapeMessage(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{LotDigitsOnly: true}, `Given LOT Number "x" is not valid, please give a digit LOT Number.`},
		{Config{LotLength: 3}, `Given LOT Number "x" is not valid, please give a 3-letter LOT Number.`},
	}
	for _, tt := range tests {
		c, _, log, _ := newController(t, tt.cfg, "x", "123")
		_, err := c.OperatorLotNum(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, log.print)
		assert.Equal(t, tt.want, log.print[0])
	}
}

func TestFlowsIntercept(t *testing.T) {
	ctx := context.Background()
	flows := map[string]func(c *Controller) (FilterResult, error){
		"signon": func(c *Controller) (FilterResult, error) {
			e, err := c.OperatorSignOn(ctx)
			return e.Filter, err
		},
		"lot": func(c *Controller) (FilterResult, error) {
			e, err := c.OperatorLotNum(ctx)
			return e.Filter, err
		},
		"connect": func(c *Controller) (FilterResult, error) {
			e, err := c.DUTConnectNoQR(ctx)
			return e.Filter, err
		},
		"sn_pin": func(c *Controller) (FilterResult, error) {
			l, err := c.DUTLabelSNPIN(ctx, "")
			return l.Filter, err
		},
		"serial": func(c *Controller) (FilterResult, error) {
			e, err := c.DUTSerialLabel(ctx)
			return e.Filter, err
		},
		"pn": func(c *Controller) (FilterResult, error) {
			e, err := c.DUTPNEntry(ctx)
			return e.Filter, err
		},
	}
	tokens := map[string]FilterResult{
		"quit":     FilterQuit,
		"reboot":   FilterReboot,
		"shutdown": FilterShutdown,
	}

	for name, flow := range flows {
		for token, want := range tokens {
			t.Run(name+"/"+token, func(t *testing.T) {
				c, in, _, _ := newController(t, Config{}, token)
				got, err := flow(c)
				require.NoError(t, err)
				assert.Equal(t, want, got)
				assert.Equal(t, Session{}, c.Session())
				assert.Len(t, in.prompts, 1)
			})
		}
	}
}

func TestFlowsInterceptKeepsSession(t *testing.T) {
	ctx := context.Background()
	flows := map[string]func(c *Controller) (FilterResult, error){
		"lot": func(c *Controller) (FilterResult, error) {
			e, err := c.OperatorLotNum(ctx)
			return e.Filter, err
		},
		"sn_pin": func(c *Controller) (FilterResult, error) {
			l, err := c.DUTLabelSNPIN(ctx, "")
			return l.Filter, err
		},
		"serial": func(c *Controller) (FilterResult, error) {
			e, err := c.DUTSerialLabel(ctx)
			return e.Filter, err
		},
		"pn": func(c *Controller) (FilterResult, error) {
			e, err := c.DUTPNEntry(ctx)
			return e.Filter, err
		},
	}

	for name, flow := range flows {
		t.Run(name, func(t *testing.T) {
			c, in, _, _ := newController(t, Config{}, "op42", "12345", "dut7")
			_, err := c.OperatorSignOn(ctx)
			require.NoError(t, err)
			_, err = c.OperatorLotNum(ctx)
			require.NoError(t, err)
			_, err = c.DUTPNEntry(ctx)
			require.NoError(t, err)
			want := Session{OperatorID: "op42", LotNumber: "12345", DUTID: "dut7"}
			require.Equal(t, want, c.Session())

			in.feed("quit")
			got, err := flow(c)
			require.NoError(t, err)
			assert.Equal(t, FilterQuit, got)
			assert.Equal(t, want, c.Session())
		})
	}
}

func TestSignOffAllowedOutsideSignOn(t *testing.T) {
	c, _, _, _ := newController(t, Config{}, "signoff", "signoff", "signoff")
	ctx := context.Background()

	e, err := c.OperatorLotNum(ctx)
	require.NoError(t, err)
	assert.Equal(t, FilterSignOff, e.Filter)

	e, err = c.DUTPNEntry(ctx)
	require.NoError(t, err)
	assert.Equal(t, FilterSignOff, e.Filter)
	assert.Empty(t, e.Value)

	l, err := c.DUTLabelSNPIN(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, FilterSignOff, l.Filter)
}

func TestFilterSeesSessionCopy(t *testing.T) {
	c, _, _, filt := newController(t, Config{}, "op1", "lot1")
	ctx := context.Background()

	_, err := c.OperatorSignOn(ctx)
	require.NoError(t, err)
	_, err = c.OperatorLotNum(ctx)
	require.NoError(t, err)

	require.Len(t, filt.sessions, 2)
	assert.Equal(t, Session{}, filt.sessions[0])
	assert.Equal(t, Session{OperatorID: "op1"}, filt.sessions[1])
}

func TestDUTConnectNoQR(t *testing.T) {
	c, in, log, filt := newController(t, Config{}, "", "whatever")
	ctx := context.Background()

	e, err := c.DUTConnectNoQR(ctx)
	require.NoError(t, err)
	assert.Equal(t, Entry{}, e)

	e, err = c.DUTConnectNoQR(ctx)
	require.NoError(t, err)
	assert.Equal(t, Entry{}, e)

	assert.Equal(t, []string{"", "whatever"}, filt.seen)
	assert.Len(t, in.prompts, 2)
	assert.Len(t, log.debug, 1)
	assert.Empty(t, log.print)
}

func TestDUTLabelSNPIN(t *testing.T) {
	c, in, log, _ := newController(t, Config{}, "1234567 4321", "hello", "12345678 4321")

	l, err := c.DUTLabelSNPIN(context.Background(), "Test done.")
	require.NoError(t, err)
	assert.Equal(t, Label{SerialNumber: "12345678", PIN: "4321", IsBarcode: true}, l)
	assert.Len(t, in.prompts, 3)
	assert.Contains(t, in.prompts[0], "Test done. Scan barcode")
	assert.Equal(t, []string{"  Got serial label barcode: SN=12345678, PIN=4321."}, log.print)
	assert.Equal(t, "12345678", c.Session().DUTID)
}

func TestDUTSerialLabel(t *testing.T) {
	c, _, _, _ := newController(t, Config{}, "B8:27:EB:00:11:22")
	e, err := c.DUTSerialLabel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b8:27:eb:00:11:22", e.Value)
	assert.True(t, e.IsBarcode)

	c, _, log, _ := newController(t, Config{}, "a b", "SN-0042")
	e, err = c.DUTSerialLabel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sn-0042", e.Value)
	assert.False(t, e.IsBarcode)
	assert.Equal(t, "sn-0042", c.Session().DUTID)
	assert.Len(t, log.print, 1)
}

func TestDUTPNEntryBarcode(t *testing.T) {
	cfg := Config{AllowedPartNumbers: []string{"10.00001", "10.00002"}}
	c, _, log, _ := newController(t, cfg, "10.00001-02 S/N:0002")

	e, err := c.DUTPNEntry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.00001-v02-SN0002", e.Value)
	assert.True(t, e.IsBarcode)
	assert.Equal(t, barcode.OK, e.Code)
	assert.Equal(t, "0002", e.Match.SerialNumber)
	assert.Equal(t, []string{"  Got board barcode: PN=10.00001 Rev=02 SN=0002."}, log.print)
	assert.Equal(t, "10.00001-v02-SN0002", c.Session().DUTID)
}

func TestDUTPNEntryUnknownPart(t *testing.T) {
	cfg := Config{AllowedPartNumbers: []string{"10.00001"}}
	c, in, _, _ := newController(t, cfg, "10.00002-01 SN:0009")

	e, err := c.DUTPNEntry(context.Background())
	require.NoError(t, err)
	assert.False(t, e.Interrupted())
	assert.Equal(t, barcode.UnknownPartNumber, e.Code)
	assert.Equal(t, "10.00002", e.Match.PartNumber)
	assert.Empty(t, e.Value)
	assert.Empty(t, c.Session().DUTID)
	assert.Len(t, in.prompts, 1)
}

func TestDUTPNEntryUnknownPartFallthrough(t *testing.T) {
	cfg := Config{AllowedPartNumbers: []string{"10.00001"}, UnknownPartFallthrough: true}
	c, in, log, _ := newController(t, cfg, "10.00002-01 SN:0009", "board7")

	e, err := c.DUTPNEntry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "board7", e.Value)
	assert.False(t, e.IsBarcode)
	assert.Len(t, in.prompts, 2)
	assert.Len(t, log.print, 2)
}

func TestDUTPNEntryManual(t *testing.T) {
	c, in, log, _ := newController(t, Config{}, "", "two words", "ABC123")

	e, err := c.DUTPNEntry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Entry{Value: "abc123"}, e)
	assert.Len(t, in.prompts, 3)
	assert.Equal(t, "Scan/Enter device serial number: ", in.prompts[0])
	require.Len(t, log.print, 2)
	assert.Equal(t, `  device serial number "two words" not recognized. Do not enter spaces.`, log.print[1])
}

func TestInputErrorPropagates(t *testing.T) {
	c, _, _, _ := newController(t, Config{})

	_, err := c.OperatorSignOn(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	boom := errors.New("device gone")
	c, err = New(InputFunc(func(string) (string, error) { return "", boom }), &commands{}, Discard, Config{})
	require.NoError(t, err)
	_, err = c.DUTPNEntry(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Session{}, c.Session())
}

func TestInfo(t *testing.T) {
	c, _, _, _ := newController(t, Config{OperatorField: "badge"}, "op9", "dut3")
	ctx := context.Background()
	_, err := c.OperatorSignOn(ctx)
	require.NoError(t, err)
	_, err = c.DUTPNEntry(ctx)
	require.NoError(t, err)

	assert.Equal(t, "badge op9", c.OperatorInfo(""))
	assert.Equal(t, "badge x", c.OperatorInfo("x"))
	assert.Equal(t, "device serial number dut3", c.DUTInfo(""))
}

func TestFilterResultString(t *testing.T) {
	assert.Equal(t, "signoff", FilterSignOff.String())
	assert.Equal(t, "filter(9)", FilterResult(9).String())
}

func TestAdapters(t *testing.T) {
	var asked []string
	in := InputFunc(func(prompt string) (string, error) {
		asked = append(asked, prompt)
		return "Quit", nil
	})
	filt := FilterFunc(func(_ Session, entry string, _ bool) FilterResult {
		if entry == "Quit" {
			return FilterQuit
		}
		return FilterNone
	})

	c, err := New(in, filt, Discard, Config{})
	require.NoError(t, err)

	e, err := c.OperatorSignOn(context.Background())
	require.NoError(t, err)
	assert.True(t, e.Interrupted())
	assert.Equal(t, FilterQuit, e.Filter)
	assert.Equal(t, []string{"Enter operator ID: "}, asked)
}
