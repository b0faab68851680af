package entry

import (
	"context"
	"fmt"
	"strings"

	"gostation/barcode"
)

// DUTConnectNoQR waits for the operator to connect the device and press
// Enter. Anything other than a command is ignored.
func (c *Controller) DUTConnectNoQR(ctx context.Context) (Entry, error) {
	line, err := c.read(ctx, c.cfg.DUTField, "Connect device and hit [Enter]: ")
	if err != nil {
		return Entry{}, err
	}
	if filt := c.check(line, true); filt != FilterNone {
		return Entry{Filter: filt}, nil
	}
	if line != "" {
		c.log.Debug(fmt.Sprintf("got user entry: %q, ignoring", line))
	}
	return Entry{}, nil
}

// DUTLabelSNPIN reads a serial label carrying "SERIAL PIN". It only returns
// on a command or a matching label; preMessage, if set, is shown before the
// prompt.
func (c *Controller) DUTLabelSNPIN(ctx context.Context, preMessage string) (Label, error) {
	prompt := "Scan barcode on device Serial Label, or enter \n  SERIAL NUMBER [space] PIN  \n and hit [Enter]: "
	if preMessage != "" {
		prompt = preMessage + " " + prompt
	}
	for {
		line, err := c.read(ctx, c.cfg.DUTField, prompt)
		if err != nil {
			return Label{}, err
		}
		if filt := c.check(line, true); filt != FilterNone {
			return Label{Filter: filt}, nil
		}

		m := barcode.SerialPINLabel(line)
		if !m.OK() {
			c.log.Debug(fmt.Sprintf("serial label %q: %s", line, m.Code))
			continue
		}
		c.log.Print(fmt.Sprintf("  Got serial label barcode: SN=%s, PIN=%s.", m.SerialNumber, m.PIN))
		c.session.DUTID = m.SerialNumber
		return Label{SerialNumber: m.SerialNumber, PIN: m.PIN, IsBarcode: true}, nil
	}
}

// DUTSerialLabel reads a serial label carrying a MAC address, or a serial
// number typed by hand.
func (c *Controller) DUTSerialLabel(ctx context.Context) (Entry, error) {
	for {
		line, err := c.read(ctx, c.cfg.DUTField, "Scan device serial label QR code or enter serial number and hit [Enter]: ")
		if err != nil {
			return Entry{}, err
		}
		if filt := c.check(line, true); filt != FilterNone {
			return Entry{Filter: filt}, nil
		}

		if m := barcode.SerialLabel(line); m.OK() {
			c.log.Print(fmt.Sprintf("  Got serial label barcode: SN=%s.", m.SerialNumber))
			c.session.DUTID = m.SerialNumber
			return Entry{Value: m.SerialNumber, IsBarcode: true, Match: m}, nil
		}

		if id, ok := c.manualID(line); ok {
			return Entry{Value: id}, nil
		}
	}
}

// DUTPNEntry reads a board label (part number, revision, serial number) or
// a DUT identifier typed by hand.
func (c *Controller) DUTPNEntry(ctx context.Context) (Entry, error) {
	prefix := c.cfg.PartNumberPrefix
	for {
		line, err := c.read(ctx, c.cfg.DUTField, fmt.Sprintf("Scan/Enter %s: ", c.cfg.DUTField))
		if err != nil {
			return Entry{}, err
		}
		if filt := c.check(line, true); filt != FilterNone {
			return Entry{Filter: filt}, nil
		}

		m := barcode.DUT(line, prefix, c.cfg.AllowedPartNumbers, c.cfg.SerialNumberPrefixes...)
		switch m.Code {
		case barcode.OK:
			c.log.Print(fmt.Sprintf("  Got board barcode: PN=%s%s Rev=%s SN=%s.", prefix, m.PartNumber, m.Revision, m.SerialNumber))
			id := barcode.FormatID(c.cfg.DataFormat, m)
			c.session.DUTID = id
			return Entry{Value: id, IsBarcode: true, Match: m}, nil
		case barcode.UnknownPartNumber:
			c.log.Print(fmt.Sprintf("  Part number %s%s is not an accepted part.", prefix, m.PartNumber))
			if !c.cfg.UnknownPartFallthrough {
				return Entry{Code: barcode.UnknownPartNumber, IsBarcode: true, Match: m}, nil
			}
		}

		if id, ok := c.manualID(line); ok {
			return Entry{Value: id}, nil
		}
	}
}

// manualID accepts a single whitespace-free token as the DUT identifier.
func (c *Controller) manualID(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) != 1 {
		c.log.Print(fmt.Sprintf("  %s %q not recognized. Do not enter spaces.", c.cfg.DUTField, line))
		return "", false
	}
	id := strings.ToLower(fields[0])
	c.log.Debug(fmt.Sprintf("got user entry: %q", id))
	c.session.DUTID = id
	return id, true
}
