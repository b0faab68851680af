package entry

import (
	"errors"
	"fmt"
	"strings"

	"gostation/barcode"
)

// Config holds the validation constraints and display names used by the
// Controller.
type Config struct {
	// LotLength, when positive, is the exact number of characters a lot
	// number must have.
	LotLength     int  `yaml:"lot_length"`
	LotDigitsOnly bool `yaml:"lot_digits_only"`

	OperatorField string `yaml:"operator_field"`
	DUTField      string `yaml:"dut_field"`
	LotField      string `yaml:"lot_field"`

	PartNumberPrefix     string   `yaml:"part_number_prefix"`
	AllowedPartNumbers   []string `yaml:"allowed_part_numbers"`
	SerialNumberPrefixes []string `yaml:"serial_number_prefixes"`

	// DataFormat renders a scanned board label into a DUT identifier.
	// See barcode.FormatID.
	DataFormat string `yaml:"data_format"`

	// UnknownPartFallthrough makes DUTPNEntry treat a well-formed label for
	// a part outside AllowedPartNumbers as manual input instead of
	// returning barcode.UnknownPartNumber.
	UnknownPartFallthrough bool `yaml:"unknown_part_fallthrough"`
}

var errLotLength = errors.New("lot_length must not be negative")

// withDefaults returns a copy of c with display names and formats filled in.
func (c Config) withDefaults() Config {
	if c.OperatorField == "" {
		c.OperatorField = "operator ID"
	}
	if c.DUTField == "" {
		c.DUTField = "device serial number"
	}
	if c.LotField == "" {
		c.LotField = "LOT Number"
	}
	if len(c.SerialNumberPrefixes) == 0 {
		c.SerialNumberPrefixes = barcode.DefaultSNPrefixes
	}
	if c.DataFormat == "" {
		c.DataFormat = barcode.DefaultFormat
	}
	return c
}

// Validate reports configuration that would make a flow unusable.
func (c Config) Validate() error {
	if c.LotLength < 0 {
		return errLotLength
	}
	for _, pn := range c.AllowedPartNumbers {
		if strings.TrimSpace(pn) == "" {
			return fmt.Errorf("allowed_part_numbers: empty entry")
		}
	}
	for _, p := range c.SerialNumberPrefixes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("serial_number_prefixes: empty entry")
		}
	}
	return nil
}

// lotShape describes the lot number the operator is expected to enter,
// e.g. "5-digit" or "letter".
func (c Config) lotShape() string {
	kind := "letter"
	if c.LotDigitsOnly {
		kind = "digit"
	}
	if c.LotLength > 0 {
		return fmt.Sprintf("%d-%s", c.LotLength, kind)
	}
	return kind
}
