package barcode

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Code is the outcome of a decode attempt.
type Code int

const (
	OK Code = iota
	Cancel
	Retry
	BarcodeFormat
	UnknownPartNumber
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case Cancel:
		return "cancel"
	case Retry:
		return "retry"
	case BarcodeFormat:
		return "barcode_format"
	case UnknownPartNumber:
		return "unknown_part_number"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Match holds the fields extracted from a label.
// Fields the matching grammar does not produce are left empty.
type Match struct {
	Code         Code
	PartNumber   string
	Revision     string
	SerialNumber string
	PIN          string
}

// OK reports whether the decode succeeded.
func (m Match) OK() bool {
	return m.Code == OK
}

// DefaultSNPrefixes are the serial-number markers accepted on PCBA labels.
var DefaultSNPrefixes = []string{"SN", "S/N"}

var (
	macPattern    = regexp.MustCompile(`^([0-9A-F]{2}(?::[0-9A-F]{2}){5})$`)
	snPINPattern  = regexp.MustCompile(`^([0-9]{8}) ([0-9]{4})$`)
	pcbaPatternMu sync.Mutex
	pcbaPatterns  = map[string]*regexp.Regexp{}
)

func pcbaPattern(pnPrefix string, snPrefixes []string) *regexp.Regexp {
	if len(snPrefixes) == 0 {
		snPrefixes = DefaultSNPrefixes
	}
	quoted := make([]string, 0, len(snPrefixes))
	for _, p := range snPrefixes {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToUpper(p)))
	}
	expr := fmt.Sprintf(`^%s([0-9]+)[.]([0-9]+)(-[0-9]+)?[ ]*(%s)[:]?[ ]*([0-9]+)$`,
		regexp.QuoteMeta(strings.ToUpper(pnPrefix)), strings.Join(quoted, "|"))

	pcbaPatternMu.Lock()
	defer pcbaPatternMu.Unlock()
	if p, ok := pcbaPatterns[expr]; ok {
		return p
	}
	p := regexp.MustCompile(expr)
	pcbaPatterns[expr] = p
	return p
}

func normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// PCBAPNSN decodes a PCBA label of the form "dd.ddddd-dd S/N:0002" or
// "dd.ddddd SN 0123". The revision is optional.
func PCBAPNSN(value, pnPrefix string, snPrefixes ...string) Match {
	m := pcbaPattern(pnPrefix, snPrefixes).FindStringSubmatch(normalize(value))
	if m == nil {
		return Match{Code: BarcodeFormat}
	}
	return Match{
		Code:         OK,
		PartNumber:   m[1] + "." + m[2],
		Revision:     strings.TrimPrefix(m[3], "-"),
		SerialNumber: m[5],
	}
}

// DUT decodes a PCBA label and checks its part number against allowed.
// An empty allowed list accepts any part number.
func DUT(value, pnPrefix string, allowed []string, snPrefixes ...string) Match {
	m := PCBAPNSN(value, pnPrefix, snPrefixes...)
	if !m.OK() || len(allowed) == 0 {
		return m
	}
	for _, pn := range allowed {
		if pn == m.PartNumber {
			return m
		}
	}
	m.Code = UnknownPartNumber
	return m
}

// SerialLabel decodes a serial label carrying a colon separated MAC address.
func SerialLabel(value string) Match {
	m := macPattern.FindStringSubmatch(normalize(value))
	if m == nil {
		return Match{Code: BarcodeFormat}
	}
	return Match{Code: OK, SerialNumber: strings.ToLower(m[1])}
}

// SerialPINLabel decodes "SSSSSSSS PPPP": an 8 digit serial number and a
// 4 digit PIN separated by a single space.
func SerialPINLabel(value string) Match {
	m := snPINPattern.FindStringSubmatch(normalize(value))
	if m == nil {
		return Match{Code: BarcodeFormat}
	}
	return Match{
		Code:         OK,
		SerialNumber: strings.ToLower(m[1]),
		PIN:          strings.ToLower(m[2]),
	}
}

// DefaultFormat renders a decoded board label as a DUT identifier.
const DefaultFormat = "{pn}-v{rev}-SN{sn}"

// FormatID expands {pn}, {rev}, {sn} and {pin} in template.
func FormatID(template string, m Match) string {
	if template == "" {
		template = DefaultFormat
	}
	r := strings.NewReplacer(
		"{pn}", m.PartNumber,
		"{rev}", m.Revision,
		"{sn}", m.SerialNumber,
		"{pin}", m.PIN,
	)
	return r.Replace(template)
}
