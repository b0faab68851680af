package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPCBAPNSN(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		prefix string
		want   Match
	}{
		{
			name:  "revision and S/N colon",
			value: "10.00001-02 SN:0002",
			want:  Match{Code: OK, PartNumber: "10.00001", Revision: "02", SerialNumber: "0002"},
		},
		{
			name:  "no revision",
			value: "10.00001 SN 0123",
			want:  Match{Code: OK, PartNumber: "10.00001", Revision: "", SerialNumber: "0123"},
		},
		{
			name:  "slash prefix lower case",
			value: "  10.00001-7 s/n:55 ",
			want:  Match{Code: OK, PartNumber: "10.00001", Revision: "7", SerialNumber: "55"},
		},
		{
			name:  "no separator spaces",
			value: "10.2SN9",
			want:  Match{Code: OK, PartNumber: "10.2", SerialNumber: "9"},
		},
		{
			name:   "with part prefix",
			value:  "pn10.00001-02 SN:0002",
			prefix: "PN",
			want:   Match{Code: OK, PartNumber: "10.00001", Revision: "02", SerialNumber: "0002"},
		},
		{
			name:   "missing prefix",
			value:  "10.00001-02 SN:0002",
			prefix: "PN",
			want:   Match{Code: BarcodeFormat},
		},
		{
			name:  "not a barcode",
			value: "not-a-barcode",
			want:  Match{Code: BarcodeFormat},
		},
		{
			name:  "trailing garbage",
			value: "10.00001 SN 0123 x",
			want:  Match{Code: BarcodeFormat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PCBAPNSN(tt.value, tt.prefix))
		})
	}
}

func TestPCBAPNSNCustomSNPrefix(t *testing.T) {
	m := PCBAPNSN("10.00001 SER#42", "", "ser#")
	assert.Equal(t, Match{Code: OK, PartNumber: "10.00001", SerialNumber: "42"}, m)

	m = PCBAPNSN("10.00001 SN 42", "", "ser#")
	assert.Equal(t, BarcodeFormat, m.Code)
}

func TestDUT(t *testing.T) {
	allowed := []string{"10.00001"}

	m := DUT("10.00001-02 SN:0002", "", allowed)
	assert.Equal(t, OK, m.Code)

	m = DUT("10.00002-02 SN:0002", "", allowed)
	assert.Equal(t, UnknownPartNumber, m.Code)
	assert.Equal(t, "10.00002", m.PartNumber)
	assert.Equal(t, "0002", m.SerialNumber)

	m = DUT("garbage", "", allowed)
	assert.Equal(t, BarcodeFormat, m.Code)

	m = DUT("10.00009 SN 1", "", nil)
	assert.Equal(t, OK, m.Code)
}

func TestSerialLabel(t *testing.T) {
	m := SerialLabel("B8:27:EB:0a:1b:2C")
	assert.Equal(t, Match{Code: OK, SerialNumber: "b8:27:eb:0a:1b:2c"}, m)

	for _, bad := range []string{"b8:27:eb:0a:1b", "b8-27-eb-0a-1b-2c", "b8:27:eb:0a:1b:2g", "xb8:27:eb:0a:1b:2c"} {
		assert.Equal(t, BarcodeFormat, SerialLabel(bad).Code, bad)
	}
}

func TestSerialPINLabel(t *testing.T) {
	m := SerialPINLabel("12345678 4321")
	assert.Equal(t, Match{Code: OK, SerialNumber: "12345678", PIN: "4321"}, m)

	for _, bad := range []string{"1234567 4321", "12345678  4321", "12345678 432", "123456789 4321", "12345678"} {
		assert.Equal(t, BarcodeFormat, SerialPINLabel(bad).Code, bad)
	}
}

func TestFormatID(t *testing.T) {
	m := Match{PartNumber: "10.00001", Revision: "02", SerialNumber: "0002"}
	assert.Equal(t, "10.00001-v02-SN0002", FormatID("", m))
	assert.Equal(t, "0002@10.00001", FormatID("{sn}@{pn}", m))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "barcode_format", BarcodeFormat.String())
	assert.Equal(t, "unknown_part_number", UnknownPartNumber.String())
	assert.Equal(t, "code(42)", Code(42).String())
}
