package payload

import "testing"

func TestSniff_PDF(t *testing.T) {
	if got := sniff([]byte("%PDF-1.4\n...")); got != FormatPDF {
		t.Errorf("sniff() = %v, want FormatPDF", got)
	}
}

func TestSniff_AFP(t *testing.T) {
	// 0x5A, length=0x0008 (big-endian), 3-byte id, 1 flag, 2 reserved.
	data := []byte{0x5A, 0x00, 0x08, 0xD3, 0xA8, 0xA8, 0x00, 0x00, 0x00}
	if got := sniff(data); got != FormatAFP {
		t.Errorf("sniff() = %v, want FormatAFP", got)
	}
}

func TestSniff_None(t *testing.T) {
	if got := sniff([]byte("not a known format")); got != FormatNone {
		t.Errorf("sniff() = %v, want FormatNone", got)
	}
}

func TestSniff_ImplausibleAFPLength(t *testing.T) {
	data := []byte{0x5A, 0xFF, 0xFF, 0x00}
	if got := sniff(data); got != FormatNone {
		t.Errorf("sniff() = %v, want FormatNone for implausible length", got)
	}
}
