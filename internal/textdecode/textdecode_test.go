package textdecode

import (
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		Name   string
		Input  string
		Output string
	}{
		{"ip-route", "default via 192.168.1.1 dev eth0\n100.64.0.0/10 dev wt0\n", "default via 192.168.1.1 dev eth0\n100.64.0.0/10 dev wt0\n"},
		{"route-print-crlf", "IPv4 Route Table\r\n====\r\n", "IPv4 Route Table\n====\n"},
		{"bare-cr", "line1\rline2\r", "line1\nline2\n"},
		{"utf8", "接続: wt0 ✓", "接続: wt0 ✓"},
		{"utf8-bom", "\xEF\xBB\xBFName : NetBird", "Name : NetBird"},
		{"powershell-utf16le", "\xFF\xFEw\x00t\x000\x00\r\x00\n\x00", "wt0\n"},
		{"utf16be", "\xFE\xFF\x00o\x00k", "ok"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			output, err := Bytes([]byte(tt.Input))
			if err != nil {
				t.Fatalf("failed to decode %#v: %s", tt.Input, err)
			}
			if output != tt.Output {
				t.Errorf("expected %#v but got %#v", tt.Output, output)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	utf16le := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	tests := []struct {
		Name     string
		Input    string
		Rest     string
		Encoding encoding.Encoding
	}{
		{"plain", "netbird status", "netbird status", unicode.UTF8},
		{"utf8-bom", "\xEF\xBB\xBFok", "ok", unicode.UTF8},
		{"utf16le-bom", "\xFF\xFEo\x00", "o\x00", utf16le},
		{"invalid-utf8", "caf\xE9", "caf\xE9", localeEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			rest, enc := detect([]byte(tt.Input))
			if string(rest) != tt.Rest {
				t.Errorf("expected rest %q but got %q", tt.Rest, rest)
			}
			if enc != tt.Encoding {
				t.Errorf("expected %v but got %v", tt.Encoding, enc)
			}
		})
	}
}
