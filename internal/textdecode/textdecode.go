// Package textdecode decodes the output of OS commands into UTF-8 strings.
//
// Windows tools like route, netstat and wevtutil write text in the console code page, and PowerShell may emit UTF-16 with a BOM.
package textdecode

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// byteOrderMarks are checked in order, so UTF-8 comes before the 2-byte marks.
var byteOrderMarks = []struct {
	Mark     []byte
	Encoding encoding.Encoding
}{
	{[]byte{0xEF, 0xBB, 0xBF}, unicode.UTF8},
	{[]byte{0xFF, 0xFE}, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{[]byte{0xFE, 0xFF}, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

// detect returns the encoding of b and the text without the BOM.
// Output without BOM is UTF-8 if it is valid as UTF-8, otherwise localeEncoding.
func detect(b []byte) ([]byte, encoding.Encoding) {
	for _, m := range byteOrderMarks {
		if bytes.HasPrefix(b, m.Mark) {
			return b[len(m.Mark):], m.Encoding
		}
	}
	if utf8.Valid(b) {
		return b, unicode.UTF8
	}
	return b, localeEncoding
}

// Bytes decodes command output to string with LF newlines.
func Bytes(b []byte) (string, error) {
	b, enc := detect(b)
	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return normalizeNewline(string(s)), nil
}

func normalizeNewline(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
