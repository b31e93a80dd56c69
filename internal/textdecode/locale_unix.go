//go:build !windows

package textdecode

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// localeEncoding on Unix is UTF-8. Invalid sequences become U+FFFD.
var localeEncoding encoding.Encoding = unicode.UTF8
