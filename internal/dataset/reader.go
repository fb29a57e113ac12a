package dataset

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

// utf8BOM is prepended by Excel and other Windows tools to UTF-8 exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// sanitize replaces invalid UTF-8 sequences with U+FFFD so legacy
// Latin-1 exports still load.
func sanitize(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}
