package csv

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// stripBOM returns a reader that drops a leading UTF-8 byte order mark and
// decodes UTF-16 input that starts with a BOM into UTF-8. Input without a
// BOM passes through unchanged.
func stripBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}
