// Package csv encodes resolved ad records as CSV files.
package csv

import (
	"bytes"
	"strings"

	"github.com/fwojciec/adsift"
)

// Header is the fixed first row of every export.
var Header = []string{"Headline", "Image", "Destination"}

var _ adsift.Encoder = (*Encoder)(nil)

// Encoder writes one row per record with every field quoted. Line breaks
// inside a field are collapsed to a single space so that each record
// occupies exactly one line.
type Encoder struct{}

// NewEncoder returns a CSV Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode returns the header row followed by one row per record.
func (e *Encoder) Encode(records []adsift.ResolvedAdRecord) ([]byte, error) {
	var buf bytes.Buffer
	writeRow(&buf, Header)
	for _, r := range records {
		writeRow(&buf, []string{r.Headline, r.Image, r.Destination})
	}
	return buf.Bytes(), nil
}

// Ext returns "csv".
func (e *Encoder) Ext() string {
	return "csv"
}

func writeRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(Escape(f))
	}
	buf.WriteByte('\n')
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Escape quotes a single field: CR/LF sequences become one space, embedded
// quotes are doubled and the result is wrapped in double quotes.
func Escape(s string) string {
	s = lineBreaks.Replace(s)
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
