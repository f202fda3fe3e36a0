// Package xlsx encodes resolved ad records as Excel workbooks.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/csv"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the records are written to.
const SheetName = "Sheet1"

var _ adsift.Encoder = (*Encoder)(nil)

// Encoder writes records to a single worksheet using the same columns as
// the CSV export.
type Encoder struct{}

// NewEncoder returns an xlsx Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode returns the workbook bytes.
func (e *Encoder) Encode(records []adsift.ResolvedAdRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, csv.Header); err != nil {
		return nil, err
	}
	for i, r := range records {
		if err := setRow(f, i+2, []string{r.Headline, r.Image, r.Destination}); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Ext returns "xlsx".
func (e *Encoder) Ext() string {
	return "xlsx"
}

func setRow(f *excelize.File, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, v); err != nil {
			return fmt.Errorf("setting cell %s: %w", cell, err)
		}
	}
	return nil
}
