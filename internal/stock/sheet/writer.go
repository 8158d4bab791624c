package sheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/xuri/excelize/v2"
)

// Write dumps records with one column per schema field, in schema order.
func Write(w io.Writer, format Format, schema model.Schema, records []model.Record) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, schema, records)
	case FormatCSV:
		return WriteCSV(w, schema, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func WriteXLSX(w io.Writer, schema model.Schema, records []model.Record) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(schema))
	for i, field := range schema {
		header[i] = field.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rec := range records {
		row := make([]interface{}, len(schema))
		for j, field := range schema {
			row[j] = cellValue(rec.Get(field.Name))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", rec.Key, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func WriteCSV(w io.Writer, schema model.Schema, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Names()); err != nil {
		return err
	}
	for _, rec := range records {
		row := make([]string, len(schema))
		for j, field := range schema {
			row[j] = rec.Get(field.Name).String()
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellValue(v model.Value) interface{} {
	switch v.Kind() {
	case model.KindInteger:
		n, _ := v.Int64()
		return n
	case model.KindText:
		return v.String()
	default:
		return nil
	}
}
