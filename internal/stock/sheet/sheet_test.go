package sheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testRecords() (model.Schema, []model.Record) {
	schema := model.Schema{
		{Name: model.FieldKey, Type: model.TypeText},
		{Name: model.FieldProduct, Type: model.TypeText},
		{Name: model.FieldQuantity, Type: model.TypeInteger},
		{Name: "warehouse_zone", Type: model.TypeText},
	}
	a1 := model.NewRecord("A1")
	a1.Fields[model.FieldProduct] = model.Text("Bolt")
	a1.Fields[model.FieldQuantity] = model.Int(5)
	a2 := model.NewRecord("A2")
	a2.Fields["warehouse_zone"] = model.Text("Z-9")
	return schema, []model.Record{*a1, *a2}
}

func TestXLSXRoundTrip(t *testing.T) {
	schema, records := testRecords()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, schema, records))

	table, err := Read(&buf, FormatXLSX)
	require.NoError(t, err)
	require.Equal(t, []string{"key", "product", "quantity", "warehouse_zone"}, table.Headers)
	require.Len(t, table.Rows, 2)
	require.Equal(t, []string{"A1", "Bolt", "5"}, table.Rows[0])
	require.Equal(t, "A2", table.Cell(table.Rows[1], 0))
	require.Equal(t, "", table.Cell(table.Rows[1], 2))
	require.Equal(t, "Z-9", table.Cell(table.Rows[1], 3))
}

func TestReadXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Código", "Produto", "Qtde"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"X1", "Porca", 12}))
	_, err := f.NewSheet("Outra")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Outra", "A1", &[]interface{}{"ignored"}))

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Código", "Produto", "Qtde"}, table.Headers)
	require.Equal(t, [][]string{{"X1", "Porca", "12"}}, table.Rows)
}

func TestCSVRoundTrip(t *testing.T) {
	schema, records := testRecords()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, schema, records))
	require.Equal(t, "key,product,quantity,warehouse_zone\nA1,Bolt,5,\nA2,,,Z-9\n", buf.String())

	table, err := Read(&buf, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, schema.Names(), table.Headers)
	require.Len(t, table.Rows, 2)
}

func TestReadCSVBOMSemicolonsAndRaggedRows(t *testing.T) {
	data := "\xEF\xBB\xBFCódigo;Produto;Qtde\nA1;Parafuso, 10mm;3\nA2\n"

	table, err := Read(strings.NewReader(data), FormatCSV)
	require.NoError(t, err)
	require.Equal(t, []string{"Código", "Produto", "Qtde"}, table.Headers)
	require.Equal(t, [][]string{{"A1", "Parafuso, 10mm", "3"}, {"A2"}}, table.Rows)
}

func TestReadEmpty(t *testing.T) {
	table, err := Read(strings.NewReader(""), FormatCSV)
	require.NoError(t, err)
	require.Empty(t, table.Headers)
	require.Empty(t, table.Rows)
}

func TestFormats(t *testing.T) {
	f, err := FormatFromPath("/tmp/Estoque.XLSX")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, f)

	f, err = FormatFromPath("dump.csv")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)

	_, err = FormatFromPath("old.xls")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
