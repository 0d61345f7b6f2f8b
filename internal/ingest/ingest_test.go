package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/fbaprofit/internal/domain"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    Format
		wantErr bool
	}{
		{name: "csv", file: "products.CSV", want: FormatCSV},
		{name: "xlsx", file: "/tmp/report.xlsx", want: FormatXLSX},
		{name: "json rejected", file: "rows.json", wantErr: true},
		{name: "no extension", file: "README", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "12.5", want: 12.5},
		{in: "€1,234.50", want: 1234.5},
		{in: "15%", want: 15},
		{in: "1,234", want: 1234},
		{in: "2,5", want: 2.5},
		{in: "-3", want: -3},
		{in: "abc", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseNumber(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseProductsCSV(t *testing.T) {
	input := strings.Join([]string{
		"SKU,Product Name,Cost,Price,Qty,Age Days,Category,Size,Monthly Sales",
		"B001,Yoga Mat,22,24.99,150,240,Sports,,",
		"B002,Desk Lamp,10,40,50,,Home,oversize,12",
		",,,,,,,,",
		"B003,Broken,abc,10,5,,,,",
		",Nameless,1,2,3,,,,",
	}, "\n")

	products, rowErrs, err := ParseProducts(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, products, 2)

	mat := products[0]
	assert.Equal(t, "B001", mat.ASIN)
	assert.Equal(t, "Yoga Mat", mat.Name)
	assert.Equal(t, 22.0, mat.CostPerUnit)
	assert.Equal(t, 24.99, mat.SellingPrice)
	assert.Equal(t, 150.0, mat.QuantityInStock)
	require.NotNil(t, mat.DaysInStock)
	assert.Equal(t, 240.0, *mat.DaysInStock)
	assert.Equal(t, domain.SizeStandard, mat.SizeTier)
	assert.Nil(t, mat.EstimatedMonthlySales)

	lamp := products[1]
	assert.Nil(t, lamp.DaysInStock)
	assert.Equal(t, domain.SizeOversize, lamp.SizeTier)
	require.NotNil(t, lamp.EstimatedMonthlySales)
	assert.Equal(t, 12.0, *lamp.EstimatedMonthlySales)

	require.Len(t, rowErrs, 2)
	assert.Equal(t, 5, rowErrs[0].Row)
	assert.Equal(t, "cost_per_unit", rowErrs[0].Column)
	assert.Equal(t, 6, rowErrs[1].Row)
	assert.Equal(t, "asin", rowErrs[1].Column)
}

func TestParseProductsMissingColumn(t *testing.T) {
	_, _, err := ParseProducts(strings.NewReader("asin,name,price\nB1,x,3\n"), FormatCSV)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "cost_per_unit")
	assert.Contains(t, err.Error(), "quantity_in_stock")
}

func TestParseEmptyFile(t *testing.T) {
	_, _, err := ParseUploadRows(strings.NewReader(""), FormatCSV)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseUploadRowsDefaultsReferralFee(t *testing.T) {
	input := "id,price,cogs,velocity,vat,initial_cash\nA1,30,8,100,19,5000\n"

	rows, rowErrs, err := ParseUploadRows(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 1)

	assert.Equal(t, "A1", rows[0].ID)
	assert.Equal(t, "A1", rows[0].Name)
	assert.Equal(t, 15.0, rows[0].ReferralFee)
	assert.Equal(t, 19.0, rows[0].VAT)
	assert.Equal(t, 5000.0, rows[0].InitialCash)
	assert.Equal(t, 0.0, rows[0].ShippingCost)
}

func TestParseUploadRowsKeepsExplicitReferralFee(t *testing.T) {
	input := "id,price,cogs,velocity,referralFee\nA1,30,8,100,\nA2,30,8,100,8\n"

	rows, _, err := ParseUploadRows(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0.0, rows[0].ReferralFee)
	assert.Equal(t, 8.0, rows[1].ReferralFee)
}

func TestParseProductsFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"asin", "name", "cost_per_unit", "selling_price", "quantity_in_stock", "days_in_stock"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"B100", "Kettle", 15, 30, 40, 360}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	products, rowErrs, err := ParseProductsFile(path)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, products, 1)
	assert.Equal(t, "B100", products[0].ASIN)
	assert.Equal(t, 30.0, products[0].SellingPrice)
	require.NotNil(t, products[0].DaysInStock)
	assert.Equal(t, 360.0, *products[0].DaysInStock)
}

func TestParseUploadRowsFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID,Price,COGS,Velocity\nX,10,2,5\n"), 0o644))

	rows, _, err := ParseUploadRowsFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10.0, rows[0].Price)
}

func TestParseFileRejectsUnknownExtension(t *testing.T) {
	_, _, err := ParseProductsFile("products.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
