package ingest

import (
	"fmt"
	"io"

	"github.com/andresuchdata/fbaprofit/internal/domain"
)

var productColumns = []column{
	{name: "asin", aliases: []string{"sku", "id", "product_id"}, required: true},
	{name: "name", aliases: []string{"product_name", "title"}},
	{name: "cost_per_unit", aliases: []string{"cost", "cogs", "unit_cost"}, required: true},
	{name: "selling_price", aliases: []string{"price", "sale_price"}, required: true},
	{name: "quantity_in_stock", aliases: []string{"quantity", "qty", "stock", "units"}, required: true},
	{name: "days_in_stock", aliases: []string{"age_days", "age", "days_in_inventory"}},
	{name: "category"},
	{name: "size_tier", aliases: []string{"size", "tier"}},
	{name: "estimated_monthly_sales", aliases: []string{"monthly_sales", "sales_per_month", "velocity"}},
}

var uploadColumns = []column{
	{name: "id", aliases: []string{"asin", "sku"}, required: true},
	{name: "name", aliases: []string{"product_name", "title"}},
	{name: "price", aliases: []string{"selling_price"}, required: true},
	{name: "cogs", aliases: []string{"cost", "cost_per_unit"}, required: true},
	{name: "velocity", aliases: []string{"monthly_sales", "units_per_month"}, required: true},
	{name: "returnRate", aliases: []string{"return_rate", "returns"}},
	{name: "referralFee", aliases: []string{"referral_fee", "referral"}},
	{name: "fbaFee", aliases: []string{"fba_fee", "fba"}},
	{name: "vat"},
	{name: "shippingCost", aliases: []string{"shipping_cost", "shipping"}},
	{name: "initialOrder", aliases: []string{"initial_order", "order_qty"}},
	{name: "initialCash", aliases: []string{"initial_cash", "cash"}},
	{name: "competitorCount", aliases: []string{"competitor_count", "competitors"}},
	{name: "rating"},
	{name: "category"},
}

// defaultReferralFeePct applies when an upload has no referral fee column.
const defaultReferralFeePct = 15.0

// rowReader parses the cells of one record, remembering the first problem.
type rowReader struct {
	idx    headerIndex
	record []string
	line   int
	err    *RowError
}

func (r *rowReader) text(name string) string {
	return r.idx.cell(r.record, name)
}

// number parses a column; empty cells yield 0, or an error when required.
func (r *rowReader) number(name string, required bool) float64 {
	raw := r.text(name)
	if raw == "" {
		if required {
			r.fail(name, "value is required")
		}
		return 0
	}

	v, err := parseNumber(raw)
	if err != nil {
		r.fail(name, err.Error())
		return 0
	}
	return v
}

// optional parses a column that may be left empty.
func (r *rowReader) optional(name string) *float64 {
	raw := r.text(name)
	if raw == "" {
		return nil
	}

	v, err := parseNumber(raw)
	if err != nil {
		r.fail(name, err.Error())
		return nil
	}
	return &v
}

func (r *rowReader) fail(column, message string) {
	if r.err == nil {
		r.err = &RowError{Row: r.line, Column: column, Message: message}
	}
}

// eachRecord validates the header and calls fn for every non-blank data row.
func eachRecord(rows [][]string, columns []column, fn func(r *rowReader)) error {
	if len(rows) == 0 {
		return ErrEmptyFile
	}

	idx, err := buildIndex(rows[0], columns)
	if err != nil {
		return err
	}

	for i, record := range rows[1:] {
		if isBlank(record) {
			continue
		}
		fn(&rowReader{idx: idx, record: record, line: i + 2})
	}
	return nil
}

// ParseProducts reads detector input records. Rows that fail to parse are
// returned as RowErrors and left out of the result.
func ParseProducts(r io.Reader, format Format) ([]domain.Product, []RowError, error) {
	rows, err := readTable(r, format)
	if err != nil {
		return nil, nil, err
	}

	products := make([]domain.Product, 0, len(rows))
	var rowErrs []RowError

	err = eachRecord(rows, productColumns, func(rr *rowReader) {
		p := domain.Product{
			ASIN:                  rr.text("asin"),
			Name:                  rr.text("name"),
			CostPerUnit:           rr.number("cost_per_unit", true),
			SellingPrice:          rr.number("selling_price", true),
			QuantityInStock:       rr.number("quantity_in_stock", true),
			DaysInStock:           rr.optional("days_in_stock"),
			Category:              rr.text("category"),
			SizeTier:              domain.ParseSizeTier(rr.text("size_tier")),
			EstimatedMonthlySales: rr.optional("estimated_monthly_sales"),
		}
		if p.ASIN == "" {
			rr.fail("asin", "value is required")
		}
		if rr.err != nil {
			rowErrs = append(rowErrs, *rr.err)
			return
		}
		if p.Name == "" {
			p.Name = p.ASIN
		}
		products = append(products, p)
	})
	if err != nil {
		return nil, nil, err
	}

	return products, rowErrs, nil
}

// ParseUploadRows reads bulk calculator records. A missing referral fee
// column defaults every row to 15%.
func ParseUploadRows(r io.Reader, format Format) ([]domain.UploadRow, []RowError, error) {
	rows, err := readTable(r, format)
	if err != nil {
		return nil, nil, err
	}

	uploads := make([]domain.UploadRow, 0, len(rows))
	var rowErrs []RowError

	err = eachRecord(rows, uploadColumns, func(rr *rowReader) {
		u := domain.UploadRow{
			ID:              rr.text("id"),
			Name:            rr.text("name"),
			Price:           rr.number("price", true),
			COGS:            rr.number("cogs", true),
			Velocity:        rr.number("velocity", true),
			ReturnRate:      rr.number("returnRate", false),
			ReferralFee:     rr.number("referralFee", false),
			FBAFee:          rr.number("fbaFee", false),
			VAT:             rr.number("vat", false),
			ShippingCost:    rr.number("shippingCost", false),
			InitialOrder:    rr.number("initialOrder", false),
			InitialCash:     rr.number("initialCash", false),
			CompetitorCount: rr.number("competitorCount", false),
			Rating:          rr.number("rating", false),
			Category:        rr.text("category"),
		}
		if u.ID == "" {
			rr.fail("id", "value is required")
		}
		if rr.err != nil {
			rowErrs = append(rowErrs, *rr.err)
			return
		}
		if !rr.idx.has("referralFee") {
			u.ReferralFee = defaultReferralFeePct
		}
		if u.Name == "" {
			u.Name = u.ID
		}
		uploads = append(uploads, u)
	})
	if err != nil {
		return nil, nil, err
	}
	return uploads, rowErrs, nil
}

// ParseProductsFile opens and parses a product file by extension.
func ParseProductsFile(path string) ([]domain.Product, []RowError, error) {
	f, format, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	products, rowErrs, err := ParseProducts(f, format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return products, rowErrs, nil
}

// ParseUploadRowsFile opens and parses an upload file by extension.
func ParseUploadRowsFile(path string) ([]domain.UploadRow, []RowError, error) {
	f, format, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	uploads, rowErrs, err := ParseUploadRows(f, format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return uploads, rowErrs, nil
}
