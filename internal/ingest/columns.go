package ingest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// column is a logical field with the header spellings that map onto it.
type column struct {
	name     string
	aliases  []string
	required bool
}

// headerIndex maps logical column names to positions in a record.
type headerIndex map[string]int

// normalizeHeader lowercases and drops everything but letters and digits, so
// "Cost per Unit (€)" and "cost_per_unit" compare equal.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func buildIndex(header []string, columns []column) (headerIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := positions[key]; !seen && key != "" {
			positions[key] = i
		}
	}

	idx := make(headerIndex, len(columns))
	var missing []string
	for _, col := range columns {
		found := false
		for _, alias := range append([]string{col.name}, col.aliases...) {
			if pos, ok := positions[normalizeHeader(alias)]; ok {
				idx[col.name] = pos
				found = true
				break
			}
		}
		if !found && col.required {
			missing = append(missing, col.name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func (idx headerIndex) has(name string) bool {
	_, ok := idx[name]
	return ok
}

// cell returns the trimmed value of a column, or "" when absent or short.
func (idx headerIndex) cell(record []string, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

var thousandsOnly = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+$`)

// parseNumber accepts plain numbers plus currency symbols, percent signs and
// thousands separators. "1.234,5" style input is not supported.
func parseNumber(s string) (float64, error) {
	cleaned := strings.NewReplacer("€", "", "$", "", "£", "", "%", "", " ", "", " ", "").Replace(strings.TrimSpace(s))

	switch {
	case strings.Contains(cleaned, ",") && strings.Contains(cleaned, "."):
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case thousandsOnly.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case strings.Contains(cleaned, ","):
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
