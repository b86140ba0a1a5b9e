package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// Row is one business read from a directory export, with its line number
// for error reporting.
type Row struct {
	Line     int
	Business domain.BusinessSummary
}

var requiredColumns = []string{"name", "city"}

// readBusinesses parses a CSV export. Columns are matched by header name:
// name, address, categories (";"-separated), city, district, lat, lon, rating,
// review_count, verified, featured, opening_hours (JSON object). Rows that
// cannot be used are returned as errors alongside the good rows.
func readBusinesses(r io.Reader) ([]Row, []error, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", c)
		}
	}

	var rows []Row
	var rowErrs []error
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		b, err := parseRow(record, cols)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		rows = append(rows, Row{Line: line, Business: b})
	}
	return rows, rowErrs, nil
}

func parseRow(record []string, cols map[string]int) (domain.BusinessSummary, error) {
	b := domain.BusinessSummary{
		Name:       getField(record, cols, "name"),
		Address:    getField(record, cols, "address"),
		City:       getField(record, cols, "city"),
		District:   getField(record, cols, "district"),
		Categories: splitCategories(getField(record, cols, "categories")),
		Verified:   parseBool(getField(record, cols, "verified")),
		Featured:   parseBool(getField(record, cols, "featured")),
	}
	if b.Name == "" {
		return b, fmt.Errorf("name is empty")
	}

	lat, lon := getField(record, cols, "lat"), getField(record, cols, "lon")
	if lat != "" || lon != "" {
		la, err1 := strconv.ParseFloat(lat, 64)
		lo, err2 := strconv.ParseFloat(lon, 64)
		if err1 != nil || err2 != nil || la < -90 || la > 90 || lo < -180 || lo > 180 {
			return b, fmt.Errorf("invalid location %q,%q", lat, lon)
		}
		b.Location = &domain.GeoPoint{Lat: la, Lon: lo}
	}

	if v := getField(record, cols, "rating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 || r > 5 {
			return b, fmt.Errorf("invalid rating %q", v)
		}
		b.Rating = r
	}
	if v := getField(record, cols, "review_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return b, fmt.Errorf("invalid review_count %q", v)
		}
		b.ReviewCount = n
	}

	if v := getField(record, cols, "opening_hours"); v != "" {
		var hours domain.OpeningHours
		if err := json.Unmarshal([]byte(v), &hours); err != nil {
			return b, fmt.Errorf("opening_hours: %w", err)
		}
		b.OpeningHours = hours
	}
	return b, nil
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		m[strings.ToLower(h)] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	if idx, ok := cols[name]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func splitCategories(s string) []string {
	out := []string{}
	for _, c := range strings.Split(s, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "x":
		return true
	}
	return false
}
