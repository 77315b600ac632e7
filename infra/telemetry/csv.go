// Package telemetry loads battery telemetry series from CSV files. The header
// must name exactly the telemetry columns, in any order.
package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/batterycare/core/model"
)

// Load parses a telemetry CSV. Schema violations wrap model.ErrSchema and
// name the offending line.
func Load(r io.Reader) ([]model.TelemetryRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header", model.ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSchema, err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []model.TelemetryRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", model.ErrSchema, line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, lineError(line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string) ([]model.TelemetryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", model.ErrSchema, h)
		}
		idx[h] = i
	}
	known := make(map[string]bool, len(model.TelemetryColumns))
	for _, c := range model.TelemetryColumns {
		known[c] = true
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", model.ErrSchema, c)
		}
	}
	for h := range idx {
		if !known[h] {
			return nil, fmt.Errorf("%w: unknown column %q", model.ErrSchema, h)
		}
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (model.TelemetryRecord, error) {
	field := func(name string) string { return strings.TrimSpace(row[idx[name]]) }

	var rec model.TelemetryRecord
	var err error
	if rec.Date, err = model.ParseDate(field(model.ColumnDate)); err != nil {
		return rec, err
	}
	if rec.Temperature, err = parseFloat(model.ColumnTemperature, field(model.ColumnTemperature)); err != nil {
		return rec, err
	}
	if rec.ChargeType, err = model.ParseChargeType(field(model.ColumnChargeType)); err != nil {
		return rec, err
	}
	if rec.StateOfHealth, err = parseFloat(model.ColumnSoH, field(model.ColumnSoH)); err != nil {
		return rec, err
	}
	if rec.ChargeCycles, err = strconv.Atoi(field(model.ColumnChargeCycles)); err != nil {
		return rec, fmt.Errorf("%s: %q is not an integer", model.ColumnChargeCycles, field(model.ColumnChargeCycles))
	}
	return rec, nil
}

func lineError(line int, err error) error {
	if errors.Is(err, model.ErrSchema) {
		return fmt.Errorf("line %d: %w", line, err)
	}
	return fmt.Errorf("%w: line %d: %v", model.ErrSchema, line, err)
}

func parseFloat(col, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", col, s)
	}
	return v, nil
}
