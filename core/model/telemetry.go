package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in telemetry files and artifacts.
const DateLayout = "2006-01-02"

// Telemetry CSV column names.
const (
	ColumnDate         = "date"
	ColumnTemperature  = "temperature"
	ColumnChargeType   = "charge_type"
	ColumnSoH          = "SoH"
	ColumnChargeCycles = "charge_cycles"
)

// TelemetryColumns is the canonical column order of telemetry files.
var TelemetryColumns = []string{ColumnDate, ColumnTemperature, ColumnChargeType, ColumnSoH, ColumnChargeCycles}

// ChargeType identifies how the battery was charged on a given day.
type ChargeType int

const (
	ChargeUnknown ChargeType = iota
	ChargeFast
	ChargeSlow
)

// String returns the wire representation of the charge type.
func (c ChargeType) String() string {
	switch c {
	case ChargeFast:
		return "fast"
	case ChargeSlow:
		return "slow"
	default:
		return "unknown"
	}
}

// ParseChargeType converts "fast" or "slow" into a ChargeType.
func ParseChargeType(s string) (ChargeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return ChargeFast, nil
	case "slow":
		return ChargeSlow, nil
	default:
		return ChargeUnknown, fmt.Errorf("%w: charge_type %q", ErrSchema, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c ChargeType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ChargeType) UnmarshalText(b []byte) error {
	v, err := ParseChargeType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// TelemetryRecord is one daily battery reading.
type TelemetryRecord struct {
	Date          Date       `json:"date"`
	StateOfHealth float64    `json:"state_of_health"` // percentage of original capacity
	ChargeType    ChargeType `json:"charge_type"`
	Temperature   float64    `json:"temperature"`
	ChargeCycles  int        `json:"charge_cycles"`
}

// Validate checks that the record can take part in an analysis.
func (r TelemetryRecord) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("missing date")
	}
	if math.IsNaN(r.StateOfHealth) || math.IsInf(r.StateOfHealth, 0) {
		return fmt.Errorf("invalid state of health on %s", r.Date)
	}
	if r.ChargeType != ChargeFast && r.ChargeType != ChargeSlow {
		return fmt.Errorf("invalid charge type on %s", r.Date)
	}
	return nil
}

// Date is a calendar day in UTC. It marshals as YYYY-MM-DD.
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q", ErrSchema, s)
	}
	return Date{t: t}, nil
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.t.Format(DateLayout) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
