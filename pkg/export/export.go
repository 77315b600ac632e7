// Package export writes workflow artifacts, telemetry series and slot pools
// to files or streams.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/batterycare/core/model"
	"github.com/kilianp07/batterycare/core/scheduler"
	"github.com/kilianp07/batterycare/core/workflow"
)

// WriteState writes the state artifact to w as indented JSON. Keys are sorted
// so two identical states produce identical bytes.
func WriteState(w io.Writer, s workflow.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Artifact())
}

// WriteTelemetryCSV writes records in the telemetry file format.
func WriteTelemetryCSV(w io.Writer, records []model.TelemetryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.TelemetryColumns); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.Date.String(),
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			r.ChargeType.String(),
			strconv.FormatFloat(r.StateOfHealth, 'f', -1, 64),
			strconv.Itoa(r.ChargeCycles),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSlotsCSV writes every slot of the pool, dealer by dealer.
func WriteSlotsCSV(w io.Writer, p *scheduler.Pool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"dealer", "slot"}); err != nil {
		return err
	}
	for _, s := range p.All() {
		if err := cw.Write([]string{s.Dealer, s.Time.Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
