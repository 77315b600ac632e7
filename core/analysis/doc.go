// Package analysis derives a battery health insight from a daily telemetry
// series. It computes state of health drops between consecutive readings,
// flags large drops as anomalies, aggregates the mean drop overall and per
// charge type, and classifies the degradation rate.
package analysis
