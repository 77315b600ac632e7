// Package infra contains the technical adapters of batterycare: telemetry
// loading, knowledge indexes, metrics exporters, MQTT and Kafka delivery and
// error monitoring. These packages depend only on interfaces defined in the
// core packages.
package infra
