package metrics

import (
	"codeberg.org/mutker/purpleair-exporter/internal/aqi"
	"codeberg.org/mutker/purpleair-exporter/internal/sensor"
)

// Recorder defines the core domain interface. Readings and derived AQI
// values are handed in by value once per tick; the registry is the only
// state that outlives a tick.
type Recorder interface {
	// RecordReading sets the raw gauge for every field present on the reading
	RecordReading(r sensor.Reading)

	// RecordAQI sets the derived AQI gauge for one PM field and conversion
	RecordAQI(r sensor.Reading, field sensor.Field, conversion aqi.Conversion, value float64)

	// IncFetchError increments the shared fetch error counter
	IncFetchError()
}
