// Package metrics exposes raw readings and derived AQI values as labeled
// Prometheus series. Metric names are a contract with existing dashboards
// and must not change.
package metrics

import (
	"net/http"
	"strconv"

	"codeberg.org/mutker/purpleair-exporter/internal/aqi"
	"codeberg.org/mutker/purpleair-exporter/internal/sensor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var sensorLabels = []string{"unit_id", "sensor_id", "label"}

// aqiLabels adds the conversion dimension, "" for uncorrected and
// "AQandU" for the corrected series.
var aqiLabels = []string{"unit_id", "sensor_id", "label", "conversion"}

type Service struct {
	registry    *prometheus.Registry
	fetchErrors prometheus.Counter
	gauges      map[sensor.Field]*prometheus.GaugeVec
	aqiGauges   map[sensor.Field]*prometheus.GaugeVec
}

// NewService registers the metric set on the given registry. The registry
// is constructed at process start and injected; there are no package
// globals.
func NewService(registry *prometheus.Registry) *Service {
	factory := promauto.With(registry)

	newGauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, sensorLabels)
	}
	newAQIGauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, aqiLabels)
	}

	return &Service{
		registry: registry,
		fetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fetch_errors",
			Help: "Errors fetching data from PurpleAir sensor",
		}),
		gauges: map[sensor.Field]*prometheus.GaugeVec{
			sensor.FieldPM25:     newGauge("pm2_5", "2.5 micron particulate matter (ug/m^3)"),
			sensor.FieldPM10:     newGauge("pm10_0", "10 micron particulate matter (ug/m^3)"),
			sensor.FieldTempF:    newGauge("temp_f", "Temperature in degrees Fahrenheit"),
			sensor.FieldHumidity: newGauge("humidity", "% Humidity"),
			sensor.FieldPressure: newGauge("pressure", "Pressure in millibar"),
			sensor.FieldLastSeen: newGauge("last_seen_seconds", "timestamp when this sensor was last seen"),
		},
		aqiGauges: map[sensor.Field]*prometheus.GaugeVec{
			sensor.FieldPM25: newAQIGauge("aqi_pm2_5", "PM2.5 AQI"),
			sensor.FieldPM10: newAQIGauge("aqi_pm10_0", "PM10 AQI"),
		},
	}
}

func (s *Service) RecordReading(r sensor.Reading) {
	labels := readingLabels(r)
	for field, value := range r.Fields {
		if gauge, ok := s.gauges[field]; ok {
			gauge.With(labels).Set(value)
		}
	}
}

func (s *Service) RecordAQI(r sensor.Reading, field sensor.Field, conversion aqi.Conversion, value float64) {
	gauge, ok := s.aqiGauges[field]
	if !ok {
		return
	}

	labels := readingLabels(r)
	labels["conversion"] = string(conversion)
	gauge.With(labels).Set(value)
}

func (s *Service) IncFetchError() {
	s.fetchErrors.Inc()
}

// Handler returns the scrape handler for the service's registry.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func readingLabels(r sensor.Reading) prometheus.Labels {
	return prometheus.Labels{
		"unit_id":   strconv.Itoa(r.UnitID),
		"sensor_id": r.SensorID,
		"label":     r.Label,
	}
}
