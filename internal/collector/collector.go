// Package collector runs one poll cycle: fetch, parse, derive AQI,
// record. Every failure mode is handled inside the tick that produced
// it; the next scheduled tick is the sole retry mechanism.
package collector

import (
	"context"

	"codeberg.org/mutker/purpleair-exporter/internal/aqi"
	"codeberg.org/mutker/purpleair-exporter/internal/fetch"
	"codeberg.org/mutker/purpleair-exporter/internal/logger"
	"codeberg.org/mutker/purpleair-exporter/internal/metrics"
	"codeberg.org/mutker/purpleair-exporter/internal/sensor"
)

// Fetcher fetches one URL or fails with a classified error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Publisher receives every reading after it has been recorded.
type Publisher interface {
	PublishReading(r sensor.Reading) error
}

type Config struct {
	Variant sensor.SchemaVariant
	Host    string
	Token   string
	UnitIDs []int
}

type Collector struct {
	cfg       Config
	fetcher   Fetcher
	recorder  metrics.Recorder
	publisher Publisher
}

func New(cfg Config, fetcher Fetcher, recorder metrics.Recorder) *Collector {
	return &Collector{
		cfg:      cfg,
		fetcher:  fetcher,
		recorder: recorder,
	}
}

// SetPublisher enables optional fan-out of readings. Publish failures
// are logged and never counted as fetch errors.
func (c *Collector) SetPublisher(p Publisher) {
	c.publisher = p
}

// CollectAll polls every configured unit, strictly sequentially. A slow
// endpoint delays the units after it; the scheduler absorbs the overrun.
func (c *Collector) CollectAll(ctx context.Context) {
	for _, unitID := range c.cfg.UnitIDs {
		c.collect(ctx, unitID)
	}
}

func (c *Collector) collect(ctx context.Context, unitID int) {
	logger.Info().Int("unit_id", unitID).Msg("Collecting sensor data")

	url := fetch.URL(c.cfg.Variant, c.cfg.Host, c.cfg.Token, unitID)
	logger.Debug().Str("url", url).Msg("Fetching")

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		if fetch.IsThrottled(err) {
			logger.Warn().Int("unit_id", unitID).Msg("Throttled")
			return
		}
		logger.Error().Err(err).Int("unit_id", unitID).Msg("Failed to fetch sensor data")
		c.recorder.IncFetchError()
		return
	}

	readings, err := sensor.Parse(body, c.cfg.Variant, unitID)
	if err != nil {
		logger.Error().Err(err).Int("unit_id", unitID).Msg("Unable to parse response")
		c.recorder.IncFetchError()
		return
	}

	for _, reading := range readings {
		c.recorder.RecordReading(reading)
		c.recordAQI(reading, sensor.FieldPM25, aqi.PM25Table)
		c.recordAQI(reading, sensor.FieldPM10, aqi.PM10Table)

		if c.publisher != nil {
			if err := c.publisher.PublishReading(reading); err != nil {
				logger.Warn().Err(err).Int("unit_id", unitID).Msg("Failed to publish reading")
			}
		}
	}
}

// recordAQI derives both AQI series for one PM field, skipping readings
// that do not carry the field.
func (c *Collector) recordAQI(reading sensor.Reading, field sensor.Field, table aqi.Table) {
	pm, ok := reading.Fields[field]
	if !ok {
		return
	}

	c.recorder.RecordAQI(reading, field, aqi.ConversionNone, aqi.Compute(pm, table))
	c.recorder.RecordAQI(reading, field, aqi.ConversionAQandU, aqi.Compute(aqi.AQandU(pm), table))
}
