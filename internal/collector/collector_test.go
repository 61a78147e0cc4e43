package collector_test

import (
	"context"
	"testing"

	"codeberg.org/mutker/purpleair-exporter/internal/aqi"
	"codeberg.org/mutker/purpleair-exporter/internal/collector"
	"codeberg.org/mutker/purpleair-exporter/internal/errors"
	"codeberg.org/mutker/purpleair-exporter/internal/fetch"
	"codeberg.org/mutker/purpleair-exporter/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}

	return f.body, nil
}

type aqiRecord struct {
	field      sensor.Field
	conversion aqi.Conversion
	value      float64
}

type fakeRecorder struct {
	readings    []sensor.Reading
	aqiRecords  []aqiRecord
	fetchErrors int
}

func (r *fakeRecorder) RecordReading(reading sensor.Reading) {
	r.readings = append(r.readings, reading)
}

func (r *fakeRecorder) RecordAQI(_ sensor.Reading, field sensor.Field, conversion aqi.Conversion, value float64) {
	r.aqiRecords = append(r.aqiRecords, aqiRecord{field, conversion, value})
}

func (r *fakeRecorder) IncFetchError() {
	r.fetchErrors++
}

type fakePublisher struct {
	published []sensor.Reading
	err       error
}

func (p *fakePublisher) PublishReading(r sensor.Reading) error {
	p.published = append(p.published, r)

	return p.err
}

func newCollector(fetcher *fakeFetcher, recorder *fakeRecorder, unitIDs ...int) *collector.Collector {
	return collector.New(collector.Config{
		Variant: sensor.VariantLegacy,
		Host:    "www.purpleair.com",
		UnitIDs: unitIDs,
	}, fetcher, recorder)
}

func TestCollectAllRecordsReadingsAndAQI(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{
		"results": [
			{"ID": 1, "Label": "Backyard", "pm2_5_atm": 8.4, "pm10_0_atm": 11.2, "temp_f": 71},
			{"ID": 2, "pm2_5_atm": 8.9}
		]
	}`)}
	recorder := &fakeRecorder{}

	newCollector(fetcher, recorder, 777).CollectAll(context.Background())

	require.Len(t, recorder.readings, 2)
	assert.Zero(t, recorder.fetchErrors)

	// First reading carries both PM fields, second only PM2.5: two AQI
	// series each for the first, one pair for the second.
	require.Len(t, recorder.aqiRecords, 6)
	assert.Equal(t, aqiRecord{sensor.FieldPM25, aqi.ConversionNone, aqi.Compute(8.4, aqi.PM25Table)}, recorder.aqiRecords[0])
	assert.Equal(t, aqiRecord{sensor.FieldPM25, aqi.ConversionAQandU, aqi.Compute(aqi.AQandU(8.4), aqi.PM25Table)}, recorder.aqiRecords[1])
	assert.Equal(t, aqiRecord{sensor.FieldPM10, aqi.ConversionNone, aqi.Compute(11.2, aqi.PM10Table)}, recorder.aqiRecords[2])
	assert.Equal(t, aqiRecord{sensor.FieldPM10, aqi.ConversionAQandU, aqi.Compute(aqi.AQandU(11.2), aqi.PM10Table)}, recorder.aqiRecords[3])
	assert.Equal(t, aqiRecord{sensor.FieldPM25, aqi.ConversionNone, aqi.Compute(8.9, aqi.PM25Table)}, recorder.aqiRecords[4])
}

func TestCollectAllPollsUnitsSequentially(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"results": []}`)}
	recorder := &fakeRecorder{}

	newCollector(fetcher, recorder, 1, 2, 3).CollectAll(context.Background())

	assert.Equal(t, []string{
		"https://www.purpleair.com/json?show=1",
		"https://www.purpleair.com/json?show=2",
		"https://www.purpleair.com/json?show=3",
	}, fetcher.urls)
}

func TestCollectThrottledSkipsWithoutCounting(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New().New(fetch.ErrThrottled)}
	recorder := &fakeRecorder{}

	newCollector(fetcher, recorder, 1).CollectAll(context.Background())

	assert.Zero(t, recorder.fetchErrors)
	assert.Empty(t, recorder.readings)
}

func TestCollectFetchFailureCountsOnce(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New().WithData(fetch.ErrFetch, 500)}
	recorder := &fakeRecorder{}

	newCollector(fetcher, recorder, 1).CollectAll(context.Background())

	assert.Equal(t, 1, recorder.fetchErrors)
	assert.Empty(t, recorder.readings)
}

func TestCollectParseFailureCountsOnce(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`not json`)}
	recorder := &fakeRecorder{}

	newCollector(fetcher, recorder, 1).CollectAll(context.Background())

	assert.Equal(t, 1, recorder.fetchErrors)
	assert.Empty(t, recorder.readings)
}

func TestCollectWithoutPMFieldsRecordsNoAQI(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"results": [{"ID": 1, "Label": "A", "temp_f": 70}]}`)}
	recorder := &fakeRecorder{}

	newCollector(fetcher, recorder, 1).CollectAll(context.Background())

	require.Len(t, recorder.readings, 1)
	assert.Empty(t, recorder.aqiRecords)
}

func TestCollectPublishesReadings(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"results": [{"ID": 1, "Label": "A", "pm2_5_atm": 3.0}]}`)}
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}

	c := newCollector(fetcher, recorder, 1)
	c.SetPublisher(publisher)
	c.CollectAll(context.Background())

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "1", publisher.published[0].SensorID)
}

func TestCollectPublishFailureIsNotAFetchError(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"results": [{"ID": 1, "pm2_5_atm": 3.0}]}`)}
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{err: errors.New().New(errors.ErrOperationFailed)}

	c := newCollector(fetcher, recorder, 1)
	c.SetPublisher(publisher)
	c.CollectAll(context.Background())

	assert.Zero(t, recorder.fetchErrors)
	require.Len(t, recorder.readings, 1)
}
