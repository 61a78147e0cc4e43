// Package aqi converts particulate matter concentrations into Air Quality
// Index values using the EPA breakpoint tables.
//
// Source for the AQI calculation:
// https://www.airnow.gov/sites/default/files/2020-05/aqi-technical-assistance-document-sept2018.pdf
//
// The AQI reported here is instantaneous, not the time-windowed AQI the
// standard defines. The difference is fairly small assuming small jumps
// (<20 PM) in a 10 minute interval.
package aqi

// ScaleCeiling is the top of the AQI scale. Computed values are clamped
// here rather than reported as errors.
const ScaleCeiling = 500

// Breakpoint is one control point of the piecewise-linear AQI function.
type Breakpoint struct {
	PM  float64
	AQI float64
}

// Table is an ordered list of breakpoints, strictly increasing in both
// fields and starting at (0, 0).
type Table []Breakpoint

var PM25Table = Table{
	{0, 0},
	{12.1, 51},
	{35.5, 101},
	{55.5, 151},
	{150.5, 201},
	{250.5, 301},
	{350.5, 401},
}

var PM10Table = Table{
	{0, 0},
	{55, 51},
	{155, 101},
	{255, 151},
	{355, 201},
	{425, 301},
	{505, 401},
}

// Conversion tags the correction applied to a PM reading before lookup.
type Conversion string

const (
	ConversionNone   Conversion = ""
	ConversionAQandU Conversion = "AQandU"
)

// AQandU applies the AQandU linear recalibration to a raw PM reading.
// No clamping happens at this stage.
func AQandU(pm float64) float64 {
	return 0.778*pm + 2.65
}

// Compute interpolates the AQI for a PM concentration. Concentrations
// beyond the table's top breakpoint extrapolate toward the origin pair
// and are clamped at ScaleCeiling; a zero-width bucket short-circuits to
// the ceiling instead of dividing by zero.
func Compute(pm float64, table Table) float64 {
	var pmLow, pmHigh, aqiLow, aqiHigh float64
	for _, bp := range table {
		if bp.PM > pm {
			pmHigh = bp.PM
			aqiHigh = bp.AQI
			break
		}
		aqiLow = bp.AQI
		pmLow = bp.PM
	}

	if pmHigh == pmLow {
		return ScaleCeiling
	}

	value := (aqiHigh-aqiLow)*(pm-pmLow)/(pmHigh-pmLow) + aqiLow
	if value > ScaleCeiling {
		value = ScaleCeiling
	}

	return value
}
