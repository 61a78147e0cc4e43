// Package sensor normalizes PurpleAir payloads into per-sensor readings.
package sensor

// Field identifies one metric carried by a reading.
type Field string

const (
	FieldPM25     Field = "pm2_5"
	FieldPM10     Field = "pm10_0"
	FieldTempF    Field = "temp_f"
	FieldHumidity Field = "humidity"
	FieldPressure Field = "pressure"
	FieldLastSeen Field = "last_seen_seconds"
)

// Reading is one physical reading event. Fields absent from the payload
// are absent from the map, never zero.
type Reading struct {
	UnitID   int
	SensorID string
	Label    string
	Fields   map[Field]float64
}

// SchemaVariant selects which payload schema a deployment speaks. It is
// resolved once at startup, each variant owning its own field-name table.
type SchemaVariant string

const (
	VariantLegacy  SchemaVariant = "legacy"
	VariantCurrent SchemaVariant = "current"
)

// IsValid returns whether the schema variant is known
func (v SchemaVariant) IsValid() bool {
	return v == VariantLegacy || v == VariantCurrent
}
