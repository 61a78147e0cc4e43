package sensor

import (
	"encoding/json"
	"strconv"

	"codeberg.org/mutker/purpleair-exporter/internal/errors"
)

// Per-variant payload key to reading field tables. The variants use
// disjoint key sets, so they are kept separate rather than merged.
var legacyFields = map[string]Field{
	"pm2_5_atm":  FieldPM25,
	"pm10_0_atm": FieldPM10,
	"temp_f":     FieldTempF,
	"pressure":   FieldPressure,
	"humidity":   FieldHumidity,
	"LastSeen":   FieldLastSeen,
}

var currentFields = map[string]Field{
	"pm2.5":       FieldPM25,
	"pm10.0":      FieldPM10,
	"temperature": FieldTempF,
	"humidity":    FieldHumidity,
	"pressure":    FieldPressure,
	"last_seen":   FieldLastSeen,
}

// Parse maps a response body onto normalized readings. A malformed body
// is a decode error; a structurally valid but empty payload yields an
// empty slice. Field extraction is best-effort per reading: absent keys
// are skipped, never zeroed.
func Parse(body []byte, variant SchemaVariant, unitID int) ([]Reading, error) {
	switch variant {
	case VariantLegacy:
		return parseLegacy(body, unitID)
	case VariantCurrent:
		return parseCurrent(body, unitID)
	default:
		return nil, errors.New().WithData(ErrUnknownVariant, variant)
	}
}

// parseLegacy handles the /json?show= payload: zero or more sub-sensor
// objects per unit, typically two. The first non-empty Label is shared
// by every reading of the poll.
func parseLegacy(body []byte, unitID int) ([]Reading, error) {
	var envelope struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.New().Wrap(ErrDecode, err)
	}

	label := ""
	readings := make([]Reading, 0, len(envelope.Results))
	for _, data := range envelope.Results {
		if label == "" {
			if s, ok := data["Label"].(string); ok {
				label = s
			}
		}

		reading := Reading{
			UnitID: unitID,
			Fields: make(map[Field]float64),
		}
		if id, ok := data["ID"].(float64); ok {
			reading.SensorID = formatID(id)
		}
		for key, field := range legacyFields {
			if v, ok := data[key].(float64); ok {
				reading.Fields[field] = v
			}
		}
		readings = append(readings, reading)
	}

	for i := range readings {
		readings[i].Label = label
	}

	return readings, nil
}

// parseCurrent handles the /v1/sensors/ payload: a single sensor object.
func parseCurrent(body []byte, unitID int) ([]Reading, error) {
	var envelope struct {
		Sensor map[string]any `json:"sensor"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.New().Wrap(ErrDecode, err)
	}

	if len(envelope.Sensor) == 0 {
		return []Reading{}, nil
	}

	reading := Reading{
		UnitID: unitID,
		Fields: make(map[Field]float64),
	}
	if idx, ok := envelope.Sensor["sensor_index"].(float64); ok {
		reading.SensorID = formatID(idx)
	}
	if name, ok := envelope.Sensor["name"].(string); ok {
		reading.Label = name
	}
	for key, field := range currentFields {
		if v, ok := envelope.Sensor[key].(float64); ok {
			reading.Fields[field] = v
		}
	}

	return []Reading{reading}, nil
}

func formatID(id float64) string {
	return strconv.FormatFloat(id, 'f', -1, 64)
}
