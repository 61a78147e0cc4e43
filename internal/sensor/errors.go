package sensor

import "codeberg.org/mutker/purpleair-exporter/internal/errors"

const (
	ErrDecode         = errors.ErrorCode("sensor_decode_failed")
	ErrUnknownVariant = errors.ErrorCode("sensor_unknown_variant")
)
