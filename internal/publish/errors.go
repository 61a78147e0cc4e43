package publish

import "codeberg.org/mutker/purpleair-exporter/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("publish_invalid_config")
	ErrConnect       = errors.ErrorCode("publish_connect_failed")
	ErrPublish       = errors.ErrorCode("publish_failed")
	ErrEncode        = errors.ErrorCode("publish_encode_failed")
)
