package config

import (
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/purpleair-exporter/internal/errors"
	"codeberg.org/mutker/purpleair-exporter/internal/sensor"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval   = 30
	defaultListenPort = 9101
	defaultMQTTTopic  = "purpleair/readings"

	legacyHost  = "www.purpleair.com"
	currentHost = "api.purpleair.com"
)

type Config struct {
	Interval   int    `mapstructure:"interval"`
	SensorIDs  []int  `mapstructure:"-"`
	APIVersion string `mapstructure:"api_version"`
	APIHost    string `mapstructure:"api_host"`
	APIToken   string `mapstructure:"api_token"`
	ListenPort int    `mapstructure:"listen_port"`
	LogLevel   string `mapstructure:"log_level"`
	MQTTBroker string `mapstructure:"mqtt_broker"`
	MQTTTopic  string `mapstructure:"mqtt_topic"`
}

// Load merges flags, PURPLEAIR_* environment variables and an optional
// TOML config file, then validates. A missing required value is fatal to
// the caller before any scheduling begins.
func Load() (*Config, error) {
	errFactory := errors.New()
	v := viper.New()

	flags := pflag.NewFlagSet("purpleair-exporter", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Int("interval", defaultInterval, "Seconds between polls")
	flags.String("sensor-ids", "", "Comma-separated PurpleAir sensor IDs to poll")
	flags.String("api-version", string(sensor.VariantLegacy), "API schema variant (legacy or current)")
	flags.String("api-host", "", "API host override")
	flags.String("api-token", "", "API token (required for the current API)")
	flags.Int("listen-port", defaultListenPort, "Metrics listen port")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.String("mqtt-broker", "", "Optional MQTT broker URL, e.g. tcp://broker:1883")
	flags.String("mqtt-topic", defaultMQTTTopic, "MQTT topic for published readings")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	bindings := map[string]string{
		"interval":    "interval",
		"sensor_ids":  "sensor-ids",
		"api_version": "api-version",
		"api_host":    "api-host",
		"api_token":   "api-token",
		"listen_port": "listen-port",
		"log_level":   "log-level",
		"mqtt_broker": "mqtt-broker",
		"mqtt_topic":  "mqtt-topic",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v.SetEnvPrefix("PURPLEAIR")
	v.AutomaticEnv()

	v.SetConfigName("purpleair-exporter")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	v.AddConfigPath(".")
	if path := os.Getenv("PURPLEAIR_EXPORTER_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	ids, err := parseSensorIDs(v.Get("sensor_ids"))
	if err != nil {
		return nil, err
	}
	config.SensorIDs = ids

	if config.APIHost == "" {
		if config.Variant() == sensor.VariantCurrent {
			config.APIHost = currentHost
		} else {
			config.APIHost = legacyHost
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Variant returns the schema variant this deployment speaks
func (c *Config) Variant() sensor.SchemaVariant {
	return sensor.SchemaVariant(c.APIVersion)
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if len(c.SensorIDs) == 0 {
		return errFactory.New(errors.ErrMissingSensorIDs)
	}
	if !c.Variant().IsValid() {
		return errFactory.WithData(errors.ErrInvalidVariant, c.APIVersion)
	}
	if c.Variant() == sensor.VariantCurrent && c.APIToken == "" {
		return errFactory.New(errors.ErrMissingAPIToken)
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.ListenPort)
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "warn", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// parseSensorIDs accepts a TOML integer array or a comma-separated
// string from a flag or environment variable.
func parseSensorIDs(value any) ([]int, error) {
	errFactory := errors.New()

	switch ids := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(ids) == "" {
			return nil, nil
		}
		parts := strings.Split(ids, ",")
		parsed := make([]int, 0, len(parts))
		for _, part := range parts {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
			}
			parsed = append(parsed, id)
		}
		return parsed, nil
	case []any:
		parsed := make([]int, 0, len(ids))
		for _, raw := range ids {
			switch id := raw.(type) {
			case int:
				parsed = append(parsed, id)
			case int64:
				parsed = append(parsed, int(id))
			case float64:
				parsed = append(parsed, int(id))
			default:
				return nil, errFactory.WithData(errors.ErrInvalidConfig, raw)
			}
		}
		return parsed, nil
	default:
		return nil, errFactory.WithData(errors.ErrInvalidConfig, value)
	}
}
