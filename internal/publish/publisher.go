// Package publish fans readings out to an MQTT broker. The broker is
// optional; when none is configured the exporter runs scrape-only.
package publish

import (
	"context"
	"encoding/json"
	"time"

	"codeberg.org/mutker/purpleair-exporter/internal/errors"
	"codeberg.org/mutker/purpleair-exporter/internal/logger"
	"codeberg.org/mutker/purpleair-exporter/internal/sensor"
	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectMaxElapsed  = 10 * time.Second
	connectMaxRetries  = 4
	disconnectQuiesce  = 250
	defaultClientIDStr = "purpleair-exporter"
)

type Config struct {
	Broker   string // e.g. tcp://broker:1883
	Topic    string
	ClientID string
}

func (c Config) Validate() error {
	errFactory := errors.New()
	if c.Broker == "" || c.Topic == "" {
		return errFactory.New(ErrInvalidConfig)
	}

	return nil
}

type Publisher struct {
	client mqtt.Client
	topic  string
}

// Connect dials the broker, retrying with exponential backoff. Connect
// retries happen only at startup; per-reading publish failures are not
// retried.
func Connect(ctx context.Context, cfg Config) (*Publisher, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = defaultClientIDStr
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed

	err := backoff.Retry(func() error {
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Debug().Err(token.Error()).Msg("MQTT connect attempt failed")
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, connectMaxRetries), ctx))
	if err != nil {
		return nil, errFactory.Wrap(ErrConnect, err)
	}

	logger.Info().Str("broker", cfg.Broker).Str("topic", cfg.Topic).Msg("Connected to MQTT broker")

	return &Publisher{
		client: client,
		topic:  cfg.Topic,
	}, nil
}

// PublishReading sends one reading as JSON at QoS 0.
func (p *Publisher) PublishReading(r sensor.Reading) error {
	errFactory := errors.New()

	payload, err := encodeReading(r)
	if err != nil {
		return errFactory.Wrap(ErrEncode, err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		return errFactory.Wrap(ErrPublish, token.Error())
	}

	return nil
}

// Close disconnects from the broker
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
	}
}

type readingMessage struct {
	UnitID   int                      `json:"unit_id"`
	SensorID string                   `json:"sensor_id"`
	Label    string                   `json:"label,omitempty"`
	Fields   map[sensor.Field]float64 `json:"fields"`
}

func encodeReading(r sensor.Reading) ([]byte, error) {
	return json.Marshal(readingMessage{
		UnitID:   r.UnitID,
		SensorID: r.SensorID,
		Label:    r.Label,
		Fields:   r.Fields,
	})
}
