package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/mutker/purpleair-exporter/internal/errors"
	"codeberg.org/mutker/purpleair-exporter/internal/fetch"
	"codeberg.org/mutker/purpleair-exporter/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	body, err := fetch.New(time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results": []}`, string(body))
}

func TestFetchThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := fetch.New(time.Second).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, fetch.IsThrottled(err))
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fetch.New(time.Second).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.False(t, fetch.IsThrottled(err))
	assert.Equal(t, fetch.ErrFetch, errors.CodeOf(err))
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := fetch.New(time.Second).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, fetch.ErrFetch, errors.CodeOf(err))
}

func TestURL(t *testing.T) {
	assert.Equal(t,
		"https://www.purpleair.com/json?show=12345",
		fetch.URL(sensor.VariantLegacy, "www.purpleair.com", "", 12345))

	assert.Equal(t,
		"https://api.purpleair.com/v1/sensors/42?token=secret&fields=name,pm2.5,pm10.0,temperature,humidity,pressure,last_seen",
		fetch.URL(sensor.VariantCurrent, "api.purpleair.com", "secret", 42))
}
