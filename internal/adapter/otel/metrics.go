package otel

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "cardsmarket"

// Metrics holds the cache and API instruments. It implements
// cache.Observer and marketapi.RequestObserver.
type Metrics struct {
	CacheHits        metric.Int64Counter
	CacheMisses      metric.Int64Counter
	CacheFetchErrors metric.Int64Counter
	CacheFetchTime   metric.Float64Histogram
	CacheSwept       metric.Int64Counter
	APIRequests      metric.Int64Counter
	APIDuration      metric.Float64Histogram
}

// NewMetrics creates all instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates all instruments on mp.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.CacheHits, err = meter.Int64Counter("cardsmarket.cache.hits",
		metric.WithDescription("Cache lookups served from a valid entry"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("cardsmarket.cache.misses",
		metric.WithDescription("Cache lookups that invoked the fetcher"))
	if err != nil {
		return nil, err
	}

	m.CacheFetchErrors, err = meter.Int64Counter("cardsmarket.cache.fetch_errors",
		metric.WithDescription("Fetcher calls that failed"))
	if err != nil {
		return nil, err
	}

	m.CacheFetchTime, err = meter.Float64Histogram("cardsmarket.cache.fetch_seconds",
		metric.WithDescription("Duration of successful fetches in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.CacheSwept, err = meter.Int64Counter("cardsmarket.cache.swept",
		metric.WithDescription("Expired entries removed by sweeps"))
	if err != nil {
		return nil, err
	}

	m.APIRequests, err = meter.Int64Counter("cardsmarket.api.requests",
		metric.WithDescription("Requests sent to the marketplace API"))
	if err != nil {
		return nil, err
	}

	m.APIDuration, err = meter.Float64Histogram("cardsmarket.api.duration_seconds",
		metric.WithDescription("Marketplace API request duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func keyAttr(key string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("cache.key", key))
}

func (m *Metrics) Hit(key string) {
	m.CacheHits.Add(context.Background(), 1, keyAttr(key))
}

func (m *Metrics) Miss(key string) {
	m.CacheMisses.Add(context.Background(), 1, keyAttr(key))
}

func (m *Metrics) FetchError(key string, _ error) {
	m.CacheFetchErrors.Add(context.Background(), 1, keyAttr(key))
}

func (m *Metrics) Stored(key string, took time.Duration) {
	m.CacheFetchTime.Record(context.Background(), took.Seconds(), keyAttr(key))
}

// Swept records the result of an expired-entry sweep.
func (m *Metrics) Swept(n int) {
	m.CacheSwept.Add(context.Background(), int64(n))
}

// Request records one marketplace API call. Status 0 means no response.
func (m *Metrics) Request(method, path string, status int, took time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.String("http.status", strconv.Itoa(status)),
	)
	m.APIRequests.Add(context.Background(), 1, attrs)
	m.APIDuration.Record(context.Background(), took.Seconds(), attrs)
}
