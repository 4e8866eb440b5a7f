package telemetry

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveScrape(t *testing.T) {
	tel := New()

	tel.ObserveScrape(true)
	tel.ObserveScrape(true)
	tel.ObserveScrape(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(tel.ScrapesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.ScrapesTotal.WithLabelValues("error")))
}

func TestObserveUpstream(t *testing.T) {
	tel := New()

	tel.ObserveUpstream("bullionvault", "200", 0.2)
	tel.ObserveUpstream("bullionvault", "500", 0.1)
	tel.ObserveUpstream("coinbase", "200", 0.05)

	assert.Equal(t, 1.0, testutil.ToFloat64(tel.UpstreamRequests.WithLabelValues("bullionvault", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.UpstreamRequests.WithLabelValues("bullionvault", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.UpstreamRequests.WithLabelValues("coinbase", "200")))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var tel *Telemetry
	tel.ObserveScrape(true)
	tel.ObserveUpstream("x", "200", 0.1)
}

func TestHandlerServesRegistry(t *testing.T) {
	tel := New()
	tel.ObserveScrape(true)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/telemetry", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "asset_monitoring_exporter_scrapes_total")
	assert.Contains(t, body, "go_goroutines")
}
