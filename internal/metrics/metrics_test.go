package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("/query", http.StatusOK, 20*time.Millisecond, nil)
	m.ObserveRequest("/query", 0, time.Second, errors.New("refused"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("/query", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("/query", "error")))
}

func TestQueryLifecycle(t *testing.T) {
	m := New()
	m.QueryStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))

	m.QueryFinished(OutcomeSuccess, 0.9)
	m.QueryFinished(OutcomeFailure, 0)
	m.QueryRejected(OutcomeEmpty)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(OutcomeEmpty)))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.QueryRejected(OutcomeBusy)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `assistant_client_queries_total{outcome="busy"} 1`)
}
