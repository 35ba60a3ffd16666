package monitor

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHandler(t *testing.T) {
	h := StatusHandler(func() interface{} {
		return map[string]interface{}{"running": true, "trackedWallets": []string{"A"}}
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"running":true,"trackedWallets":["A"]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestObserveAggregatorCall(t *testing.T) {
	before := metricValue(t, AggregatorCalls.WithLabelValues("quote", "error"))
	ObserveAggregatorCall("quote", time.Now(), errors.New("boom"))
	assert.Equal(t, before+1, metricValue(t, AggregatorCalls.WithLabelValues("quote", "error")))
}

func TestSetEngineRunning(t *testing.T) {
	SetEngineRunning(true)
	assert.Equal(t, float64(1), metricValue(t, EngineRunning))
	SetEngineRunning(false)
	assert.Equal(t, float64(0), metricValue(t, EngineRunning))
}
