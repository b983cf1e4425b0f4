package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppMetrics_ExposedByHandler(t *testing.T) {
	reg := NewRegistry()
	m := NewAppMetrics(reg)

	m.FrameTotal.WithLabelValues("status", "ok").Inc()
	m.ActionTotal.WithLabelValues("volume_up", Result(nil)).Inc()
	m.SubscriberGauge.Set(3)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.FrameTotal.WithLabelValues("status", "ok")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "amp_frame_total"))
	assert.True(t, strings.Contains(body, "amp_subscribers 3"))
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("x")))
}
