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

func TestAdmissionAndTransitions(t *testing.T) {
	m := New(false)

	m.ObserveAdmission(AdmissionAccepted)
	m.ObserveAdmission(AdmissionAccepted)
	m.ObserveAdmission(AdmissionCapacityExceeded)
	m.ObserveTransition("application", "SUBMITTED")
	m.ObserveSlotReleased()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.admissions.WithLabelValues(AdmissionAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.admissions.WithLabelValues(AdmissionCapacityExceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("application", "SUBMITTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotsReleased))
}

func TestObserveEventHandler(t *testing.T) {
	m := New(false)

	m.ObserveEventHandler("application.submitted", time.Millisecond, nil)
	m.ObserveEventHandler("application.submitted", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventHandled.WithLabelValues("application.submitted", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventHandled.WithLabelValues("application.submitted", "false")))
}

func TestHTTPAndHandler(t *testing.T) {
	m := New(true)

	done := m.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))

	m.ObserveHTTP(http.MethodGet, "/api/v1/scholarships/{id}", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `scholarship_hub_http_requests_total{method="GET",route="/api/v1/scholarships/{id}",status="200"} 1`)
	assert.Contains(t, body, `route="unmatched"`)
	assert.Contains(t, body, "go_goroutines")
}
