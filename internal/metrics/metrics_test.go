package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveUpload("wizard", "ok")
		r.ObserveStorage("put", nil)
		r.ObserveOutcome("done", 3)
		r.ObserveFallback()
	})
}

func TestCountersAndHandler(t *testing.T) {
	r := NewRegistry()
	r.ObserveStorage("put", nil)
	r.ObserveStorage("put", errors.New("down"))
	r.ObserveFallback()
	r.ObserveOutcome("timeout", 30)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.StorageOps.WithLabelValues("put", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TryOnFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TryOnOutcomes.WithLabelValues("timeout")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "atelier_tryon_fallbacks_total 1")
}
