package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	m := NewServerMetrics(prometheus.NewRegistry())
	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/api/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/api/categories/1", "/api/categories/2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/categories/{id}", "GET", "404")))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *ServerMetrics
	m.ObserveOrder("created")
	m.ObserveImport("json", 1, 1)
	m.ObserveNotification("telegram", true)

	rec := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestBusinessCounters(t *testing.T) {
	m := NewServerMetrics(prometheus.NewRegistry())
	m.ObserveImport("bitrix", 3, 2)
	m.ObserveNotification("email", false)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportItems.WithLabelValues("bitrix", "imported")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportItems.WithLabelValues("bitrix", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("email", "failed")))
}
