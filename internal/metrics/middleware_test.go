package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/dossier/v1/feature-collection/{cid}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	})

	for _, cid := range []string{"doc-1", "doc-2", "doc-3"} {
		req := httptest.NewRequest("GET", "/dossier/v1/feature-collection/"+cid, http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	}

	// All three requests collapse onto the route pattern label.
	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(
		"GET", "/dossier/v1/feature-collection/{cid}", "200"))
	if val < 3 {
		t.Errorf("expected http_requests_total >= 3 for the route pattern, got %f", val)
	}

	if count := testutil.CollectAndCount(httpRequestDuration); count < 1 {
		t.Errorf("expected duration series recorded, got %d", count)
	}
}

func TestMiddleware_RecordsErrorStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/dossier/v1/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest("GET", "/dossier/v1/missing", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/dossier/v1/missing", "404"))
	if val < 1 {
		t.Errorf("expected http_requests_total >= 1 for 404, got %f", val)
	}
}
