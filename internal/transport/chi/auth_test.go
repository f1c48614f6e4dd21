package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedHandler(apiKeys []string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return BearerAuthMiddleware(apiKeys)(next)
}

func TestBearerAuth_Disabled(t *testing.T) {
	h := authedHandler(nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/dossier/v1/search_engines", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 when auth is disabled", rr.Code)
	}
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	h := authedHandler([]string{"key1"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/dossier/v1/search_engines", http.NoBody))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestBearerAuth_WrongScheme(t *testing.T) {
	h := authedHandler([]string{"key1"})
	req := httptest.NewRequest("GET", "/dossier/v1/search_engines", http.NoBody)
	req.Header.Set("Authorization", "Basic key1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestBearerAuth_InvalidKey(t *testing.T) {
	h := authedHandler([]string{"key1"})
	req := httptest.NewRequest("GET", "/dossier/v1/search_engines", http.NoBody)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestBearerAuth_ValidKey(t *testing.T) {
	h := authedHandler([]string{"key1", "key2"})
	req := httptest.NewRequest("GET", "/dossier/v1/search_engines", http.NoBody)
	req.Header.Set("Authorization", "Bearer key2")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestBearerAuth_ExemptPaths(t *testing.T) {
	h := authedHandler([]string{"key1"})
	for _, path := range []string{"/healthz", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))
		if rr.Code != http.StatusOK {
			t.Errorf("status for %s = %d, want 200 without credentials", path, rr.Code)
		}
	}
}
