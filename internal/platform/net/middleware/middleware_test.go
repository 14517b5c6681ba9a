package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	perr "payeerules/internal/platform/errors"
	pnet "payeerules/internal/platform/net"
)

type portFunc func(r *http.Request) (string, error)

func (f portFunc) Parse(r *http.Request) (string, error) { return f(r) }

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, body := pnet.Error(err, pnet.RequestID(r.Context()))
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestRequestIDEchoed(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = pnet.RequestID(r.Context())
	}))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	h.ServeHTTP(rr, req)
	if seen != "abc-123" || rr.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("seen %q header %q", seen, rr.Header().Get("X-Request-Id"))
	}
}

func TestRecoverJSON(t *testing.T) {
	h := RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rr.Code)
	}
	var body pnet.Reply
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error == nil || body.Error.Code != "panic" {
		t.Fatalf("body %+v", body)
	}
}

func TestAuth(t *testing.T) {
	port := portFunc(func(r *http.Request) (string, error) {
		if r.Header.Get("Authorization") == "Bearer good" {
			return "tenant-a", nil
		}
		return "", perr.Unauthorizedf("bad token")
	})
	var tenant string
	h := Auth(port, writeErr)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		tenant = pnet.TenantID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized || tenant != "" {
		t.Fatalf("status %d tenant %q", rr.Code, tenant)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || tenant != "tenant-a" {
		t.Fatalf("status %d tenant %q", rr.Code, tenant)
	}
}

func TestAuthNilPortPassesThrough(t *testing.T) {
	called := false
	h := Auth(nil, writeErr)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("next not called")
	}
}

func TestAccessLogKeepsStatus(t *testing.T) {
	h := AccessLog(AccessLogOptions{Slow: time.Nanosecond, Skip: []string{"/health"}})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("x"))
		}))
	for _, p := range []string{"/rules", "/health"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, p, nil))
		if rr.Code != http.StatusTeapot || rr.Body.String() != "x" {
			t.Fatalf("%s: status %d body %q", p, rr.Code, rr.Body.String())
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(CORSOptions{AllowedOrigins: []string{"https://app.example"}})(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodOptions, "/rules", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("headers %v", rr.Header())
	}
}
