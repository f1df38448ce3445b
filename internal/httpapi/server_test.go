package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockService struct {
	preds []float64
	err   error
	calls int
}

func (m *mockService) Score(ctx context.Context, body io.Reader) ([]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	return append([]float64(nil), m.preds...), nil
}

func postCSV(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPing_FixedAndIdempotent(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	for i := 0; i < 3; i++ {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(method, "/ping", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("%s /ping status=%d", method, w.Code)
			}
			if !strings.Contains(w.Body.String(), `"status":"ok"`) {
				t.Fatalf("body=%q", w.Body.String())
			}
		}
	}
	if svc.calls != 0 {
		t.Fatalf("ping must not touch the service, calls=%d", svc.calls)
	}
}

func TestInvocations_OK(t *testing.T) {
	svc := &mockService{preds: []float64{1.5, 2, 3.25}}
	r := NewMux(svc)
	w := postCSV(t, r, "x\n1\n2\n3\n")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Fatalf("content-type=%s", ct)
	}
	if got := w.Body.String(); got != "1.5,2,3.25\n" {
		t.Fatalf("body=%q", got)
	}
}

func TestInvocations_RequiresCSVContentType(t *testing.T) {
	r := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader("x\n1\n"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestInvocations_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", scorerBadRequest(t), http.StatusBadRequest},
		{"artifact missing", scorerArtifactMissing(t), http.StatusServiceUnavailable},
		{"http error", mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewMux(&mockService{err: tc.err})
			w := postCSV(t, r, "x\n1\n")
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d", w.Code, tc.want)
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Fatalf("body=%q", w.Body.String())
			}
		})
	}
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func TestHealthz(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestJoinPredictions(t *testing.T) {
	if got := joinPredictions([]float64{5.1}); got != "5.1\n" {
		t.Fatalf("got %q", got)
	}
	if got := joinPredictions(nil); got != "\n" {
		t.Fatalf("got %q", got)
	}
}
