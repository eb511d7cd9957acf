package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type recordedRequest struct {
	method string
	route  string
	status int
}

type fakeRequestMetrics struct {
	inFlight int
	requests []recordedRequest
}

func (f *fakeRequestMetrics) RequestStarted() {
	f.inFlight++
}

func (f *fakeRequestMetrics) RequestFinished(method, route string, status int, elapsed time.Duration) {
	f.inFlight--
	f.requests = append(f.requests, recordedRequest{method: method, route: route, status: status})
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		statusCode int
		wantRoute  string
	}{
		{
			name:       "labels by route pattern",
			method:     http.MethodGet,
			path:       "/api/v1/accounts/8d0c2d6e-5a55-4b7e-9d8f-0e4c1f1f1a2b",
			statusCode: http.StatusTeapot,
			wantRoute:  "/api/v1/accounts/{key}",
		},
		{
			name:       "static route",
			method:     http.MethodPost,
			path:       "/health",
			statusCode: http.StatusCreated,
			wantRoute:  "/health",
		},
		{
			name:       "unmatched route",
			method:     http.MethodGet,
			path:       "/nope",
			statusCode: http.StatusNotFound,
			wantRoute:  "unmatched",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeRequestMetrics{}

			r := chi.NewRouter()
			r.Use(Metrics(fake))

			respond := func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			}
			r.Get("/api/v1/accounts/{key}", respond)
			r.Post("/health", respond)

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if fake.inFlight != 0 {
				t.Fatalf("expected in-flight to return to 0, got %d", fake.inFlight)
			}

			if len(fake.requests) != 1 {
				t.Fatalf("expected one recorded request, got %d", len(fake.requests))
			}

			got := fake.requests[0]
			if got.route != tc.wantRoute || got.status != tc.statusCode || got.method != tc.method {
				t.Fatalf("unexpected record %+v", got)
			}
		})
	}
}
