package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marsd/internal/scorer"
	"marsd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Score(ctx context.Context, body io.Reader) ([]float64, error)
}

// NewMux builds the serving router: the hosting contract endpoints
// (/ping, /invocations) plus the operational surface (/healthz,
// /metrics, optional swagger).
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// Health check: fixed payload, no side effects. The hosting
	// platform probes it with either verb depending on version.
	ping := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.PingResponse{Status: "ok"})
	}
	r.Get("/ping", ping)
	r.Post("/ping", ping)

	r.Post("/invocations", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "text/csv") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be text/csv")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		start := time.Now()
		lvl := requestLogLevel(r)
		if lvl >= LevelInfo {
			if zlog != nil {
				z := zlog.Info().Str("path", r.URL.Path)
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Msg("invocation start")
			} else {
				log.Printf("invocation start path=%s", r.URL.Path)
			}
		}
		// Join server base context with request context so shutdown cancels work too.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		preds, err := svc.Score(joinedCtx, r.Body)
		if err != nil {
			// If context was canceled (client disconnect), just return.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := http.StatusInternalServerError
			switch {
			case scorer.IsBadRequest(err):
				status = http.StatusBadRequest
			case scorer.IsArtifactUnavailable(err):
				status = http.StatusServiceUnavailable
			default:
				if he, ok := err.(HTTPError); ok {
					status = he.StatusCode()
				}
			}
			writeJSONError(w, status, err.Error())
			logInvocationEnd(r, status, 0, time.Since(start), err, lvl)
			return
		}
		ObservePredictions(len(preds))
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(joinPredictions(preds)))
		logInvocationEnd(r, http.StatusOK, len(preds), time.Since(start), nil, lvl)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// joinPredictions renders the response body: one comma-joined line of
// numeric predictions.
func joinPredictions(preds []float64) string {
	var b strings.Builder
	for i, v := range preds {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte('\n')
	return b.String()
}

func logInvocationEnd(r *http.Request, status, rows int, dur time.Duration, err error, lvl LogLevel) {
	if lvl < LevelInfo {
		return
	}
	if zlog != nil {
		z := zlog.Info().Int("status", status).Int("rows", rows).Dur("dur", dur)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		if err != nil {
			z = z.Err(err)
		}
		z.Msg("invocation end")
		return
	}
	if err != nil {
		log.Printf("invocation end status=%d dur=%s err=%v", status, dur, err)
		return
	}
	log.Printf("invocation end status=%d rows=%d dur=%s", status, rows, dur)
}
