package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/petasbytes/course-rag/internal/logging"
	"github.com/petasbytes/course-rag/internal/metrics"
	"github.com/petasbytes/course-rag/internal/rag"
	"github.com/petasbytes/course-rag/memory"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// handle registers h under route with request logging, a request id and
// HTTP metrics labelled by the route pattern.
func (s *Server) handle(method, route string, h httprouter.Handle) {
	s.router.Handle(method, route, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = logging.NewRequestID()
		}
		w.Header().Set(requestIDHeader, id)

		log := s.logger.With().Str("request_id", id).Logger()
		r = r.WithContext(log.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r, ps)

		d := time.Since(start)
		metrics.RecordHTTPRequest(route, rec.status, d)
		log.Debug().
			Str("method", method).
			Str("route", route).
			Int("status", rec.status).
			Dur("duration", d).
			Msg("HTTP request")
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rag.ErrEmptyQuery), errors.Is(err, memory.ErrInvalidSessionID):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		// client went away; the code is only for logs and metrics
		return 499
	default:
		return http.StatusInternalServerError
	}
}
