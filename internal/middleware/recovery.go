package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"silkmaker-backend/pkg/api"
)

// Recovery middleware handles panics and converts them to proper HTTP error responses
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return RecoveryWithHandler(logger, DefaultPanicHandler)
}

// RecoveryWithHandler allows custom handling of panics. The handler receives
// a chi WrapResponseWriter, so it can tell whether the response has started.
func RecoveryWithHandler(logger *zap.Logger, handler func(w http.ResponseWriter, r *http.Request, err any)) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					zap.String("request_id", GetRequestIDFromRequest(r)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("panic", fmt.Sprint(rec)),
					zap.ByteString("stack", debug.Stack()),
				)
				handler(ww, r, rec)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// DefaultPanicHandler writes a 500 unless the status line has already been
// sent. Headers set before the panic are discarded.
func DefaultPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	if ww, ok := w.(chimiddleware.WrapResponseWriter); ok && ww.Status() != 0 {
		return
	}
	h := w.Header()
	for key := range h {
		if key != RequestIDHeader {
			h.Del(key)
		}
	}
	api.Error(w, http.StatusInternalServerError, "Internal server error")
}
