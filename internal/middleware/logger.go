package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		start := time.Now()

		wrapped := chiMiddleware.NewWrapResponseWriter(res, req.ProtoMajor)

		next.ServeHTTP(wrapped, req)

		zap.L().Info(
			"request",
			zap.String("requestID", chiMiddleware.GetReqID(req.Context())),
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", wrapped.Status()),
			zap.Int("size", wrapped.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
