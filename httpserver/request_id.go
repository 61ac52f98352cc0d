package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/ruteri/esign-template-backend/api"
)

type requestIDKey struct{}

// requestID tags every request with a "req_" prefixed UUID, returned in the
// X-Request-Id header and in error bodies.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := newRequestID()
		w.Header().Set(api.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return newRequestID()
}

func newRequestID() string {
	return "req_" + uuid.NewString()
}
