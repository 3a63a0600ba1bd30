package middleware

import (
	"context"
	"net/http"

	"lektoria/internal/reqctx"

	"github.com/google/uuid"
)

// RequestID вешает на каждый запрос уникальный идентификатор для логов.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := uuid.New().String()
		ctx := context.WithValue(r.Context(), ContextRequestID, rid)
		ctx = reqctx.WithRequestID(ctx, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
