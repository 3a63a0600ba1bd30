package middleware

import "context"

type ctxKey string

const (
	ContextRequestID ctxKey = "request_id"
	ContextUserID    ctxKey = "user_id"
)

func UserIDFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(ContextUserID).(int)
	return v, ok
}
