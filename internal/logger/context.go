package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// requestScope - то, что каждая строка лога запроса несет автоматически
type requestScope struct {
	requestID string
	userID    string
}

func scopeOf(ctx context.Context) requestScope {
	if ctx == nil {
		return requestScope{}
	}
	scope, _ := ctx.Value(ctxKey{}).(requestScope)
	return scope
}

// WithRequestID - ставит RequestIDMiddleware
func WithRequestID(ctx context.Context, requestID string) context.Context {
	scope := scopeOf(ctx)
	scope.requestID = requestID
	return context.WithValue(ctx, ctxKey{}, scope)
}

// WithUserID - ставит AuthMiddleware после проверки токена
func WithUserID(ctx context.Context, userID string) context.Context {
	scope := scopeOf(ctx)
	scope.userID = userID
	return context.WithValue(ctx, ctxKey{}, scope)
}

// FromContext - глобальный логгер с request_id/user_id текущего запроса
func FromContext(ctx context.Context) *slog.Logger {
	scope := scopeOf(ctx)
	attrs := make([]any, 0, 2)
	if scope.requestID != "" {
		attrs = append(attrs, slog.String("request_id", scope.requestID))
	}
	if scope.userID != "" {
		attrs = append(attrs, slog.String("user_id", scope.userID))
	}
	if len(attrs) == 0 {
		return GetLogger()
	}
	return GetLogger().With(attrs...)
}

func CtxDebug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func CtxInfo(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func CtxWarn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

func CtxError(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}

// CtxWithError - error первым полем, nil пишется как "<nil>"
func CtxWithError(ctx context.Context, msg string, err error, args ...any) {
	var errAttr slog.Attr
	if err != nil {
		errAttr = slog.String("error", err.Error())
	} else {
		errAttr = slog.String("error", "<nil>")
	}
	FromContext(ctx).Error(msg, append([]any{errAttr}, args...)...)
}
