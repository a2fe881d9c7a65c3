package utils

import (
	"context"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/appctx"
)

var (
	ContextKeyActorUserId   = appctx.ContextKeyActorUserId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyRequestSource = appctx.ContextKeyRequestSource
)

func GetActorUserIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyActorUserId)
}

func SetActorUserIdInContext(ctx context.Context, actorUserId string) context.Context {
	return appctx.Set(ctx, ContextKeyActorUserId, actorUserId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetRequestSourceFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRequestSource)
}

func SetRequestSourceInContext(ctx context.Context, source string) context.Context {
	return appctx.Set(ctx, ContextKeyRequestSource, source)
}
