package utils

import (
	"context"

	"github.com/mmdatafocus/retail_ledger/appctx"
)

func GetClerkNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyClerkName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
}

// SetClerkInContext stores the token claims for downstream handlers.
func SetClerkInContext(ctx context.Context, claims *JwtCustomClaim) context.Context {
	ctx = appctx.Set(ctx, appctx.ContextKeyClerkId, claims.ID)
	ctx = appctx.Set(ctx, appctx.ContextKeyClerkName, claims.Name)
	return appctx.Set(ctx, appctx.ContextKeyRole, claims.Role)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyCorrelationId, correlationId)
}
