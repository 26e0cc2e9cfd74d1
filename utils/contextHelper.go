package utils

import (
	"context"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyCustomerId    = appctx.ContextKeyCustomerId
	ContextKeyCustomerEmail = appctx.ContextKeyCustomerEmail
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyIsOperator    = appctx.ContextKeyIsOperator
)

func GetCustomerIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCustomerId)
}

func GetCustomerEmailFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCustomerEmail)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetIsOperatorFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsOperator)
}

func SetCustomerIdInContext(ctx context.Context, customerId string) context.Context {
	return appctx.Set(ctx, ContextKeyCustomerId, customerId)
}

func SetCustomerEmailInContext(ctx context.Context, email string) context.Context {
	return appctx.Set(ctx, ContextKeyCustomerEmail, email)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetIsOperatorInContext(ctx context.Context, isOperator bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsOperator, isOperator)
}
