package middleware

import "context"

type contextKey string

const (
	ctxAccountID contextKey = "account_id"
	ctxRole      contextKey = "actor_role"
	ctxName      contextKey = "account_name"
)

// AccountIDFromContext returns the authenticated consumer or vendor id.
func AccountIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAccountID)
}

func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

func NameFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxName)
}

// WithAccount injects the authenticated identity into the context.
func WithAccount(ctx context.Context, accountID, role, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAccountID, accountID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxName, name)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
