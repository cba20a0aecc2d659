package utils

import "context"

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "email"
	UserRoleKey  contextKey = "role"
	UserTierKey  contextKey = "tier"
)

const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"

	// GuestUserID marks orders placed without a signed-in customer.
	GuestUserID = "GUEST"
)

// SetUserContext stores the authenticated identity (called by middleware).
func SetUserContext(ctx context.Context, id, email, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

func GetUserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

func IsAdmin(ctx context.Context) bool {
	return GetUserRoleFromContext(ctx) == RoleAdmin
}

// SetCustomerTier records the pricing tier carried by the caller's token.
func SetCustomerTier(ctx context.Context, tier string) context.Context {
	return context.WithValue(ctx, UserTierKey, tier)
}

// GetCustomerTierFromContext returns "" for anonymous callers and accounts
// without a tier, which the shipping engine prices as retail.
func GetCustomerTierFromContext(ctx context.Context) string {
	tier, _ := ctx.Value(UserTierKey).(string)
	return tier
}
