package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxIdentityID contextKey = "identity_id"
	ctxMemberID   contextKey = "member_id"
	ctxAccessID   contextKey = "access_id"
	ctxIsStaff    contextKey = "is_staff"
	ctxIsSuper    contextKey = "is_superuser"
)

// IdentityIDFromContext returns the authenticated identity's UUID, or Nil.
func IdentityIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxIdentityID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func MemberIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxMemberID).(string); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the session identifier (JWT jti) for the request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func IsStaffFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxIsStaff).(bool); ok {
		return v
	}
	return false
}

func IsSuperuserFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxIsSuper).(bool); ok {
		return v
	}
	return false
}

// WithIdentity seeds the context the way Auth does, for tests and internal calls.
func WithIdentity(ctx context.Context, identityID uuid.UUID, memberID, accessID string, isStaff, isSuperuser bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxIdentityID, identityID)
	ctx = context.WithValue(ctx, ctxMemberID, memberID)
	ctx = context.WithValue(ctx, ctxAccessID, accessID)
	ctx = context.WithValue(ctx, ctxIsStaff, isStaff)
	return context.WithValue(ctx, ctxIsSuper, isSuperuser)
}
