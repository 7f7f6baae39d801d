// Package authz holds the role and ownership predicates shared by the booking and payment flows.
package authz

import (
	"context"

	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/pkg/apperror"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = apperror.New(apperror.Unauthenticated, "authentication required")
	ErrForbidden       = apperror.New(apperror.Forbidden, "you don't have permission to access this resource")
)

// Principal is the authenticated caller.
type Principal struct {
	UserID  uuid.UUID
	Email   string
	RoleID  int
	TokenID string
}

type principalKey struct{}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller attached by the auth middleware, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// IsOwner reports whether the principal is the owner of a resource.
func IsOwner(p *Principal, resourceOwnerID uuid.UUID) bool {
	return p != nil && p.UserID != uuid.Nil && p.UserID == resourceOwnerID
}

// HasRole reports whether the principal holds one of allowedRoleIDs.
func HasRole(p *Principal, allowedRoleIDs ...int) bool {
	if p == nil {
		return false
	}
	for _, id := range allowedRoleIDs {
		if p.RoleID == id {
			return true
		}
	}
	return false
}

// Require returns the caller if present and holding one of allowedRoleIDs.
// With no roles given any authenticated caller passes.
func Require(ctx context.Context, allowedRoleIDs ...int) (*Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if len(allowedRoleIDs) > 0 && !HasRole(p, allowedRoleIDs...) {
		return nil, ErrForbidden
	}
	return p, nil
}

// RequirePatient is Require for patient-only operations.
func RequirePatient(ctx context.Context) (*Principal, error) {
	return Require(ctx, entity.RoleIDPatient)
}

// RequireDoctor is Require for doctor-only operations.
func RequireDoctor(ctx context.Context) (*Principal, error) {
	return Require(ctx, entity.RoleIDDoctor)
}

// RequireOwner fails with forbidden unless p owns the resource.
func RequireOwner(p *Principal, resourceOwnerID uuid.UUID) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !IsOwner(p, resourceOwnerID) {
		return ErrForbidden
	}
	return nil
}
