package service

import (
	"context"
	"errors"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/models"
	"oneaccount/api/internal/repository"
	"oneaccount/api/internal/security"
)

// The resolvers turn a bearer token back into a fully loaded principal on
// every request. Nothing is cached: activation flags are re-read each time,
// so suspending a role takes effect on the next call.

// ResolveAccount resolves an account-tier token to its account.
func (s *IdentityService) ResolveAccount(ctx context.Context, token string) (Principal, error) {
	accountID, err := s.tokens.Verify(token, security.TierAccount)
	if err != nil {
		return Principal{}, apperr.Unauthorized("invalid access token")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return Principal{}, apperr.Unauthorized("invalid access token")
	}

	return Principal{Account: sanitizeAccount(account)}, nil
}

// ResolveUser resolves an account-tier token and requires an active USER
// attachment plus an active user record.
func (s *IdentityService) ResolveUser(ctx context.Context, token string) (Principal, error) {
	principal, err := s.ResolveAccount(ctx, token)
	if err != nil {
		return Principal{}, err
	}

	attachment, ok := principal.Account.Roles.Find(models.RoleKindUser)
	if !ok {
		return Principal{}, apperr.RoleNotRegistered("need to register as a user first")
	}
	if !attachment.Active {
		return Principal{}, apperr.RoleInactive("user role is not active")
	}

	user, err := s.roles.GetUser(ctx, attachment.RoleID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return Principal{}, apperr.NotFound("user record not found")
		}
		return Principal{}, apperr.Internal("user record lookup failed").WithCause(err)
	}
	if !user.Active {
		return Principal{}, apperr.RoleInactive("user record is not active")
	}

	principal.User = &user
	return principal, nil
}

// ResolveAdmin resolves an admin-tier token. The token subject is the admin
// record's id; the owning account is loaded through its back-reference and
// the registry attachment's activation flag is re-checked on the account
// side too.
func (s *IdentityService) ResolveAdmin(ctx context.Context, token string) (Principal, error) {
	adminID, err := s.tokens.Verify(token, security.TierAdmin)
	if err != nil {
		return Principal{}, apperr.Unauthorized("invalid admin access token")
	}

	admin, err := s.roles.GetAdmin(ctx, adminID)
	if err != nil {
		return Principal{}, apperr.Unauthorized("invalid admin access token")
	}
	if !admin.Active {
		return Principal{}, apperr.RoleInactive("admin record is not active")
	}

	account, err := s.accounts.GetByID(ctx, admin.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return Principal{}, apperr.NotFound("account not found")
		}
		return Principal{}, apperr.Internal("account lookup failed").WithCause(err)
	}

	attachment, ok := account.Roles.Find(models.RoleKindAdmin)
	if !ok {
		return Principal{}, apperr.Unauthorized("admin role is not attached to the account")
	}
	if !attachment.Active {
		return Principal{}, apperr.RoleInactive("admin role is not active")
	}

	sanitized := sanitizeAdmin(admin)
	return Principal{Account: sanitizeAccount(account), Admin: &sanitized}, nil
}

// ResolveSuperAdmin mirrors ResolveAdmin for the SUPERADMIN tier.
func (s *IdentityService) ResolveSuperAdmin(ctx context.Context, token string) (Principal, error) {
	superID, err := s.tokens.Verify(token, security.TierSuperAdmin)
	if err != nil {
		return Principal{}, apperr.Unauthorized("invalid superadmin access token")
	}

	superAdmin, err := s.roles.GetSuperAdmin(ctx, superID)
	if err != nil {
		return Principal{}, apperr.Unauthorized("invalid superadmin access token")
	}
	if !superAdmin.Active {
		return Principal{}, apperr.RoleInactive("superadmin record is not active")
	}

	account, err := s.accounts.GetByID(ctx, superAdmin.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return Principal{}, apperr.NotFound("account not found")
		}
		return Principal{}, apperr.Internal("account lookup failed").WithCause(err)
	}

	attachment, ok := account.Roles.Find(models.RoleKindSuperAdmin)
	if !ok {
		return Principal{}, apperr.Unauthorized("superadmin role is not attached to the account")
	}
	if !attachment.Active {
		return Principal{}, apperr.RoleInactive("superadmin role is not active")
	}

	sanitized := sanitizeSuperAdmin(superAdmin)
	return Principal{Account: sanitizeAccount(account), SuperAdmin: &sanitized}, nil
}
