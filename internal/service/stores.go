package service

import (
	"context"
	"io"

	"oneaccount/api/internal/models"
	"oneaccount/api/internal/storage"
)

// AccountStore is the credential store surface the identity service needs
// for the root aggregate.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	GetByID(ctx context.Context, id string) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	ContactExists(ctx context.Context, email string, phone string) (bool, error)
	UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) error
}

// RoleStore persists tier-specific records. The Create methods are atomic
// over the tier table and the account's role registry.
type RoleStore interface {
	CreateUser(ctx context.Context, user models.User) error
	CreateAdmin(ctx context.Context, admin models.Admin) error
	CreateSuperAdmin(ctx context.Context, superAdmin models.SuperAdmin) error

	GetUser(ctx context.Context, id string) (models.User, error)
	GetAdmin(ctx context.Context, id string) (models.Admin, error)
	GetSuperAdmin(ctx context.Context, id string) (models.SuperAdmin, error)

	FindUserByAccount(ctx context.Context, accountID string) (models.User, error)
	FindAdminByAccount(ctx context.Context, accountID string) (models.Admin, error)
	FindSuperAdminByAccount(ctx context.Context, accountID string) (models.SuperAdmin, error)
}

// BlobStore holds avatar binaries. Not transactional; the service
// compensates with best-effort destroys.
type BlobStore interface {
	Upload(ctx context.Context, reader io.Reader, size int64, contentType string) (storage.Blob, error)
	Destroy(ctx context.Context, blobID string) error
}

// LoginLimiter throttles failed logins per identifier. Errors are treated as
// fail-open by the service.
type LoginLimiter interface {
	Allowed(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

// Principal is the fully resolved caller identity threaded to handlers.
// Exactly the role fields matching the guard's tier are set; secret digests
// are stripped before the principal leaves the service.
type Principal struct {
	Account    models.Account
	User       *models.User
	Admin      *models.Admin
	SuperAdmin *models.SuperAdmin
}
