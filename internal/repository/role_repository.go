package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oneaccount/api/internal/models"
)

var (
	ErrRoleNotFound  = errors.New("role record not found")
	ErrDuplicateRole = errors.New("role already registered for account")
)

// RoleRepository persists the tier-specific collections (users, admins,
// superadmins) and the account's denormalized role registry. Every create is
// a single transaction spanning the tier table and account_roles: readers
// never observe a role record without its registry entry or the reverse.
type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// CreateUser inserts the USER record and attaches it to the account
// atomically.
func (r *RoleRepository) CreateUser(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (id, account_id, public_name, user_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	return r.createWithAttachment(ctx, user.AccountID, models.RoleKindUser, user.ID,
		query, user.ID, user.AccountID, user.PublicName, user.UserName, user.Active)
}

// CreateAdmin inserts the ADMIN record and attaches it to the account
// atomically.
func (r *RoleRepository) CreateAdmin(ctx context.Context, admin models.Admin) error {
	const query = `
		INSERT INTO admins (id, account_id, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	return r.createWithAttachment(ctx, admin.AccountID, models.RoleKindAdmin, admin.ID,
		query, admin.ID, admin.AccountID, admin.PasswordHash, admin.Active)
}

// CreateSuperAdmin inserts the SUPERADMIN record and attaches it to the
// account atomically.
func (r *RoleRepository) CreateSuperAdmin(ctx context.Context, superAdmin models.SuperAdmin) error {
	const query = `
		INSERT INTO superadmins (id, account_id, super_password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	return r.createWithAttachment(ctx, superAdmin.AccountID, models.RoleKindSuperAdmin, superAdmin.ID,
		query, superAdmin.ID, superAdmin.AccountID, superAdmin.SuperPasswordHash, superAdmin.Active)
}

func (r *RoleRepository) createWithAttachment(
	ctx context.Context,
	accountID string,
	kind models.RoleKind,
	roleID string,
	insertQuery string,
	insertArgs ...any,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertQuery, insertArgs...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRole
		}
		return fmt.Errorf("insert %s record: %w", kind, err)
	}

	const attachQuery = `
		INSERT INTO account_roles (account_id, role_name, role_id, is_active, position)
		SELECT $1, $2, $3, TRUE, COALESCE(MAX(position) + 1, 0)
		FROM account_roles WHERE account_id = $1
	`
	if _, err := tx.Exec(ctx, attachQuery, accountID, kind, roleID); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRole
		}
		return fmt.Errorf("attach %s role: %w", kind, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *RoleRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT id, account_id, public_name, user_name, is_active, created_at, updated_at
		FROM users WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *RoleRepository) FindUserByAccount(ctx context.Context, accountID string) (models.User, error) {
	const query = `
		SELECT id, account_id, public_name, user_name, is_active, created_at, updated_at
		FROM users WHERE account_id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, accountID))
}

func (r *RoleRepository) scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.AccountID,
		&user.PublicName,
		&user.UserName,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrRoleNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *RoleRepository) GetAdmin(ctx context.Context, id string) (models.Admin, error) {
	const query = `
		SELECT id, account_id, password_hash, is_active, created_at, updated_at
		FROM admins WHERE id = $1
	`
	return r.scanAdmin(r.pool.QueryRow(ctx, query, id))
}

func (r *RoleRepository) FindAdminByAccount(ctx context.Context, accountID string) (models.Admin, error) {
	const query = `
		SELECT id, account_id, password_hash, is_active, created_at, updated_at
		FROM admins WHERE account_id = $1
	`
	return r.scanAdmin(r.pool.QueryRow(ctx, query, accountID))
}

func (r *RoleRepository) scanAdmin(row pgx.Row) (models.Admin, error) {
	var admin models.Admin
	if err := row.Scan(
		&admin.ID,
		&admin.AccountID,
		&admin.PasswordHash,
		&admin.Active,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, ErrRoleNotFound
		}
		return models.Admin{}, err
	}
	return admin, nil
}

func (r *RoleRepository) GetSuperAdmin(ctx context.Context, id string) (models.SuperAdmin, error) {
	const query = `
		SELECT id, account_id, super_password_hash, is_active, created_at, updated_at
		FROM superadmins WHERE id = $1
	`
	return r.scanSuperAdmin(r.pool.QueryRow(ctx, query, id))
}

func (r *RoleRepository) FindSuperAdminByAccount(ctx context.Context, accountID string) (models.SuperAdmin, error) {
	const query = `
		SELECT id, account_id, super_password_hash, is_active, created_at, updated_at
		FROM superadmins WHERE account_id = $1
	`
	return r.scanSuperAdmin(r.pool.QueryRow(ctx, query, accountID))
}

func (r *RoleRepository) scanSuperAdmin(row pgx.Row) (models.SuperAdmin, error) {
	var superAdmin models.SuperAdmin
	if err := row.Scan(
		&superAdmin.ID,
		&superAdmin.AccountID,
		&superAdmin.SuperPasswordHash,
		&superAdmin.Active,
		&superAdmin.CreatedAt,
		&superAdmin.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SuperAdmin{}, ErrRoleNotFound
		}
		return models.SuperAdmin{}, err
	}
	return superAdmin, nil
}

// SweepOrphans reports consistency drift between the tier tables and the
// registry: attachments whose record is gone and records with no
// attachment. Registered creates are transactional so this should stay
// empty; rows here mean out-of-band writes.
func (r *RoleRepository) SweepOrphans(ctx context.Context) (danglingAttachments int, orphanRecords int, err error) {
	const dangling = `
		SELECT COUNT(*) FROM account_roles ar
		WHERE (ar.role_name = 'USER' AND NOT EXISTS (SELECT 1 FROM users u WHERE u.id = ar.role_id))
		   OR (ar.role_name = 'ADMIN' AND NOT EXISTS (SELECT 1 FROM admins a WHERE a.id = ar.role_id))
		   OR (ar.role_name = 'SUPERADMIN' AND NOT EXISTS (SELECT 1 FROM superadmins s WHERE s.id = ar.role_id))
	`
	if err = r.pool.QueryRow(ctx, dangling).Scan(&danglingAttachments); err != nil {
		return 0, 0, err
	}

	const orphans = `
		SELECT
			(SELECT COUNT(*) FROM users u WHERE NOT EXISTS (
				SELECT 1 FROM account_roles ar WHERE ar.role_id = u.id AND ar.role_name = 'USER')) +
			(SELECT COUNT(*) FROM admins a WHERE NOT EXISTS (
				SELECT 1 FROM account_roles ar WHERE ar.role_id = a.id AND ar.role_name = 'ADMIN')) +
			(SELECT COUNT(*) FROM superadmins s WHERE NOT EXISTS (
				SELECT 1 FROM account_roles ar WHERE ar.role_id = s.id AND ar.role_name = 'SUPERADMIN'))
	`
	if err = r.pool.QueryRow(ctx, orphans).Scan(&orphanRecords); err != nil {
		return 0, 0, err
	}
	return danglingAttachments, orphanRecords, nil
}
