package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"oneaccount/api/internal/models"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const accountColumns = `
	id, kind, name, email, email_alternative, phone, phone_alternative,
	whatsapp_number, avatar_blob_id, avatar_url, avatar_provider, gender,
	password_hash, created_at, updated_at
`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, kind, name, email, email_alternative, phone, phone_alternative,
			whatsapp_number, gender, password_hash, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Kind,
		account.Name,
		account.Email,
		account.EmailAlternative,
		account.Phone,
		account.PhoneAlternative,
		account.WhatsappNumber,
		account.Gender,
		account.PasswordHash,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateAccount
	}
	return err
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.fetchOne(ctx, query, id)
}

// FindByEmail matches the primary or alternate email slot, the lookup every
// login flow starts from. The caller lower-cases the needle.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1 OR email_alternative = $1
	`
	return r.fetchOne(ctx, query, email)
}

// ContactExists probes every contact slot against the given email and phone.
// A phone typed into one account's alternate slot collides with another
// account's primary slot and vice versa.
func (r *AccountRepository) ContactExists(ctx context.Context, email string, phone string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM accounts
			WHERE email = $1 OR email_alternative = $1
			   OR phone = $2 OR phone_alternative = $2 OR whatsapp_number = $2
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email, phone).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateAvatar points the account at a newly stored blob.
func (r *AccountRepository) UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) error {
	const query = `
		UPDATE accounts
		SET avatar_blob_id = $2, avatar_url = $3, avatar_provider = $4, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, avatar.BlobID, avatar.URL, avatar.Provider)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) fetchOne(ctx context.Context, query string, args ...any) (models.Account, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, err
	}

	roles, err := r.loadRoles(ctx, account.ID)
	if err != nil {
		return models.Account{}, err
	}
	account.Roles = roles
	return account, nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var (
		account        models.Account
		avatarBlobID   *string
		avatarURL      *string
		avatarProvider *string
	)
	if err := row.Scan(
		&account.ID,
		&account.Kind,
		&account.Name,
		&account.Email,
		&account.EmailAlternative,
		&account.Phone,
		&account.PhoneAlternative,
		&account.WhatsappNumber,
		&avatarBlobID,
		&avatarURL,
		&avatarProvider,
		&account.Gender,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return models.Account{}, err
	}

	if avatarBlobID != nil {
		account.Avatar = &models.Avatar{
			BlobID: *avatarBlobID,
		}
		if avatarURL != nil {
			account.Avatar.URL = *avatarURL
		}
		if avatarProvider != nil {
			account.Avatar.Provider = *avatarProvider
		}
	}
	return account, nil
}

func (r *AccountRepository) loadRoles(ctx context.Context, accountID string) (models.RoleRegistry, error) {
	const query = `
		SELECT role_name, role_id, is_active
		FROM account_roles
		WHERE account_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var registry models.RoleRegistry
	for rows.Next() {
		var attachment models.RoleAttachment
		if err := rows.Scan(&attachment.Kind, &attachment.RoleID, &attachment.Active); err != nil {
			return nil, err
		}
		registry = append(registry, attachment)
	}
	return registry, rows.Err()
}
