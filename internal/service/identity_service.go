package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/config"
	"oneaccount/api/internal/ids"
	"oneaccount/api/internal/models"
	"oneaccount/api/internal/repository"
	"oneaccount/api/internal/security"
)

// IdentityService orchestrates registration, login and role elevation
// against the credential store, the secret hasher and the token authority.
type IdentityService struct {
	accounts AccountStore
	roles    RoleStore
	blobs    BlobStore
	limiter  LoginLimiter
	tokens   *security.TokenAuthority
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewIdentityService(
	accounts AccountStore,
	roles RoleStore,
	blobs BlobStore,
	limiter LoginLimiter,
	tokens *security.TokenAuthority,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		accounts: accounts,
		roles:    roles,
		blobs:    blobs,
		limiter:  limiter,
		tokens:   tokens,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterAccountInput struct {
	Kind     models.AccountKind
	Name     string
	Email    string
	Phone    string
	Password string
	Gender   *models.Gender
}

// RegisterAccount creates the root identity. The password is hashed exactly
// once, here; no other account mutation touches the digest.
func (s *IdentityService) RegisterAccount(ctx context.Context, input RegisterAccountInput) (models.Account, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)

	if input.Name == "" || input.Email == "" || input.Phone == "" || strings.TrimSpace(input.Password) == "" {
		return models.Account{}, apperr.BadRequest("name, email, phone and password are required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return models.Account{}, apperr.BadRequest("invalid email address")
	}

	exists, err := s.accounts.ContactExists(ctx, input.Email, input.Phone)
	if err != nil {
		return models.Account{}, apperr.Internal("contact lookup failed").WithCause(err)
	}
	if exists {
		return models.Account{}, apperr.Conflict("account with this email or phone already exists")
	}

	passwordHash, err := security.HashSecret(input.Password)
	if err != nil {
		return models.Account{}, apperr.Internal("hash password").WithCause(err)
	}

	kind := input.Kind
	if kind == "" {
		kind = models.AccountKindPersonal
	}

	account := models.Account{
		ID:           ids.New(),
		Kind:         kind,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Gender:       input.Gender,
		PasswordHash: passwordHash,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return models.Account{}, apperr.Conflict("account with this email or phone already exists")
		}
		return models.Account{}, apperr.Internal("create account").WithCause(err)
	}

	return sanitizeAccount(account), nil
}

type LoginInput struct {
	Email    string
	Password string
	// TierSecret carries the admin password or super password for the
	// tiers that demand a second factor.
	TierSecret string
}

type LoginResult struct {
	Principal       Principal
	AccountToken    string
	AdminToken      string
	SuperAdminToken string
}

// authenticateAccount resolves the account by primary or alternate email and
// verifies the account password, with failed-attempt throttling around the
// verification. Returns the account with its digest still attached; callers
// needing further secret checks strip it before handing the account out.
func (s *IdentityService) authenticateAccount(ctx context.Context, email string, password string) (models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return models.Account{}, apperr.BadRequest("email and password are required")
	}

	if allowed, err := s.limiter.Allowed(ctx, email); err != nil {
		// Throttle storage being down must not lock everyone out.
		s.log.Warn().Err(err).Msg("login limiter unavailable, failing open")
	} else if !allowed {
		return models.Account{}, apperr.TooManyAttempts("too many failed login attempts, try again later")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, apperr.NotFound("account with this email does not exist, create an account first")
		}
		return models.Account{}, apperr.Internal("account lookup failed").WithCause(err)
	}

	ok, err := security.VerifySecret(password, account.PasswordHash)
	if err != nil {
		return models.Account{}, apperr.Internal("verify password").WithCause(err)
	}
	if !ok {
		if err := s.limiter.RecordFailure(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("record login failure")
		}
		return models.Account{}, apperr.Unauthorized("invalid account credentials")
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("reset login failures")
	}
	return account, nil
}

// LoginAccount authenticates the root identity and issues an account-tier
// token.
func (s *IdentityService) LoginAccount(ctx context.Context, input LoginInput) (LoginResult, error) {
	account, err := s.authenticateAccount(ctx, input.Email, input.Password)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.tokens.Issue(account.ID, security.TierAccount)
	if err != nil {
		return LoginResult{}, apperr.Internal("issue token").WithCause(err)
	}

	return LoginResult{
		Principal:    Principal{Account: sanitizeAccount(account)},
		AccountToken: token,
	}, nil
}

type RegisterUserInput struct {
	Email    string
	UserName *string
}

// RegisterUser attaches the USER role to an existing account. The create of
// the user record and the registry append commit together or not at all.
func (s *IdentityService) RegisterUser(ctx context.Context, input RegisterUserInput) (models.Account, models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return models.Account{}, models.User{}, apperr.BadRequest("email is required")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, models.User{}, apperr.NotFound("account with this email does not exist, create an account first")
		}
		return models.Account{}, models.User{}, apperr.Internal("account lookup failed").WithCause(err)
	}

	if _, err := s.roles.FindUserByAccount(ctx, account.ID); err == nil {
		return models.Account{}, models.User{}, apperr.Conflict("user already registered for this account, login now")
	} else if !errors.Is(err, repository.ErrRoleNotFound) {
		return models.Account{}, models.User{}, apperr.Internal("user lookup failed").WithCause(err)
	}

	user := models.User{
		ID:         ids.New(),
		AccountID:  account.ID,
		PublicName: account.Name,
		UserName:   input.UserName,
		Active:     true,
	}

	if err := s.roles.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateRole) {
			return models.Account{}, models.User{}, apperr.Conflict("user already registered for this account, login now")
		}
		return models.Account{}, models.User{}, apperr.Internal("role elevation transaction failed").WithCause(err)
	}

	updated, err := s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return models.Account{}, models.User{}, apperr.Internal("reload account after elevation").WithCause(err)
	}

	return sanitizeAccount(updated), user, nil
}

// LoginUser authenticates the account password, requires an active USER
// attachment and an existing active user record, then issues an account-tier
// token.
func (s *IdentityService) LoginUser(ctx context.Context, input LoginInput) (LoginResult, error) {
	account, err := s.authenticateAccount(ctx, input.Email, input.Password)
	if err != nil {
		return LoginResult{}, err
	}

	attachment, ok := account.Roles.Find(models.RoleKindUser)
	if !ok {
		return LoginResult{}, apperr.RoleNotRegistered("need to register as a user first")
	}
	if !attachment.Active {
		return LoginResult{}, apperr.RoleInactive("user role is not active")
	}

	user, err := s.roles.GetUser(ctx, attachment.RoleID)
	if err != nil {
		return LoginResult{}, apperr.Internal("user record lookup failed").WithCause(err)
	}
	if !user.Active {
		return LoginResult{}, apperr.RoleInactive("user record is not active")
	}

	token, err := s.tokens.Issue(account.ID, security.TierAccount)
	if err != nil {
		return LoginResult{}, apperr.Internal("issue token").WithCause(err)
	}

	return LoginResult{
		Principal:    Principal{Account: sanitizeAccount(account), User: &user},
		AccountToken: token,
	}, nil
}

type RegisterSuperAdminInput struct {
	Email         string
	Password      string
	SuperPassword string
}

// RegisterSuperAdmin attaches the SUPERADMIN role. The caller re-presents
// the account password, and the new super password is stored as its own
// digest, never cross-checked against the account password.
func (s *IdentityService) RegisterSuperAdmin(ctx context.Context, input RegisterSuperAdminInput) (models.Account, models.SuperAdmin, error) {
	if strings.TrimSpace(input.SuperPassword) == "" {
		return models.Account{}, models.SuperAdmin{}, apperr.BadRequest("super password is required")
	}

	account, err := s.authenticateAccount(ctx, input.Email, input.Password)
	if err != nil {
		return models.Account{}, models.SuperAdmin{}, err
	}

	if _, err := s.roles.FindSuperAdminByAccount(ctx, account.ID); err == nil {
		return models.Account{}, models.SuperAdmin{}, apperr.Conflict("superadmin already registered for this account, login now")
	} else if !errors.Is(err, repository.ErrRoleNotFound) {
		return models.Account{}, models.SuperAdmin{}, apperr.Internal("superadmin lookup failed").WithCause(err)
	}

	superHash, err := security.HashSecret(input.SuperPassword)
	if err != nil {
		return models.Account{}, models.SuperAdmin{}, apperr.Internal("hash super password").WithCause(err)
	}

	superAdmin := models.SuperAdmin{
		ID:                ids.New(),
		AccountID:         account.ID,
		SuperPasswordHash: superHash,
		Active:            true,
	}

	if err := s.roles.CreateSuperAdmin(ctx, superAdmin); err != nil {
		if errors.Is(err, repository.ErrDuplicateRole) {
			return models.Account{}, models.SuperAdmin{}, apperr.Conflict("superadmin already registered for this account, login now")
		}
		return models.Account{}, models.SuperAdmin{}, apperr.Internal("role elevation transaction failed").WithCause(err)
	}

	updated, err := s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return models.Account{}, models.SuperAdmin{}, apperr.Internal("reload account after elevation").WithCause(err)
	}

	return sanitizeAccount(updated), sanitizeSuperAdmin(superAdmin), nil
}

// LoginAdmin layers the admin password and both activation checks on top of
// account authentication, then issues account-tier and admin-tier tokens.
// The admin token's subject is the admin record's id, not the account id.
func (s *IdentityService) LoginAdmin(ctx context.Context, input LoginInput) (LoginResult, error) {
	if strings.TrimSpace(input.TierSecret) == "" {
		return LoginResult{}, apperr.BadRequest("admin password is required")
	}

	account, err := s.authenticateAccount(ctx, input.Email, input.Password)
	if err != nil {
		return LoginResult{}, err
	}

	attachment, ok := account.Roles.Find(models.RoleKindAdmin)
	if !ok {
		return LoginResult{}, apperr.RoleNotRegistered("need to register as an admin first")
	}
	if !attachment.Active {
		return LoginResult{}, apperr.RoleInactive("admin role is not active")
	}

	admin, err := s.roles.GetAdmin(ctx, attachment.RoleID)
	if err != nil {
		return LoginResult{}, apperr.Internal("admin record lookup failed").WithCause(err)
	}
	if !admin.Active {
		return LoginResult{}, apperr.RoleInactive("admin record is not active")
	}

	ok, err = security.VerifySecret(input.TierSecret, admin.PasswordHash)
	if err != nil {
		return LoginResult{}, apperr.Internal("verify admin password").WithCause(err)
	}
	if !ok {
		return LoginResult{}, apperr.Unauthorized("invalid admin credentials")
	}

	accountToken, err := s.tokens.Issue(account.ID, security.TierAccount)
	if err != nil {
		return LoginResult{}, apperr.Internal("issue token").WithCause(err)
	}
	adminToken, err := s.tokens.Issue(admin.ID, security.TierAdmin)
	if err != nil {
		return LoginResult{}, apperr.Internal("issue token").WithCause(err)
	}

	sanitized := sanitizeAdmin(admin)
	return LoginResult{
		Principal:    Principal{Account: sanitizeAccount(account), Admin: &sanitized},
		AccountToken: accountToken,
		AdminToken:   adminToken,
	}, nil
}

// LoginSuperAdmin mirrors LoginAdmin for the SUPERADMIN tier.
func (s *IdentityService) LoginSuperAdmin(ctx context.Context, input LoginInput) (LoginResult, error) {
	if strings.TrimSpace(input.TierSecret) == "" {
		return LoginResult{}, apperr.BadRequest("super password is required")
	}

	account, err := s.authenticateAccount(ctx, input.Email, input.Password)
	if err != nil {
		return LoginResult{}, err
	}

	attachment, ok := account.Roles.Find(models.RoleKindSuperAdmin)
	if !ok {
		return LoginResult{}, apperr.RoleNotRegistered("not a valid superadmin")
	}
	if !attachment.Active {
		return LoginResult{}, apperr.RoleInactive("superadmin role is not active")
	}

	superAdmin, err := s.roles.GetSuperAdmin(ctx, attachment.RoleID)
	if err != nil {
		return LoginResult{}, apperr.Internal("superadmin record lookup failed").WithCause(err)
	}
	if !superAdmin.Active {
		return LoginResult{}, apperr.RoleInactive("superadmin record is not active")
	}

	ok, err = security.VerifySecret(input.TierSecret, superAdmin.SuperPasswordHash)
	if err != nil {
		return LoginResult{}, apperr.Internal("verify super password").WithCause(err)
	}
	if !ok {
		return LoginResult{}, apperr.Unauthorized("invalid superadmin credentials")
	}

	accountToken, err := s.tokens.Issue(account.ID, security.TierAccount)
	if err != nil {
		return LoginResult{}, apperr.Internal("issue token").WithCause(err)
	}
	superToken, err := s.tokens.Issue(superAdmin.ID, security.TierSuperAdmin)
	if err != nil {
		return LoginResult{}, apperr.Internal("issue token").WithCause(err)
	}

	sanitized := sanitizeSuperAdmin(superAdmin)
	return LoginResult{
		Principal:       Principal{Account: sanitizeAccount(account), SuperAdmin: &sanitized},
		AccountToken:    accountToken,
		SuperAdminToken: superToken,
	}, nil
}

type ElevateToAdminInput struct {
	TargetAccountID string
	Password        string
	SuperPassword   string
}

// ElevateToAdmin grants the ADMIN role to a target account. Only an
// authenticated superadmin may call it, and the credentials re-verified here
// are the caller's own, not the target's. The new admin starts with the
// configured initial admin password.
func (s *IdentityService) ElevateToAdmin(ctx context.Context, caller Principal, input ElevateToAdminInput) (models.Account, models.Admin, error) {
	if caller.SuperAdmin == nil {
		return models.Account{}, models.Admin{}, apperr.Forbidden("superadmin privileges required")
	}
	if strings.TrimSpace(input.TargetAccountID) == "" ||
		strings.TrimSpace(input.Password) == "" ||
		strings.TrimSpace(input.SuperPassword) == "" {
		return models.Account{}, models.Admin{}, apperr.BadRequest("target account, password and super password are required")
	}

	// The guard strips secrets from the principal, so re-load the caller's
	// digests for verification.
	callerAccount, err := s.accounts.GetByID(ctx, caller.Account.ID)
	if err != nil {
		return models.Account{}, models.Admin{}, apperr.Internal("caller account lookup failed").WithCause(err)
	}
	ok, err := security.VerifySecret(input.Password, callerAccount.PasswordHash)
	if err != nil {
		return models.Account{}, models.Admin{}, apperr.Internal("verify password").WithCause(err)
	}
	if !ok {
		return models.Account{}, models.Admin{}, apperr.Unauthorized("invalid account credentials")
	}

	callerSuper, err := s.roles.GetSuperAdmin(ctx, caller.SuperAdmin.ID)
	if err != nil {
		return models.Account{}, models.Admin{}, apperr.Internal("caller superadmin lookup failed").WithCause(err)
	}
	ok, err = security.VerifySecret(input.SuperPassword, callerSuper.SuperPasswordHash)
	if err != nil {
		return models.Account{}, models.Admin{}, apperr.Internal("verify super password").WithCause(err)
	}
	if !ok {
		return models.Account{}, models.Admin{}, apperr.Unauthorized("invalid superadmin credentials")
	}

	target, err := s.accounts.GetByID(ctx, input.TargetAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, models.Admin{}, apperr.NotFound("target account not found")
		}
		return models.Account{}, models.Admin{}, apperr.Internal("target account lookup failed").WithCause(err)
	}

	if _, err := s.roles.FindAdminByAccount(ctx, target.ID); err == nil {
		return models.Account{}, models.Admin{}, apperr.Conflict("admin already registered for target account")
	} else if !errors.Is(err, repository.ErrRoleNotFound) {
		return models.Account{}, models.Admin{}, apperr.Internal("admin lookup failed").WithCause(err)
	}

	adminHash, err := security.HashSecret(s.cfg.Security.InitialAdminPassword)
	if err != nil {
		return models.Account{}, models.Admin{}, apperr.Internal("hash admin password").WithCause(err)
	}

	admin := models.Admin{
		ID:           ids.New(),
		AccountID:    target.ID,
		PasswordHash: adminHash,
		Active:       true,
	}

	if err := s.roles.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateRole) {
			return models.Account{}, models.Admin{}, apperr.Conflict("admin already registered for target account")
		}
		return models.Account{}, models.Admin{}, apperr.Internal("role elevation transaction failed").WithCause(err)
	}

	s.log.Info().
		Str("actor_account_id", caller.Account.ID).
		Str("target_account_id", target.ID).
		Msg("account elevated to admin")

	updated, err := s.accounts.GetByID(ctx, target.ID)
	if err != nil {
		return models.Account{}, models.Admin{}, apperr.Internal("reload account after elevation").WithCause(err)
	}

	return sanitizeAccount(updated), sanitizeAdmin(admin), nil
}

// GetAccountByID is the superadmin's arbitrary account lookup.
func (s *IdentityService) GetAccountByID(ctx context.Context, id string) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, apperr.NotFound("account not found")
		}
		return models.Account{}, apperr.Internal("account lookup failed").WithCause(err)
	}
	return sanitizeAccount(account), nil
}

func sanitizeAccount(account models.Account) models.Account {
	account.PasswordHash = nil
	return account
}

func sanitizeAdmin(admin models.Admin) models.Admin {
	admin.PasswordHash = nil
	return admin
}

func sanitizeSuperAdmin(superAdmin models.SuperAdmin) models.SuperAdmin {
	superAdmin.SuperPasswordHash = nil
	return superAdmin
}
