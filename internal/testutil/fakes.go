// Package testutil holds in-memory fakes for the identity service's store
// interfaces, shared by the service and handler tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"oneaccount/api/internal/models"
	"oneaccount/api/internal/repository"
	"oneaccount/api/internal/storage"
)

func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// MemoryStore implements the service's AccountStore and RoleStore over maps.
// Role creates mutate the role map and the account's registry under one
// lock, mirroring the transactional contract of the real repositories.
type MemoryStore struct {
	mu          sync.Mutex
	Accounts    map[string]models.Account
	Users       map[string]models.User
	Admins      map[string]models.Admin
	SuperAdmins map[string]models.SuperAdmin

	FailRoleCreate   bool
	FailUpdateAvatar bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Accounts:    make(map[string]models.Account),
		Users:       make(map[string]models.User),
		Admins:      make(map[string]models.Admin),
		SuperAdmins: make(map[string]models.SuperAdmin),
	}
}

func (s *MemoryStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.Accounts {
		if existing.Email == account.Email || existing.Phone == account.Phone {
			return repository.ErrDuplicateAccount
		}
	}
	s.Accounts[account.ID] = account
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.Accounts[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.Accounts {
		if account.Email == email ||
			(account.EmailAlternative != nil && *account.EmailAlternative == email) {
			return cloneAccount(account), nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (s *MemoryStore) ContactExists(_ context.Context, email string, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.Accounts {
		for _, value := range account.ContactValues() {
			if strings.EqualFold(value, email) || value == phone {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *MemoryStore) UpdateAvatar(_ context.Context, id string, avatar models.Avatar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpdateAvatar {
		return errors.New("update avatar failed")
	}
	account, ok := s.Accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.Avatar = &avatar
	s.Accounts[id] = account
	return nil
}

func (s *MemoryStore) attach(accountID string, kind models.RoleKind, roleID string) error {
	account, ok := s.Accounts[accountID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	roles, err := account.Roles.Attach(models.RoleAttachment{Kind: kind, RoleID: roleID, Active: true})
	if err != nil {
		return repository.ErrDuplicateRole
	}
	account.Roles = roles
	s.Accounts[accountID] = account
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailRoleCreate {
		return errors.New("transaction aborted")
	}
	for _, existing := range s.Users {
		if existing.AccountID == user.AccountID {
			return repository.ErrDuplicateRole
		}
	}
	if err := s.attach(user.AccountID, models.RoleKindUser, user.ID); err != nil {
		return err
	}
	s.Users[user.ID] = user
	return nil
}

func (s *MemoryStore) CreateAdmin(_ context.Context, admin models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailRoleCreate {
		return errors.New("transaction aborted")
	}
	for _, existing := range s.Admins {
		if existing.AccountID == admin.AccountID {
			return repository.ErrDuplicateRole
		}
	}
	if err := s.attach(admin.AccountID, models.RoleKindAdmin, admin.ID); err != nil {
		return err
	}
	s.Admins[admin.ID] = admin
	return nil
}

func (s *MemoryStore) CreateSuperAdmin(_ context.Context, superAdmin models.SuperAdmin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailRoleCreate {
		return errors.New("transaction aborted")
	}
	for _, existing := range s.SuperAdmins {
		if existing.AccountID == superAdmin.AccountID {
			return repository.ErrDuplicateRole
		}
	}
	if err := s.attach(superAdmin.AccountID, models.RoleKindSuperAdmin, superAdmin.ID); err != nil {
		return err
	}
	s.SuperAdmins[superAdmin.ID] = superAdmin
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.Users[id]
	if !ok {
		return models.User{}, repository.ErrRoleNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetAdmin(_ context.Context, id string) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.Admins[id]
	if !ok {
		return models.Admin{}, repository.ErrRoleNotFound
	}
	return admin, nil
}

func (s *MemoryStore) GetSuperAdmin(_ context.Context, id string) (models.SuperAdmin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	superAdmin, ok := s.SuperAdmins[id]
	if !ok {
		return models.SuperAdmin{}, repository.ErrRoleNotFound
	}
	return superAdmin, nil
}

func (s *MemoryStore) FindUserByAccount(_ context.Context, accountID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.Users {
		if user.AccountID == accountID {
			return user, nil
		}
	}
	return models.User{}, repository.ErrRoleNotFound
}

func (s *MemoryStore) FindAdminByAccount(_ context.Context, accountID string) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, admin := range s.Admins {
		if admin.AccountID == accountID {
			return admin, nil
		}
	}
	return models.Admin{}, repository.ErrRoleNotFound
}

func (s *MemoryStore) FindSuperAdminByAccount(_ context.Context, accountID string) (models.SuperAdmin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, superAdmin := range s.SuperAdmins {
		if superAdmin.AccountID == accountID {
			return superAdmin, nil
		}
	}
	return models.SuperAdmin{}, repository.ErrRoleNotFound
}

// SetRoleActive flips an attachment's activation flag on the account side.
func (s *MemoryStore) SetRoleActive(accountID string, kind models.RoleKind, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.Accounts[accountID]
	for i := range account.Roles {
		if account.Roles[i].Kind == kind {
			account.Roles[i].Active = active
		}
	}
	s.Accounts[accountID] = account
}

func cloneAccount(account models.Account) models.Account {
	roles := make(models.RoleRegistry, len(account.Roles))
	copy(roles, account.Roles)
	account.Roles = roles
	return account
}

// BlobRecorder implements the service's BlobStore, recording every upload
// and destroy.
type BlobRecorder struct {
	mu         sync.Mutex
	next       int
	Uploaded   []string
	Destroyed  []string
	FailUpload bool
}

func (b *BlobRecorder) Upload(_ context.Context, _ io.Reader, _ int64, _ string) (storage.Blob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailUpload {
		return storage.Blob{}, errors.New("upload failed")
	}
	b.next++
	id := fmt.Sprintf("blob-%d", b.next)
	b.Uploaded = append(b.Uploaded, id)
	return storage.Blob{
		ID:       id,
		URL:      "https://blobs.test/" + id,
		Provider: "fake",
	}, nil
}

func (b *BlobRecorder) Destroy(_ context.Context, blobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Destroyed = append(b.Destroyed, blobID)
	return nil
}

// CountingLimiter implements the service's LoginLimiter in memory. A Max of
// zero disables throttling. Err, when set, is returned from every call to
// exercise the fail-open path.
type CountingLimiter struct {
	mu       sync.Mutex
	Max      int
	Failures map[string]int
	Err      error
}

func NewCountingLimiter(max int) *CountingLimiter {
	return &CountingLimiter{
		Max:      max,
		Failures: make(map[string]int),
	}
}

func (l *CountingLimiter) Allowed(_ context.Context, identifier string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Err != nil {
		return false, l.Err
	}
	if l.Max <= 0 {
		return true, nil
	}
	return l.Failures[identifier] < l.Max, nil
}

func (l *CountingLimiter) RecordFailure(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Err != nil {
		return l.Err
	}
	l.Failures[identifier]++
	return nil
}

func (l *CountingLimiter) Reset(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Err != nil {
		return l.Err
	}
	delete(l.Failures, identifier)
	return nil
}
