package models

import (
	"errors"
	"fmt"
	"time"
)

type RoleKind string

const (
	RoleKindUser       RoleKind = "USER"
	RoleKindSeller     RoleKind = "SELLER"
	RoleKindAdmin      RoleKind = "ADMIN"
	RoleKindSuperAdmin RoleKind = "SUPERADMIN"
)

// ErrRoleAttached is returned when a registry already holds an attachment of
// the given kind.
var ErrRoleAttached = errors.New("role already attached")

// RoleAttachment is one tier grant inside an account's role registry. RoleID
// points into the tier's own collection, not at the account.
type RoleAttachment struct {
	Kind   RoleKind
	RoleID string
	Active bool
}

// RoleRegistry is the ordered list of role attachments embedded in an
// Account. At most one attachment per kind is allowed; Attach enforces that
// at write time.
type RoleRegistry []RoleAttachment

// Find returns the first attachment of the given kind. With the uniqueness
// invariant held "first" is also "only".
func (r RoleRegistry) Find(kind RoleKind) (RoleAttachment, bool) {
	for _, attachment := range r {
		if attachment.Kind == kind {
			return attachment, true
		}
	}
	return RoleAttachment{}, false
}

// Attach appends a new attachment, rejecting a duplicate kind.
func (r RoleRegistry) Attach(attachment RoleAttachment) (RoleRegistry, error) {
	if _, ok := r.Find(attachment.Kind); ok {
		return r, fmt.Errorf("%w: %s", ErrRoleAttached, attachment.Kind)
	}
	return append(r, attachment), nil
}

// User is the USER-tier record. It carries no secret of its own; the account
// password is the only factor for this tier.
type User struct {
	ID         string
	AccountID  string
	PublicName string
	UserName   *string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Admin is the ADMIN-tier record with its own password, a second factor
// scoped to the tier.
type Admin struct {
	ID           string
	AccountID    string
	PasswordHash []byte
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SuperAdmin is the SUPERADMIN-tier record with its own super password.
type SuperAdmin struct {
	ID                string
	AccountID         string
	SuperPasswordHash []byte
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
