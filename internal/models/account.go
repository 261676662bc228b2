package models

import "time"

type AccountKind string

const (
	AccountKindPersonal AccountKind = "personal"
	AccountKindBrand    AccountKind = "brand"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Avatar references a blob held by the external object store.
type Avatar struct {
	BlobID   string
	URL      string
	Provider string
}

// Account is the root identity. Contact fields are compared case-sensitively
// except Email, which is stored lower-cased. PasswordHash is never serialized;
// handlers build responses from explicit DTOs.
type Account struct {
	ID               string
	Kind             AccountKind
	Name             string
	Email            string
	EmailAlternative *string
	Phone            string
	PhoneAlternative *string
	WhatsappNumber   *string
	Avatar           *Avatar
	Gender           *Gender
	PasswordHash     []byte
	Roles            RoleRegistry
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ContactValues lists every contact identifier present on the account,
// primary and alternate slots alike. Used for the cross-field conflict probe
// at registration.
func (a Account) ContactValues() []string {
	values := []string{a.Email, a.Phone}
	for _, opt := range []*string{a.EmailAlternative, a.PhoneAlternative, a.WhatsappNumber} {
		if opt != nil && *opt != "" {
			values = append(values, *opt)
		}
	}
	return values
}
