package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tier names a token namespace. Each tier signs with its own key and expiry,
// so a token minted for one tier is structurally meaningless to another.
type Tier string

const (
	TierAccount    Tier = "account"
	TierAdmin      Tier = "admin"
	TierSuperAdmin Tier = "superadmin"
)

// ErrInvalidToken covers expiry, bad signature, wrong tier and malformed
// payloads alike. Callers must not be able to tell the failure modes apart.
var ErrInvalidToken = errors.New("invalid token")

// TierKey is one tier's signing key and token lifetime.
type TierKey struct {
	Secret string
	TTL    time.Duration
}

// TokenAuthority issues and verifies tier-scoped access tokens. Tokens carry
// only a subject id; every request re-resolves the full principal chain.
type TokenAuthority struct {
	keys map[Tier]TierKey
}

func NewTokenAuthority(keys map[Tier]TierKey) (*TokenAuthority, error) {
	for _, tier := range []Tier{TierAccount, TierAdmin, TierSuperAdmin} {
		key, ok := keys[tier]
		if !ok || key.Secret == "" {
			return nil, fmt.Errorf("missing signing key for tier %s", tier)
		}
		if key.TTL <= 0 {
			return nil, fmt.Errorf("missing token ttl for tier %s", tier)
		}
	}
	return &TokenAuthority{keys: keys}, nil
}

// Issue signs a token for the subject in the tier's namespace. For the
// account tier the subject is the account id; for admin and superadmin tiers
// it is the role-specific record's id.
func (a *TokenAuthority) Issue(subjectID string, tier Tier) (string, error) {
	key, ok := a.keys[tier]
	if !ok {
		return "", fmt.Errorf("unknown tier: %s", tier)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    string(tier),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(key.TTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(key.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify resolves a token back to its subject id within the given tier.
// Any failure collapses into ErrInvalidToken. The per-tier issuer claim is
// checked on top of the per-tier key, keeping cross-tier rejection enforced
// even under key misconfiguration.
func (a *TokenAuthority) Verify(tokenStr string, tier Tier) (string, error) {
	key, ok := a.keys[tier]
	if !ok {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(key.Secret), nil
		},
		jwt.WithIssuer(string(tier)),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
