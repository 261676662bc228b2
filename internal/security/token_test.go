package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys() map[Tier]TierKey {
	return map[Tier]TierKey{
		TierAccount:    {Secret: "account-signing-secret", TTL: time.Hour},
		TierAdmin:      {Secret: "admin-signing-secret", TTL: time.Hour},
		TierSuperAdmin: {Secret: "superadmin-signing-secret", TTL: time.Hour},
	}
}

func TestNewTokenAuthorityValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing tier", func(t *testing.T) {
		t.Parallel()
		keys := testKeys()
		delete(keys, TierAdmin)
		_, err := NewTokenAuthority(keys)
		require.Error(t, err)
	})

	t.Run("rejects empty secret", func(t *testing.T) {
		t.Parallel()
		keys := testKeys()
		keys[TierSuperAdmin] = TierKey{Secret: "", TTL: time.Hour}
		_, err := NewTokenAuthority(keys)
		require.Error(t, err)
	})

	t.Run("rejects zero ttl", func(t *testing.T) {
		t.Parallel()
		keys := testKeys()
		keys[TierAccount] = TierKey{Secret: "account-signing-secret"}
		_, err := NewTokenAuthority(keys)
		require.Error(t, err)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	authority, err := NewTokenAuthority(testKeys())
	require.NoError(t, err)

	for _, tier := range []Tier{TierAccount, TierAdmin, TierSuperAdmin} {
		tier := tier
		t.Run(string(tier), func(t *testing.T) {
			t.Parallel()

			token, err := authority.Issue("subject-123", tier)
			require.NoError(t, err)

			subject, err := authority.Verify(token, tier)
			require.NoError(t, err)
			assert.Equal(t, "subject-123", subject)
		})
	}
}

func TestTokenCrossTierRejection(t *testing.T) {
	t.Parallel()

	authority, err := NewTokenAuthority(testKeys())
	require.NoError(t, err)

	tiers := []Tier{TierAccount, TierAdmin, TierSuperAdmin}
	for _, issued := range tiers {
		for _, verified := range tiers {
			if issued == verified {
				continue
			}
			issued, verified := issued, verified
			t.Run(string(issued)+" token on "+string(verified)+" tier", func(t *testing.T) {
				t.Parallel()

				token, err := authority.Issue("subject-123", issued)
				require.NoError(t, err)

				_, err = authority.Verify(token, verified)
				assert.ErrorIs(t, err, ErrInvalidToken)
			})
		}
	}
}

func TestTokenCrossTierRejectionWithSharedKey(t *testing.T) {
	t.Parallel()

	// Even with every tier misconfigured onto the same key, the issuer claim
	// still fences tokens into their tier.
	keys := map[Tier]TierKey{
		TierAccount:    {Secret: "shared", TTL: time.Hour},
		TierAdmin:      {Secret: "shared", TTL: time.Hour},
		TierSuperAdmin: {Secret: "shared", TTL: time.Hour},
	}
	authority, err := NewTokenAuthority(keys)
	require.NoError(t, err)

	token, err := authority.Issue("subject-123", TierAccount)
	require.NoError(t, err)

	_, err = authority.Verify(token, TierAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	keys := testKeys()
	keys[TierAccount] = TierKey{Secret: "account-signing-secret", TTL: time.Nanosecond}
	authority, err := NewTokenAuthority(keys)
	require.NoError(t, err)

	token, err := authority.Issue("subject-123", TierAccount)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = authority.Verify(token, TierAccount)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	t.Parallel()

	authority, err := NewTokenAuthority(testKeys())
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := authority.Verify(token, TierAccount)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
