package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the argon2 work factor out of the test runtime
var testParams = Argon2Params{
	Time:    1,
	Memory:  8 * 1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

func TestHashSecretRoundTrip(t *testing.T) {
	t.Parallel()

	digest, err := HashSecretWithParams("s3cret-pass", testParams)
	require.NoError(t, err)

	ok, err := VerifySecret("s3cret-pass", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySecret("wrong-pass", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSecretSaltsEveryDigest(t *testing.T) {
	t.Parallel()

	first, err := HashSecretWithParams("same-secret", testParams)
	require.NoError(t, err)
	second, err := HashSecretWithParams("same-secret", testParams)
	require.NoError(t, err)

	assert.NotEqual(t, string(first), string(second))
}

func TestVerifySecretMalformedDigest(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"not a digest", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$t=1,m=8192,p=1$c2FsdA==$aGFzaA=="},
		{"wrong version", "$argon2id$v=18$t=1,m=8192,p=1$c2FsdA==$aGFzaA=="},
		{"bad salt encoding", "$argon2id$v=19$t=1,m=8192,p=1$!!!$aGFzaA=="},
		{"missing segments", "$argon2id$v=19$t=1,m=8192,p=1$c2FsdA=="},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := VerifySecret("anything", []byte(tc.digest))
			assert.Error(t, err)
		})
	}
}
