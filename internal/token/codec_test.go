package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storehub/storehub-auth/internal/domain"
	"github.com/storehub/storehub-auth/internal/token"
)

var (
	accessSecret  = []byte("access-secret-for-tests-0123456789ab")
	refreshSecret = []byte("refresh-secret-for-tests-0123456789a")
)

func newCodec(t *testing.T) *token.Codec {
	t.Helper()
	return token.NewCodec(accessSecret, refreshSecret, time.Hour, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newCodec(t)

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleOwner, domain.RoleUser} {
		identity := domain.Identity{ID: 42, Email: "a@x.com", Role: role}

		raw, err := codec.IssueAccessToken(identity)
		require.NoError(t, err)
		require.NotEmpty(t, raw)

		decoded, ok := codec.VerifyAccess(raw)
		require.True(t, ok)
		require.Equal(t, identity, decoded)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := newCodec(t)

	raw, err := codec.IssueRefreshToken(99)
	require.NoError(t, err)

	userID, ok := codec.VerifyRefresh(raw)
	require.True(t, ok)
	require.Equal(t, int64(99), userID)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	// A codec with a negative TTL mints tokens already past exp. The
	// verifying codec shares the secret, so only expiry can fail.
	expiredIssuer := token.NewCodec(accessSecret, refreshSecret, -5*time.Minute, -5*time.Minute)
	codec := newCodec(t)

	raw, err := expiredIssuer.IssueAccessToken(domain.Identity{ID: 1, Email: "a@x.com", Role: domain.RoleUser})
	require.NoError(t, err)

	_, ok := codec.VerifyAccess(raw)
	require.False(t, ok)

	refresh, err := expiredIssuer.IssueRefreshToken(1)
	require.NoError(t, err)

	_, ok = codec.VerifyRefresh(refresh)
	require.False(t, ok)
}

func TestSecretSeparation(t *testing.T) {
	codec := newCodec(t)

	access, err := codec.IssueAccessToken(domain.Identity{ID: 7, Email: "a@x.com", Role: domain.RoleUser})
	require.NoError(t, err)
	refresh, err := codec.IssueRefreshToken(7)
	require.NoError(t, err)

	// A token of one class never verifies as the other.
	_, ok := codec.VerifyRefresh(access)
	require.False(t, ok)
	_, ok = codec.VerifyAccess(refresh)
	require.False(t, ok)

	// A codec holding different secrets rejects both.
	other := token.NewCodec([]byte("other-access-secret-0123456789abcdef"), []byte("other-refresh-secret-0123456789abcde"), time.Hour, time.Hour)
	_, ok = other.VerifyAccess(access)
	require.False(t, ok)
	_, ok = other.VerifyRefresh(refresh)
	require.False(t, ok)
}

func TestMalformedTokensRejected(t *testing.T) {
	codec := newCodec(t)

	for _, raw := range []string{
		"",
		"not-a-token",
		"a.b.c",
		"eyJhbGciOiJIUzI1NiJ9.e30.",
	} {
		_, ok := codec.VerifyAccess(raw)
		require.False(t, ok, "expected %q to be rejected", raw)
		_, ok = codec.VerifyRefresh(raw)
		require.False(t, ok, "expected %q to be rejected", raw)
	}
}

func TestTamperedSignatureRejected(t *testing.T) {
	codec := newCodec(t)

	raw, err := codec.IssueAccessToken(domain.Identity{ID: 1, Email: "a@x.com", Role: domain.RoleUser})
	require.NoError(t, err)

	last := raw[len(raw)-1]
	flipped := byte('A')
	if last == flipped {
		flipped = 'B'
	}
	tampered := raw[:len(raw)-1] + string(flipped)

	_, ok := codec.VerifyAccess(tampered)
	require.False(t, ok)
}
