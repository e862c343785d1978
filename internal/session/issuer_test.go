package session

import (
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/zkauth/internal/common"
	"github.com/atinyakov/zkauth/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = models.User{ID: 7, ClientID: 3, Username: "alice", PublicKey: []byte{0x02, 0x01}}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewManager([]byte("k"), 0)
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("0b7c1f7e-7a57-4a53-9c1e-2d7d8a0f3b11")
	m := newTestManager(t).WithIDSource(func() uuid.UUID { return id })
	now := time.Date(2026, 10, 15, 12, 0, 0, 500, time.UTC)

	cred, err := m.Issue(testUser, now)
	require.NoError(t, err)
	assert.Equal(t, id, cred.ID)
	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, now.Truncate(time.Second), cred.IssuedAt)
	assert.Equal(t, cred.IssuedAt.Add(time.Hour), cred.ExpiresAt)

	claims, err := m.Verify(cred.Token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.ClientID(3), claims.ClientID)
	assert.Equal(t, id.String(), claims.ID)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, models.UserID(7), uid)
}

func TestIssue_Deterministic(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	m := newTestManager(t).WithIDSource(func() uuid.UUID { return id })
	now := time.Unix(1_800_000_000, 0)

	a, err := m.Issue(testUser, now)
	require.NoError(t, err)
	b, err := m.Issue(testUser, now)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIssue_DoesNotEmbedKeyMaterial(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	cred, err := m.Issue(testUser, time.Now())
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(cred.Token, claims)
	require.NoError(t, err)
	for k := range claims {
		assert.Contains(t, []string{"iss", "sub", "jti", "iat", "exp", "cid"}, k)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	now := time.Now()
	cred, err := m.Issue(testUser, now)
	require.NoError(t, err)

	_, err = m.Verify(cred.Token, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, common.ErrInvalidSession)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	cred, err := newTestManager(t).Issue(testUser, time.Now())
	require.NoError(t, err)

	other, err := NewManager([]byte("other-secret"), time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(cred.Token, time.Now())
	assert.ErrorIs(t, err, common.ErrInvalidSession)
}

func TestVerify_RejectsOtherAlgorithmsAndIssuers(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	now := time.Now()
	base := jwt.RegisteredClaims{
		Subject:   "7",
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: withIssuer(base, Issuer)})
	noneTok, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(noneTok, now)
	assert.ErrorIs(t, err, common.ErrInvalidSession)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: withIssuer(base, "someone-else")})
	foreignTok, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Verify(foreignTok, now)
	assert.ErrorIs(t, err, common.ErrInvalidSession)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	for _, tok := range []string{"", "not.a.jwt", strings.Repeat("a", 40)} {
		_, err := m.Verify(tok, time.Now())
		assert.ErrorIs(t, err, common.ErrInvalidSession, tok)
	}
}

func withIssuer(c jwt.RegisteredClaims, iss string) jwt.RegisteredClaims {
	c.Issuer = iss
	return c
}
