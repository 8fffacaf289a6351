package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, clock *fakeClock) *Service {
	t.Helper()
	svc, err := NewService("secret", "HS256", WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestService_IssueVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	tkn, err := svc.Issue("42", 30*time.Minute)
	require.NoError(t, err)

	sub, err := svc.Verify(tkn)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestService_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	svc := newTestService(t, clock)

	ttl := 30 * time.Minute
	tkn, err := svc.Issue("7", ttl)
	require.NoError(t, err)

	clock.t = issued.Add(ttl - time.Second)
	sub, err := svc.Verify(tkn)
	require.NoError(t, err)
	assert.Equal(t, "7", sub)

	clock.t = issued.Add(ttl)
	_, err = svc.Verify(tkn)
	assert.ErrorIs(t, err, ErrInvalidToken)

	clock.t = issued.Add(ttl + time.Second)
	_, err = svc.Verify(tkn)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)
	other, err := NewService("other-secret", "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	tkn, err := other.Issue("1", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(tkn)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_AlgorithmMismatch(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)
	hs512, err := NewService("secret", "HS512", WithClock(clock.Now))
	require.NoError(t, err)

	tkn, err := hs512.Issue("1", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(tkn)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_MissingSubject(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_MissingExpiration(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "1",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Malformed(t *testing.T) {
	svc := newTestService(t, &fakeClock{t: time.Now()})

	for _, tkn := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(tkn)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tkn)
	}
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService("", "HS256")
	assert.Error(t, err)

	_, err = NewService("secret", "RS256")
	assert.Error(t, err)

	svc, err := NewService("secret", "")
	require.NoError(t, err)
	assert.Equal(t, "HS256", svc.method.Alg())
}
