package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/gym-saas/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	w := newWorld()
	ctx := context.Background()

	profile, err := w.auth.Register(ctx, " Ann@Example.com ", "s3cret-pass", "Ann", "Lee")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", profile.Email)
	assert.Equal(t, domain.RoleMember, profile.Role)
	assert.Nil(t, profile.GymID)
	assert.NotEqual(t, "s3cret-pass", profile.PasswordHash)

	token, loggedIn, err := w.auth.Login(ctx, "ANN@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, loggedIn.ID)

	id, err := w.auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, id)

	principal, _, err := w.identity.Resolve(ctx, id)
	require.NoError(t, err)
	assert.False(t, principal.Onboarded())
}

func TestRegisterRejects(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	_, err := w.auth.Register(ctx, "ann@example.com", "s3cret-pass", "Ann", "")
	require.NoError(t, err)

	_, err = w.auth.Register(ctx, "ANN@example.com", "another-pass", "Ann", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	tests := []struct {
		name, email, password, first string
	}{
		{"bad email", "not-an-email", "s3cret-pass", "Ann"},
		{"short password", "bob@example.com", "short", "Bob"},
		{"no first name", "bob@example.com", "s3cret-pass", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.auth.Register(ctx, tt.email, tt.password, tt.first, "")
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	_, err := w.auth.Register(ctx, "ann@example.com", "s3cret-pass", "Ann", "")
	require.NoError(t, err)

	_, _, err = w.auth.Login(ctx, "ann@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = w.auth.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = w.auth.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	bob, err := w.auth.Register(ctx, "bob@example.com", "s3cret-pass", "Bob", "")
	require.NoError(t, err)
	_, err = w.tenants.JoinTenant(ctx, bob.ID, gym.gym.GymCode)
	require.NoError(t, err)
	require.NoError(t, w.members.DeactivateMember(ctx, gym.admin, bob.ID))

	_, _, err = w.auth.Login(ctx, "bob@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrProfileInactive)

	_, _, err = w.identity.Resolve(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrProfileInactive)
}

func TestParseTokenRejects(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	profile, err := w.auth.Register(ctx, "ann@example.com", "s3cret-pass", "Ann", "")
	require.NoError(t, err)

	other := NewAuthService(w.profiles, "another-secret", time.Hour, nil)
	foreign, _, err := other.Login(ctx, "ann@example.com", "s3cret-pass")
	require.NoError(t, err)
	_, err = w.auth.ParseToken(foreign)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	stale := NewAuthService(w.profiles, "test-secret", time.Hour, func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, _, err := stale.Login(ctx, "ann@example.com", "s3cret-pass")
	require.NoError(t, err)
	_, err = w.auth.ParseToken(expired)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": profile.ID.Hex()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = w.auth.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = w.auth.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestResolveReflectsRoleChangesWithoutNewToken(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	_, member := w.staff(gym, domain.RoleMember, "ann@example.com")

	before, _, err := w.identity.Resolve(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, before.Can(domain.CapScanAttendance))

	staffRole := domain.RoleStaff
	_, err = w.members.UpdateMember(ctx, gym.admin, member.ID, MemberUpdate{Role: &staffRole})
	require.NoError(t, err)

	after, _, err := w.identity.Resolve(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, after.Can(domain.CapScanAttendance))
}
