package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"alcyxob/gym-saas/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateTenant(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	founder := w.person("founder@example.com")

	gym, err := w.tenants.CreateTenant(ctx, founder.ID, "  Acme Fitness ", "ac", domain.ContactInfo{Email: "desk@acme.test", City: "Austin"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Fitness", gym.Name)
	assert.Equal(t, "AC0", gym.GymCode)
	assert.Equal(t, "UTC", gym.Timezone)
	assert.Equal(t, "Austin", gym.City)
	assert.True(t, gym.IsActive)

	admin, err := w.profiles.GetByID(ctx, founder.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGymAdmin, admin.Role)
	require.NotNil(t, admin.GymID)
	assert.Equal(t, gym.ID, *admin.GymID)
	assert.Empty(t, admin.MemberCode)

	branches, err := w.branches.ListByGym(ctx, gym.ID)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, DefaultBranchName, branches[0].Name)
	assert.True(t, branches[0].IsActive)

	assert.Equal(t, []string{domain.AuditTenantCreated}, w.audit.actions())
	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.TenantsCreated))
}

func TestCreateTenantCodesIncrementPerPrefix(t *testing.T) {
	w := newWorld()
	ctx := context.Background()

	var codes []string
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		founder := w.person(email)
		gym, err := w.tenants.CreateTenant(ctx, founder.ID, "Gym "+email, "AC", domain.ContactInfo{})
		require.NoError(t, err)
		codes = append(codes, gym.GymCode)
	}
	assert.Equal(t, []string{"AC0", "AC1", "AC2"}, codes)

	founder := w.person("d@example.com")
	gym, err := w.tenants.CreateTenant(ctx, founder.ID, "Other", "BS", domain.ContactInfo{})
	require.NoError(t, err)
	assert.Equal(t, "BS0", gym.GymCode)
}

func TestCreateTenantSkipsTakenCode(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	_, err := w.gyms.Create(ctx, &domain.Gym{Name: "Imported", GymCode: "AC0", IsActive: true})
	require.NoError(t, err)

	founder := w.person("founder@example.com")
	gym, err := w.tenants.CreateTenant(ctx, founder.ID, "Acme", "AC", domain.ContactInfo{})
	require.NoError(t, err)
	assert.Equal(t, "AC1", gym.GymCode)
}

func TestCreateTenantGivesUpAfterRepeatedCollisions(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	for _, code := range []string{"AC0", "AC1", "AC2"} {
		_, err := w.gyms.Create(ctx, &domain.Gym{Name: code, GymCode: code, IsActive: true})
		require.NoError(t, err)
	}

	founder := w.person("founder@example.com")
	_, err := w.tenants.CreateTenant(ctx, founder.ID, "Acme", "AC", domain.ContactInfo{})
	require.ErrorIs(t, err, ErrGymCodeTaken)

	profile, err := w.profiles.GetByID(ctx, founder.ID)
	require.NoError(t, err)
	assert.Nil(t, profile.GymID)
}

func TestCreateTenantValidation(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	founder := w.person("founder@example.com")

	tests := []struct {
		name    string
		gymName string
		prefix  string
		tz      string
	}{
		{name: "empty name", gymName: " ", prefix: "AC"},
		{name: "short prefix", gymName: "Acme", prefix: "A"},
		{name: "long prefix", gymName: "Acme", prefix: "ACMEF"},
		{name: "punctuation", gymName: "Acme", prefix: "A-C"},
		{name: "unknown timezone", gymName: "Acme", prefix: "AC", tz: "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.tenants.CreateTenant(ctx, founder.ID, tt.gymName, tt.prefix, domain.ContactInfo{Timezone: tt.tz})
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	count, err := w.gyms.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateTenantRejectsOnboardedFounder(t *testing.T) {
	w := newWorld()
	gym := w.newTenant("Acme", "AC")

	_, err := w.tenants.CreateTenant(context.Background(), gym.admin.ProfileID, "Second", "SE", domain.ContactInfo{})
	require.ErrorIs(t, err, ErrAlreadyOnboarded)
	assert.ErrorIs(t, domain.Kind(err), domain.ErrConflict)
}

func TestCreateTenantConcurrentSamePrefixGetsDistinctCodes(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	const founders = 16

	ids := make([]primitive.ObjectID, founders)
	for i := range ids {
		ids[i] = w.person(fmt.Sprintf("founder%d@example.com", i)).ID
	}

	codes := make([]string, founders)
	errs := make([]error, founders)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gym, err := w.tenants.CreateTenant(ctx, ids[i], fmt.Sprintf("Gym %d", i), "AC", domain.ContactInfo{})
			errs[i] = err
			if err == nil {
				codes[i] = gym.GymCode
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := range codes {
		require.NoError(t, errs[i])
		assert.False(t, seen[codes[i]], "code %s issued twice", codes[i])
		seen[codes[i]] = true
	}
	gyms, err := w.gyms.List(ctx)
	require.NoError(t, err)
	assert.Len(t, gyms, founders)
	assert.EqualValues(t, founders, w.tx.calls.Load())
}

func TestOnboardingRejectsPlatformAdmins(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	root := &domain.Profile{Email: "root@example.com", FirstName: "Root", Role: domain.RoleSuperAdmin, IsActive: true}
	_, err := w.profiles.Create(ctx, root)
	require.NoError(t, err)

	_, err = w.tenants.CreateTenant(ctx, root.ID, "Root Gym", "RG", domain.ContactInfo{})
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = w.tenants.JoinTenant(ctx, root.ID, gym.gym.GymCode)
	assert.ErrorIs(t, err, ErrNotPermitted)

	stored, err := w.profiles.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, stored.Role)
	assert.Nil(t, stored.GymID)
	assert.Empty(t, stored.MemberCode)
}

func TestJoinTenant(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")

	first := w.person("ann@example.com")
	joined, err := w.tenants.JoinTenant(ctx, first.ID, " ac0 ")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, joined.Role)
	assert.Equal(t, "AC0-0001", joined.MemberCode)
	assert.Equal(t, gym.gym.ID, *joined.GymID)

	second := w.person("bob@example.com")
	joined, err = w.tenants.JoinTenant(ctx, second.ID, "AC0")
	require.NoError(t, err)
	assert.Equal(t, "AC0-0002", joined.MemberCode)

	stored, err := w.profiles.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "AC0-0002", stored.MemberCode)
	assert.Contains(t, w.audit.actions(), domain.AuditTenantJoined)
}

func TestJoinTenantConflicts(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	acme := w.newTenant("Acme", "AC")
	w.newTenant("Other", "OG")
	person := w.person("ann@example.com")

	_, err := w.tenants.JoinTenant(ctx, person.ID, "AC0")
	require.NoError(t, err)

	_, err = w.tenants.JoinTenant(ctx, person.ID, "AC0")
	assert.ErrorIs(t, err, ErrAlreadyOnboarded)

	_, err = w.tenants.JoinTenant(ctx, person.ID, "OG0")
	assert.ErrorIs(t, err, ErrAlreadyOnboarded)

	_, err = w.tenants.JoinTenant(ctx, acme.admin.ProfileID, "OG0")
	assert.ErrorIs(t, err, ErrAlreadyOnboarded)

	stored, err := w.profiles.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, acme.gym.ID, *stored.GymID)
	assert.Equal(t, "AC0-0001", stored.MemberCode)
}

func TestJoinTenantUnknownGym(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	w.newTenant("Acme", "AC")
	person := w.person("ann@example.com")

	_, err := w.tenants.JoinTenant(ctx, person.ID, "ZZ9")
	assert.ErrorIs(t, err, ErrGymNotFound)

	_, err = w.tenants.JoinTenant(ctx, person.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestJoinTenantKeepsExistingMemberCode(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	w.newTenant("Acme", "AC")
	person := w.person("ann@example.com")
	person.MemberCode = "LEGACY-0042"
	w.profiles.put(*person)

	joined, err := w.tenants.JoinTenant(ctx, person.ID, "AC0")
	require.NoError(t, err)
	assert.Equal(t, "LEGACY-0042", joined.MemberCode)

	next := w.person("bob@example.com")
	joined, err = w.tenants.JoinTenant(ctx, next.ID, "AC0")
	require.NoError(t, err)
	assert.Equal(t, "AC0-0001", joined.MemberCode)
}

func TestUpdateGym(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	member, _ := w.staff(gym, domain.RoleMember, "ann@example.com")

	updated, err := w.tenants.UpdateGym(ctx, gym.admin, "Acme Prime", domain.ContactInfo{ThemeColor: "#ff0000", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Prime", updated.Name)
	assert.Equal(t, "AC0", updated.GymCode)
	assert.Equal(t, "Europe/Berlin", updated.Timezone)

	_, err = w.tenants.UpdateGym(ctx, gym.admin, "", domain.ContactInfo{Timezone: "Nowhere/Land"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = w.tenants.UpdateGym(ctx, member, "Hijacked", domain.ContactInfo{})
	assert.ErrorIs(t, err, ErrNotPermitted)

	stored, err := w.tenants.GetGym(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, "Acme Prime", stored.Name)
}

func TestCreateBranchRespectsPlan(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	w.plan(gym, domain.SubscriptionPlan{Name: "Startup", Price: 49, MaxBranches: int64Ptr(2)})

	second, err := w.tenants.CreateBranch(ctx, gym.admin, domain.Branch{Name: "Downtown"})
	require.NoError(t, err)
	assert.Equal(t, gym.gym.ID, second.GymID)
	assert.True(t, second.IsActive)

	_, err = w.tenants.CreateBranch(ctx, gym.admin, domain.Branch{Name: "Uptown"})
	require.ErrorIs(t, err, ErrBranchLimitReached)

	// Deactivated branches free their slot.
	require.NoError(t, w.tenants.DeactivateBranch(ctx, gym.admin, second.ID))
	_, err = w.tenants.CreateBranch(ctx, gym.admin, domain.Branch{Name: "Uptown"})
	require.NoError(t, err)
}

func TestCreateBranchFailsClosed(t *testing.T) {
	w := newWorld()
	gym := w.newTenant("Acme", "AC")
	w.branches.err = errStoreDown

	_, err := w.tenants.CreateBranch(context.Background(), gym.admin, domain.Branch{Name: "Downtown"})
	assert.ErrorIs(t, err, ErrBranchLimitReached)
}

func TestBranchesNeedGymManagement(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	desk, _ := w.staff(gym, domain.RoleStaff, "desk@example.com")

	_, err := w.tenants.CreateBranch(ctx, desk, domain.Branch{Name: "Downtown"})
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.ErrorIs(t, w.tenants.DeactivateBranch(ctx, desk, gym.branch.ID), ErrNotPermitted)

	branches, err := w.tenants.ListBranches(ctx, desk)
	require.NoError(t, err)
	assert.Len(t, branches, 1)
}
