package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/metrics"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultBranchName is the branch every new gym starts with.
const DefaultBranchName = "Main"

// TenantService onboards people into gyms and manages gym settings.
type TenantService interface {
	CreateTenant(ctx context.Context, founderID primitive.ObjectID, name, prefix string, contact domain.ContactInfo) (*domain.Gym, error)
	JoinTenant(ctx context.Context, personID primitive.ObjectID, gymCode string) (*domain.Profile, error)
	GetGym(ctx context.Context, p domain.Principal) (*domain.Gym, error)
	UpdateGym(ctx context.Context, p domain.Principal, name string, contact domain.ContactInfo) (*domain.Gym, error)
	ListBranches(ctx context.Context, p domain.Principal) ([]domain.Branch, error)
	CreateBranch(ctx context.Context, p domain.Principal, branch domain.Branch) (*domain.Branch, error)
	DeactivateBranch(ctx context.Context, p domain.Principal, branchID primitive.ObjectID) error
}

type tenantService struct {
	tx              repository.TxRunner
	gyms            repository.GymRepository
	branches        repository.BranchRepository
	profiles        repository.ProfileRepository
	codes           *CodeIssuer
	subscriptions   SubscriptionService
	audit           *Auditor
	metrics         *metrics.Metrics
	defaultTimezone string
}

func NewTenantService(
	tx repository.TxRunner,
	gyms repository.GymRepository,
	branches repository.BranchRepository,
	profiles repository.ProfileRepository,
	codes *CodeIssuer,
	subscriptions SubscriptionService,
	audit *Auditor,
	m *metrics.Metrics,
	defaultTimezone string,
) TenantService {
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &tenantService{
		tx:              tx,
		gyms:            gyms,
		branches:        branches,
		profiles:        profiles,
		codes:           codes,
		subscriptions:   subscriptions,
		audit:           audit,
		metrics:         m,
		defaultTimezone: defaultTimezone,
	}
}

// CreateTenant creates a gym with its default branch and makes the founder
// its admin. The three writes commit together or not at all.
func (s *tenantService) CreateTenant(ctx context.Context, founderID primitive.ObjectID, name, prefix string, contact domain.ContactInfo) (*domain.Gym, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("gym name is required")
	}
	prefix, err := domain.NormalizeGymCodePrefix(prefix)
	if err != nil {
		return nil, err
	}
	if contact.Timezone != "" {
		if _, err := time.LoadLocation(contact.Timezone); err != nil {
			return nil, invalid("unknown timezone %q", contact.Timezone)
		}
	}

	founder, err := s.profiles.GetByID(ctx, founderID)
	if err != nil {
		return nil, notFoundOr(ctx, "load founder", err, ErrProfileNotFound)
	}
	if founder.GymID != nil {
		return nil, ErrAlreadyOnboarded
	}
	if founder.Role == domain.RoleSuperAdmin {
		return nil, ErrNotPermitted
	}

	var gym *domain.Gym
	_, err = s.codes.withGymCode(ctx, prefix, func(code string) error {
		candidate := &domain.Gym{
			Name:     name,
			GymCode:  code,
			Timezone: s.defaultTimezone,
			IsActive: true,
		}
		contact.Apply(candidate)

		err := s.tx.WithinTx(ctx, func(tctx context.Context) error {
			gymID, err := s.gyms.Create(tctx, candidate)
			if err != nil {
				return err
			}
			branch := &domain.Branch{GymID: gymID, Name: DefaultBranchName, IsActive: true}
			if _, err := s.branches.Create(tctx, branch); err != nil {
				return err
			}
			if err := s.profiles.AssignGym(tctx, founderID, gymID, domain.RoleGymAdmin, ""); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrAlreadyOnboarded
				}
				return err
			}
			return nil
		})
		if err == nil {
			gym = candidate
			return nil
		}
		if errors.Is(err, repository.ErrDuplicate) {
			logger.FromContext(ctx).Info("gym code taken, re-deriving", zap.String("code", code))
			return err
		}
		if errors.Is(err, domain.ErrConflict) {
			return err
		}
		return upstream(ctx, "create tenant", err)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TenantsCreated.Inc()
	s.audit.Record(ctx, domain.AuditTenantCreated, &gym.ID, founderID, "gyms", gym.ID, map[string]any{
		"name":    gym.Name,
		"gymCode": gym.GymCode,
	})
	return gym, nil
}

// JoinTenant attaches a not-yet-onboarded person to the gym with gymCode as
// a member and issues their member code.
func (s *tenantService) JoinTenant(ctx context.Context, personID primitive.ObjectID, gymCode string) (*domain.Profile, error) {
	code := domain.NormalizeGymCode(gymCode)
	if code == "" {
		return nil, invalid("gym code is required")
	}
	gym, err := s.gyms.GetByCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(ctx, "find gym by code", err, ErrGymNotFound)
	}
	if !gym.IsActive {
		return nil, ErrGymNotFound
	}

	person, err := s.profiles.GetByID(ctx, personID)
	if err != nil {
		return nil, notFoundOr(ctx, "load person", err, ErrProfileNotFound)
	}
	if person.GymID != nil {
		return nil, ErrAlreadyOnboarded
	}
	if person.Role == domain.RoleSuperAdmin {
		return nil, ErrNotPermitted
	}

	// An existing code is kept; AssignGym only writes a new one.
	memberCode, newCode := person.MemberCode, ""
	if memberCode == "" {
		newCode, err = s.codes.NextMemberCode(ctx, gym.ID, gym.GymCode)
		if err != nil {
			return nil, upstream(ctx, "issue member code", err)
		}
		memberCode = newCode
	}

	if err := s.profiles.AssignGym(ctx, personID, gym.ID, domain.RoleMember, newCode); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAlreadyOnboarded
		}
		return nil, upstream(ctx, "join gym", err)
	}

	person.GymID = &gym.ID
	person.Role = domain.RoleMember
	person.MemberCode = memberCode
	s.audit.Record(ctx, domain.AuditTenantJoined, &gym.ID, personID, "profiles", personID, map[string]any{
		"memberCode": memberCode,
	})
	return person, nil
}

func (s *tenantService) GetGym(ctx context.Context, p domain.Principal) (*domain.Gym, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return nil, err
	}
	gym, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, notFoundOr(ctx, "load gym", err, ErrGymNotFound)
	}
	return gym, nil
}

// UpdateGym changes contact and branding fields. The gym code is immutable.
func (s *tenantService) UpdateGym(ctx context.Context, p domain.Principal, name string, contact domain.ContactInfo) (*domain.Gym, error) {
	if _, err := requireCap(p, domain.CapManageGym); err != nil {
		return nil, err
	}
	if contact.Timezone != "" {
		if _, err := time.LoadLocation(contact.Timezone); err != nil {
			return nil, invalid("unknown timezone %q", contact.Timezone)
		}
	}
	gym, err := s.GetGym(ctx, p)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		gym.Name = name
	}
	contact.Apply(gym)
	if err := s.gyms.Update(ctx, gym); err != nil {
		return nil, notFoundOr(ctx, "update gym", err, ErrGymNotFound)
	}
	return gym, nil
}

func (s *tenantService) ListBranches(ctx context.Context, p domain.Principal) ([]domain.Branch, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return nil, err
	}
	branches, err := s.branches.ListByGym(ctx, gymID)
	if err != nil {
		return nil, upstream(ctx, "list branches", err)
	}
	return branches, nil
}

// CreateBranch adds a location, subject to the plan's branch cap.
func (s *tenantService) CreateBranch(ctx context.Context, p domain.Principal, branch domain.Branch) (*domain.Branch, error) {
	gymID, err := requireCap(p, domain.CapManageGym)
	if err != nil {
		return nil, err
	}
	branch.Name = strings.TrimSpace(branch.Name)
	if branch.Name == "" {
		return nil, invalid("branch name is required")
	}

	limits, err := s.subscriptions.LimitsFor(ctx, gymID)
	if err != nil || !limits.CanAddBranches() {
		return nil, ErrBranchLimitReached
	}

	branch.GymID = gymID
	branch.IsActive = true
	if _, err := s.branches.Create(ctx, &branch); err != nil {
		return nil, upstream(ctx, "create branch", err)
	}
	return &branch, nil
}

func (s *tenantService) DeactivateBranch(ctx context.Context, p domain.Principal, branchID primitive.ObjectID) error {
	gymID, err := requireCap(p, domain.CapManageGym)
	if err != nil {
		return err
	}
	if err := s.branches.Deactivate(ctx, gymID, branchID); err != nil {
		return notFoundOr(ctx, "deactivate branch", err, ErrBranchNotFound)
	}
	return nil
}
