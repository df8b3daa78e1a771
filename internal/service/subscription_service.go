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

// MemberSubscriptionInput describes a membership sold to a member.
type MemberSubscriptionInput struct {
	PlanName  string
	Price     float64
	StartDate time.Time
	EndDate   *time.Time
}

// SubscriptionService is the subscription gate plus plan and membership
// management.
type SubscriptionService interface {
	// LimitsFor never fails open: on error it returns deny-all limits
	// together with the error.
	LimitsFor(ctx context.Context, gymID primitive.ObjectID) (domain.Limits, error)
	IsMemberSubscriptionExpired(ctx context.Context, profileID primitive.ObjectID) (bool, error)
	// IsFeatureBlocked reports whether the principal is locked out of
	// feature because their own membership expired. Lookup failures block.
	IsFeatureBlocked(ctx context.Context, p domain.Principal, feature string) bool

	CreatePlan(ctx context.Context, p domain.Principal, plan domain.SubscriptionPlan) (*domain.SubscriptionPlan, error)
	ListPlans(ctx context.Context, p domain.Principal) ([]domain.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, p domain.Principal, plan domain.SubscriptionPlan) (*domain.SubscriptionPlan, error)
	DeactivatePlan(ctx context.Context, p domain.Principal, planID primitive.ObjectID) error
	AssignPlan(ctx context.Context, p domain.Principal, gymID, planID primitive.ObjectID, start time.Time, end *time.Time) (*domain.TenantSubscription, error)

	CreateMemberSubscription(ctx context.Context, p domain.Principal, memberID primitive.ObjectID, in MemberSubscriptionInput) (*domain.MemberSubscription, error)
	ListMemberSubscriptions(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) ([]domain.MemberSubscription, error)

	// ExpireEnded deactivates member subscriptions past their end date and
	// notifies the members. It returns how many were deactivated.
	ExpireEnded(ctx context.Context) (int, error)
}

type subscriptionService struct {
	tx            repository.TxRunner
	plans         repository.PlanRepository
	tenantSubs    repository.TenantSubscriptionRepository
	memberSubs    repository.MemberSubscriptionRepository
	gyms          repository.GymRepository
	branches      repository.BranchRepository
	profiles      repository.ProfileRepository
	notifications repository.NotificationRepository
	audit         *Auditor
	metrics       *metrics.Metrics
	now           Clock
}

func NewSubscriptionService(
	tx repository.TxRunner,
	plans repository.PlanRepository,
	tenantSubs repository.TenantSubscriptionRepository,
	memberSubs repository.MemberSubscriptionRepository,
	gyms repository.GymRepository,
	branches repository.BranchRepository,
	profiles repository.ProfileRepository,
	notifications repository.NotificationRepository,
	audit *Auditor,
	m *metrics.Metrics,
	clock Clock,
) SubscriptionService {
	return &subscriptionService{
		tx:            tx,
		plans:         plans,
		tenantSubs:    tenantSubs,
		memberSubs:    memberSubs,
		gyms:          gyms,
		branches:      branches,
		profiles:      profiles,
		notifications: notifications,
		audit:         audit,
		metrics:       m,
		now:           clockOrSystem(clock),
	}
}

// LimitsFor resolves the gym's active plan. No active subscription means the
// free plan: no paid features and no member cap.
func (s *subscriptionService) LimitsFor(ctx context.Context, gymID primitive.ObjectID) (domain.Limits, error) {
	var plan *domain.SubscriptionPlan
	sub, err := s.tenantSubs.GetActive(ctx, gymID)
	switch {
	case err == nil:
		plan, err = s.plans.GetByID(ctx, sub.PlanID)
		if err != nil {
			return domain.DenyAllLimits(), upstream(ctx, "load plan of active subscription", err)
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		return domain.DenyAllLimits(), upstream(ctx, "load active subscription", err)
	}

	members, err := s.profiles.Count(ctx, repository.ProfileFilter{GymID: &gymID, Role: domain.RoleMember, ActiveOnly: true})
	if err != nil {
		return domain.DenyAllLimits(), upstream(ctx, "count members", err)
	}
	branches, err := s.branches.CountActive(ctx, gymID)
	if err != nil {
		return domain.DenyAllLimits(), upstream(ctx, "count branches", err)
	}
	return domain.LimitsFromPlan(plan, members, branches), nil
}

func (s *subscriptionService) IsMemberSubscriptionExpired(ctx context.Context, profileID primitive.ObjectID) (bool, error) {
	active, err := s.memberSubs.GetActive(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return true, nil
		}
		return true, upstream(ctx, "load member subscription", err)
	}
	return domain.MemberSubscriptionExpired(active, s.now()), nil
}

func (s *subscriptionService) IsFeatureBlocked(ctx context.Context, p domain.Principal, feature string) bool {
	if p.Role != domain.RoleMember || !domain.MemberProtectedFeatures[feature] {
		return false
	}
	expired, err := s.IsMemberSubscriptionExpired(ctx, p.ProfileID)
	if err != nil || expired {
		s.metrics.GateDenials.WithLabelValues(feature).Inc()
		return true
	}
	return false
}

func validatePlan(plan *domain.SubscriptionPlan) error {
	plan.Name = strings.TrimSpace(plan.Name)
	if plan.Name == "" {
		return invalid("plan name is required")
	}
	if plan.Price < 0 {
		return invalid("price cannot be negative")
	}
	if plan.MaxMembers != nil && *plan.MaxMembers < 0 {
		return invalid("maxMembers cannot be negative")
	}
	if plan.MaxBranches != nil && *plan.MaxBranches < 0 {
		return invalid("maxBranches cannot be negative")
	}
	switch plan.Tier {
	case domain.TierStartup, domain.TierGrowth, domain.TierEnterprise:
	case "":
		plan.Tier = domain.TierStartup
	default:
		return invalid("unknown tier %q", plan.Tier)
	}
	if plan.BillingCycle == "" {
		plan.BillingCycle = "monthly"
	}
	if plan.Features == nil {
		plan.Features = map[string]bool{}
	}
	return nil
}

func (s *subscriptionService) CreatePlan(ctx context.Context, p domain.Principal, plan domain.SubscriptionPlan) (*domain.SubscriptionPlan, error) {
	if !p.Can(domain.CapManagePlatform) {
		return nil, ErrNotPermitted
	}
	if err := validatePlan(&plan); err != nil {
		return nil, err
	}
	plan.IsActive = true
	if _, err := s.plans.Create(ctx, &plan); err != nil {
		return nil, upstream(ctx, "create plan", err)
	}
	return &plan, nil
}

// ListPlans shows every plan to the platform admin and active ones to gym
// admins choosing an upgrade.
func (s *subscriptionService) ListPlans(ctx context.Context, p domain.Principal) ([]domain.SubscriptionPlan, error) {
	if !p.Can(domain.CapManagePlatform) && !p.Can(domain.CapManageGym) {
		return nil, ErrNotPermitted
	}
	plans, err := s.plans.List(ctx, !p.Can(domain.CapManagePlatform))
	if err != nil {
		return nil, upstream(ctx, "list plans", err)
	}
	return plans, nil
}

func (s *subscriptionService) UpdatePlan(ctx context.Context, p domain.Principal, plan domain.SubscriptionPlan) (*domain.SubscriptionPlan, error) {
	if !p.Can(domain.CapManagePlatform) {
		return nil, ErrNotPermitted
	}
	if err := validatePlan(&plan); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, &plan); err != nil {
		return nil, notFoundOr(ctx, "update plan", err, ErrPlanNotFound)
	}
	return &plan, nil
}

func (s *subscriptionService) DeactivatePlan(ctx context.Context, p domain.Principal, planID primitive.ObjectID) error {
	if !p.Can(domain.CapManagePlatform) {
		return ErrNotPermitted
	}
	if err := s.plans.Deactivate(ctx, planID); err != nil {
		return notFoundOr(ctx, "deactivate plan", err, ErrPlanNotFound)
	}
	return nil
}

// AssignPlan switches the gym to planID. The old subscription is closed and
// the new one opened in one transaction.
func (s *subscriptionService) AssignPlan(ctx context.Context, p domain.Principal, gymID, planID primitive.ObjectID, start time.Time, end *time.Time) (*domain.TenantSubscription, error) {
	if !p.Can(domain.CapManagePlatform) {
		return nil, ErrNotPermitted
	}
	if start.IsZero() {
		start = s.now()
	}
	if end != nil && !end.After(start) {
		return nil, invalid("end date must be after start date")
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, notFoundOr(ctx, "load plan", err, ErrPlanNotFound)
	}
	if !plan.IsActive {
		return nil, ErrPlanNotFound
	}
	if _, err := s.gyms.GetByID(ctx, gymID); err != nil {
		return nil, notFoundOr(ctx, "load gym", err, ErrGymNotFound)
	}

	sub := &domain.TenantSubscription{
		GymID:     gymID,
		PlanID:    planID,
		IsActive:  true,
		StartDate: start,
		EndDate:   end,
	}
	err = s.tx.WithinTx(ctx, func(tctx context.Context) error {
		if err := s.tenantSubs.DeactivateActive(tctx, gymID); err != nil {
			return err
		}
		_, err := s.tenantSubs.Create(tctx, sub)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("subscription changed concurrently, retry")
		}
		return nil, upstream(ctx, "assign plan", err)
	}

	s.audit.Record(ctx, domain.AuditPlanAssigned, &gymID, p.ProfileID, "gym_subscriptions", sub.ID, map[string]any{
		"planId":   planID.Hex(),
		"planName": plan.Name,
	})
	return sub, nil
}

// loadMember returns memberID if it is a member of gymID.
func loadMember(ctx context.Context, profiles repository.ProfileRepository, gymID, memberID primitive.ObjectID) (*domain.Profile, error) {
	member, err := profiles.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFoundOr(ctx, "load member", err, ErrMemberNotFound)
	}
	if !member.BelongsTo(gymID) || !member.IsMember() {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func (s *subscriptionService) CreateMemberSubscription(ctx context.Context, p domain.Principal, memberID primitive.ObjectID, in MemberSubscriptionInput) (*domain.MemberSubscription, error) {
	gymID, err := requireCap(p, domain.CapManageMemberSubscriptions)
	if err != nil {
		return nil, err
	}
	in.PlanName = strings.TrimSpace(in.PlanName)
	if in.PlanName == "" {
		return nil, invalid("plan name is required")
	}
	if in.Price < 0 {
		return nil, invalid("price cannot be negative")
	}
	if in.StartDate.IsZero() {
		in.StartDate = s.now()
	}
	if in.EndDate != nil && !in.EndDate.After(in.StartDate) {
		return nil, invalid("end date must be after start date")
	}
	if _, err := loadMember(ctx, s.profiles, gymID, memberID); err != nil {
		return nil, err
	}

	sub := &domain.MemberSubscription{
		GymID:     gymID,
		MemberID:  memberID,
		PlanName:  in.PlanName,
		Price:     in.Price,
		IsActive:  true,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	}
	err = s.tx.WithinTx(ctx, func(tctx context.Context) error {
		if err := s.memberSubs.DeactivateActive(tctx, memberID); err != nil {
			return err
		}
		_, err := s.memberSubs.Create(tctx, sub)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("subscription changed concurrently, retry")
		}
		return nil, upstream(ctx, "create member subscription", err)
	}
	return sub, nil
}

// ListMemberSubscriptions is open to staff of the gym and to the member.
func (s *subscriptionService) ListMemberSubscriptions(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) ([]domain.MemberSubscription, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return nil, err
	}
	if p.ProfileID != memberID && !p.Can(domain.CapManageMemberSubscriptions) {
		return nil, ErrNotPermitted
	}
	subs, err := s.memberSubs.ListByMember(ctx, gymID, memberID)
	if err != nil {
		return nil, upstream(ctx, "list member subscriptions", err)
	}
	return subs, nil
}

func (s *subscriptionService) ExpireEnded(ctx context.Context) (int, error) {
	ended, err := s.memberSubs.ListEnded(ctx, s.now())
	if err != nil {
		return 0, upstream(ctx, "list ended subscriptions", err)
	}

	log := logger.FromContext(ctx)
	expired := 0
	for i := range ended {
		sub := &ended[i]
		if err := s.memberSubs.Deactivate(ctx, sub.ID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Warn("deactivate ended subscription failed", zap.String("subscription_id", sub.ID.Hex()), zap.Error(err))
			}
			continue
		}
		expired++
		s.metrics.SubscriptionsSwept.Inc()

		recipient := sub.MemberID
		_, err := s.notifications.Create(ctx, &domain.Notification{
			GymID:       sub.GymID,
			RecipientID: &recipient,
			Title:       "Membership expired",
			Message:     "Your " + sub.PlanName + " membership has ended. Please renew to keep booking classes.",
			Type:        domain.NotificationSubscriptionExpired,
		})
		if err != nil {
			log.Warn("expiry notification failed", zap.String("member_id", recipient.Hex()), zap.Error(err))
		}
	}
	return expired, nil
}
