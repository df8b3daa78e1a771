package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tier of a platform subscription plan.
type Tier string

const (
	TierStartup    Tier = "startup"
	TierGrowth     Tier = "growth"
	TierEnterprise Tier = "enterprise"
)

// Feature names used by the subscription gate.
const (
	FeatureClassBooking   = "class_booking"
	FeatureWorkoutPlans   = "workout_plans"
	FeatureContentLibrary = "content_library"
	FeatureReports        = "reports"
)

// MemberProtectedFeatures are blocked for members whose own subscription
// has expired.
var MemberProtectedFeatures = map[string]bool{
	FeatureClassBooking:   true,
	FeatureWorkoutPlans:   true,
	FeatureContentLibrary: true,
	FeatureReports:        true,
}

// FreePlanName is reported when a gym has no active subscription.
const FreePlanName = "Free"

// SubscriptionPlan is a platform plan sold to gyms.
type SubscriptionPlan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Price        float64            `bson:"price" json:"price"`
	BillingCycle string             `bson:"billingCycle" json:"billingCycle"`
	Tier         Tier               `bson:"tier" json:"tier"`
	MaxMembers   *int64             `bson:"maxMembers,omitempty" json:"maxMembers"`
	MaxBranches  *int64             `bson:"maxBranches,omitempty" json:"maxBranches"`
	Features     map[string]bool    `bson:"features" json:"features"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// TenantSubscription links a gym to a plan. At most one per gym is active.
type TenantSubscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID     primitive.ObjectID `bson:"gymId" json:"gymId"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	StartDate time.Time          `bson:"startDate" json:"startDate"`
	EndDate   *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// MemberSubscription is a member's own membership with the gym.
type MemberSubscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID     primitive.ObjectID `bson:"gymId" json:"gymId"`
	MemberID  primitive.ObjectID `bson:"memberId" json:"memberId"`
	PlanName  string             `bson:"planName" json:"planName"`
	Price     float64            `bson:"price" json:"price"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	StartDate time.Time          `bson:"startDate" json:"startDate"`
	EndDate   *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ExpiredAt reports whether the subscription is unusable at now.
func (s *MemberSubscription) ExpiredAt(now time.Time) bool {
	if !s.IsActive {
		return true
	}
	return s.EndDate != nil && s.EndDate.Before(now)
}

// MemberSubscriptionExpired applies the expiry rule to a member's active
// subscription: none at all counts as expired, a nil end date never expires.
func MemberSubscriptionExpired(active *MemberSubscription, now time.Time) bool {
	if active == nil {
		return true
	}
	return active.ExpiredAt(now)
}

// Limits is the gate view of a gym's active plan and usage.
type Limits struct {
	PlanName    string          `json:"planName"`
	MemberCount int64           `json:"memberCount"`
	MemberLimit *int64          `json:"memberLimit"`
	BranchCount int64           `json:"branchCount"`
	BranchLimit *int64          `json:"branchLimit"`
	Features    map[string]bool `json:"features"`
	denyAll     bool
}

// LimitsFromPlan computes limits for a plan; a nil plan is the implicit free
// plan: no features and no caps.
func LimitsFromPlan(plan *SubscriptionPlan, memberCount, branchCount int64) Limits {
	l := Limits{
		PlanName:    FreePlanName,
		MemberCount: memberCount,
		BranchCount: branchCount,
		Features:    map[string]bool{},
	}
	if plan == nil {
		return l
	}
	l.PlanName = plan.Name
	l.MemberLimit = plan.MaxMembers
	l.BranchLimit = plan.MaxBranches
	for k, v := range plan.Features {
		l.Features[k] = v
	}
	return l
}

// DenyAllLimits is returned when limits could not be determined.
func DenyAllLimits() Limits {
	return Limits{PlanName: FreePlanName, Features: map[string]bool{}, denyAll: true}
}

func (l Limits) CanAddMembers() bool {
	if l.denyAll {
		return false
	}
	return l.MemberLimit == nil || l.MemberCount < *l.MemberLimit
}

func (l Limits) CanAddBranches() bool {
	if l.denyAll {
		return false
	}
	return l.BranchLimit == nil || l.BranchCount < *l.BranchLimit
}

// CanUseFeature is true only for features the plan explicitly enables.
func (l Limits) CanUseFeature(name string) bool {
	if l.denyAll {
		return false
	}
	return l.Features[name]
}
