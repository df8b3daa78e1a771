package repository

import (
	"context"
	"time"

	"alcyxob/gym-saas/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxRunner runs fn inside a transaction. Repositories called with the ctx
// handed to fn take part in it; an error from fn aborts every write.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CounterRepository hands out monotonically increasing sequence numbers.
type CounterRepository interface {
	// Next returns the current value of key and increments it atomically.
	// The first call for a key returns 0.
	Next(ctx context.Context, key string) (int64, error)
}

// GymRepository stores tenants.
type GymRepository interface {
	Create(ctx context.Context, gym *domain.Gym) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Gym, error)
	GetByCode(ctx context.Context, code string) (*domain.Gym, error)
	Update(ctx context.Context, gym *domain.Gym) error
	List(ctx context.Context) ([]domain.Gym, error)
	Count(ctx context.Context) (int64, error)
}

// BranchRepository stores gym locations.
type BranchRepository interface {
	Create(ctx context.Context, branch *domain.Branch) (primitive.ObjectID, error)
	GetByID(ctx context.Context, gymID, id primitive.ObjectID) (*domain.Branch, error)
	ListByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.Branch, error)
	CountActive(ctx context.Context, gymID primitive.ObjectID) (int64, error)
	Deactivate(ctx context.Context, gymID, id primitive.ObjectID) error
}

// ProfileFilter narrows profile listings and counts. Zero values match all.
type ProfileFilter struct {
	GymID        *primitive.ObjectID
	BranchID     *primitive.ObjectID
	Role         domain.Role
	Search       string
	CreatedSince *time.Time
	ActiveOnly   bool
}

// ProfileRepository stores people.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByMemberCode(ctx context.Context, gymID primitive.ObjectID, code string) (*domain.Profile, error)
	// AssignGym moves a not-yet-onboarded profile into gymID. ErrNotFound
	// means the profile does not exist or already belongs to a gym.
	AssignGym(ctx context.Context, id, gymID primitive.ObjectID, role domain.Role, memberCode string) error
	// Update writes the editable fields. It never touches gymId or memberCode.
	Update(ctx context.Context, profile *domain.Profile) error
	// UpdateAssigningCode writes the editable fields and, in the same write,
	// code as the member code when the stored profile has none. An existing
	// code is kept. profile is refreshed from the stored document.
	UpdateAssigningCode(ctx context.Context, profile *domain.Profile, code string) error
	SetActive(ctx context.Context, gymID, id primitive.ObjectID, active bool) error
	List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, error)
	Count(ctx context.Context, filter ProfileFilter) (int64, error)
}

// PlanRepository stores platform subscription plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.SubscriptionPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error)
	List(ctx context.Context, activeOnly bool) ([]domain.SubscriptionPlan, error)
	Update(ctx context.Context, plan *domain.SubscriptionPlan) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

// TenantSubscriptionRepository stores which plan each gym is on.
type TenantSubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.TenantSubscription) (primitive.ObjectID, error)
	GetActive(ctx context.Context, gymID primitive.ObjectID) (*domain.TenantSubscription, error)
	DeactivateActive(ctx context.Context, gymID primitive.ObjectID) error
	ListActive(ctx context.Context) ([]domain.TenantSubscription, error)
}

// MemberSubscriptionRepository stores members' own memberships.
type MemberSubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.MemberSubscription) (primitive.ObjectID, error)
	GetActive(ctx context.Context, memberID primitive.ObjectID) (*domain.MemberSubscription, error)
	DeactivateActive(ctx context.Context, memberID primitive.ObjectID) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	ListByMember(ctx context.Context, gymID, memberID primitive.ObjectID) ([]domain.MemberSubscription, error)
	ListActiveByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.MemberSubscription, error)
	// ListEnded returns active subscriptions whose end date is before now.
	ListEnded(ctx context.Context, now time.Time) ([]domain.MemberSubscription, error)
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	GymID    primitive.ObjectID
	Window   domain.Window
	MemberID *primitive.ObjectID
	Limit    int64
}

// AttendanceRepository stores check-in/check-out intervals.
type AttendanceRepository interface {
	// CloseOpen closes the open log of memberID for day, if one exists, and
	// returns it. ErrNotFound means there was none.
	CloseOpen(ctx context.Context, gymID, memberID primitive.ObjectID, day string, at time.Time) (*domain.AttendanceLog, error)
	// Insert adds an open log. ErrDuplicate means the member already has an
	// open log for that day.
	Insert(ctx context.Context, log *domain.AttendanceLog) (primitive.ObjectID, error)
	Count(ctx context.Context, filter AttendanceFilter) (int64, error)
	CountOpen(ctx context.Context, gymID primitive.ObjectID, day string) (int64, error)
	CountDistinctMembers(ctx context.Context, gymID primitive.ObjectID, since time.Time) (int64, error)
	List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceLog, error)
}

// ClassFilter narrows class listings.
type ClassFilter struct {
	GymID     primitive.ObjectID
	TrainerID *primitive.ObjectID
	From      *time.Time
}

// ClassRepository stores scheduled classes.
type ClassRepository interface {
	Create(ctx context.Context, class *domain.Class) (primitive.ObjectID, error)
	GetByID(ctx context.Context, gymID, id primitive.ObjectID) (*domain.Class, error)
	List(ctx context.Context, filter ClassFilter) ([]domain.Class, error)
	SetStatus(ctx context.Context, gymID, id primitive.ObjectID, status domain.ClassStatus) error
	Delete(ctx context.Context, gymID, id primitive.ObjectID) error
	// ReserveSeat takes one seat of a scheduled class if any is left.
	// ErrNotFound means the class is full or no longer scheduled.
	ReserveSeat(ctx context.Context, id primitive.ObjectID) error
	ReleaseSeat(ctx context.Context, id primitive.ObjectID) error
	CountUpcoming(ctx context.Context, gymID primitive.ObjectID, now time.Time) (int64, error)
}

// BookingRepository stores class reservations.
type BookingRepository interface {
	// Create fails with ErrDuplicate when the member already has a booking
	// for the class.
	Create(ctx context.Context, booking *domain.ClassBooking) (primitive.ObjectID, error)
	Get(ctx context.Context, classID, memberID primitive.ObjectID) (*domain.ClassBooking, error)
	// UpdateStatus moves a booking from one status to another. ErrNotFound
	// means it was not in the from status.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error
	ListByClass(ctx context.Context, classID primitive.ObjectID) ([]domain.ClassBooking, error)
	DeleteByClass(ctx context.Context, classID primitive.ObjectID) error
}

// WorkoutPlanRepository stores workout templates.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.DefaultWorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, gymID, id primitive.ObjectID) (*domain.DefaultWorkoutPlan, error)
	ListActive(ctx context.Context, gymID primitive.ObjectID) ([]domain.DefaultWorkoutPlan, error)
	Deactivate(ctx context.Context, gymID, id primitive.ObjectID) error
}

// ProgramFilter narrows workout program listings.
type ProgramFilter struct {
	GymID     primitive.ObjectID
	TrainerID *primitive.ObjectID
	MemberID  *primitive.ObjectID
}

// WorkoutProgramRepository stores templates assigned to members.
type WorkoutProgramRepository interface {
	Create(ctx context.Context, program *domain.WorkoutProgram) (primitive.ObjectID, error)
	List(ctx context.Context, filter ProgramFilter) ([]domain.WorkoutProgram, error)
}

// ContentRepository stores content library metadata.
type ContentRepository interface {
	Create(ctx context.Context, item *domain.ContentItem) (primitive.ObjectID, error)
	GetByID(ctx context.Context, gymID, id primitive.ObjectID) (*domain.ContentItem, error)
	List(ctx context.Context, gymID primitive.ObjectID, publicOnly bool, search string) ([]domain.ContentItem, error)
	Delete(ctx context.Context, gymID, id primitive.ObjectID) error
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error)
	// ListForRecipient returns the recipient's own notifications and the
	// gym's broadcasts, newest first.
	ListForRecipient(ctx context.Context, gymID, recipientID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, gymID, id, recipientID primitive.ObjectID) error
}

// AuditRepository stores the audit trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}
