package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ClassInput describes a class to schedule.
type ClassInput struct {
	BranchID    primitive.ObjectID
	TrainerID   *primitive.ObjectID
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	MaxCapacity int64
}

// ClassService schedules classes and takes bookings.
type ClassService interface {
	CreateClass(ctx context.Context, p domain.Principal, in ClassInput) (*domain.Class, error)
	ListClasses(ctx context.Context, p domain.Principal, upcomingOnly bool) ([]domain.Class, error)
	CancelClass(ctx context.Context, p domain.Principal, classID primitive.ObjectID) error
	DeleteClass(ctx context.Context, p domain.Principal, classID primitive.ObjectID) error
	BookClass(ctx context.Context, p domain.Principal, classID primitive.ObjectID) (*domain.ClassBooking, error)
	CancelBooking(ctx context.Context, p domain.Principal, classID primitive.ObjectID) error
}

type classService struct {
	tx       repository.TxRunner
	branches repository.BranchRepository
	profiles repository.ProfileRepository
	classes  repository.ClassRepository
	bookings repository.BookingRepository
	now      Clock
}

func NewClassService(
	tx repository.TxRunner,
	branches repository.BranchRepository,
	profiles repository.ProfileRepository,
	classes repository.ClassRepository,
	bookings repository.BookingRepository,
	clock Clock,
) ClassService {
	return &classService{
		tx:       tx,
		branches: branches,
		profiles: profiles,
		classes:  classes,
		bookings: bookings,
		now:      clockOrSystem(clock),
	}
}

func (s *classService) CreateClass(ctx context.Context, p domain.Principal, in ClassInput) (*domain.Class, error) {
	gymID, err := requireCap(p, domain.CapManageClasses)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("class name is required")
	}
	if in.StartTime.IsZero() || !in.EndTime.After(in.StartTime) {
		return nil, invalid("end time must be after start time")
	}
	if in.MaxCapacity < 0 {
		return nil, invalid("capacity must be positive")
	}
	if in.MaxCapacity == 0 {
		in.MaxCapacity = domain.DefaultClassCapacity
	}

	if _, err := s.branches.GetByID(ctx, gymID, in.BranchID); err != nil {
		return nil, notFoundOr(ctx, "load branch", err, ErrBranchNotFound)
	}
	if in.TrainerID == nil && p.Role == domain.RoleTrainer {
		self := p.ProfileID
		in.TrainerID = &self
	}
	if in.TrainerID != nil {
		trainer, err := s.profiles.GetByID(ctx, *in.TrainerID)
		if err != nil {
			return nil, notFoundOr(ctx, "load trainer", err, invalid("trainer not found"))
		}
		if !trainer.BelongsTo(gymID) || trainer.Role != domain.RoleTrainer {
			return nil, invalid("trainer not found")
		}
	}

	class := &domain.Class{
		GymID:       gymID,
		BranchID:    in.BranchID,
		TrainerID:   in.TrainerID,
		Name:        in.Name,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		MaxCapacity: in.MaxCapacity,
		Status:      domain.ClassScheduled,
	}
	if _, err := s.classes.Create(ctx, class); err != nil {
		return nil, upstream(ctx, "create class", err)
	}
	return class, nil
}

// ListClasses returns classes with their status derived from the clock.
// Trainers only see their own classes.
func (s *classService) ListClasses(ctx context.Context, p domain.Principal, upcomingOnly bool) ([]domain.Class, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return nil, err
	}
	now := s.now()
	filter := repository.ClassFilter{GymID: gymID}
	if p.Role == domain.RoleTrainer {
		self := p.ProfileID
		filter.TrainerID = &self
	}
	if upcomingOnly {
		filter.From = &now
	}
	classes, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, upstream(ctx, "list classes", err)
	}
	for i := range classes {
		classes[i].Status = classes[i].StatusAt(now)
	}
	return classes, nil
}

// loadManagedClass returns a class the principal may change.
func (s *classService) loadManagedClass(ctx context.Context, p domain.Principal, classID primitive.ObjectID) (*domain.Class, error) {
	gymID, err := requireCap(p, domain.CapManageClasses)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.GetByID(ctx, gymID, classID)
	if err != nil {
		return nil, notFoundOr(ctx, "load class", err, ErrClassNotFound)
	}
	if p.Role == domain.RoleTrainer && (class.TrainerID == nil || *class.TrainerID != p.ProfileID) {
		return nil, ErrNotPermitted
	}
	return class, nil
}

func (s *classService) CancelClass(ctx context.Context, p domain.Principal, classID primitive.ObjectID) error {
	class, err := s.loadManagedClass(ctx, p, classID)
	if err != nil {
		return err
	}
	if err := s.classes.SetStatus(ctx, class.GymID, class.ID, domain.ClassCancelled); err != nil {
		return notFoundOr(ctx, "cancel class", err, ErrClassNotFound)
	}
	return nil
}

// DeleteClass removes the class together with its bookings.
func (s *classService) DeleteClass(ctx context.Context, p domain.Principal, classID primitive.ObjectID) error {
	class, err := s.loadManagedClass(ctx, p, classID)
	if err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(tctx context.Context) error {
		if err := s.bookings.DeleteByClass(tctx, class.ID); err != nil {
			return err
		}
		return s.classes.Delete(tctx, class.GymID, class.ID)
	})
	if err != nil {
		return notFoundOr(ctx, "delete class", err, ErrClassNotFound)
	}
	return nil
}

// reserve takes a seat if one is left and reports the resulting status. A
// refused seat is a waitlist spot only while the class is still bookable.
func (s *classService) reserve(ctx context.Context, class *domain.Class) (domain.BookingStatus, error) {
	err := s.classes.ReserveSeat(ctx, class.ID)
	switch {
	case err == nil:
		return domain.BookingConfirmed, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", upstream(ctx, "reserve seat", err)
	}

	current, err := s.classes.GetByID(ctx, class.GymID, class.ID)
	if err != nil {
		return "", notFoundOr(ctx, "reload class", err, ErrClassNotFound)
	}
	if !current.Bookable(s.now()) {
		return "", ErrClassNotBookable
	}
	return domain.BookingWaitlisted, nil
}

func (s *classService) releaseIfConfirmed(ctx context.Context, classID primitive.ObjectID, status domain.BookingStatus) {
	if status != domain.BookingConfirmed {
		return
	}
	if err := s.classes.ReleaseSeat(ctx, classID); err != nil {
		logger.FromContext(ctx).Warn("release seat failed", zap.String("class_id", classID.Hex()), zap.Error(err))
	}
}

// BookClass confirms a seat while capacity lasts and waitlists otherwise.
func (s *classService) BookClass(ctx context.Context, p domain.Principal, classID primitive.ObjectID) (*domain.ClassBooking, error) {
	gymID, err := requireCap(p, domain.CapBookClasses)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.GetByID(ctx, gymID, classID)
	if err != nil {
		return nil, notFoundOr(ctx, "load class", err, ErrClassNotFound)
	}
	if !class.Bookable(s.now()) {
		return nil, ErrClassNotBookable
	}

	existing, err := s.bookings.Get(ctx, classID, p.ProfileID)
	switch {
	case err == nil && existing.Status != domain.BookingCancelled:
		return nil, ErrAlreadyBooked
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, upstream(ctx, "load booking", err)
	}

	status, err := s.reserve(ctx, class)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.bookings.UpdateStatus(ctx, existing.ID, domain.BookingCancelled, status); err != nil {
			s.releaseIfConfirmed(ctx, classID, status)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrAlreadyBooked
			}
			return nil, upstream(ctx, "rebook", err)
		}
		existing.Status = status
		return existing, nil
	}

	booking := &domain.ClassBooking{
		GymID:    gymID,
		ClassID:  classID,
		MemberID: p.ProfileID,
		Status:   status,
	}
	if _, err := s.bookings.Create(ctx, booking); err != nil {
		s.releaseIfConfirmed(ctx, classID, status)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyBooked
		}
		return nil, upstream(ctx, "create booking", err)
	}
	return booking, nil
}

// CancelBooking frees the member's seat and hands it to the longest-waiting
// waitlisted member, if any.
func (s *classService) CancelBooking(ctx context.Context, p domain.Principal, classID primitive.ObjectID) error {
	if _, err := requireCap(p, domain.CapBookClasses); err != nil {
		return err
	}
	booking, err := s.bookings.Get(ctx, classID, p.ProfileID)
	if err != nil {
		return notFoundOr(ctx, "load booking", err, ErrBookingNotFound)
	}
	if booking.Status == domain.BookingCancelled {
		return ErrBookingNotFound
	}
	if err := s.bookings.UpdateStatus(ctx, booking.ID, booking.Status, domain.BookingCancelled); err != nil {
		return notFoundOr(ctx, "cancel booking", err, ErrBookingNotFound)
	}
	if booking.Status != domain.BookingConfirmed {
		return nil
	}
	if err := s.classes.ReleaseSeat(ctx, classID); err != nil {
		return upstream(ctx, "release seat", err)
	}
	s.promoteWaitlisted(ctx, classID)
	return nil
}

func (s *classService) promoteWaitlisted(ctx context.Context, classID primitive.ObjectID) {
	log := logger.FromContext(ctx)
	bookings, err := s.bookings.ListByClass(ctx, classID)
	if err != nil {
		log.Warn("list waitlist failed", zap.String("class_id", classID.Hex()), zap.Error(err))
		return
	}
	for _, b := range bookings {
		if b.Status != domain.BookingWaitlisted {
			continue
		}
		if err := s.classes.ReserveSeat(ctx, classID); err != nil {
			return
		}
		if err := s.bookings.UpdateStatus(ctx, b.ID, domain.BookingWaitlisted, domain.BookingConfirmed); err != nil {
			s.releaseIfConfirmed(ctx, classID, domain.BookingConfirmed)
			continue
		}
		return
	}
}
