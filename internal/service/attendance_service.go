package service

import (
	"context"
	"errors"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/metrics"
	"alcyxob/gym-saas/internal/qr"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const scanRejected = "rejected"

// AttendanceService toggles members in and out of the gym from QR scans.
type AttendanceService interface {
	// Scan checks the member identified by payload out if they have an open
	// visit today, and in otherwise.
	Scan(ctx context.Context, p domain.Principal, payload string, branchID primitive.ObjectID) (*domain.ScanResult, error)
	// ScanImage decodes a QR code from a PNG or JPEG photo and scans it.
	ScanImage(ctx context.Context, p domain.Principal, image []byte, branchID primitive.ObjectID) (*domain.ScanResult, error)
}

type attendanceService struct {
	gyms       repository.GymRepository
	branches   repository.BranchRepository
	profiles   repository.ProfileRepository
	attendance repository.AttendanceRepository
	metrics    *metrics.Metrics
	now        Clock
}

func NewAttendanceService(
	gyms repository.GymRepository,
	branches repository.BranchRepository,
	profiles repository.ProfileRepository,
	attendance repository.AttendanceRepository,
	m *metrics.Metrics,
	clock Clock,
) AttendanceService {
	return &attendanceService{
		gyms:       gyms,
		branches:   branches,
		profiles:   profiles,
		attendance: attendance,
		metrics:    m,
		now:        clockOrSystem(clock),
	}
}

func (s *attendanceService) Scan(ctx context.Context, p domain.Principal, payload string, branchID primitive.ObjectID) (*domain.ScanResult, error) {
	result, err := s.scan(ctx, p, payload, branchID)
	if err != nil {
		s.metrics.AttendanceScans.WithLabelValues(scanRejected).Inc()
		return nil, err
	}
	s.metrics.AttendanceScans.WithLabelValues(string(result.Event)).Inc()
	return result, nil
}

func (s *attendanceService) scan(ctx context.Context, p domain.Principal, payload string, branchID primitive.ObjectID) (*domain.ScanResult, error) {
	gymID, err := requireCap(p, domain.CapScanAttendance)
	if err != nil {
		return nil, err
	}
	code := domain.MemberCodeFromPayload(payload)
	if code == "" {
		return nil, invalid("scan payload is empty")
	}
	if branchID == primitive.NilObjectID && p.BranchID != nil {
		branchID = *p.BranchID
	}
	if branchID == primitive.NilObjectID {
		return nil, invalid("branch is required")
	}

	gym, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, notFoundOr(ctx, "load gym", err, ErrGymNotFound)
	}
	branch, err := s.branches.GetByID(ctx, gymID, branchID)
	if err != nil {
		return nil, notFoundOr(ctx, "load branch", err, ErrBranchNotFound)
	}
	if !branch.IsActive {
		return nil, ErrBranchNotFound
	}

	// Codes are only looked up inside the scanner's gym.
	member, err := s.profiles.GetByMemberCode(ctx, gymID, code)
	if err != nil {
		return nil, notFoundOr(ctx, "find member by code", err, ErrMemberNotFound)
	}
	if !member.IsActive || !member.IsMember() {
		return nil, ErrMemberNotFound
	}

	now := s.now()
	day := domain.DayKey(now, gym.Location())

	closed, err := s.attendance.CloseOpen(ctx, gymID, member.ID, day, now)
	switch {
	case err == nil:
		d := closed.Duration()
		return &domain.ScanResult{
			Event:     domain.EventCheckedOut,
			Member:    member,
			Log:       closed,
			Timestamp: now,
			Duration:  d,
			Elapsed:   domain.FormatDuration(d),
			Message:   member.FullName() + " checked out",
		}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, upstream(ctx, "close attendance", err)
	}

	scanner := p.ProfileID
	log := &domain.AttendanceLog{
		GymID:       gymID,
		BranchID:    branchID,
		MemberID:    member.ID,
		Day:         day,
		Open:        true,
		CheckInTime: now,
		ScannedBy:   &scanner,
	}
	if _, err := s.attendance.Insert(ctx, log); err != nil {
		// Another scan of the same member won the race.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrScanConflict
		}
		return nil, upstream(ctx, "record check-in", err)
	}
	return &domain.ScanResult{
		Event:     domain.EventCheckedIn,
		Member:    member,
		Log:       log,
		Timestamp: now,
		Message:   member.FullName() + " checked in",
	}, nil
}

func (s *attendanceService) ScanImage(ctx context.Context, p domain.Principal, image []byte, branchID primitive.ObjectID) (*domain.ScanResult, error) {
	if _, err := requireCap(p, domain.CapScanAttendance); err != nil {
		return nil, err
	}
	payload, err := qr.Decode(image)
	if err != nil {
		s.metrics.AttendanceScans.WithLabelValues(scanRejected).Inc()
		return nil, invalid("no QR code found in image")
	}
	return s.Scan(ctx, p, payload, branchID)
}
