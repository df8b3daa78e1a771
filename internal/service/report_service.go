package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/export"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	attendanceLogLimit    = 500
	attendanceExportLimit = 10000
	stillInside           = "Still inside"
)

// AttendanceQuery selects a reporting window, and optionally one member.
type AttendanceQuery struct {
	Period   domain.StatsPeriod
	From     string
	To       string
	MemberID *primitive.ObjectID
}

type AttendanceStats struct {
	Period domain.StatsPeriod `json:"period"`
	From   time.Time          `json:"from"`
	To     time.Time          `json:"to"`
	Count  int64              `json:"count"`
}

type AttendanceOverview struct {
	Today           int64 `json:"today"`
	Week            int64 `json:"week"`
	Month           int64 `json:"month"`
	CurrentlyInside int64 `json:"currentlyInside"`
}

// AttendanceRow is a log joined with the names a report shows.
type AttendanceRow struct {
	domain.AttendanceLog
	MemberName string `json:"memberName"`
	MemberCode string `json:"memberCode"`
	BranchName string `json:"branchName"`
	Duration   string `json:"duration"`
}

type MemberStats struct {
	TotalMembers    int64 `json:"totalMembers"`
	ActiveThisMonth int64 `json:"activeThisMonth"`
	NewThisMonth    int64 `json:"newThisMonth"`
}

type GymDashboard struct {
	TotalMembers        int64   `json:"totalMembers"`
	ActiveSubscriptions int64   `json:"activeSubscriptions"`
	Branches            int64   `json:"branches"`
	TodayAttendance     int64   `json:"todayAttendance"`
	MonthlyRevenue      float64 `json:"monthlyRevenue"`
	UpcomingClasses     int64   `json:"upcomingClasses"`
	PlanName            string  `json:"planName"`
}

type PlatformDashboard struct {
	TotalGyms           int64   `json:"totalGyms"`
	TotalMembers        int64   `json:"totalMembers"`
	MonthlyRevenue      float64 `json:"monthlyRevenue"`
	ActiveSubscriptions int64   `json:"activeSubscriptions"`
}

// ReportService answers dashboard and attendance report queries.
type ReportService interface {
	AttendanceStats(ctx context.Context, p domain.Principal, q AttendanceQuery) (*AttendanceStats, error)
	Overview(ctx context.Context, p domain.Principal) (*AttendanceOverview, error)
	AttendanceLog(ctx context.Context, p domain.Principal, q AttendanceQuery) ([]AttendanceRow, error)
	ExportAttendance(ctx context.Context, p domain.Principal, q AttendanceQuery) (fileName string, data []byte, err error)
	MemberStats(ctx context.Context, p domain.Principal) (*MemberStats, error)
	GymDashboard(ctx context.Context, p domain.Principal) (*GymDashboard, error)
	PlatformDashboard(ctx context.Context, p domain.Principal) (*PlatformDashboard, error)
	ListGyms(ctx context.Context, p domain.Principal) ([]domain.Gym, error)
}

type reportService struct {
	gyms          repository.GymRepository
	branches      repository.BranchRepository
	profiles      repository.ProfileRepository
	attendance    repository.AttendanceRepository
	classes       repository.ClassRepository
	plans         repository.PlanRepository
	tenantSubs    repository.TenantSubscriptionRepository
	memberSubs    repository.MemberSubscriptionRepository
	subscriptions SubscriptionService
	now           Clock
}

func NewReportService(
	gyms repository.GymRepository,
	branches repository.BranchRepository,
	profiles repository.ProfileRepository,
	attendance repository.AttendanceRepository,
	classes repository.ClassRepository,
	plans repository.PlanRepository,
	tenantSubs repository.TenantSubscriptionRepository,
	memberSubs repository.MemberSubscriptionRepository,
	subscriptions SubscriptionService,
	clock Clock,
) ReportService {
	return &reportService{
		gyms:          gyms,
		branches:      branches,
		profiles:      profiles,
		attendance:    attendance,
		classes:       classes,
		plans:         plans,
		tenantSubs:    tenantSubs,
		memberSubs:    memberSubs,
		subscriptions: subscriptions,
		now:           clockOrSystem(clock),
	}
}

// scopeAttendance resolves the gym and window of q and narrows members to
// their own records. Others need view_attendance.
func (s *reportService) scopeAttendance(ctx context.Context, p domain.Principal, q AttendanceQuery) (*domain.Gym, repository.AttendanceFilter, error) {
	gymID, err := requireCap(p, domain.CapViewReports)
	if err != nil {
		return nil, repository.AttendanceFilter{}, err
	}
	filter := repository.AttendanceFilter{GymID: gymID, MemberID: q.MemberID}
	if p.Role == domain.RoleMember {
		self := p.ProfileID
		filter.MemberID = &self
	} else if !p.Can(domain.CapViewAttendance) {
		return nil, filter, ErrNotPermitted
	}

	gym, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, filter, notFoundOr(ctx, "load gym", err, ErrGymNotFound)
	}
	filter.Window, err = domain.ResolveWindow(q.Period, s.now(), gym.Location(), q.From, q.To)
	if err != nil {
		return nil, filter, err
	}
	return gym, filter, nil
}

func (s *reportService) AttendanceStats(ctx context.Context, p domain.Principal, q AttendanceQuery) (*AttendanceStats, error) {
	_, filter, err := s.scopeAttendance(ctx, p, q)
	if err != nil {
		return nil, err
	}
	count, err := s.attendance.Count(ctx, filter)
	if err != nil {
		return nil, upstream(ctx, "count attendance", err)
	}
	period := q.Period
	if period == "" {
		period = domain.PeriodToday
	}
	return &AttendanceStats{Period: period, From: filter.Window.From, To: filter.Window.To, Count: count}, nil
}

// Overview uses the same tenant day window as the scan toggle for "today".
func (s *reportService) Overview(ctx context.Context, p domain.Principal) (*AttendanceOverview, error) {
	gymID, err := requireCap(p, domain.CapViewAttendance)
	if err != nil {
		return nil, err
	}
	gym, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, notFoundOr(ctx, "load gym", err, ErrGymNotFound)
	}
	now, loc := s.now(), gym.Location()

	var out AttendanceOverview
	for _, c := range []struct {
		period domain.StatsPeriod
		dst    *int64
	}{
		{domain.PeriodToday, &out.Today},
		{domain.PeriodWeek, &out.Week},
		{domain.PeriodMonth, &out.Month},
	} {
		w, err := domain.ResolveWindow(c.period, now, loc, "", "")
		if err != nil {
			return nil, err
		}
		if *c.dst, err = s.attendance.Count(ctx, repository.AttendanceFilter{GymID: gymID, Window: w}); err != nil {
			return nil, upstream(ctx, "count attendance", err)
		}
	}
	if out.CurrentlyInside, err = s.attendance.CountOpen(ctx, gymID, domain.DayKey(now, loc)); err != nil {
		return nil, upstream(ctx, "count open attendance", err)
	}
	return &out, nil
}

func (s *reportService) rows(ctx context.Context, gym *domain.Gym, filter repository.AttendanceFilter) ([]AttendanceRow, error) {
	logs, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, upstream(ctx, "list attendance", err)
	}
	people, err := s.profiles.List(ctx, repository.ProfileFilter{GymID: &gym.ID})
	if err != nil {
		return nil, upstream(ctx, "list profiles", err)
	}
	branches, err := s.branches.ListByGym(ctx, gym.ID)
	if err != nil {
		return nil, upstream(ctx, "list branches", err)
	}

	byID := make(map[primitive.ObjectID]*domain.Profile, len(people))
	for i := range people {
		byID[people[i].ID] = &people[i]
	}
	branchNames := make(map[primitive.ObjectID]string, len(branches))
	for _, b := range branches {
		branchNames[b.ID] = b.Name
	}

	rows := make([]AttendanceRow, len(logs))
	for i, l := range logs {
		row := AttendanceRow{AttendanceLog: l, BranchName: branchNames[l.BranchID], Duration: stillInside}
		if m := byID[l.MemberID]; m != nil {
			row.MemberName = m.FullName()
			row.MemberCode = m.MemberCode
		}
		if l.CheckOutTime != nil {
			row.Duration = domain.FormatDuration(l.Duration())
		}
		rows[i] = row
	}
	return rows, nil
}

func (s *reportService) AttendanceLog(ctx context.Context, p domain.Principal, q AttendanceQuery) ([]AttendanceRow, error) {
	gym, filter, err := s.scopeAttendance(ctx, p, q)
	if err != nil {
		return nil, err
	}
	filter.Limit = attendanceLogLimit
	return s.rows(ctx, gym, filter)
}

// ExportAttendance renders the attendance log as CSV, times in gym-local time.
func (s *reportService) ExportAttendance(ctx context.Context, p domain.Principal, q AttendanceQuery) (string, []byte, error) {
	if !p.Can(domain.CapExportReports) {
		return "", nil, ErrNotPermitted
	}
	gym, filter, err := s.scopeAttendance(ctx, p, q)
	if err != nil {
		return "", nil, err
	}
	filter.Limit = attendanceExportLimit
	rows, err := s.rows(ctx, gym, filter)
	if err != nil {
		return "", nil, err
	}

	loc := gym.Location()
	columns := []export.Column[AttendanceRow]{
		{Header: "Date", Value: func(r AttendanceRow) string { return r.CheckInTime.In(loc).Format("2006-01-02") }},
		{Header: "Member", Value: func(r AttendanceRow) string { return r.MemberName }},
		{Header: "Member Code", Value: func(r AttendanceRow) string { return r.MemberCode }},
		{Header: "Check In", Value: func(r AttendanceRow) string { return r.CheckInTime.In(loc).Format("15:04:05") }},
		{Header: "Check Out", Value: func(r AttendanceRow) string {
			if r.CheckOutTime == nil {
				return stillInside
			}
			return r.CheckOutTime.In(loc).Format("15:04:05")
		}},
		{Header: "Duration", Value: func(r AttendanceRow) string { return r.Duration }},
		{Header: "Branch", Value: func(r AttendanceRow) string { return r.BranchName }},
	}
	data, err := export.ToCSV(rows, columns)
	if err != nil {
		return "", nil, upstream(ctx, "render csv", err)
	}

	period := q.Period
	if period == "" {
		period = domain.PeriodToday
	}
	name := fmt.Sprintf("attendance-%s-%s.csv", period, domain.DayKey(s.now(), loc))
	return name, data, nil
}

func (s *reportService) MemberStats(ctx context.Context, p domain.Principal) (*MemberStats, error) {
	gymID, err := requireCap(p, domain.CapViewReports)
	if err != nil {
		return nil, err
	}
	if p.Role == domain.RoleMember {
		return nil, ErrNotPermitted
	}
	gym, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, notFoundOr(ctx, "load gym", err, ErrGymNotFound)
	}
	monthStart := domain.MonthStart(s.now(), gym.Location())

	var out MemberStats
	if out.TotalMembers, err = s.profiles.Count(ctx, repository.ProfileFilter{GymID: &gymID, Role: domain.RoleMember}); err != nil {
		return nil, upstream(ctx, "count members", err)
	}
	if out.ActiveThisMonth, err = s.attendance.CountDistinctMembers(ctx, gymID, monthStart); err != nil {
		return nil, upstream(ctx, "count active members", err)
	}
	if out.NewThisMonth, err = s.profiles.Count(ctx, repository.ProfileFilter{GymID: &gymID, Role: domain.RoleMember, CreatedSince: &monthStart}); err != nil {
		return nil, upstream(ctx, "count new members", err)
	}
	return &out, nil
}

func (s *reportService) GymDashboard(ctx context.Context, p domain.Principal) (*GymDashboard, error) {
	gymID, err := requireCap(p, domain.CapManageGym)
	if err != nil {
		return nil, err
	}
	gym, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, notFoundOr(ctx, "load gym", err, ErrGymNotFound)
	}
	now := s.now()

	var out GymDashboard
	if out.TotalMembers, err = s.profiles.Count(ctx, repository.ProfileFilter{GymID: &gymID, Role: domain.RoleMember}); err != nil {
		return nil, upstream(ctx, "count members", err)
	}
	subs, err := s.memberSubs.ListActiveByGym(ctx, gymID)
	if err != nil {
		return nil, upstream(ctx, "list member subscriptions", err)
	}
	for i := range subs {
		if !subs[i].ExpiredAt(now) {
			out.ActiveSubscriptions++
			out.MonthlyRevenue += subs[i].Price
		}
	}
	if out.Branches, err = s.branches.CountActive(ctx, gymID); err != nil {
		return nil, upstream(ctx, "count branches", err)
	}
	today := domain.DayWindow(now, gym.Location())
	if out.TodayAttendance, err = s.attendance.Count(ctx, repository.AttendanceFilter{GymID: gymID, Window: today}); err != nil {
		return nil, upstream(ctx, "count attendance", err)
	}
	if out.UpcomingClasses, err = s.classes.CountUpcoming(ctx, gymID, now); err != nil {
		return nil, upstream(ctx, "count classes", err)
	}

	// An unknown plan shows as deny-all rather than failing the dashboard.
	limits, _ := s.subscriptions.LimitsFor(ctx, gymID)
	out.PlanName = limits.PlanName
	return &out, nil
}

func (s *reportService) PlatformDashboard(ctx context.Context, p domain.Principal) (*PlatformDashboard, error) {
	if !p.Can(domain.CapManagePlatform) {
		return nil, ErrNotPermitted
	}
	var out PlatformDashboard
	var err error
	if out.TotalGyms, err = s.gyms.Count(ctx); err != nil {
		return nil, upstream(ctx, "count gyms", err)
	}
	if out.TotalMembers, err = s.profiles.Count(ctx, repository.ProfileFilter{Role: domain.RoleMember}); err != nil {
		return nil, upstream(ctx, "count members", err)
	}
	subs, err := s.tenantSubs.ListActive(ctx)
	if err != nil {
		return nil, upstream(ctx, "list tenant subscriptions", err)
	}
	out.ActiveSubscriptions = int64(len(subs))

	prices := map[primitive.ObjectID]float64{}
	for _, sub := range subs {
		price, ok := prices[sub.PlanID]
		if !ok {
			plan, err := s.plans.GetByID(ctx, sub.PlanID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, upstream(ctx, "load plan", err)
			}
			if plan != nil {
				price = plan.Price
			}
			prices[sub.PlanID] = price
		}
		out.MonthlyRevenue += price
	}
	return &out, nil
}

func (s *reportService) ListGyms(ctx context.Context, p domain.Principal) ([]domain.Gym, error) {
	if !p.Can(domain.CapManagePlatform) {
		return nil, ErrNotPermitted
	}
	gyms, err := s.gyms.List(ctx)
	if err != nil {
		return nil, upstream(ctx, "list gyms", err)
	}
	return gyms, nil
}
