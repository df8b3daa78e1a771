package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/metrics"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories. Each keeps the unique constraints the Mongo
// indexes enforce so races and conflicts behave like production.

var errStoreDown = errors.New("store unavailable")

var testEpoch = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeTx struct{ calls atomic.Int64 }

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls.Add(1)
	return fn(ctx)
}

type fakeCounters struct {
	mu   sync.Mutex
	seqs map[string]int64
	err  error
}

func newFakeCounters() *fakeCounters { return &fakeCounters{seqs: map[string]int64{}} }

func (f *fakeCounters) Next(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	v := f.seqs[key]
	f.seqs[key] = v + 1
	return v, nil
}

type fakeGyms struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]domain.Gym
}

func newFakeGyms() *fakeGyms { return &fakeGyms{byID: map[primitive.ObjectID]domain.Gym{}} }

func (f *fakeGyms) Create(_ context.Context, gym *domain.Gym) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.byID {
		if g.GymCode == gym.GymCode {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	gym.ID = primitive.NewObjectID()
	gym.CreatedAt = time.Now().UTC()
	gym.UpdatedAt = gym.CreatedAt
	f.byID[gym.ID] = *gym
	return gym.ID, nil
}

func (f *fakeGyms) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Gym, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (f *fakeGyms) GetByCode(_ context.Context, code string) (*domain.Gym, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.byID {
		if g.GymCode == code {
			return &g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGyms) Update(_ context.Context, gym *domain.Gym) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.byID[gym.ID]
	if !ok {
		return repository.ErrNotFound
	}
	gym.GymCode = old.GymCode
	f.byID[gym.ID] = *gym
	return nil
}

func (f *fakeGyms) List(context.Context) ([]domain.Gym, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Gym, 0, len(f.byID))
	for _, g := range f.byID {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GymCode < out[j].GymCode })
	return out, nil
}

func (f *fakeGyms) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

type fakeBranches struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]domain.Branch
	err  error
}

func newFakeBranches() *fakeBranches {
	return &fakeBranches{byID: map[primitive.ObjectID]domain.Branch{}}
}

func (f *fakeBranches) Create(_ context.Context, b *domain.Branch) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = primitive.NewObjectID()
	b.CreatedAt = time.Now().UTC()
	f.byID[b.ID] = *b
	return b.ID, nil
}

func (f *fakeBranches) GetByID(_ context.Context, gymID, id primitive.ObjectID) (*domain.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.GymID != gymID {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBranches) ListByGym(_ context.Context, gymID primitive.ObjectID) ([]domain.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Branch
	for _, b := range f.byID {
		if b.GymID == gymID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBranches) CountActive(_ context.Context, gymID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, b := range f.byID {
		if b.GymID == gymID && b.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeBranches) Deactivate(_ context.Context, gymID, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.GymID != gymID {
		return repository.ErrNotFound
	}
	b.IsActive = false
	f.byID[id] = b
	return nil
}

type fakeProfiles struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]domain.Profile
	now  func() time.Time
}

func newFakeProfiles(now func() time.Time) *fakeProfiles {
	return &fakeProfiles{byID: map[primitive.ObjectID]domain.Profile{}, now: now}
}

func (f *fakeProfiles) codeTaken(gymID *primitive.ObjectID, code string) bool {
	if code == "" || gymID == nil {
		return false
	}
	for _, p := range f.byID {
		if p.MemberCode == code && p.BelongsTo(*gymID) {
			return true
		}
	}
	return false
}

func (f *fakeProfiles) Create(_ context.Context, p *domain.Profile) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.Email = strings.ToLower(p.Email)
	for _, existing := range f.byID {
		if existing.Email == p.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	if f.codeTaken(p.GymID, p.MemberCode) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = f.now()
	p.UpdatedAt = p.CreatedAt
	f.byID[p.ID] = *p
	return p.ID, nil
}

// put stores p as is, for fixtures that need fixed timestamps.
func (f *fakeProfiles) put(p domain.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID] = p
}

func (f *fakeProfiles) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range f.byID {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfiles) GetByMemberCode(_ context.Context, gymID primitive.ObjectID, code string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.MemberCode == code && p.BelongsTo(gymID) {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfiles) AssignGym(_ context.Context, id, gymID primitive.ObjectID, role domain.Role, memberCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.GymID != nil {
		return repository.ErrNotFound
	}
	if memberCode != "" {
		if p.MemberCode != "" {
			return repository.ErrNotFound
		}
		if f.codeTaken(&gymID, memberCode) {
			return repository.ErrDuplicate
		}
		p.MemberCode = memberCode
	}
	p.GymID = &gymID
	p.Role = role
	f.byID[id] = p
	return nil
}

func (f *fakeProfiles) Update(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.byID[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *p
	next.GymID = old.GymID
	next.MemberCode = old.MemberCode
	f.byID[p.ID] = next
	return nil
}

func (f *fakeProfiles) UpdateAssigningCode(_ context.Context, p *domain.Profile, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.byID[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *p
	next.GymID = old.GymID
	next.MemberCode = old.MemberCode
	if next.MemberCode == "" {
		if f.codeTaken(old.GymID, code) {
			return repository.ErrDuplicate
		}
		next.MemberCode = code
	}
	f.byID[p.ID] = next
	*p = next
	return nil
}

func (f *fakeProfiles) SetActive(_ context.Context, gymID, id primitive.ObjectID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || !p.BelongsTo(gymID) {
		return repository.ErrNotFound
	}
	p.IsActive = active
	f.byID[id] = p
	return nil
}

func profileMatches(p domain.Profile, filter repository.ProfileFilter) bool {
	if filter.GymID != nil && !p.BelongsTo(*filter.GymID) {
		return false
	}
	if filter.BranchID != nil && (p.BranchID == nil || *p.BranchID != *filter.BranchID) {
		return false
	}
	if filter.Role != "" && p.Role != filter.Role {
		return false
	}
	if filter.ActiveOnly && !p.IsActive {
		return false
	}
	if filter.CreatedSince != nil && p.CreatedAt.Before(*filter.CreatedSince) {
		return false
	}
	if s := strings.ToLower(filter.Search); s != "" {
		hay := strings.ToLower(p.FirstName + " " + p.LastName + " " + p.Email + " " + p.MemberCode)
		if !strings.Contains(hay, s) {
			return false
		}
	}
	return true
}

func (f *fakeProfiles) List(_ context.Context, filter repository.ProfileFilter) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Profile
	for _, p := range f.byID {
		if profileMatches(p, filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeProfiles) Count(ctx context.Context, filter repository.ProfileFilter) (int64, error) {
	out, err := f.List(ctx, filter)
	return int64(len(out)), err
}

type fakePlans struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]domain.SubscriptionPlan
}

func newFakePlans() *fakePlans {
	return &fakePlans{byID: map[primitive.ObjectID]domain.SubscriptionPlan{}}
}

func (f *fakePlans) Create(_ context.Context, plan *domain.SubscriptionPlan) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	f.byID[plan.ID] = *plan
	return plan.ID, nil
}

func (f *fakePlans) GetByID(_ context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakePlans) List(_ context.Context, activeOnly bool) ([]domain.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SubscriptionPlan
	for _, p := range f.byID {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (f *fakePlans) Update(_ context.Context, plan *domain.SubscriptionPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	f.byID[plan.ID] = *plan
	return nil
}

func (f *fakePlans) Deactivate(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = false
	f.byID[id] = p
	return nil
}

type fakeTenantSubs struct {
	mu   sync.Mutex
	subs []domain.TenantSubscription
	err  error
}

func (f *fakeTenantSubs) Create(_ context.Context, sub *domain.TenantSubscription) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.GymID == sub.GymID && s.IsActive && sub.IsActive {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	sub.ID = primitive.NewObjectID()
	f.subs = append(f.subs, *sub)
	return sub.ID, nil
}

func (f *fakeTenantSubs) GetActive(_ context.Context, gymID primitive.ObjectID) (*domain.TenantSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.subs {
		if s.GymID == gymID && s.IsActive {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTenantSubs) DeactivateActive(_ context.Context, gymID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.subs {
		if f.subs[i].GymID == gymID {
			f.subs[i].IsActive = false
		}
	}
	return nil
}

func (f *fakeTenantSubs) ListActive(context.Context) ([]domain.TenantSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TenantSubscription
	for _, s := range f.subs {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeMemberSubs struct {
	mu   sync.Mutex
	subs []domain.MemberSubscription
	err  error
}

func (f *fakeMemberSubs) Create(_ context.Context, sub *domain.MemberSubscription) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.MemberID == sub.MemberID && s.IsActive && sub.IsActive {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	sub.ID = primitive.NewObjectID()
	f.subs = append(f.subs, *sub)
	return sub.ID, nil
}

func (f *fakeMemberSubs) GetActive(_ context.Context, memberID primitive.ObjectID) (*domain.MemberSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.subs {
		if s.MemberID == memberID && s.IsActive {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMemberSubs) DeactivateActive(_ context.Context, memberID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.subs {
		if f.subs[i].MemberID == memberID {
			f.subs[i].IsActive = false
		}
	}
	return nil
}

func (f *fakeMemberSubs) Deactivate(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.subs {
		if f.subs[i].ID == id && f.subs[i].IsActive {
			f.subs[i].IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeMemberSubs) ListByMember(_ context.Context, gymID, memberID primitive.ObjectID) ([]domain.MemberSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MemberSubscription
	for _, s := range f.subs {
		if s.GymID == gymID && s.MemberID == memberID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeMemberSubs) ListActiveByGym(_ context.Context, gymID primitive.ObjectID) ([]domain.MemberSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MemberSubscription
	for _, s := range f.subs {
		if s.GymID == gymID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeMemberSubs) ListEnded(_ context.Context, now time.Time) ([]domain.MemberSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MemberSubscription
	for _, s := range f.subs {
		if s.IsActive && s.EndDate != nil && s.EndDate.Before(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeAttendance struct {
	mu   sync.Mutex
	logs []domain.AttendanceLog
}

func (f *fakeAttendance) CloseOpen(_ context.Context, gymID, memberID primitive.ObjectID, day string, at time.Time) (*domain.AttendanceLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.logs {
		l := &f.logs[i]
		if l.GymID == gymID && l.MemberID == memberID && l.Day == day && l.Open {
			l.Open = false
			out := at
			l.CheckOutTime = &out
			closed := *l
			return &closed, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAttendance) Insert(_ context.Context, log *domain.AttendanceLog) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.logs {
		if l.Open && log.Open && l.GymID == log.GymID && l.MemberID == log.MemberID && l.Day == log.Day {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	log.ID = primitive.NewObjectID()
	f.logs = append(f.logs, *log)
	return log.ID, nil
}

func (f *fakeAttendance) matching(filter repository.AttendanceFilter) []domain.AttendanceLog {
	var out []domain.AttendanceLog
	for _, l := range f.logs {
		if l.GymID != filter.GymID || !filter.Window.Contains(l.CheckInTime) {
			continue
		}
		if filter.MemberID != nil && l.MemberID != *filter.MemberID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime.After(out[j].CheckInTime) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

func (f *fakeAttendance) Count(_ context.Context, filter repository.AttendanceFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(filter))), nil
}

func (f *fakeAttendance) CountOpen(_ context.Context, gymID primitive.ObjectID, day string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.logs {
		if l.GymID == gymID && l.Day == day && l.Open {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttendance) CountDistinctMembers(_ context.Context, gymID primitive.ObjectID, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	for _, l := range f.logs {
		if l.GymID == gymID && !l.CheckInTime.Before(since) {
			seen[l.MemberID] = true
		}
	}
	return int64(len(seen)), nil
}

func (f *fakeAttendance) List(_ context.Context, filter repository.AttendanceFilter) ([]domain.AttendanceLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.matching(filter), nil
}

type fakeClasses struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]domain.Class
	// beforeReserve runs ahead of ReserveSeat to interleave a concurrent write.
	beforeReserve func(id primitive.ObjectID)
}

func newFakeClasses() *fakeClasses { return &fakeClasses{byID: map[primitive.ObjectID]domain.Class{}} }

func (f *fakeClasses) Create(_ context.Context, c *domain.Class) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	f.byID[c.ID] = *c
	return c.ID, nil
}

func (f *fakeClasses) GetByID(_ context.Context, gymID, id primitive.ObjectID) (*domain.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.GymID != gymID {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (f *fakeClasses) List(_ context.Context, filter repository.ClassFilter) ([]domain.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Class
	for _, c := range f.byID {
		if c.GymID != filter.GymID {
			continue
		}
		if filter.TrainerID != nil && (c.TrainerID == nil || *c.TrainerID != *filter.TrainerID) {
			continue
		}
		if filter.From != nil && c.StartTime.Before(*filter.From) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeClasses) SetStatus(_ context.Context, gymID, id primitive.ObjectID, status domain.ClassStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.GymID != gymID {
		return repository.ErrNotFound
	}
	c.Status = status
	f.byID[id] = c
	return nil
}

func (f *fakeClasses) Delete(_ context.Context, gymID, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.GymID != gymID {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeClasses) ReserveSeat(_ context.Context, id primitive.ObjectID) error {
	if f.beforeReserve != nil {
		f.beforeReserve(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.Full() || c.Status != domain.ClassScheduled {
		return repository.ErrNotFound
	}
	c.CurrentBookings++
	f.byID[id] = c
	return nil
}

func (f *fakeClasses) ReleaseSeat(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if c.CurrentBookings > 0 {
		c.CurrentBookings--
	}
	f.byID[id] = c
	return nil
}

func (f *fakeClasses) CountUpcoming(_ context.Context, gymID primitive.ObjectID, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.byID {
		if c.GymID == gymID && c.StartTime.After(now) && c.Status == domain.ClassScheduled {
			n++
		}
	}
	return n, nil
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings []domain.ClassBooking
	seq      time.Duration
}

func (f *fakeBookings) Create(_ context.Context, b *domain.ClassBooking) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.bookings {
		if existing.ClassID == b.ClassID && existing.MemberID == b.MemberID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	b.ID = primitive.NewObjectID()
	f.seq++
	b.BookedAt = testEpoch.Add(f.seq * time.Second)
	f.bookings = append(f.bookings, *b)
	return b.ID, nil
}

func (f *fakeBookings) Get(_ context.Context, classID, memberID primitive.ObjectID) (*domain.ClassBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ClassID == classID && b.MemberID == memberID {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == id && f.bookings[i].Status == from {
			f.bookings[i].Status = to
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeBookings) ListByClass(_ context.Context, classID primitive.ObjectID) ([]domain.ClassBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ClassBooking
	for _, b := range f.bookings {
		if b.ClassID == classID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt.Before(out[j].BookedAt) })
	return out, nil
}

func (f *fakeBookings) DeleteByClass(_ context.Context, classID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.bookings[:0]
	for _, b := range f.bookings {
		if b.ClassID != classID {
			kept = append(kept, b)
		}
	}
	f.bookings = kept
	return nil
}

func (f *fakeBookings) status(classID, memberID primitive.ObjectID) domain.BookingStatus {
	b, err := f.Get(context.Background(), classID, memberID)
	if err != nil {
		return ""
	}
	return b.Status
}

type fakeWorkoutPlans struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]domain.DefaultWorkoutPlan
}

func newFakeWorkoutPlans() *fakeWorkoutPlans {
	return &fakeWorkoutPlans{byID: map[primitive.ObjectID]domain.DefaultWorkoutPlan{}}
}

func (f *fakeWorkoutPlans) Create(_ context.Context, plan *domain.DefaultWorkoutPlan) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	f.byID[plan.ID] = *plan
	return plan.ID, nil
}

func (f *fakeWorkoutPlans) GetByID(_ context.Context, gymID, id primitive.ObjectID) (*domain.DefaultWorkoutPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.GymID != gymID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeWorkoutPlans) ListActive(_ context.Context, gymID primitive.ObjectID) ([]domain.DefaultWorkoutPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DefaultWorkoutPlan
	for _, p := range f.byID {
		if p.GymID == gymID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeWorkoutPlans) Deactivate(_ context.Context, gymID, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.GymID != gymID {
		return repository.ErrNotFound
	}
	p.IsActive = false
	f.byID[id] = p
	return nil
}

type fakePrograms struct {
	mu       sync.Mutex
	programs []domain.WorkoutProgram
}

func (f *fakePrograms) Create(_ context.Context, p *domain.WorkoutProgram) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	f.programs = append(f.programs, *p)
	return p.ID, nil
}

func (f *fakePrograms) List(_ context.Context, filter repository.ProgramFilter) ([]domain.WorkoutProgram, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.WorkoutProgram
	for _, p := range f.programs {
		if p.GymID != filter.GymID {
			continue
		}
		if filter.TrainerID != nil && p.TrainerID != *filter.TrainerID {
			continue
		}
		if filter.MemberID != nil && p.MemberID != *filter.MemberID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type fakeContent struct {
	mu    sync.Mutex
	items []domain.ContentItem
}

func (f *fakeContent) Create(_ context.Context, item *domain.ContentItem) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = primitive.NewObjectID()
	f.items = append(f.items, *item)
	return item.ID, nil
}

func (f *fakeContent) GetByID(_ context.Context, gymID, id primitive.ObjectID) (*domain.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.ID == id && it.GymID == gymID {
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeContent) List(_ context.Context, gymID primitive.ObjectID, publicOnly bool, search string) ([]domain.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ContentItem
	for _, it := range f.items {
		if it.GymID != gymID || (publicOnly && !it.IsPublic) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(it.Title), strings.ToLower(search)) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeContent) Delete(_ context.Context, gymID, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.ID == id && it.GymID == gymID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeNotifications struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = primitive.NewObjectID()
	f.items = append(f.items, *n)
	return n.ID, nil
}

func (f *fakeNotifications) ListForRecipient(_ context.Context, gymID, recipientID primitive.ObjectID) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		n := f.items[i]
		if n.GymID == gymID && (n.RecipientID == nil || *n.RecipientID == recipientID) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, gymID, id, recipientID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		n := &f.items[i]
		if n.ID == id && n.GymID == gymID && n.RecipientID != nil && *n.RecipientID == recipientID {
			n.IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (f *fakeAudit) Create(_ context.Context, e *domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}
	return out
}

type fakeFiles struct {
	mu      sync.Mutex
	objects map[string]bool
	deleted []string
}

func newFakeFiles() *fakeFiles { return &fakeFiles{objects: map[string]bool{}} }

func (f *fakeFiles) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://uploads.test/" + key, nil
}

func (f *fakeFiles) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://downloads.test/" + key, nil
}

func (f *fakeFiles) ObjectExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key], nil
}

func (f *fakeFiles) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

// world wires every service over one set of fakes.
type world struct {
	clock         *fakeClock
	tx            *fakeTx
	counters      *fakeCounters
	gyms          *fakeGyms
	branches      *fakeBranches
	profiles      *fakeProfiles
	plans         *fakePlans
	tenantSubs    *fakeTenantSubs
	memberSubs    *fakeMemberSubs
	attendance    *fakeAttendance
	classes       *fakeClasses
	bookings      *fakeBookings
	workoutPlans  *fakeWorkoutPlans
	programs      *fakePrograms
	content       *fakeContent
	notifications *fakeNotifications
	audit         *fakeAudit
	files         *fakeFiles
	metrics       *metrics.Metrics

	auth          AuthService
	identity      IdentityService
	tenants       TenantService
	members       MemberService
	subscriptions SubscriptionService
	scans         AttendanceService
	classSvc      ClassService
	workouts      WorkoutService
	library       ContentService
	notify        NotificationService
	reports       ReportService
}

func newWorld() *world {
	clk := newFakeClock(testEpoch)
	w := &world{
		clock:         clk,
		tx:            &fakeTx{},
		counters:      newFakeCounters(),
		gyms:          newFakeGyms(),
		branches:      newFakeBranches(),
		profiles:      newFakeProfiles(clk.Now),
		plans:         newFakePlans(),
		tenantSubs:    &fakeTenantSubs{},
		memberSubs:    &fakeMemberSubs{},
		attendance:    &fakeAttendance{},
		classes:       newFakeClasses(),
		bookings:      &fakeBookings{},
		workoutPlans:  newFakeWorkoutPlans(),
		programs:      &fakePrograms{},
		content:       &fakeContent{},
		notifications: &fakeNotifications{},
		audit:         &fakeAudit{},
		files:         newFakeFiles(),
		metrics:       metrics.New(),
	}
	clock := w.clock.Now
	auditor := NewAuditor(w.audit)
	codes := NewCodeIssuer(w.counters)

	w.auth = NewAuthService(w.profiles, "test-secret", time.Hour, nil)
	w.identity = NewIdentityService(w.profiles)
	w.subscriptions = NewSubscriptionService(w.tx, w.plans, w.tenantSubs, w.memberSubs, w.gyms, w.branches, w.profiles, w.notifications, auditor, w.metrics, clock)
	w.tenants = NewTenantService(w.tx, w.gyms, w.branches, w.profiles, codes, w.subscriptions, auditor, w.metrics, "UTC")
	w.members = NewMemberService(w.gyms, w.branches, w.profiles, codes, w.subscriptions, auditor)
	w.scans = NewAttendanceService(w.gyms, w.branches, w.profiles, w.attendance, w.metrics, clock)
	w.classSvc = NewClassService(w.tx, w.branches, w.profiles, w.classes, w.bookings, clock)
	w.workouts = NewWorkoutService(w.profiles, w.workoutPlans, w.programs, w.subscriptions, clock)
	w.library = NewContentService(w.content, w.files, w.subscriptions, 0, clock)
	w.notify = NewNotificationService(w.profiles, w.notifications)
	w.reports = NewReportService(w.gyms, w.branches, w.profiles, w.attendance, w.classes, w.plans, w.tenantSubs, w.memberSubs, w.subscriptions, clock)
	return w
}

// person registers an un-onboarded profile.
func (w *world) person(email string) *domain.Profile {
	p := &domain.Profile{
		Email:     email,
		FirstName: strings.Split(email, "@")[0],
		LastName:  "Test",
		Role:      domain.RoleMember,
		IsActive:  true,
	}
	if _, err := w.profiles.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

// tenant is a gym with its admin and default branch.
type tenant struct {
	gym    *domain.Gym
	admin  domain.Principal
	branch domain.Branch
}

func (w *world) newTenant(name, prefix string) tenant {
	ctx := context.Background()
	founder := w.person(strings.ToLower(prefix) + "-admin@example.com")
	gym, err := w.tenants.CreateTenant(ctx, founder.ID, name, prefix, domain.ContactInfo{})
	if err != nil {
		panic(err)
	}
	principal, _, err := w.identity.Resolve(ctx, founder.ID)
	if err != nil {
		panic(err)
	}
	branches, err := w.branches.ListByGym(ctx, gym.ID)
	if err != nil || len(branches) == 0 {
		panic("tenant without branch")
	}
	return tenant{gym: gym, admin: principal, branch: branches[0]}
}

// staff creates an onboarded person of role in t and returns their principal.
func (w *world) staff(t tenant, role domain.Role, email string) (domain.Principal, *domain.Profile) {
	ctx := context.Background()
	p, _, err := w.members.CreateMember(ctx, t.admin, MemberInput{Email: email, FirstName: strings.Split(email, "@")[0], LastName: "Doe", Role: role})
	if err != nil {
		panic(err)
	}
	return domain.PrincipalOf(p), p
}

// plan creates an active plan and assigns it to t.
func (w *world) plan(t tenant, plan domain.SubscriptionPlan) *domain.SubscriptionPlan {
	ctx := context.Background()
	root := domain.Principal{ProfileID: primitive.NewObjectID(), Role: domain.RoleSuperAdmin, Active: true}
	created, err := w.subscriptions.CreatePlan(ctx, root, plan)
	if err != nil {
		panic(err)
	}
	if _, err := w.subscriptions.AssignPlan(ctx, root, t.gym.ID, created.ID, w.clock.Now(), nil); err != nil {
		panic(err)
	}
	return created
}

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }
