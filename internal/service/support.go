package service

import (
	"context"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock
	}
	return c
}

// Auditor writes audit entries. A failed write is logged and otherwise
// ignored.
type Auditor struct {
	repo repository.AuditRepository
}

func NewAuditor(repo repository.AuditRepository) *Auditor {
	return &Auditor{repo: repo}
}

func (a *Auditor) Record(ctx context.Context, action string, gymID *primitive.ObjectID, userID primitive.ObjectID, table string, recordID primitive.ObjectID, values map[string]any) {
	if a == nil || a.repo == nil {
		return
	}
	entry := &domain.AuditEntry{
		Action:    action,
		GymID:     gymID,
		UserID:    userID,
		Table:     table,
		RecordID:  recordID,
		NewValues: values,
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		logger.FromContext(ctx).Warn("audit write failed",
			zap.String("action", action),
			zap.String("record_id", recordID.Hex()),
			zap.Error(err),
		)
	}
}

// requireGym returns the principal's gym or ErrOnboardingRequired.
func requireGym(p domain.Principal) (primitive.ObjectID, error) {
	if !p.Onboarded() {
		return primitive.NilObjectID, ErrOnboardingRequired
	}
	return *p.GymID, nil
}

// requireCap checks that p is onboarded and holds c.
func requireCap(p domain.Principal, c domain.Capability) (primitive.ObjectID, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return gymID, err
	}
	if !p.Can(c) {
		return gymID, ErrNotPermitted
	}
	return gymID, nil
}
