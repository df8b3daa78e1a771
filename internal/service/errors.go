package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/repository"

	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")

	ErrEmailTaken         = fmt.Errorf("%w: email already registered", domain.ErrConflict)
	ErrProfileInactive    = fmt.Errorf("%w: profile is inactive", domain.ErrForbidden)
	ErrProfileNotFound    = fmt.Errorf("%w: profile not found", domain.ErrNotFound)
	ErrNotPermitted       = fmt.Errorf("%w: not permitted", domain.ErrForbidden)
	ErrOnboardingRequired = fmt.Errorf("%w: onboarding required", domain.ErrForbidden)

	ErrGymNotFound      = fmt.Errorf("%w: gym not found", domain.ErrNotFound)
	ErrBranchNotFound   = fmt.Errorf("%w: branch not found", domain.ErrNotFound)
	ErrAlreadyOnboarded = fmt.Errorf("%w: person already belongs to a gym", domain.ErrConflict)
	ErrGymCodeTaken     = fmt.Errorf("%w: could not allocate a unique gym code", domain.ErrConflict)

	ErrMemberNotFound     = fmt.Errorf("%w: member not found", domain.ErrNotFound)
	ErrMemberLimitReached = fmt.Errorf("%w: member limit reached", domain.ErrForbidden)
	ErrBranchLimitReached = fmt.Errorf("%w: branch limit reached", domain.ErrForbidden)
	ErrFeatureNotInPlan   = fmt.Errorf("%w: feature not included in plan", domain.ErrForbidden)

	ErrScanConflict = fmt.Errorf("%w: concurrent scan, please scan again", domain.ErrConflict)

	ErrPlanNotFound = fmt.Errorf("%w: plan not found", domain.ErrNotFound)

	ErrClassNotFound    = fmt.Errorf("%w: class not found", domain.ErrNotFound)
	ErrClassNotBookable = fmt.Errorf("%w: class is not open for booking", domain.ErrConflict)
	ErrAlreadyBooked    = fmt.Errorf("%w: already booked", domain.ErrConflict)
	ErrBookingNotFound  = fmt.Errorf("%w: booking not found", domain.ErrNotFound)

	ErrTemplateNotFound     = fmt.Errorf("%w: workout template not found", domain.ErrNotFound)
	ErrContentNotFound      = fmt.Errorf("%w: content not found", domain.ErrNotFound)
	ErrUploadMissing        = fmt.Errorf("%w: object was not uploaded", domain.ErrValidation)
	ErrNotificationNotFound = fmt.Errorf("%w: notification not found", domain.ErrNotFound)
)

// invalid builds a validation error with a message for the client.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
}

// upstream logs err and wraps it as an upstream failure of op.
func upstream(ctx context.Context, op string, err error) error {
	logger.FromContext(ctx).Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, op, err)
}

// notFoundOr maps repository.ErrNotFound to notFound and anything else to an
// upstream failure.
func notFoundOr(ctx context.Context, op string, err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return upstream(ctx, op, err)
}

// conflict builds a conflict error with a message for the client.
func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrConflict}, args...)...)
}
