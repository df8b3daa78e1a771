package service

import (
	"context"
	"strings"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService sends in-app messages to members.
type NotificationService interface {
	// Send delivers to recipientID, or to the whole gym when it is nil.
	Send(ctx context.Context, p domain.Principal, recipientID *primitive.ObjectID, title, message string, kind domain.NotificationType) (*domain.Notification, error)
	ListForRecipient(ctx context.Context, p domain.Principal) ([]domain.Notification, error)
	MarkRead(ctx context.Context, p domain.Principal, notificationID primitive.ObjectID) error
}

type notificationService struct {
	profiles      repository.ProfileRepository
	notifications repository.NotificationRepository
}

func NewNotificationService(profiles repository.ProfileRepository, notifications repository.NotificationRepository) NotificationService {
	return &notificationService{profiles: profiles, notifications: notifications}
}

func (s *notificationService) Send(ctx context.Context, p domain.Principal, recipientID *primitive.ObjectID, title, message string, kind domain.NotificationType) (*domain.Notification, error) {
	gymID, err := requireCap(p, domain.CapSendNotifications)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, invalid("title and message are required")
	}
	if kind == "" {
		kind = domain.NotificationGeneral
	}
	if recipientID != nil {
		recipient, err := s.profiles.GetByID(ctx, *recipientID)
		if err != nil {
			return nil, notFoundOr(ctx, "load recipient", err, ErrProfileNotFound)
		}
		if !recipient.BelongsTo(gymID) {
			return nil, ErrProfileNotFound
		}
	}

	sender := p.ProfileID
	n := &domain.Notification{
		GymID:       gymID,
		RecipientID: recipientID,
		SenderID:    &sender,
		Title:       title,
		Message:     message,
		Type:        kind,
	}
	if _, err := s.notifications.Create(ctx, n); err != nil {
		return nil, upstream(ctx, "create notification", err)
	}
	return n, nil
}

func (s *notificationService) ListForRecipient(ctx context.Context, p domain.Principal) ([]domain.Notification, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return nil, err
	}
	items, err := s.notifications.ListForRecipient(ctx, gymID, p.ProfileID)
	if err != nil {
		return nil, upstream(ctx, "list notifications", err)
	}
	return items, nil
}

func (s *notificationService) MarkRead(ctx context.Context, p domain.Principal, notificationID primitive.ObjectID) error {
	gymID, err := requireGym(p)
	if err != nil {
		return err
	}
	if err := s.notifications.MarkRead(ctx, gymID, notificationID, p.ProfileID); err != nil {
		return notFoundOr(ctx, "mark notification read", err, ErrNotificationNotFound)
	}
	return nil
}
